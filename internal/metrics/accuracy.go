package metrics

// Accuracy accumulates top-1 accuracy over probability rows.
type Accuracy struct {
	correct int
	total   int
}

// Update scores one batch of predictions against its labels.
func (a *Accuracy) Update(probs [][]float32, labels []int) {
	for i, row := range probs {
		if argmax(row) == labels[i] {
			a.correct++
		}
		a.total++
	}
}

// Compute returns the running accuracy, zero before any update.
func (a *Accuracy) Compute() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.correct) / float64(a.total)
}

// Reset clears the accumulator for the next epoch.
func (a *Accuracy) Reset() {
	a.correct = 0
	a.total = 0
}

func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
