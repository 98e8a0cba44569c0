package model

import (
	"math"

	"augforge/internal/tensor"
)

// Param is one named parameter tensor with its accumulated gradient.
type Param struct {
	Name  string
	Value []float32
	Grad  []float32
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// Classifier is the minimal contract the training orchestrator needs.
// Forward never mutates parameters; Backward accumulates gradients and
// returns the mean cross-entropy loss; the optimizer owns the update.
type Classifier interface {
	Forward(b *tensor.Batch) [][]float32
	Backward(b *tensor.Batch, probs [][]float32) float32
	Parameters() []*Param
	NumClasses() int
}

// CrossEntropy is the mean negative log-likelihood of the true labels
// under the given probability rows.
func CrossEntropy(probs [][]float32, labels []int) float32 {
	if len(probs) == 0 {
		return 0
	}
	total := 0.0
	for i, row := range probs {
		p := row[labels[i]]
		total += -math.Log(math.Max(float64(p), 1e-9))
	}
	return float32(total / float64(len(probs)))
}
