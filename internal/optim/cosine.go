package optim

import "math"

// CosineAnnealing decays the learning rate from its base value to
// EtaMin over Total epochs following half a cosine period.
type CosineAnnealing struct {
	Base   float32
	EtaMin float32
	Total  int
}

// NewCosineAnnealing builds a schedule decaying to zero, the shape the
// demo run uses.
func NewCosineAnnealing(base float32, totalEpochs int) *CosineAnnealing {
	if totalEpochs <= 0 {
		totalEpochs = 1
	}
	return &CosineAnnealing{Base: base, Total: totalEpochs}
}

// LR returns the learning rate for the given zero-based epoch.
func (s *CosineAnnealing) LR(epoch int) float32 {
	if epoch >= s.Total {
		return s.EtaMin
	}
	t := float64(epoch) / float64(s.Total)
	return s.EtaMin + (s.Base-s.EtaMin)*float32((1+math.Cos(math.Pi*t))/2)
}
