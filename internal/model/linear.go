package model

import (
	"math/rand"

	"augforge/internal/tensor"
)

// Linear is a softmax classifier over flattened pixels. Not a strong
// model; it stands in for the pretrained network so the training
// pipeline around it can be exercised end to end.
type Linear struct {
	numClasses int
	inFeatures int
	weight     *Param
	bias       *Param
}

// NewLinear constructs the classifier with small random weights.
func NewLinear(numClasses, inFeatures int, seed int64) *Linear {
	rng := rand.New(rand.NewSource(seed))
	weight := make([]float32, numClasses*inFeatures)
	for i := range weight {
		weight[i] = float32(rng.Float64()*2-1) * 0.01
	}
	return &Linear{
		numClasses: numClasses,
		inFeatures: inFeatures,
		weight: &Param{
			Name:  "weight",
			Value: weight,
			Grad:  make([]float32, len(weight)),
		},
		bias: &Param{
			Name:  "bias",
			Value: make([]float32, numClasses),
			Grad:  make([]float32, numClasses),
		},
	}
}

// NumClasses returns the size of the output distribution.
func (m *Linear) NumClasses() int { return m.numClasses }

// Parameters exposes weight and bias for the optimizer.
func (m *Linear) Parameters() []*Param { return []*Param{m.weight, m.bias} }

// Forward computes softmax probabilities per sample. Parameters are
// read-only here.
func (m *Linear) Forward(b *tensor.Batch) [][]float32 {
	out := make([][]float32, b.N)
	for n := 0; n < b.N; n++ {
		input := b.Sample(n)
		logits := make([]float32, m.numClasses)
		for c := 0; c < m.numClasses; c++ {
			sum := m.bias.Value[c]
			wStart := c * m.inFeatures
			for j := 0; j < m.inFeatures; j++ {
				sum += m.weight.Value[wStart+j] * input[j]
			}
			logits[c] = sum
		}
		out[n] = tensor.Softmax(logits)
	}
	return out
}

// Backward accumulates softmax cross-entropy gradients for the batch
// and returns the mean loss. probs must come from Forward on the same
// batch.
func (m *Linear) Backward(b *tensor.Batch, probs [][]float32) float32 {
	loss := CrossEntropy(probs, b.Labels)
	scale := 1 / float32(b.N)
	for n := 0; n < b.N; n++ {
		input := b.Sample(n)
		label := b.Labels[n]
		for c := 0; c < m.numClasses; c++ {
			g := probs[n][c]
			if c == label {
				g -= 1
			}
			g *= scale
			m.bias.Grad[c] += g
			wStart := c * m.inFeatures
			for j := 0; j < m.inFeatures; j++ {
				m.weight.Grad[wStart+j] += g * input[j]
			}
		}
	}
	return loss
}
