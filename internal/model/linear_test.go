package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augforge/internal/tensor"
)

func tinyBatch() *tensor.Batch {
	b := tensor.NewBatch(2, 1, 2, 2)
	copy(b.Data, []float32{0.1, 0.2, 0.3, 0.4, 0.4, 0.3, 0.2, 0.1})
	b.Labels = []int{1, 2}
	return b
}

func TestForwardRowsAreDistributions(t *testing.T) {
	m := NewLinear(3, 4, 1)
	probs := m.Forward(tinyBatch())
	require.Len(t, probs, 2)
	for _, row := range probs {
		require.Len(t, row, 3)
		sum := float32(0)
		for _, p := range row {
			assert.GreaterOrEqual(t, p, float32(0))
			sum += p
		}
		assert.InDelta(t, 1.0, float64(sum), 1e-5)
	}
}

func TestForwardDoesNotMutateParameters(t *testing.T) {
	m := NewLinear(3, 4, 1)
	before := append([]float32(nil), m.weight.Value...)
	m.Forward(tinyBatch())
	assert.Equal(t, before, m.weight.Value)
}

func TestCrossEntropyNonNegative(t *testing.T) {
	m := NewLinear(3, 4, 1)
	b := tinyBatch()
	loss := m.Backward(b, m.Forward(b))
	assert.GreaterOrEqual(t, loss, float32(0))
}

func TestGradientStepReducesLoss(t *testing.T) {
	m := NewLinear(3, 4, 1)
	b := tinyBatch()

	probs := m.Forward(b)
	loss1 := m.Backward(b, probs)
	for _, p := range m.Parameters() {
		for i := range p.Value {
			p.Value[i] -= 0.5 * p.Grad[i]
		}
		p.ZeroGrad()
	}
	loss2 := m.Backward(b, m.Forward(b))

	assert.Less(t, loss2, loss1)
}

func TestBackwardAccumulates(t *testing.T) {
	m := NewLinear(3, 4, 1)
	b := tinyBatch()
	probs := m.Forward(b)
	m.Backward(b, probs)
	once := append([]float32(nil), m.bias.Grad...)
	m.Backward(b, probs)
	for i := range once {
		assert.InDelta(t, float64(2*once[i]), float64(m.bias.Grad[i]), 1e-6)
	}
}
