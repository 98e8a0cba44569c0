package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackShapes(t *testing.T) {
	images := []Image{NewImage(3, 4, 4), NewImage(3, 4, 4)}
	images[0].Set(1, 2, 3, 0.5)

	b, err := Stack(images, []int{7, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, b.N)
	assert.Equal(t, 3, b.C)
	assert.Equal(t, float32(0.5), b.At(0, 1, 2, 3))
	assert.Equal(t, []int{7, 2}, b.Labels)
}

func TestStackRejectsMismatchedShapes(t *testing.T) {
	images := []Image{NewImage(3, 4, 4), NewImage(3, 8, 8)}
	_, err := Stack(images, []int{0, 1})
	require.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBatch(1, 3, 2, 2)
	b.Set(0, 0, 0, 0, 1)
	c := b.Clone()
	c.Set(0, 0, 0, 0, 9)
	c.Labels[0] = 5

	assert.Equal(t, float32(1), b.At(0, 0, 0, 0))
	assert.Equal(t, 0, b.Labels[0])
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3, 1000})
	sum := float32(0)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, float32(0))
		sum += p
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-5)
	assert.Greater(t, probs[3], probs[0])
}
