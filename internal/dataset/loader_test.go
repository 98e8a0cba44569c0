package dataset

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticDataset(n int) *Dataset {
	samples := make([]Sample, n)
	for i := range samples {
		raw := make([]byte, pixelBytes)
		for j := range raw {
			raw[j] = byte(i)
		}
		samples[i] = Sample{Raw: raw, Label: i % NumClasses}
	}
	return FromSamples(samples)
}

func drainLabels(t *testing.T, l *Loader) []int {
	t.Helper()
	var labels []int
	for {
		b, err := l.Next(context.Background())
		if err == io.EOF {
			return labels
		}
		require.NoError(t, err)
		labels = append(labels, b.Labels...)
	}
}

func TestLoaderBatchShapes(t *testing.T) {
	l := NewLoader(syntheticDataset(10), LoaderOptions{BatchSize: 4})
	b, err := l.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, b.N)
	assert.Equal(t, NumChannels, b.C)
	assert.Equal(t, ImageSize, b.H)
	assert.Equal(t, ImageSize, b.W)
}

func TestLoaderKeepsShortFinalBatch(t *testing.T) {
	l := NewLoader(syntheticDataset(10), LoaderOptions{BatchSize: 4})
	labels := drainLabels(t, l)
	assert.Len(t, labels, 10)
}

func TestLoaderDropLast(t *testing.T) {
	l := NewLoader(syntheticDataset(10), LoaderOptions{BatchSize: 4, DropLast: true})
	labels := drainLabels(t, l)
	assert.Len(t, labels, 8)
	assert.Equal(t, 2, l.Steps())
}

func TestLoaderShuffleDeterministicPerSeed(t *testing.T) {
	a := drainLabels(t, NewLoader(syntheticDataset(20), LoaderOptions{BatchSize: 5, Shuffle: true, Seed: 11}))
	b := drainLabels(t, NewLoader(syntheticDataset(20), LoaderOptions{BatchSize: 5, Shuffle: true, Seed: 11}))
	assert.Equal(t, a, b)
}

func TestLoaderReshufflesAcrossEpochs(t *testing.T) {
	l := NewLoader(syntheticDataset(40), LoaderOptions{BatchSize: 8, Shuffle: true, Seed: 3})
	first := drainLabels(t, l)
	l.Reset()
	second := drainLabels(t, l)
	assert.NotEqual(t, first, second)
	assert.ElementsMatch(t, first, second)
}

func TestLoaderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(syntheticDataset(4), LoaderOptions{BatchSize: 2})
	_, err := l.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
