package trainer

import (
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augforge/internal/augment"
	"augforge/internal/dataset"
	"augforge/internal/metrics"
	"augforge/internal/model"
	"augforge/internal/optim"
)

// solidSamples builds n solid-color CIFAR records cycling through the
// given labels.
func solidSamples(n int, labels ...int) []dataset.Sample {
	samples := make([]dataset.Sample, n)
	for i := range samples {
		raw := make([]byte, dataset.NumChannels*dataset.ImageSize*dataset.ImageSize)
		for j := range raw {
			raw[j] = byte(40 * (i + 1))
		}
		samples[i] = dataset.Sample{Raw: raw, Label: labels[i%len(labels)]}
	}
	return samples
}

func newTestSystem(t *testing.T, rec *metrics.Recorder, jitter bool) *System {
	t.Helper()
	opts := augment.DefaultOptions(1)
	opts.ApplyColorJitter = jitter

	ds := dataset.FromSamples(solidSamples(8, 0, 1))
	train := dataset.NewLoader(ds, dataset.LoaderOptions{BatchSize: 4, Shuffle: true, Seed: 1})
	val := dataset.NewLoader(ds, dataset.LoaderOptions{BatchSize: 4})

	m := model.NewLinear(dataset.NumClasses, dataset.NumChannels*dataset.ImageSize*dataset.ImageSize, 1)
	return NewSystem(m, augment.New(opts), train, val, rec, optim.DefaultAdamWConfig())
}

func TestEndToEndSolidColorBatch(t *testing.T) {
	// Four solid-color 32x32x3 images with two distinct labels through
	// preprocess, augmentation (jitter off) and forward.
	s := newTestSystem(t, nil, false)
	batch, err := s.TrainLoader().Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, batch.N)

	probs := s.Forward(s.augment.Apply(batch))
	require.Len(t, probs, 4)
	for _, row := range probs {
		require.Len(t, row, dataset.NumClasses)
		sum := float32(0)
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, float64(sum), 1e-5)
	}
}

func TestTrainingStepLossNonNegative(t *testing.T) {
	s := newTestSystem(t, nil, false)
	batch, err := s.TrainLoader().Next(context.Background())
	require.NoError(t, err)

	loss, err := s.TrainingStep(batch, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, loss, float32(0))
}

func TestValidationStepDoesNotMutateParameters(t *testing.T) {
	s := newTestSystem(t, nil, false)
	batch, err := s.ValLoader().Next(context.Background())
	require.NoError(t, err)

	var snapshots [][]float32
	for _, p := range s.model.Parameters() {
		snapshots = append(snapshots, append([]float32(nil), p.Value...))
	}

	_, err = s.ValidationStep(batch, 0)
	require.NoError(t, err)

	for i, p := range s.model.Parameters() {
		assert.Equal(t, snapshots[i], p.Value, "parameter %s changed", p.Name)
	}
}

func TestConfigureOptimizers(t *testing.T) {
	s := newTestSystem(t, nil, false)
	opt, sched := s.ConfigureOptimizers(10)
	require.NotNil(t, opt)
	require.NotNil(t, sched)
	assert.Equal(t, float32(1e-4), sched.LR(0))
	assert.Equal(t, float32(0), sched.LR(10))
}

func TestRunRecordsMetrics(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec, err := metrics.NewRecorder(fs, "logs", "test")
	require.NoError(t, err)

	s := newTestSystem(t, rec, false)
	require.NoError(t, Run(context.Background(), s, RunConfig{Epochs: 2, LogEvery: 100}))
	require.NoError(t, rec.Close())

	f, err := fs.Open(filepath.Join(rec.Dir(), metrics.MetricsFile))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	names := map[string]int{}
	for _, row := range rows[1:] {
		names[row[3]]++
	}
	// 2 epochs x 2 train batches and 2 val batches, two metrics each.
	assert.Equal(t, 4, names["train_loss"])
	assert.Equal(t, 4, names["train_acc"])
	assert.Equal(t, 4, names["valid_loss"])
	assert.Equal(t, 4, names["valid_acc"])
}

func TestRunHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestSystem(t, nil, false)
	err := Run(ctx, s, RunConfig{Epochs: 1})
	require.Error(t, err)
}

func TestRunRejectsZeroEpochs(t *testing.T) {
	s := newTestSystem(t, nil, false)
	require.Error(t, Run(context.Background(), s, RunConfig{}))
}
