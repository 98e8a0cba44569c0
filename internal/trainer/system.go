// Package trainer wires the model, augmentation pipeline and data
// loaders into training and validation steps, and drives them through
// epochs.
package trainer

import (
	"fmt"

	"augforge/internal/augment"
	"augforge/internal/dataset"
	"augforge/internal/metrics"
	"augforge/internal/model"
	"augforge/internal/optim"
	"augforge/internal/tensor"
)

// System owns the per-step training and validation logic. Dependencies
// are injected at construction; the driver only sees the Module
// interface.
type System struct {
	model    model.Classifier
	augment  *augment.Pipeline
	train    *dataset.Loader
	val      *dataset.Loader
	rec      *metrics.Recorder
	optCfg   optim.AdamWConfig
	trainAcc metrics.Accuracy
	valAcc   metrics.Accuracy
	epoch    int
}

// NewSystem assembles an orchestrator. rec may be nil to disable metric
// recording (used by show-batch and tests).
func NewSystem(m model.Classifier, aug *augment.Pipeline, train, val *dataset.Loader, rec *metrics.Recorder, optCfg optim.AdamWConfig) *System {
	return &System{
		model:   m,
		augment: aug,
		train:   train,
		val:     val,
		rec:     rec,
		optCfg:  optCfg,
	}
}

// Forward runs the model and returns softmax class probabilities.
func (s *System) Forward(b *tensor.Batch) [][]float32 {
	return s.model.Forward(b)
}

// TrainingStep augments the batch, runs the model, records train_loss
// and train_acc, and accumulates gradients for the optimizer.
func (s *System) TrainingStep(b *tensor.Batch, idx int) (float32, error) {
	aug := s.augment.Apply(b)
	probs := s.model.Forward(aug)
	loss := s.model.Backward(aug, probs)
	s.trainAcc.Update(probs, aug.Labels)

	if err := s.record(idx, "train_loss", float64(loss)); err != nil {
		return 0, err
	}
	if err := s.record(idx, "train_acc", s.trainAcc.Compute()); err != nil {
		return 0, err
	}
	return loss, nil
}

// ValidationStep runs the model on the un-augmented batch and records
// valid_loss and valid_acc. Parameters and gradients are untouched.
func (s *System) ValidationStep(b *tensor.Batch, idx int) (float32, error) {
	probs := s.model.Forward(b)
	loss := model.CrossEntropy(probs, b.Labels)
	s.valAcc.Update(probs, b.Labels)

	if err := s.record(idx, "valid_loss", float64(loss)); err != nil {
		return 0, err
	}
	if err := s.record(idx, "valid_acc", s.valAcc.Compute()); err != nil {
		return 0, err
	}
	return loss, nil
}

// ConfigureOptimizers pairs AdamW over the model parameters with a
// cosine-annealing schedule spanning the run and decaying to zero.
func (s *System) ConfigureOptimizers(totalEpochs int) (*optim.AdamW, *optim.CosineAnnealing) {
	opt := optim.NewAdamW(s.model.Parameters(), s.optCfg)
	sched := optim.NewCosineAnnealing(s.optCfg.LR, totalEpochs)
	return opt, sched
}

// TrainLoader returns the training mini-batch source.
func (s *System) TrainLoader() *dataset.Loader { return s.train }

// ValLoader returns the validation mini-batch source.
func (s *System) ValLoader() *dataset.Loader { return s.val }

// BeginEpoch rewinds both loaders and resets the accuracy accumulators.
func (s *System) BeginEpoch(epoch int) {
	s.epoch = epoch
	s.trainAcc.Reset()
	s.valAcc.Reset()
	s.train.Reset()
	s.val.Reset()
}

// ValidAccuracy is the running validation accuracy for the epoch. It
// drives the progress display.
func (s *System) ValidAccuracy() float64 { return s.valAcc.Compute() }

func (s *System) record(step int, name string, value float64) error {
	if s.rec == nil {
		return nil
	}
	if err := s.rec.Log(s.epoch, step, name, value); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return nil
}
