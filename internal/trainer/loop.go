package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"augforge/internal/dataset"
	"augforge/internal/metrics"
	"augforge/internal/optim"
	"augforge/internal/tensor"
)

// Module is what the driver needs from an orchestrator: plain step
// functions and loader accessors, no lifecycle inheritance.
type Module interface {
	TrainingStep(b *tensor.Batch, idx int) (float32, error)
	ValidationStep(b *tensor.Batch, idx int) (float32, error)
	ConfigureOptimizers(totalEpochs int) (*optim.AdamW, *optim.CosineAnnealing)
	TrainLoader() *dataset.Loader
	ValLoader() *dataset.Loader
	BeginEpoch(epoch int)
}

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs   int
	LogEvery int
}

// Run executes the full training workload: for each epoch one pass over
// the training loader with optimizer steps, then one validation pass.
// Steps are synchronous; a non-finite loss aborts the run.
func Run(ctx context.Context, mod Module, cfg RunConfig) error {
	if cfg.Epochs <= 0 {
		return errors.New("trainer: epochs must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}

	opt, sched := mod.ConfigureOptimizers(cfg.Epochs)
	var window metrics.Window

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		lr := sched.LR(epoch)
		opt.SetLR(lr)
		mod.BeginEpoch(epoch)

		if err := trainEpoch(ctx, mod, opt, &window, epoch, lr, cfg.LogEvery); err != nil {
			return err
		}
		if err := validateEpoch(ctx, mod, epoch); err != nil {
			return err
		}
	}
	return nil
}

func trainEpoch(ctx context.Context, mod Module, opt *optim.AdamW, window *metrics.Window, epoch int, lr float32, logEvery int) error {
	loader := mod.TrainLoader()
	step := 0
	for {
		startData := time.Now()
		batch, err := loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("epoch %d: load batch: %w", epoch, err)
		}
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss, err := mod.TrainingStep(batch, step)
		if err != nil {
			return fmt.Errorf("epoch %d step %d: %w", epoch, step, err)
		}
		if !finite(loss) {
			return fmt.Errorf("epoch %d step %d: non-finite loss %f", epoch, step, loss)
		}
		opt.Step()
		computeTime := time.Since(startCompute)

		window.Record(batch.N, dataTime, computeTime, float64(loss))
		step++

		if step%logEvery == 0 {
			snap := window.Snapshot()
			log.Info("train",
				"epoch", epoch,
				"step", step,
				"loss", fmt.Sprintf("%.4f", snap.AvgLoss),
				"images_per_sec", fmt.Sprintf("%.1f", snap.ImagesPerSec),
				"data_ms", fmt.Sprintf("%.2f", snap.AvgDataMS),
				"compute_ms", fmt.Sprintf("%.2f", snap.AvgComputeMS),
				"lr", fmt.Sprintf("%.2e", lr),
			)
		}
	}
}

func validateEpoch(ctx context.Context, mod Module, epoch int) error {
	loader := mod.ValLoader()
	step := 0
	lossSum := 0.0
	for {
		batch, err := loader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("epoch %d: load validation batch: %w", epoch, err)
		}
		loss, err := mod.ValidationStep(batch, step)
		if err != nil {
			return fmt.Errorf("epoch %d validation step %d: %w", epoch, step, err)
		}
		if !finite(loss) {
			return fmt.Errorf("epoch %d validation step %d: non-finite loss %f", epoch, step, loss)
		}
		lossSum += float64(loss)
		step++
	}
	if step > 0 {
		log.Info("validate", "epoch", epoch, "valid_loss", fmt.Sprintf("%.4f", lossSum/float64(step)))
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
