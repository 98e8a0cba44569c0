// Command augforge trains a CIFAR-10 classifier with batched image
// augmentation, logs scalar metrics to a per-run CSV file, and renders
// the results for inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"augforge/internal/augment"
	"augforge/internal/config"
	"augforge/internal/dataset"
	"augforge/internal/metrics"
	"augforge/internal/model"
	"augforge/internal/optim"
	"augforge/internal/report"
	"augforge/internal/trainer"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Fatal("command failed", "err", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "augforge",
		Short:         "Batched image augmentation training demo on CIFAR-10",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTrainCmd(), newReportCmd(), newShowBatchCmd())
	return root
}

// configFromFlags loads the YAML config and applies flag overrides.
func configFromFlags(cfgPath string, o config.Overrides) (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// prepareData downloads the dataset if needed and returns train and
// validation loaders.
func prepareData(ctx context.Context, cfg *config.Config) (*dataset.Loader, *dataset.Loader, error) {
	url := cfg.DatasetURL
	if url == "" {
		url = dataset.DefaultURL
	}
	if !dataset.Present(cfg.DataDir) {
		log.Info("downloading dataset", "url", url, "dir", cfg.DataDir)
	}
	if err := dataset.Download(ctx, url, cfg.DataDir); err != nil {
		return nil, nil, err
	}

	trainSet, err := dataset.LoadTrain(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	valSet, err := dataset.LoadTest(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	log.Info("dataset ready", "train", trainSet.Len(), "val", valSet.Len())

	trainLoader := dataset.NewLoader(trainSet, dataset.LoaderOptions{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		DropLast:  true,
		Seed:      cfg.Seed,
	})
	valLoader := dataset.NewLoader(valSet, dataset.LoaderOptions{
		BatchSize: cfg.BatchSize,
	})
	return trainLoader, valLoader, nil
}

func buildPipeline(cfg *config.Config) *augment.Pipeline {
	opts := augment.DefaultOptions(cfg.Seed)
	opts.FlipProb = cfg.AugProb
	opts.ShuffleProb = cfg.AugProb
	opts.WarpProb = cfg.AugProb
	opts.ApplyColorJitter = cfg.ColorJitter
	return augment.New(opts)
}

func newTrainCmd() *cobra.Command {
	var cfgPath string
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune the classifier with batched augmentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cfgPath, o)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			trainLoader, valLoader, err := prepareData(ctx, cfg)
			if err != nil {
				return err
			}

			rec, err := metrics.NewRecorder(afero.NewOsFs(), cfg.LogDir, cfg.RunName)
			if err != nil {
				return err
			}
			defer rec.Close()
			log.Info("run started", "run_id", rec.RunID(), "dir", rec.Dir())

			optCfg := optim.DefaultAdamWConfig()
			optCfg.LR = float32(cfg.LearningRate)

			inFeatures := dataset.NumChannels * dataset.ImageSize * dataset.ImageSize
			sys := trainer.NewSystem(
				model.NewLinear(dataset.NumClasses, inFeatures, cfg.Seed),
				buildPipeline(cfg),
				trainLoader, valLoader, rec, optCfg,
			)

			runCfg := trainer.RunConfig{Epochs: cfg.Epochs, LogEvery: cfg.LogEvery}
			if err := trainer.Run(ctx, sys, runCfg); err != nil {
				return err
			}
			if err := rec.Flush(); err != nil {
				return err
			}
			log.Info("run finished", "valid_acc", fmt.Sprintf("%.4f", sys.ValidAccuracy()), "metrics", filepath.Join(rec.Dir(), metrics.MetricsFile))
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config")
	cmd.Flags().StringVar(&o.DataDir, "data-dir", "", "Override dataset directory")
	cmd.Flags().StringVar(&o.LogDir, "log-dir", "", "Override metric log directory")
	cmd.Flags().StringVar(&o.RunName, "run-name", "", "Override run name")
	cmd.Flags().IntVar(&o.Epochs, "epochs", 0, "Number of epochs")
	cmd.Flags().IntVar(&o.BatchSize, "batch-size", 0, "Batch size")
	cmd.Flags().Int64Var(&o.Seed, "seed", 0, "PRNG seed")
	cmd.Flags().IntVar(&o.LogEvery, "log-every", 0, "Log every N steps")
	cmd.Flags().BoolVar(&o.ColorJitter, "color-jitter", false, "Enable the color jitter stage")
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <run-dir>",
		Short: "Aggregate a run's metrics by epoch and chart them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()
			rows, err := report.Load(fs, filepath.Join(args[0], metrics.MetricsFile))
			if err != nil {
				return err
			}
			agg := report.AggregateByEpoch(rows)

			losses := report.RenderCharts(
				report.RenderChart("train_loss", agg.Series("train_loss")),
				report.RenderChart("valid_loss", agg.Series("valid_loss")),
			)
			accs := report.RenderCharts(
				report.RenderChart("train_acc", agg.Series("train_acc")),
				report.RenderChart("valid_acc", agg.Series("valid_acc")),
			)
			fmt.Fprintln(cmd.OutOrStdout(), losses)
			fmt.Fprintln(cmd.OutOrStdout(), accs)
			return nil
		},
	}
	return cmd
}

func newShowBatchCmd() *cobra.Command {
	var cfgPath, outDir string
	var o config.Overrides

	cmd := &cobra.Command{
		Use:   "show-batch",
		Short: "Write PNG grids of one batch before and after augmentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cfgPath, o)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			trainLoader, _, err := prepareData(ctx, cfg)
			if err != nil {
				return err
			}
			batch, err := trainLoader.Next(ctx)
			if err != nil {
				return err
			}
			augmented := buildPipeline(cfg).Apply(batch)

			fs := afero.NewOsFs()
			if err := fs.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			rawPath := filepath.Join(outDir, "batch.png")
			augPath := filepath.Join(outDir, "batch_augmented.png")
			if err := report.SaveGrid(fs, batch, 8, rawPath); err != nil {
				return err
			}
			if err := report.SaveGrid(fs, augmented, 8, augPath); err != nil {
				return err
			}
			log.Info("grids written", "raw", rawPath, "augmented", augPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config")
	cmd.Flags().StringVar(&outDir, "out", "viz", "Output directory for grids")
	cmd.Flags().StringVar(&o.DataDir, "data-dir", "", "Override dataset directory")
	cmd.Flags().IntVar(&o.BatchSize, "batch-size", 0, "Batch size")
	cmd.Flags().Int64Var(&o.Seed, "seed", 0, "PRNG seed")
	cmd.Flags().BoolVar(&o.ColorJitter, "color-jitter", false, "Enable the color jitter stage")
	return cmd
}
