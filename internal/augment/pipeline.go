// Package augment applies randomized whole-batch image perturbations.
//
// Transforms operate on an entire NxCxHxW batch at once rather than per
// sample inside a loading worker, so a run pays for one parameter draw
// and one pass over the buffer per step. Every random decision (the
// probability gates and the sampled transform parameters) is made once
// per invocation and applied batch-wide.
package augment

import (
	"math/rand"

	"augforge/internal/tensor"
)

// DefaultProb is the gate probability used by the demo pipeline.
const DefaultProb = 0.75

// Options configures a Pipeline. Zero probabilities disable a stage.
type Options struct {
	FlipProb    float64
	ShuffleProb float64
	WarpProb    float64
	// WarpScale bounds the control-point displacement of the spline
	// warp, in normalized image coordinates.
	WarpScale float64

	// ApplyColorJitter enables the jitter stage. Off by default; when
	// off the stage is a bit-exact no-op.
	ApplyColorJitter bool
	Jitter           JitterFactors

	Seed int64
}

// JitterFactors bound the sampled color perturbations.
type JitterFactors struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
}

// DefaultOptions mirrors the demo constants: flip, shuffle and warp each
// gated at 0.75, jitter factors of 0.5 but disabled.
func DefaultOptions(seed int64) Options {
	return Options{
		FlipProb:    DefaultProb,
		ShuffleProb: DefaultProb,
		WarpProb:    DefaultProb,
		WarpScale:   0.2,
		Jitter:      JitterFactors{Brightness: 0.5, Contrast: 0.5, Saturation: 0.5, Hue: 0.5},
		Seed:        seed,
	}
}

// Pipeline applies horizontal flip, channel shuffle, spline warp and
// optional color jitter, in that fixed order. It carries no gradient
// machinery; outputs are plain buffers.
type Pipeline struct {
	opts Options
	rng  *rand.Rand
}

// New builds a pipeline with its own seeded generator.
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts, rng: rand.New(rand.NewSource(opts.Seed))}
}

// Apply returns a perturbed copy of b. The input batch is not modified
// and the output shape always equals the input shape.
func (p *Pipeline) Apply(b *tensor.Batch) *tensor.Batch {
	out := b.Clone()

	if p.rng.Float64() < p.opts.FlipProb {
		flipHorizontal(out)
	}
	if p.rng.Float64() < p.opts.ShuffleProb {
		shuffleChannels(out, p.rng.Perm(out.C))
	}
	if p.rng.Float64() < p.opts.WarpProb {
		spline := newThinPlateSpline(p.rng, warpGridSize, p.opts.WarpScale)
		warp(out, spline)
	}
	if p.opts.ApplyColorJitter {
		applyColorJitter(out, sampleJitter(p.rng, p.opts.Jitter))
	}
	return out
}
