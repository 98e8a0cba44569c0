// Package optim provides the optimizer and learning-rate schedule used
// by the training loop.
package optim

import (
	"math"

	"augforge/internal/model"
)

// AdamW implements Adam with decoupled weight decay. Moment buffers are
// kept per parameter and bias-corrected by step count.
type AdamW struct {
	params      []*model.Param
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	step        int

	m map[string][]float32
	v map[string][]float32
}

// AdamWConfig carries the optimizer hyperparameters.
type AdamWConfig struct {
	LR          float32
	Beta1       float32
	Beta2       float32
	Eps         float32
	WeightDecay float32
}

// DefaultAdamWConfig matches the demo run: lr 1e-4 and the usual betas.
func DefaultAdamWConfig() AdamWConfig {
	return AdamWConfig{LR: 1e-4, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8, WeightDecay: 0.01}
}

// NewAdamW builds the optimizer over params.
func NewAdamW(params []*model.Param, cfg AdamWConfig) *AdamW {
	if cfg.LR <= 0 {
		cfg.LR = 1e-4
	}
	if cfg.Beta1 <= 0 {
		cfg.Beta1 = 0.9
	}
	if cfg.Beta2 <= 0 {
		cfg.Beta2 = 0.999
	}
	if cfg.Eps <= 0 {
		cfg.Eps = 1e-8
	}
	return &AdamW{
		params:      params,
		lr:          cfg.LR,
		beta1:       cfg.Beta1,
		beta2:       cfg.Beta2,
		eps:         cfg.Eps,
		weightDecay: cfg.WeightDecay,
		m:           make(map[string][]float32),
		v:           make(map[string][]float32),
	}
}

// LR returns the current learning rate.
func (o *AdamW) LR() float32 { return o.lr }

// SetLR installs a new learning rate; the schedule calls this per epoch.
func (o *AdamW) SetLR(lr float32) { o.lr = lr }

// Step applies one update from the accumulated gradients and zeroes
// them afterwards.
func (o *AdamW) Step() {
	o.step++
	bc1 := 1 - float32(math.Pow(float64(o.beta1), float64(o.step)))
	bc2 := 1 - float32(math.Pow(float64(o.beta2), float64(o.step)))

	for _, p := range o.params {
		if o.m[p.Name] == nil {
			o.m[p.Name] = make([]float32, len(p.Value))
			o.v[p.Name] = make([]float32, len(p.Value))
		}
		m, v := o.m[p.Name], o.v[p.Name]
		for i := range p.Value {
			g := p.Grad[i]
			m[i] = o.beta1*m[i] + (1-o.beta1)*g
			v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			p.Value[i] -= o.lr * (mHat/(float32(math.Sqrt(float64(vHat)))+o.eps) + o.weightDecay*p.Value[i])
		}
		p.ZeroGrad()
	}
}
