package augment

import (
	"math"
	"math/rand"

	"augforge/internal/tensor"
)

// flipHorizontal mirrors every sample along the width axis, in place.
func flipHorizontal(b *tensor.Batch) {
	for n := 0; n < b.N; n++ {
		for c := 0; c < b.C; c++ {
			for y := 0; y < b.H; y++ {
				for x0, x1 := 0, b.W-1; x0 < x1; x0, x1 = x0+1, x1-1 {
					v0, v1 := b.At(n, c, y, x0), b.At(n, c, y, x1)
					b.Set(n, c, y, x0, v1)
					b.Set(n, c, y, x1, v0)
				}
			}
		}
	}
}

// shuffleChannels reorders color channels so output channel c holds what
// was channel perm[c]. The identity permutation is a valid draw.
func shuffleChannels(b *tensor.Batch, perm []int) {
	plane := b.H * b.W
	src := make([]float32, b.C*plane)
	for n := 0; n < b.N; n++ {
		sample := b.Sample(n)
		copy(src, sample)
		for c, from := range perm {
			copy(sample[c*plane:(c+1)*plane], src[from*plane:(from+1)*plane])
		}
	}
}

type jitterParams struct {
	brightness float32
	contrast   float32
	saturation float32
	hue        float32
}

// sampleJitter draws one factor per property. Multiplicative factors are
// uniform in [1-f, 1+f] (floored at 0); hue is a shift in [-f, f] turns.
func sampleJitter(rng *rand.Rand, f JitterFactors) jitterParams {
	mul := func(bound float64) float32 {
		lo := math.Max(0, 1-bound)
		hi := 1 + bound
		return float32(lo + rng.Float64()*(hi-lo))
	}
	return jitterParams{
		brightness: mul(f.Brightness),
		contrast:   mul(f.Contrast),
		saturation: mul(f.Saturation),
		hue:        float32((rng.Float64()*2 - 1) * f.Hue),
	}
}

// applyColorJitter adjusts brightness, contrast, saturation and hue with
// one shared parameter draw for the whole batch. Values may leave [0,1];
// callers that need display-safe pixels clamp at render time.
func applyColorJitter(b *tensor.Batch, p jitterParams) {
	plane := b.H * b.W
	for n := 0; n < b.N; n++ {
		sample := b.Sample(n)

		for i := range sample {
			sample[i] *= p.brightness
		}

		mean := grayMean(sample, plane)
		for i := range sample {
			sample[i] = (sample[i]-mean)*p.contrast + mean
		}

		for i := 0; i < plane; i++ {
			r, g, bl := sample[i], sample[plane+i], sample[2*plane+i]
			gray := luminance(r, g, bl)
			r = gray + (r-gray)*p.saturation
			g = gray + (g-gray)*p.saturation
			bl = gray + (bl-gray)*p.saturation
			if p.hue != 0 {
				r, g, bl = shiftHue(r, g, bl, p.hue)
			}
			sample[i], sample[plane+i], sample[2*plane+i] = r, g, bl
		}
	}
}

func luminance(r, g, b float32) float32 {
	return 0.299*r + 0.587*g + 0.114*b
}

func grayMean(sample []float32, plane int) float32 {
	sum := float32(0)
	for i := 0; i < plane; i++ {
		sum += luminance(sample[i], sample[plane+i], sample[2*plane+i])
	}
	return sum / float32(plane)
}

// shiftHue rotates a pixel around the color wheel by shift turns.
func shiftHue(r, g, b, shift float32) (float32, float32, float32) {
	h, s, v := rgbToHSV(r, g, b)
	h += shift
	h -= float32(math.Floor(float64(h)))
	return hsvToRGB(h, s, v)
}

func rgbToHSV(r, g, b float32) (h, s, v float32) {
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}
	v = max
	delta := max - min
	if delta == 0 || max == 0 {
		return 0, 0, v
	}
	s = delta / max
	switch max {
	case r:
		h = (g - b) / delta / 6
	case g:
		h = (2 + (b-r)/delta) / 6
	default:
		h = (4 + (r-g)/delta) / 6
	}
	h -= float32(math.Floor(float64(h)))
	return h, s, v
}

func hsvToRGB(h, s, v float32) (float32, float32, float32) {
	if s == 0 {
		return v, v, v
	}
	h6 := h * 6
	sector := int(h6) % 6
	f := h6 - float32(math.Floor(float64(h6)))
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch sector {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
