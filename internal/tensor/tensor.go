package tensor

import (
	"fmt"
	"math"
)

// Image is a single channel-first (CxHxW) float32 image.
type Image struct {
	C, H, W int
	Data    []float32
}

// NewImage allocates a zeroed CxHxW image.
func NewImage(c, h, w int) Image {
	return Image{C: c, H: h, W: w, Data: make([]float32, c*h*w)}
}

// At returns the value at (c, y, x).
func (im Image) At(c, y, x int) float32 {
	return im.Data[(c*im.H+y)*im.W+x]
}

// Set stores v at (c, y, x).
func (im Image) Set(c, y, x int, v float32) {
	im.Data[(c*im.H+y)*im.W+x] = v
}

// Batch is a minibatch of images stacked into one NxCxHxW buffer,
// paired with integer class labels.
type Batch struct {
	N, C, H, W int
	Data       []float32
	Labels     []int
}

// NewBatch allocates a zeroed NxCxHxW batch with zero labels.
func NewBatch(n, c, h, w int) *Batch {
	return &Batch{
		N: n, C: c, H: h, W: w,
		Data:   make([]float32, n*c*h*w),
		Labels: make([]int, n),
	}
}

// Stack copies images of identical shape into a fresh batch.
func Stack(images []Image, labels []int) (*Batch, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("tensor: cannot stack empty image slice")
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("tensor: %d images but %d labels", len(images), len(labels))
	}
	first := images[0]
	b := NewBatch(len(images), first.C, first.H, first.W)
	for i, im := range images {
		if im.C != first.C || im.H != first.H || im.W != first.W {
			return nil, fmt.Errorf("tensor: image %d has shape %dx%dx%d, want %dx%dx%d",
				i, im.C, im.H, im.W, first.C, first.H, first.W)
		}
		copy(b.Data[i*b.SampleSize():], im.Data)
		b.Labels[i] = labels[i]
	}
	return b, nil
}

// SampleSize is the number of values per sample (C*H*W).
func (b *Batch) SampleSize() int {
	return b.C * b.H * b.W
}

// At returns the value at (n, c, y, x).
func (b *Batch) At(n, c, y, x int) float32 {
	return b.Data[((n*b.C+c)*b.H+y)*b.W+x]
}

// Set stores v at (n, c, y, x).
func (b *Batch) Set(n, c, y, x int, v float32) {
	b.Data[((n*b.C+c)*b.H+y)*b.W+x] = v
}

// Sample returns sample n's values as a view into the batch buffer.
func (b *Batch) Sample(n int) []float32 {
	size := b.SampleSize()
	return b.Data[n*size : (n+1)*size]
}

// ImageAt returns sample n as an Image sharing the batch buffer.
func (b *Batch) ImageAt(n int) Image {
	return Image{C: b.C, H: b.H, W: b.W, Data: b.Sample(n)}
}

// Clone returns a deep copy sharing no memory with b.
func (b *Batch) Clone() *Batch {
	out := NewBatch(b.N, b.C, b.H, b.W)
	copy(out.Data, b.Data)
	copy(out.Labels, b.Labels)
	return out
}

// Softmax converts logits into a probability distribution. The max-shift
// keeps the exponentials finite for large logits.
func Softmax(logits []float32) []float32 {
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := float32(0)
	out := make([]float32, len(logits))
	for i, v := range logits {
		e := float32(math.Exp(float64(v - maxLogit)))
		out[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}
