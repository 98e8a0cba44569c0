package dataset

import (
	"context"
	"io"
	"math/rand"

	"augforge/internal/tensor"
)

// LoaderOptions configures a mini-batch loader.
type LoaderOptions struct {
	BatchSize int
	// Shuffle reorders samples with a fresh permutation each epoch.
	Shuffle bool
	// DropLast discards a trailing batch smaller than BatchSize.
	DropLast bool
	Seed     int64
}

// Loader yields preprocessed mini-batches from a dataset. One pass over
// the dataset is one epoch; Reset starts the next.
type Loader struct {
	ds    *Dataset
	opts  LoaderOptions
	rng   *rand.Rand
	order []int
	pos   int
}

// NewLoader builds a loader over ds.
func NewLoader(ds *Dataset, opts LoaderOptions) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	l := &Loader{
		ds:   ds,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
	l.Reset()
	return l
}

// Reset rewinds the loader and, when shuffling, draws a new permutation.
func (l *Loader) Reset() {
	if l.order == nil {
		l.order = make([]int, l.ds.Len())
		for i := range l.order {
			l.order[i] = i
		}
	}
	if l.opts.Shuffle {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Steps is the number of batches per epoch.
func (l *Loader) Steps() int {
	n := l.ds.Len() / l.opts.BatchSize
	if !l.opts.DropLast && l.ds.Len()%l.opts.BatchSize != 0 {
		n++
	}
	return n
}

// Next returns the next batch, io.EOF at the end of the epoch, or any
// sample-read error encountered while assembling the batch.
func (l *Loader) Next(ctx context.Context) (*tensor.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	remaining := l.ds.Len() - l.pos
	if remaining == 0 {
		return nil, io.EOF
	}
	size := l.opts.BatchSize
	if remaining < size {
		if l.opts.DropLast {
			return nil, io.EOF
		}
		size = remaining
	}

	images := make([]tensor.Image, 0, size)
	labels := make([]int, 0, size)
	for i := 0; i < size; i++ {
		im, label, err := l.ds.Get(l.order[l.pos])
		if err != nil {
			return nil, err
		}
		l.pos++
		images = append(images, im)
		labels = append(labels, label)
	}
	return tensor.Stack(images, labels)
}
