package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"augforge/internal/tensor"
)

// CIFAR-10 binary layout: each record is one label byte followed by a
// 32x32 RGB image stored planar (1024 red, 1024 green, 1024 blue).
const (
	ImageSize   = 32
	NumChannels = 3
	NumClasses  = 10

	pixelBytes  = NumChannels * ImageSize * ImageSize
	recordBytes = 1 + pixelBytes
)

var trainFiles = []string{
	"data_batch_1.bin",
	"data_batch_2.bin",
	"data_batch_3.bin",
	"data_batch_4.bin",
	"data_batch_5.bin",
}

const testFile = "test_batch.bin"

// Classes are the CIFAR-10 label names, index-aligned with the labels.
var Classes = []string{
	"airplane", "automobile", "bird", "cat", "deer",
	"dog", "frog", "horse", "ship", "truck",
}

// ErrCorruptRecord reports a sample whose pixel payload cannot be coerced
// into a 3-channel image.
var ErrCorruptRecord = errors.New("dataset: corrupt image record")

// Sample is one labeled image in raw planar-RGB form.
type Sample struct {
	Raw   []byte
	Label int
}

// Preprocess converts one raw planar-RGB sample into a channel-first
// float32 tensor scaled to [0,1]. Deterministic, no learned state.
func Preprocess(raw []byte) (tensor.Image, error) {
	if len(raw) != pixelBytes {
		return tensor.Image{}, fmt.Errorf("%w: got %d bytes, want %d", ErrCorruptRecord, len(raw), pixelBytes)
	}
	im := tensor.NewImage(NumChannels, ImageSize, ImageSize)
	for i, v := range raw {
		im.Data[i] = float32(v) / 255.0
	}
	return im, nil
}

// Dataset holds raw samples and applies Preprocess at read time.
type Dataset struct {
	samples []Sample
}

// Len is the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// Get preprocesses and returns sample i. Read failures propagate.
func (d *Dataset) Get(i int) (tensor.Image, int, error) {
	s := d.samples[i]
	im, err := Preprocess(s.Raw)
	if err != nil {
		return tensor.Image{}, 0, fmt.Errorf("sample %d: %w", i, err)
	}
	return im, s.Label, nil
}

// readRecords parses consecutive CIFAR-10 records until EOF.
func readRecords(r io.Reader) ([]Sample, error) {
	var samples []Sample
	buf := make([]byte, recordBytes)
	for {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated record %d", ErrCorruptRecord, len(samples))
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(samples), err)
		}
		label := int(buf[0])
		if label >= NumClasses {
			return nil, fmt.Errorf("%w: label %d out of range", ErrCorruptRecord, label)
		}
		raw := make([]byte, pixelBytes)
		copy(raw, buf[1:])
		samples = append(samples, Sample{Raw: raw, Label: label})
	}
}

func readBatchFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()
	samples, err := readRecords(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return samples, nil
}

// LoadTrain reads the five training batch files under dir, in parallel.
func LoadTrain(dir string) (*Dataset, error) {
	parts := make([][]Sample, len(trainFiles))
	var g errgroup.Group
	for i, name := range trainFiles {
		g.Go(func() error {
			samples, err := readBatchFile(filepath.Join(dir, name))
			if err != nil {
				return err
			}
			parts[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []Sample
	for _, p := range parts {
		all = append(all, p...)
	}
	return &Dataset{samples: all}, nil
}

// LoadTest reads the held-out batch file under dir.
func LoadTest(dir string) (*Dataset, error) {
	samples, err := readBatchFile(filepath.Join(dir, testFile))
	if err != nil {
		return nil, err
	}
	return &Dataset{samples: samples}, nil
}

// FromSamples builds a dataset directly from samples. Used by tests and
// the show-batch command.
func FromSamples(samples []Sample) *Dataset {
	return &Dataset{samples: samples}
}
