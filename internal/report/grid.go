package report

import (
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/spf13/afero"

	"augforge/internal/tensor"
)

const gridPadding = 2

// SaveGrid writes the batch as a PNG grid with nrow images per row,
// clamping values into displayable range. Pre- and post-augmentation
// grids rendered this way are the visual check on the pipeline.
func SaveGrid(fs afero.Fs, b *tensor.Batch, nrow int, path string) error {
	if b.C != 3 {
		return fmt.Errorf("grid: want 3 channels, got %d", b.C)
	}
	if nrow <= 0 {
		nrow = 8
	}
	cols := nrow
	if b.N < cols {
		cols = b.N
	}
	rows := (b.N + cols - 1) / cols

	width := cols*(b.W+gridPadding) + gridPadding
	height := rows*(b.H+gridPadding) + gridPadding
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for n := 0; n < b.N; n++ {
		offX := gridPadding + (n%cols)*(b.W+gridPadding)
		offY := gridPadding + (n/cols)*(b.H+gridPadding)
		for y := 0; y < b.H; y++ {
			for x := 0; x < b.W; x++ {
				img.SetNRGBA(offX+x, offY+y, color.NRGBA{
					R: toByte(b.At(n, 0, y, x)),
					G: toByte(b.At(n, 1, y, x)),
					B: toByte(b.At(n, 2, y, x)),
					A: 255,
				})
			}
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create grid image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode grid image: %w", err)
	}
	return f.Close()
}

// toByte clamps a pixel value into [0,1] and scales to 8 bits.
// Jittered batches may carry values outside the unit range.
func toByte(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
