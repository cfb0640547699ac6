package lensed

import "fmt"

// DataImage is the observed image with its per-pixel variance and mask,
// stored row-major.
type DataImage struct {
	Width, Height int

	Mean     []float32
	Variance []float32

	// Mask marks pixels excluded from the likelihood.
	Mask  []bool
	NMask int

	// Gain converts data units to counts.
	Gain float64
}

// Size returns the number of pixels.
func (d *DataImage) Size() int { return d.Width * d.Height }

// Validate checks array lengths, the mask count and the gain.
func (d *DataImage) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: image is %dx%d", ErrInvalidInput, d.Width, d.Height)
	}
	n := d.Size()
	if len(d.Mean) != n || len(d.Variance) != n || len(d.Mask) != n {
		return fmt.Errorf("%w: %d pixels but %d mean, %d variance, %d mask values",
			ErrInvalidInput, n, len(d.Mean), len(d.Variance), len(d.Mask))
	}
	masked := 0
	for i, m := range d.Mask {
		if m {
			masked++
			continue
		}
		if !(d.Variance[i] > 0) {
			return fmt.Errorf("%w: pixel %d has variance %v", ErrInvalidInput, i, d.Variance[i])
		}
	}
	if masked != d.NMask {
		return fmt.Errorf("%w: mask has %d entries, NMask is %d", ErrInvalidInput, masked, d.NMask)
	}
	if !(d.Gain > 0) {
		return fmt.Errorf("%w: gain %v", ErrInvalidInput, d.Gain)
	}
	return nil
}
