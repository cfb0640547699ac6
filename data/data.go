// Package data loads observed images into a lensed.DataImage.
//
// Images are read as TIFF or PNG in their integer sample units. The pixel
// variance follows from the detector model: (mean + offset) / gain.
// Pixels whose variance is not positive cannot enter the likelihood and
// are added to the mask.
package data

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG decoding
	"io"
	"os"

	_ "golang.org/x/image/tiff" // register TIFF decoding

	"github.com/gogpu/lensed"
)

// Package errors.
var (
	// ErrFormat is returned for images that cannot be decoded.
	ErrFormat = errors.New("data: unsupported image")

	// ErrSize is returned when the mask does not match the image.
	ErrSize = errors.New("data: image size mismatch")

	// ErrGain is returned for a non-positive gain.
	ErrGain = errors.New("data: gain must be positive")
)

// Options describe the detector.
type Options struct {
	// Gain converts data units to counts.
	Gain float64

	// Offset is added to the data before computing the variance, for
	// images with the sky level subtracted.
	Offset float64
}

// Plane is a single-channel image in row-major order.
type Plane struct {
	Width, Height int
	Pix           []float32
}

// Decode reads a TIFF or PNG image as a plane of 16-bit gray values.
// Colour images are converted to luminance.
func Decode(r io.Reader) (*Plane, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	b := img.Bounds()
	p := &Plane{Width: b.Dx(), Height: b.Dy(), Pix: make([]float32, 0, b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.Pix = append(p.Pix, gray(img.At(x, y)))
		}
	}
	lensed.Logger().Debug("data: decoded image", "format", format, "width", p.Width, "height", p.Height)
	return p, nil
}

func gray(c color.Color) float32 {
	switch v := c.(type) {
	case color.Gray16:
		return float32(v.Y)
	case color.Gray:
		return float32(v.Y)
	}
	return float32(color.Gray16Model.Convert(c).(color.Gray16).Y)
}

// ReadFile decodes the image file at path.
func ReadFile(path string) (*Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// New builds the data image from the observed plane and an optional mask
// plane, in which nonzero pixels are excluded.
func New(img, mask *Plane, opts Options) (*lensed.DataImage, error) {
	if !(opts.Gain > 0) {
		return nil, fmt.Errorf("%w: %v", ErrGain, opts.Gain)
	}
	if mask != nil && (mask.Width != img.Width || mask.Height != img.Height) {
		return nil, fmt.Errorf("%w: image is %dx%d, mask is %dx%d",
			ErrSize, img.Width, img.Height, mask.Width, mask.Height)
	}
	n := img.Width * img.Height
	d := &lensed.DataImage{
		Width:    img.Width,
		Height:   img.Height,
		Mean:     append([]float32(nil), img.Pix...),
		Variance: make([]float32, n),
		Mask:     make([]bool, n),
		Gain:     opts.Gain,
	}
	invalid := 0
	for i, v := range img.Pix {
		d.Variance[i] = float32((float64(v) + opts.Offset) / opts.Gain)
		masked := mask != nil && mask.Pix[i] != 0
		if !masked && !(d.Variance[i] > 0) {
			masked = true
			invalid++
		}
		if masked {
			d.Mask[i] = true
			d.NMask++
		}
	}
	if invalid > 0 {
		lensed.Logger().Warn("data: masked pixels without positive variance", "pixels", invalid)
	}
	lensed.Logger().Debug("data: image", "width", d.Width, "height", d.Height, "masked", d.NMask, "gain", d.Gain, "offset", opts.Offset)
	return d, nil
}

// Load reads the image and, if maskPath is not empty, the mask, and
// builds the data image.
func Load(imagePath, maskPath string, opts Options) (*lensed.DataImage, error) {
	img, err := ReadFile(imagePath)
	if err != nil {
		return nil, err
	}
	var mask *Plane
	if maskPath != "" {
		if mask, err = ReadFile(maskPath); err != nil {
			return nil, err
		}
	}
	return New(img, mask, opts)
}
