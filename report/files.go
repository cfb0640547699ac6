package report

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/gpucore"
)

// WriteParamNames writes <root>.paramnames: one line per parameter with
// its ID and label.
func WriteParamNames(root string, params []*lensed.Parameter) error {
	path := root + ".paramnames"
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, p := range params {
		fmt.Fprintf(bw, "%-20s  %s\n", p.ID, p.Label)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	lensed.Logger().Debug("report: parameter names written", "path", path)
	return nil
}

// Image is a result image written by WriteImages. Samples are scaled
// linearly so that Min maps to 0 and Max to 65535.
type Image struct {
	Path     string
	Min, Max float32
}

// Channels of the dump written as images.
var imageChannels = []struct {
	name    string
	channel int
}{
	{"model", 0},
	{"residual", 1},
}

// WriteImages writes the model and residual channels of a dump as 16-bit
// TIFF images <root>model.tif and <root>residual.tif.
func WriteImages(root string, dump []gpucore.Float4, width, height int) ([]Image, error) {
	if len(dump) != width*height {
		return nil, fmt.Errorf("report: %d dump records for a %dx%d image", len(dump), width, height)
	}
	out := make([]Image, 0, len(imageChannels))
	for _, ch := range imageChannels {
		img, lo, hi := channelImage(dump, ch.channel, width, height)
		path := root + ch.name + ".tif"
		if err := writeTIFF(path, img); err != nil {
			return out, err
		}
		out = append(out, Image{Path: path, Min: lo, Max: hi})
		lensed.Logger().Debug("report: image written", "path", path, "min", lo, "max", hi)
	}
	return out, nil
}

func channelImage(dump []gpucore.Float4, channel, width, height int) (*image.Gray16, float32, float32) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, rec := range dump {
		lo, hi = min(lo, rec.S[channel]), max(hi, rec.S[channel])
	}
	scale := float32(0)
	if hi > lo {
		scale = math.MaxUint16 / (hi - lo)
	}
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, rec := range dump {
		v := (rec.S[channel] - lo) * scale
		img.SetGray16(i%width, i/width, color.Gray16{Y: uint16(v + 0.5)})
	}
	return img, lo, hi
}

func writeTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
