package lensed

import (
	"math"
	"testing"

	"github.com/gogpu/lensed/backend/software"
	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/quadrature"
)

// flat is a uniform prior on [lo, hi].
type flat struct{ lo, hi float64 }

func (p flat) Transform(u float64) float64 { return p.lo + u*(p.hi-p.lo) }

// sumKernels implement a model whose value at every pixel is the sum of
// the parameters.
func sumKernels() software.Kernels {
	model := func(object software.Memory) float32 {
		var m float32
		for i := 0; i < object.Len()/4; i++ {
			m += object.Float32(i)
		}
		return m
	}
	pixel := func(inv *software.Invocation) (int, bool) {
		w, h := inv.Define("WIDTH"), inv.Define("HEIGHT")
		x, y := inv.GlobalID[0], inv.GlobalID[1]
		return y*w + x, x < w && y < h
	}
	return software.Kernels{
		"set_params": func(inv *software.Invocation) {
			if i := inv.GlobalID[0]; i < inv.Define("NPARAMS") {
				inv.Args[0].SetFloat32(i, inv.Args[1].Float32(i))
			}
		},
		"loglike": func(inv *software.Invocation) {
			i, ok := pixel(inv)
			if !ok {
				return
			}
			r := inv.Args[3].Float32(i) - model(inv.Args[0])
			inv.Args[5].SetFloat32(i, -0.5*r*r/inv.Args[4].Float32(i))
		},
		"dumper": func(inv *software.Invocation) {
			i, ok := pixel(inv)
			if !ok {
				return
			}
			m := model(inv.Args[0])
			v := inv.Args[4].Float32(i)
			r := inv.Args[3].Float32(i) - m
			inv.Args[5].SetFloat4(i, gpucore.Float4{S: [4]float32{m, r, float32(math.Sqrt(float64(v))), r * r / v}})
		},
	}
}

// sumInput is a single object with ndim parameters for sumKernels.
func sumInput(ndim int) *Input {
	obj := Object{Name: "sum", Size: 4 * uint64(ndim)}
	for i := 0; i < ndim; i++ {
		obj.Params = append(obj.Params, Parameter{ID: "sum.p" + string(rune('0'+i)), Prior: flat{-1, 1}})
	}
	in := &Input{
		Objects: []Object{obj},
		Source: KernelSource{
			Fragments: []string{"// sum model\n"},
			Defines:   []gpucore.Define{{Name: "NPARAMS", Value: int64(ndim)}},
		},
	}
	return in
}

// constImage returns a w x h image of constant mean and variance.
func constImage(w, h int, mean, variance float32, gain float64) *DataImage {
	d := &DataImage{Width: w, Height: h, Gain: gain}
	for i := 0; i < w*h; i++ {
		d.Mean = append(d.Mean, mean)
		d.Variance = append(d.Variance, variance)
		d.Mask = append(d.Mask, false)
	}
	return d
}

// testDevice wraps a software device with the sum kernels.
func testDevice(t *testing.T, opts ...software.Option) *Device {
	t.Helper()
	sw := software.New(append([]software.Option{software.WithKernels(sumKernels())}, opts...)...)
	t.Cleanup(sw.Destroy)
	d := WrapDevice(sw)
	t.Cleanup(d.Release)
	return d
}

// testBridge builds the whole device side of a run for in and data.
func testBridge(t *testing.T, dev *Device, in *Input, data *DataImage) (*Bridge, *RunResult) {
	t.Helper()
	layout, err := NewLayout(in.Objects)
	if err != nil {
		t.Fatal(err)
	}
	rule := quadrature.GaussLegendre(1).Rule()
	plan, err := gpucore.PlanWorkGroups(data.Width, data.Height, dev.MaxWorkGroupSize())
	if err != nil {
		t.Fatal(err)
	}
	prog, err := BuildProgram(dev, in.Source, data.Width, data.Height, rule.Size(), plan)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(prog.Release)
	bufs, err := AllocateBuffers(dev, data, rule, layout)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(bufs.Release)
	res := &RunResult{}
	b, err := NewBridge(dev, prog, bufs, plan, data, res)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Release)
	return b, res
}
