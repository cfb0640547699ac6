package model

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/lensed/backend/software"
	"github.com/gogpu/lensed/gpucore"
)

func mustKind(t *testing.T, name string) *Kind {
	t.Helper()
	k, err := Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestLookup(t *testing.T) {
	if got := Names(); strings.Join(got, ",") != "gauss,sersic,sky" {
		t.Errorf("Names() = %v", got)
	}
	if _, err := Lookup("nfw"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Lookup(nfw) error = %v", err)
	}
	if got := mustKind(t, "gauss").Size(); got != 16 {
		t.Errorf("gauss size = %d, want 16", got)
	}
}

func TestSource(t *testing.T) {
	comps := []Component{
		{Kind: mustKind(t, "sky"), Offset: 0, FirstParam: 0},
		{Kind: mustKind(t, "gauss"), Offset: 4, FirstParam: 1},
		{Kind: mustKind(t, "gauss"), Offset: 20, FirstParam: 5},
	}
	src := Source(comps, 4)
	frags := src.Fragments

	// gauss, sky, generated, main
	if len(frags) != 4 {
		t.Fatalf("%d fragments, want 4", len(frags))
	}
	gen := frags[2]
	for _, want := range []string{
		"m = m + sky_value(0u, x, y);",
		"m = m + gauss_value(1u, x, y);",
		"m = m + gauss_value(5u, x, y);",
		"if (i < 5u) {\n        return 1u + i - 1u;",
		"ww[3].x * ww[3].y * model_value(x + qq[3].x, y + qq[3].y)",
	} {
		if !strings.Contains(gen, want) {
			t.Errorf("generated source lacks %q:\n%s", want, gen)
		}
	}
	if strings.Contains(gen, "ww[4]") {
		t.Error("quadrature sum unrolled past nq")
	}
	if !strings.Contains(frags[3], "fn loglike(") {
		t.Error("entry points missing")
	}

	opts := gpucore.BuildOptions{Defines: src.Defines}
	for name, want := range map[string]int64{"NOBJ": 3, "NPARAMS": 9, "OBJ1_KIND": 2, "OBJ2_OFF": 5, "OBJ2_PAR": 5} {
		if got, ok := opts.Lookup(name); !ok || got != want {
			t.Errorf("%s = %d (%v), want %d", name, got, ok, want)
		}
	}
}

func TestKindsIntegrateToFlux(t *testing.T) {
	tests := []struct {
		name string
		p    []float32
	}{
		{"gauss", []float32{0, 0, 3, 1.5}},
		{"sersic", []float32{0, 0, 2, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := mustKind(t, tt.name)
			const h = 0.05
			var sum float64
			for x := -40.0; x < 40; x += h {
				for y := -40.0; y < 40; y += h {
					sum += float64(k.Eval(tt.p, float32(x+h/2), float32(y+h/2))) * h * h
				}
			}
			flux := float64(tt.p[2])
			if tt.name == "sersic" {
				flux = float64(tt.p[3])
			}
			if math.Abs(sum-flux)/flux > 0.05 {
				t.Errorf("integral = %v, want ~%v", sum, flux)
			}
		})
	}
}

// TestSoftwareKernels runs the registered Go kernels on a 3x2 image with a
// single sky component.
func TestSoftwareKernels(t *testing.T) {
	const w, h = 3, 2
	comps := []Component{{Kind: mustKind(t, "sky")}}
	src := Source(comps, 1)
	frags := src.Fragments
	defs := append(src.Defines,
		gpucore.Define{Name: "WIDTH", Value: w}, gpucore.Define{Name: "HEIGHT", Value: h},
		gpucore.Define{Name: "NQ", Value: 1},
	)

	d := software.New()
	buf := func(label string, size uint64, flags gpucore.MemFlags, contents []byte) gpucore.BufferID {
		id, err := d.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: size, Flags: flags, Contents: contents})
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	object := buf("object", 4, gpucore.MemReadWrite, nil)
	qq := buf("qq", 8, gpucore.MemReadOnly, gpucore.Float2Bytes([]gpucore.Float2{{}}))
	ww := buf("ww", 8, gpucore.MemReadOnly, gpucore.Float2Bytes([]gpucore.Float2{{X: 1, Y: 1}}))
	mean := buf("mean", w*h*4, gpucore.MemReadOnly, gpucore.Float32Bytes([]float32{1, 2, 3, 4, 5, 6}))
	variance := buf("variance", w*h*4, gpucore.MemReadOnly, gpucore.Float32Bytes([]float32{1, 1, 1, 2, 2, 2}))
	params := buf("params", 4, gpucore.MemReadOnly|gpucore.MemHostWrite, nil)
	ll := buf("loglike", w*h*4, gpucore.MemWriteOnly|gpucore.MemHostRead, nil)
	dump := buf("dumper", w*h*16, gpucore.MemWriteOnly|gpucore.MemHostRead, nil)

	prog, err := d.CreateProgram(&gpucore.ProgramDesc{Fragments: frags, Options: gpucore.BuildOptions{Defines: defs}})
	if err != nil {
		t.Fatal(err)
	}
	kernel := func(entry string, args ...gpucore.BufferID) gpucore.KernelID {
		k, err := d.CreateKernel(&gpucore.KernelDesc{Program: prog, EntryPoint: entry, Args: args})
		if err != nil {
			t.Fatal(err)
		}
		return k
	}
	setK := kernel("set_params", object, params)
	llK := kernel("loglike", object, qq, ww, mean, variance, ll)
	dumpK := kernel("dumper", object, qq, ww, mean, variance, dump)

	if err := d.WriteBuffer(params, 0, gpucore.Float32Bytes([]float32{2})); err != nil {
		t.Fatal(err)
	}
	for _, step := range []struct {
		k             gpucore.KernelID
		global, local gpucore.Size2
	}{
		{setK, gpucore.Size2{1, 1}, gpucore.Size2{1, 1}},
		{llK, gpucore.Size2{4, 2}, gpucore.Size2{2, 2}},
		{dumpK, gpucore.Size2{4, 2}, gpucore.Size2{2, 2}},
	} {
		if err := d.Dispatch(step.k, step.global, step.local); err != nil {
			t.Fatal(err)
		}
	}

	raw := make([]byte, w*h*4)
	if err := d.ReadBuffer(ll, 0, raw); err != nil {
		t.Fatal(err)
	}
	got := make([]float32, w*h)
	gpucore.Float32s(got, raw)
	want := []float32{-0.5, 0, -0.5, -1, -2.25, -4}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("loglike[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	raw = make([]byte, w*h*16)
	if err := d.ReadBuffer(dump, 0, raw); err != nil {
		t.Fatal(err)
	}
	recs := make([]gpucore.Float4, w*h)
	gpucore.Float4s(recs, raw)
	if r := recs[4].S; r[0] != 2 || r[1] != 3 || math.Abs(float64(r[2])-math.Sqrt2) > 1e-6 || r[3] != 4.5 {
		t.Errorf("dump[4] = %v, want [2 3 1.414 4.5]", r)
	}
}
