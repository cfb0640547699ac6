package model_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/model"
	"github.com/gogpu/lensed/nested"
	"github.com/gogpu/lensed/quadrature"
)

// fixed is a prior concentrated on one value.
type fixed float64

func (f fixed) Transform(float64) float64 { return float64(f) }

func object(t *testing.T, name, kind string, values []float32) (lensed.Object, *model.Kind) {
	t.Helper()
	k, err := model.Lookup(kind)
	if err != nil {
		t.Fatal(err)
	}
	obj := lensed.Object{Name: name, Size: k.Size()}
	for i, p := range k.Params {
		obj.Params = append(obj.Params, lensed.Parameter{ID: name + "." + p, Prior: fixed(values[i])})
	}
	return obj, k
}

// render integrates the kinds over each pixel of a w x h image.
func render(w, h int, rule quadrature.Rule, ks []*model.Kind, values [][]float32) []float32 {
	out := make([]float32, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var m float64
			for q := range rule.Nodes {
				n, wt := rule.Nodes[q], rule.Weights[q]
				px, py := float32(x)+0.5+n.X, float32(y)+0.5+n.Y
				for i, k := range ks {
					m += float64(wt.X*wt.Y) * float64(k.Eval(values[i], px, py))
				}
			}
			out = append(out, float32(m))
		}
	}
	return out
}

func TestRunSoftwareEndToEnd(t *testing.T) {
	const w, h = 9, 7
	values := [][]float32{{2}, {4, 3, 10, 1.5}}
	sky, skyKind := object(t, "sky", "sky", values[0])
	lens, gaussKind := object(t, "lens", "gauss", values[1])
	objs := []lensed.Object{sky, lens}
	ks := []*model.Kind{skyKind, gaussKind}

	order := quadrature.GaussLegendre(3)
	rule := order.Rule()
	data := &lensed.DataImage{Width: w, Height: h, Gain: 2, Mean: render(w, h, rule, ks, values)}
	for i := 0; i < w*h; i++ {
		data.Variance = append(data.Variance, 0.5)
		data.Mask = append(data.Mask, false)
	}

	src, err := model.Program(objs, ks, rule.Size())
	if err != nil {
		t.Fatal(err)
	}
	in := &lensed.Input{Objects: objs, Source: src, Sampler: nested.DefaultConfig()}
	res, err := lensed.Run(context.Background(), in, data, nested.Center{},
		lensed.WithBackend("software"), lensed.WithQuadrature(order))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if want := -math.Log(2); math.Abs(res.MaxLogLike-want) > 1e-4 {
		t.Errorf("MaxLogLike = %v, want %v", res.MaxLogLike, want)
	}
	if res.Chi2DOF > 1e-6 {
		t.Errorf("Chi2DOF = %v, want ~0", res.Chi2DOF)
	}
	for i, rec := range res.Dump {
		if math.Abs(float64(rec.S[0]-data.Mean[i])) > 1e-4 {
			t.Errorf("model[%d] = %v, want %v", i, rec.S[0], data.Mean[i])
		}
	}
	if res.ML[3] != 10 {
		t.Errorf("ML = %v", res.ML)
	}
}

func TestProgramErrors(t *testing.T) {
	sky, skyKind := object(t, "sky", "sky", []float32{1})
	lens, gaussKind := object(t, "lens", "gauss", []float32{0, 0, 1, 1})

	short := lens
	short.Params = short.Params[:3]

	tests := []struct {
		name string
		objs []lensed.Object
		ks   []*model.Kind
	}{
		{"missing kind", []lensed.Object{sky, lens}, []*model.Kind{skyKind}},
		{"size mismatch", []lensed.Object{sky}, []*model.Kind{gaussKind}},
		{"parameter count", []lensed.Object{short}, []*model.Kind{gaussKind}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := model.Program(tt.objs, tt.ks, 9); !errors.Is(err, lensed.ErrInvalidInput) {
				t.Errorf("Program() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
