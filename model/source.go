package model

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/lensed"
	"github.com/gogpu/lensed/gpucore"
)

//go:embed wgsl/main.wgsl
var mainWGSL string

// Component places a kind in the object buffer.
type Component struct {
	Kind *Kind

	// Offset is the byte offset of the component in the object buffer.
	Offset uint64

	// FirstParam is the index of the component's first parameter in the
	// flat parameter vector.
	FirstParam int
}

// Components places ks[i] at the position of object i of the layout.
func Components(layout lensed.Layout, ks []*Kind) ([]Component, error) {
	if len(ks) != len(layout.Offsets) {
		return nil, fmt.Errorf("%w: %d kinds for %d objects", lensed.ErrInvalidInput, len(ks), len(layout.Offsets))
	}
	comps := make([]Component, len(ks))
	for i, k := range ks {
		if layout.Sizes[i] != k.Size() {
			return nil, fmt.Errorf("%w: object %d is %d bytes, %s needs %d",
				lensed.ErrInvalidInput, i, layout.Sizes[i], k.Name, k.Size())
		}
		comps[i] = Component{Kind: k, Offset: layout.Offsets[i], FirstParam: layout.First[i]}
	}
	return comps, nil
}

// Program generates the kernel source for objs, where ks[i] is the kind of
// objs[i], evaluated with an nq-point quadrature rule.
func Program(objs []lensed.Object, ks []*Kind, nq int) (lensed.KernelSource, error) {
	layout, err := lensed.NewLayout(objs)
	if err != nil {
		return lensed.KernelSource{}, err
	}
	for i, o := range objs {
		if i < len(ks) && len(o.Params) != len(ks[i].Params) {
			return lensed.KernelSource{}, fmt.Errorf("%w: object %q has %d parameters, %s has %d",
				lensed.ErrInvalidInput, o.Name, len(o.Params), ks[i].Name, len(ks[i].Params))
		}
	}
	comps, err := Components(layout, ks)
	if err != nil {
		return lensed.KernelSource{}, err
	}
	return Source(comps, nq), nil
}

// Source generates the program fragments and build defines for a list of
// components evaluated with an nq-point quadrature rule.
//
// The fragments are, in order: the kind functions, the generated
// model_value, param_slot and pixel_model functions, and the entry points.
// The quadrature sum is unrolled, so nq must match the rule of the run.
func Source(comps []Component, nq int) lensed.KernelSource {
	var fragments []string
	var defines []gpucore.Define
	seen := make(map[string]bool)
	var ids []string
	for _, c := range comps {
		if !seen[c.Kind.Name] {
			seen[c.Kind.Name] = true
			ids = append(ids, c.Kind.Name)
		}
	}
	sort.Strings(ids)
	for _, name := range ids {
		fragments = append(fragments, kinds[name].WGSL)
	}

	var sb strings.Builder
	sb.WriteString("\nfn model_value(x: f32, y: f32) -> f32 {\n    var m = 0.0;\n")
	for _, c := range comps {
		fmt.Fprintf(&sb, "    m = m + %s_value(%du, x, y);\n", c.Kind.Name, c.Offset/4)
	}
	sb.WriteString("    return m;\n}\n")

	sb.WriteString("\nfn param_slot(i: u32) -> u32 {\n")
	for _, c := range comps {
		fmt.Fprintf(&sb, "    if (i < %du) {\n        return %du + i - %du;\n    }\n",
			c.FirstParam+len(c.Kind.Params), c.Offset/4, c.FirstParam)
	}
	sb.WriteString("    return i;\n}\n")

	sb.WriteString("\nfn pixel_model(x: f32, y: f32) -> f32 {\n    var m = 0.0;\n")
	for q := 0; q < nq; q++ {
		fmt.Fprintf(&sb, "    m = m + ww[%d].x * ww[%d].y * model_value(x + qq[%d].x, y + qq[%d].y);\n", q, q, q, q)
	}
	sb.WriteString("    return m;\n}\n")
	fragments = append(fragments, sb.String(), mainWGSL)

	nparams := 0
	defines = append(defines, gpucore.Define{Name: "NOBJ", Value: int64(len(comps))})
	for i, c := range comps {
		defines = append(defines,
			gpucore.Define{Name: fmt.Sprintf("OBJ%d_KIND", i), Value: int64(c.Kind.ID)},
			gpucore.Define{Name: fmt.Sprintf("OBJ%d_OFF", i), Value: int64(c.Offset / 4)}, //nolint:gosec // object buffer is small
			gpucore.Define{Name: fmt.Sprintf("OBJ%d_PAR", i), Value: int64(c.FirstParam)},
		)
		nparams += len(c.Kind.Params)
	}
	defines = append(defines, gpucore.Define{Name: "NPARAMS", Value: int64(nparams)})
	return lensed.KernelSource{Fragments: fragments, Defines: defines}
}
