package model

import (
	"fmt"
	"math"

	"github.com/gogpu/lensed/backend/software"
	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/internal/cache"
)

func init() {
	software.RegisterKernel("set_params", setParams)
	software.RegisterKernel("loglike", logLike)
	software.RegisterKernel("dumper", dumper)
}

// program is the component table decoded from a program's build defines.
type program struct {
	kinds   []*Kind
	offsets []int
	first   []int
	nparams int
	width   int
	height  int
	nq      int
}

// programs caches decoded tables by build options, which are fixed for
// the lifetime of a program.
var programs = cache.New[*gpucore.BuildOptions, *program](64)

func decode(opts *gpucore.BuildOptions) *program {
	return programs.GetOrCreate(opts, func() *program { return decodeOptions(opts) })
}

func decodeOptions(opts *gpucore.BuildOptions) *program {
	get := func(name string) int {
		v, _ := opts.Lookup(name)
		return int(v)
	}
	p := &program{
		nparams: get("NPARAMS"),
		width:   get("WIDTH"),
		height:  get("HEIGHT"),
		nq:      get("NQ"),
	}
	for i := 0; i < get("NOBJ"); i++ {
		k, ok := kindsByID[get(fmt.Sprintf("OBJ%d_KIND", i))]
		if !ok {
			panic(fmt.Sprintf("model: object %d has unknown kind", i))
		}
		p.kinds = append(p.kinds, k)
		p.offsets = append(p.offsets, get(fmt.Sprintf("OBJ%d_OFF", i)))
		p.first = append(p.first, get(fmt.Sprintf("OBJ%d_PAR", i)))
	}
	return p
}

// value sums the components at a point, reading parameters from object.
func (p *program) value(object software.Memory, x, y float32) float32 {
	var m float32
	var buf [8]float32
	for i, k := range p.kinds {
		par := buf[:len(k.Params)]
		for j := range par {
			par[j] = object.Float32(p.offsets[i] + j)
		}
		m += k.Eval(par, x, y)
	}
	return m
}

// pixel integrates the model over pixel (px, py) with the quadrature rule.
func (p *program) pixel(object, qq, ww software.Memory, px, py int) float32 {
	x, y := float32(px)+0.5, float32(py)+0.5
	var m float32
	for q := 0; q < p.nq; q++ {
		n, w := qq.Float2(q), ww.Float2(q)
		m += w.X * w.Y * p.value(object, x+n.X, y+n.Y)
	}
	return m
}

// setParams(object, params)
func setParams(inv *software.Invocation) {
	p := decode(inv.Options)
	i := inv.GlobalID[0]
	if i >= p.nparams {
		return
	}
	for c := range p.kinds {
		if i < p.first[c]+len(p.kinds[c].Params) {
			inv.Args[0].SetFloat32(p.offsets[c]+i-p.first[c], inv.Args[1].Float32(i))
			return
		}
	}
}

// logLike(object, qq, ww, mean, variance, loglike)
func logLike(inv *software.Invocation) {
	p := decode(inv.Options)
	x, y := inv.GlobalID[0], inv.GlobalID[1]
	if x >= p.width || y >= p.height {
		return
	}
	i := y*p.width + x
	m := p.pixel(inv.Args[0], inv.Args[1], inv.Args[2], x, y)
	r := inv.Args[3].Float32(i) - m
	inv.Args[5].SetFloat32(i, -0.5*r*r/inv.Args[4].Float32(i))
}

// dumper(object, qq, ww, mean, variance, dumper)
func dumper(inv *software.Invocation) {
	p := decode(inv.Options)
	x, y := inv.GlobalID[0], inv.GlobalID[1]
	if x >= p.width || y >= p.height {
		return
	}
	i := y*p.width + x
	m := p.pixel(inv.Args[0], inv.Args[1], inv.Args[2], x, y)
	v := inv.Args[4].Float32(i)
	r := inv.Args[3].Float32(i) - m
	inv.Args[5].SetFloat4(i, gpucore.Float4{S: [4]float32{m, r, float32(math.Sqrt(float64(v))), r * r / v}})
}
