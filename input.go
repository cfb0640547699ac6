package lensed

import (
	"fmt"

	"github.com/gogpu/lensed/gpucore"
	"github.com/gogpu/lensed/nested"
)

// Parameter is one sampled parameter of a model object.
type Parameter struct {
	// ID is the unique parameter identifier, usually object.name.
	ID string

	// Label is the display name. Empty means ID.
	Label string

	// Wrap marks a circular parameter domain.
	Wrap bool

	// Prior maps the unit interval to the parameter's physical range.
	Prior nested.Prior
}

// Name returns the label, or the ID when no label is set.
func (p *Parameter) Name() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

// Object is a model component: its parameters and its byte size in the
// device object buffer.
type Object struct {
	Name   string
	Params []Parameter
	Size   uint64
}

// Layout places objects in the object buffer and their parameters in the
// flat parameter vector, in object order.
type Layout struct {
	// Offsets and Sizes are per-object byte ranges in the object buffer.
	Offsets []uint64
	Sizes   []uint64

	// First is the index of each object's first parameter.
	First []int

	// Size is the object buffer size in bytes.
	Size uint64

	// NDim is the total number of parameters.
	NDim int

	params []*Parameter
}

// NewLayout computes the layout of objs. Objects are packed in order;
// each size must be a positive multiple of four bytes.
func NewLayout(objs []Object) (Layout, error) {
	if len(objs) == 0 {
		return Layout{}, fmt.Errorf("%w: no objects", ErrInvalidInput)
	}
	var l Layout
	for i := range objs {
		o := &objs[i]
		if o.Size == 0 || o.Size%4 != 0 {
			return Layout{}, fmt.Errorf("%w: object %q has size %d", ErrInvalidInput, o.Name, o.Size)
		}
		l.Offsets = append(l.Offsets, l.Size)
		l.Sizes = append(l.Sizes, o.Size)
		l.First = append(l.First, l.NDim)
		l.Size += o.Size
		l.NDim += len(o.Params)
		for j := range o.Params {
			l.params = append(l.params, &o.Params[j])
		}
	}
	if l.NDim == 0 {
		return Layout{}, fmt.Errorf("%w: objects have no parameters", ErrInvalidInput)
	}
	return l, nil
}

// Params returns the parameters in flat index order.
func (l Layout) Params() []*Parameter { return l.params }

// KernelSource is the source of a kernel program: its fragments, compiled
// as one unit, and problem-specific build defines.
type KernelSource struct {
	Fragments []string
	Defines   []gpucore.Define
}

// Input is a fitting problem: the model objects, the program that
// evaluates them and the sampler settings.
type Input struct {
	Objects []Object
	Source  KernelSource

	// Sampler holds the driver settings. NDim, NPar, Wrap, Priors, Root,
	// Output, Feedback and Log are filled in by Run.
	Sampler nested.Config
}

// Kernel argument binding slots. Programs declare their storage buffers
// at these slots in bind group 0.
const (
	BindingObject   = 0
	BindingNodes    = 1
	BindingWeights  = 2
	BindingMean     = 3
	BindingVariance = 4
	BindingLogLike  = 5
	BindingParams   = 6
	BindingDump     = 7
)
