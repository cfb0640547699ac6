// Package config reads lensed problem files.
//
// A problem file is YAML. It names the data, the detector, the device and
// output settings, the sampling driver and its settings, and the model as
// a list of objects whose parameters carry priors:
//
//	image: lens.tif
//	mask: mask.tif
//	gain: 4.5
//	offset: 100
//	driver: prior
//	quadrature: 3
//	sampler:
//	  live: 500
//	  seed: 42
//	objects:
//	  - name: sky
//	    type: sky
//	    params:
//	      value: [0, 200]        # uniform
//	  - name: src
//	    type: gauss
//	    params:
//	      x: {prior: normal, mean: 32, sigma: 2, label: "x_0"}
//	      y: {prior: normal, mean: 32, sigma: 2}
//	      flux: [0, 1e5]
//	      sigma: 1.5             # fixed
//
// Relative paths are resolved against the problem file's directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/lensed/model"
	"github.com/gogpu/lensed/nested"
	"github.com/gogpu/lensed/quadrature"
)

// Package errors.
var (
	// ErrInvalid is returned for problem files that fail validation.
	ErrInvalid = errors.New("config: invalid problem")

	// ErrParse is returned for malformed YAML.
	ErrParse = errors.New("config: malformed problem file")
)

// Problem is a parsed problem file.
type Problem struct {
	Image  string  `yaml:"image" validate:"required"`
	Mask   string  `yaml:"mask"`
	Gain   float64 `yaml:"gain" validate:"gt=0"`
	Offset float64 `yaml:"offset"`

	GPU     bool   `yaml:"gpu"`
	Backend string `yaml:"backend"`
	Output  bool   `yaml:"output"`
	Root    string `yaml:"root"`

	Driver     string      `yaml:"driver" validate:"required"`
	Quadrature int         `yaml:"quadrature" validate:"gte=1,lte=16"`
	Sampler    SamplerSpec `yaml:"sampler"`

	// Kernels are extra WGSL fragment files placed before the generated
	// model source.
	Kernels []string `yaml:"kernels" validate:"dive,required"`

	Objects []ObjectSpec `yaml:"objects" validate:"required,min=1,dive"`

	dir string
}

// SamplerSpec holds the driver settings.
type SamplerSpec struct {
	Live           int     `yaml:"live" validate:"gt=0"`
	Tolerance      float64 `yaml:"tolerance" validate:"gt=0"`
	Efficiency     float64 `yaml:"efficiency" validate:"gt=0"`
	Importance     bool    `yaml:"importance"`
	Multimodal     bool    `yaml:"multimodal"`
	ConstEff       bool    `yaml:"const_eff"`
	MaxModes       int     `yaml:"max_modes" validate:"gt=0"`
	UpdateInterval int     `yaml:"update_interval" validate:"gt=0"`
	Seed           int64   `yaml:"seed"`
	Resume         bool    `yaml:"resume"`
	MaxIter        int     `yaml:"max_iter" validate:"gte=0"`
}

// ObjectSpec is a model object: a named instance of a component kind.
type ObjectSpec struct {
	Name   string               `yaml:"name" validate:"required"`
	Type   string               `yaml:"type" validate:"required"`
	Params map[string]ParamSpec `yaml:"params" validate:"required,dive"`
}

// ParamSpec is a parameter's prior and display settings. In YAML a plain
// number fixes the parameter and a two-element list gives a uniform
// range.
type ParamSpec struct {
	Prior string  `yaml:"prior" validate:"required,oneof=uniform normal delta"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Mean  float64 `yaml:"mean"`
	Sigma float64 `yaml:"sigma"`
	Value float64 `yaml:"value"`
	Label string  `yaml:"label"`
	Wrap  bool    `yaml:"wrap"`
}

// UnmarshalYAML accepts the scalar and list shorthands.
func (p *ParamSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = ParamSpec{Prior: "delta", Value: v}
		return nil
	case yaml.SequenceNode:
		var r []float64
		if err := node.Decode(&r); err != nil {
			return err
		}
		if len(r) != 2 {
			return fmt.Errorf("line %d: uniform range needs 2 values, got %d", node.Line, len(r))
		}
		*p = ParamSpec{Prior: "uniform", Min: r[0], Max: r[1]}
		return nil
	}
	type plain ParamSpec
	return node.Decode((*plain)(p))
}

// Defaults returns a problem with the default settings.
func Defaults() *Problem {
	s := nested.DefaultConfig()
	return &Problem{
		Gain:       1,
		Driver:     "prior",
		Quadrature: quadrature.DefaultOrder,
		Sampler: SamplerSpec{
			Live:           s.Live,
			Tolerance:      s.Tolerance,
			Efficiency:     s.Efficiency,
			Importance:     s.Importance,
			MaxModes:       s.MaxModes,
			UpdateInterval: s.UpdateInterval,
			Seed:           s.Seed,
		},
	}
}

// Load reads and validates a problem file. Settings missing from the file
// keep their defaults; an empty root becomes the file name without its
// extension followed by a dash.
func Load(path string) (*Problem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	p, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	if p.Root == "" {
		p.Root = strings.TrimSuffix(path, filepath.Ext(path)) + "-"
	}
	return p, nil
}

// Parse decodes and validates a problem from YAML. Unknown keys are
// rejected.
func Parse(raw []byte) (*Problem, error) {
	p := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks field constraints, then the model: known kinds, unique
// object names, exactly the kind's parameters and consistent priors.
func (p *Problem) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !isDriver(p.Driver) {
		return fmt.Errorf("%w: unknown driver %q (have %v)", ErrInvalid, p.Driver, nested.Names())
	}

	seen := make(map[string]bool)
	for _, o := range p.Objects {
		if seen[o.Name] {
			return fmt.Errorf("%w: duplicate object %q", ErrInvalid, o.Name)
		}
		seen[o.Name] = true

		k, err := model.Lookup(o.Type)
		if err != nil {
			return fmt.Errorf("%w: object %q: %v", ErrInvalid, o.Name, err)
		}
		for _, name := range k.Params {
			ps, ok := o.Params[name]
			if !ok {
				return fmt.Errorf("%w: object %q: missing parameter %q", ErrInvalid, o.Name, name)
			}
			if err := ps.check(); err != nil {
				return fmt.Errorf("%w: %s.%s: %v", ErrInvalid, o.Name, name, err)
			}
		}
		if len(o.Params) != len(k.Params) {
			for name := range o.Params {
				if !contains(k.Params, name) {
					return fmt.Errorf("%w: object %q: %s has no parameter %q", ErrInvalid, o.Name, k.Name, name)
				}
			}
		}
	}
	return nil
}

func (p *ParamSpec) check() error {
	switch p.Prior {
	case "uniform":
		if !(p.Min < p.Max) {
			return fmt.Errorf("uniform range [%v, %v] is empty", p.Min, p.Max)
		}
	case "normal":
		if !(p.Sigma > 0) {
			return fmt.Errorf("normal sigma %v is not positive", p.Sigma)
		}
	}
	return nil
}

// prior returns the nested.Prior of the spec.
func (p *ParamSpec) prior() nested.Prior {
	switch p.Prior {
	case "uniform":
		return Uniform{Min: p.Min, Max: p.Max}
	case "normal":
		return Normal{Mean: p.Mean, Sigma: p.Sigma}
	}
	return Delta{Value: p.Value}
}

func isDriver(name string) bool { return contains(nested.Names(), name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// path resolves a file name from the problem file against its directory.
func (p *Problem) path(name string) string {
	if name == "" || filepath.IsAbs(name) || p.dir == "" {
		return name
	}
	return filepath.Join(p.dir, name)
}
