package lensed

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/lensed/gpucore"
)

// BuildFlags are passed to every program build. Backends ignore flags
// their compiler does not understand.
var BuildFlags = []string{
	"-cl-denorms-are-zero",
	"-cl-strict-aliasing",
	"-cl-mad-enable",
	"-cl-no-signed-zeros",
	"-cl-fast-relaxed-math",
}

// Program is a built kernel program.
type Program struct {
	ID      gpucore.ProgramID
	Options gpucore.BuildOptions
	dev     *Device
}

// BuildOptions returns the build options for a problem: BuildFlags, the
// source's own defines and the dimension and work-group constants.
func BuildOptions(src KernelSource, width, height, nq int, plan gpucore.WorkGroupPlan) gpucore.BuildOptions {
	defines := make([]gpucore.Define, 0, len(src.Defines)+5)
	defines = append(defines, src.Defines...)
	defines = append(defines,
		gpucore.Define{Name: "WIDTH", Value: int64(width)},
		gpucore.Define{Name: "HEIGHT", Value: int64(height)},
		gpucore.Define{Name: "NQ", Value: int64(nq)},
		gpucore.Define{Name: "LOCAL_X", Value: int64(plan.Local[0])},
		gpucore.Define{Name: "LOCAL_Y", Value: int64(plan.Local[1])},
	)
	return gpucore.BuildOptions{
		Flags:   append([]string(nil), BuildFlags...),
		Defines: defines,
	}
}

// BuildProgram compiles the source fragments as one unit. On failure the
// compiler log is logged at debug level and carried in the *BuildError.
func BuildProgram(dev *Device, src KernelSource, width, height, nq int, plan gpucore.WorkGroupPlan) (*Program, error) {
	opts := BuildOptions(src, width, height, nq, plan)
	Logger().Debug("lensed: building kernel program", "fragments", len(src.Fragments), "options", opts.String())

	id, err := dev.CreateProgram(&gpucore.ProgramDesc{
		Label:     "lensed",
		Fragments: src.Fragments,
		Options:   opts,
	})
	if err != nil {
		var ce *gpucore.CompileError
		if errors.As(err, &ce) {
			Logger().Debug("lensed: kernel build log", "log", ce.Log)
			return nil, &BuildError{Op: "build", Log: ce.Log, Err: err}
		}
		return nil, &BuildError{Op: "build", Err: err}
	}
	return &Program{ID: id, Options: opts, dev: dev}, nil
}

// Release destroys the program.
func (p *Program) Release() {
	p.dev.DestroyProgram(p.ID)
}

// WriteKernelSource writes the concatenated fragments to path verbatim.
func WriteKernelSource(path string, fragments []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lensed: write kernel source: %w", err)
	}
	for _, frag := range fragments {
		if _, err := f.WriteString(frag); err != nil {
			_ = f.Close()
			return fmt.Errorf("lensed: write kernel source: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("lensed: write kernel source: %w", err)
	}
	return nil
}
