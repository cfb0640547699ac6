//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/lensed/gpucore"
)

type program struct {
	label  string
	module hal.ShaderModule
}

// Prelude renders build defines as WGSL module-scope constants. Flags are
// not meaningful to the WGSL compiler and are left out.
func Prelude(opts gpucore.BuildOptions) string {
	var sb strings.Builder
	for _, def := range opts.Defines {
		if def.Value < 0 {
			fmt.Fprintf(&sb, "const %s: i32 = %di;\n", def.Name, def.Value)
		} else {
			fmt.Fprintf(&sb, "const %s: u32 = %du;\n", def.Name, def.Value)
		}
	}
	return sb.String()
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// CreateProgram compiles the program fragments as one WGSL module. Compiler
// diagnostics are returned in a *gpucore.CompileError.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if d.device == nil {
		return gpucore.InvalidID, gpucore.ErrDeviceDestroyed
	}
	if len(desc.Options.Flags) > 0 {
		d.emit("wgpu: ignoring build flags %q", strings.Join(desc.Options.Flags, " "))
	}

	src := Prelude(desc.Options) + strings.Join(desc.Fragments, "")
	spirv, err := compileWGSL(src)
	if err != nil {
		return gpucore.InvalidID, &gpucore.CompileError{Log: err.Error(), Err: err}
	}
	d.emit("wgpu: compiled %q (%d bytes WGSL, %d SPIR-V words)", desc.Label, len(src), len(spirv))

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, &gpucore.CompileError{Log: err.Error(), Err: err}
	}

	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &program{label: desc.Label, module: module}
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	if d.device != nil {
		d.device.DestroyShaderModule(p.module)
	}
}
