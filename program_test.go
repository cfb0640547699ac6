package lensed

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/lensed/backend/software"
	"github.com/gogpu/lensed/gpucore"
)

func TestBuildOptions(t *testing.T) {
	src := KernelSource{Defines: []gpucore.Define{{Name: "NOBJ", Value: 2}}}
	plan := gpucore.WorkGroupPlan{Local: gpucore.Size2{8, 4}, Global: gpucore.Size2{16, 8}}
	opts := BuildOptions(src, 13, 7, 9, plan)

	if !slices.Equal(opts.Flags, BuildFlags) {
		t.Errorf("Flags = %v, want %v", opts.Flags, BuildFlags)
	}
	want := []gpucore.Define{
		{Name: "NOBJ", Value: 2},
		{Name: "WIDTH", Value: 13}, {Name: "HEIGHT", Value: 7}, {Name: "NQ", Value: 9},
		{Name: "LOCAL_X", Value: 8}, {Name: "LOCAL_Y", Value: 4},
	}
	if !slices.Equal(opts.Defines, want) {
		t.Errorf("Defines = %v, want %v", opts.Defines, want)
	}

	opts.Flags[0] = "-changed"
	if BuildFlags[0] == "-changed" {
		t.Error("BuildOptions aliases BuildFlags")
	}
}

func TestBuildProgram(t *testing.T) {
	dev := testDevice(t)

	src := KernelSource{Fragments: []string{"// a\n", "// b\n"}}
	plan, err := gpucore.PlanWorkGroups(4, 4, dev.MaxWorkGroupSize())
	if err != nil {
		t.Fatal(err)
	}
	prog, err := BuildProgram(dev, src, 4, 4, 1, plan)
	if err != nil {
		t.Fatal(err)
	}
	defer prog.Release()

	if v, ok := prog.Options.Lookup("LOCAL_X"); !ok || v != int64(plan.Local[0]) {
		t.Errorf("LOCAL_X = %d, %v", v, ok)
	}
	got, ok := dev.Device.(*software.Device).Source(prog.ID)
	if !ok || got != "// a\n// b\n" {
		t.Errorf("program source = %q, %v", got, ok)
	}
}

func TestBuildProgramError(t *testing.T) {
	dev := testDevice(t)
	plan, _ := gpucore.PlanWorkGroups(4, 4, dev.MaxWorkGroupSize())

	_, err := BuildProgram(dev, KernelSource{}, 4, 4, 1, plan)
	var be *BuildError
	if !errors.As(err, &be) || !errors.Is(err, ErrBuild) {
		t.Fatalf("BuildProgram() error = %v, want *BuildError", err)
	}
	if be.Log == "" {
		t.Error("BuildError carries no compiler log")
	}
	var ce *gpucore.CompileError
	if !errors.As(err, &ce) {
		t.Error("BuildError does not wrap the *CompileError")
	}
}

func TestWriteKernelSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.wgsl")
	frags := []string{"const A: u32 = 1u;\n", "", "fn f() {}\n"}
	if err := WriteKernelSource(path, frags); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != strings.Join(frags, "") {
		t.Errorf("file = %q, want %q", got, strings.Join(frags, ""))
	}

	if err := WriteKernelSource(filepath.Join(t.TempDir(), "missing", "k.wgsl"), frags); err == nil {
		t.Error("WriteKernelSource() into a missing directory succeeded")
	}
}
