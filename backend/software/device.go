package software

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/lensed/backend"
	"github.com/gogpu/lensed/gpucore"
)

// DefaultMaxWorkGroupSize is the work-group limit reported by default.
const DefaultMaxWorkGroupSize = 256

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func(opts backend.Options) (gpucore.Device, error) {
		if opts.Class != gpucore.DeviceCPU {
			return nil, fmt.Errorf("%w: software backend provides no %s device", gpucore.ErrNoDevice, opts.Class)
		}
		return New(WithKernels(registeredKernels()), WithNotify(opts.Notify)), nil
	})
}

// Device is a pure-Go compute device. Kernels are Go functions looked up
// by entry point name; program sources are accepted for bookkeeping only.
//
// Dispatches execute synchronously when recorded, so the queue is trivially
// in order. Work-groups of one dispatch run concurrently.
//
// Device is not safe for concurrent use.
type Device struct {
	kernels Kernels
	notify  gpucore.NotifyFunc
	maxWG   int
	workers int

	nextID   uint64
	buffers  map[gpucore.BufferID]*buffer
	programs map[gpucore.ProgramID]*program
	bound    map[gpucore.KernelID]*kernel

	destroyed bool
}

type buffer struct {
	label string
	flags gpucore.MemFlags
	mem   Memory
}

type program struct {
	label   string
	source  string
	options gpucore.BuildOptions
}

type kernel struct {
	entry   string
	fn      KernelFunc
	program *program
	args    []gpucore.BufferID
}

// Option configures a software Device.
type Option func(*Device)

// WithKernels sets the kernel implementations available to programs.
func WithKernels(k Kernels) Option {
	return func(d *Device) {
		for name, fn := range k {
			d.kernels[name] = fn
		}
	}
}

// WithNotify sets the diagnostic sink.
func WithNotify(fn gpucore.NotifyFunc) Option {
	return func(d *Device) { d.notify = fn }
}

// WithMaxWorkGroupSize overrides the reported work-group limit.
func WithMaxWorkGroupSize(n int) Option {
	return func(d *Device) { d.maxWG = n }
}

// WithWorkers limits the number of concurrently executing work-groups.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		kernels:  make(Kernels),
		maxWG:    DefaultMaxWorkGroupSize,
		buffers:  make(map[gpucore.BufferID]*buffer),
		programs: make(map[gpucore.ProgramID]*program),
		bound:    make(map[gpucore.KernelID]*kernel),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers <= 0 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	return d
}

var _ gpucore.Device = (*Device)(nil)

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) emit(format string, args ...any) {
	if d.notify != nil {
		d.notify(fmt.Sprintf(format, args...))
	}
}

// Info describes the device.
func (d *Device) Info() gpucore.DeviceInfo {
	return gpucore.DeviceInfo{
		Name:             fmt.Sprintf("Go software device (%d workers)", d.workers),
		Backend:          backend.BackendSoftware,
		Class:            gpucore.DeviceCPU,
		MaxWorkGroupSize: d.maxWG,
	}
}

// MaxWorkGroupSize returns the configured work-group limit.
func (d *Device) MaxWorkGroupSize() int { return d.maxWG }

// CreateBuffer allocates host memory standing in for device memory.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if d.destroyed {
		return gpucore.InvalidID, gpucore.ErrDeviceDestroyed
	}
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q has zero size", gpucore.ErrInvalidSize, desc.Label)
	}
	if uint64(len(desc.Contents)) > desc.Size {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q contents exceed %d bytes", gpucore.ErrInvalidSize, desc.Label, desc.Size)
	}
	b := &buffer{label: desc.Label, flags: desc.Flags, mem: Memory{b: make([]byte, desc.Size)}}
	copy(b.mem.b, desc.Contents)

	id := gpucore.BufferID(d.newID())
	d.buffers[id] = b
	return id, nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	delete(d.buffers, id)
}

// WriteBuffer copies host data into a buffer.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrInvalidID, id)
	}
	if offset+uint64(len(data)) > uint64(b.mem.Len()) {
		return fmt.Errorf("%w: write of %d bytes at %d into %q (%d bytes)",
			gpucore.ErrInvalidSize, len(data), offset, b.label, b.mem.Len())
	}
	copy(b.mem.b[offset:], data)
	return nil
}

// ReadBuffer copies buffer contents to dst.
func (d *Device) ReadBuffer(id gpucore.BufferID, offset uint64, dst []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrInvalidID, id)
	}
	if b.flags&gpucore.MemHostRead == 0 {
		return fmt.Errorf("%w: %q", gpucore.ErrNotHostReadable, b.label)
	}
	if offset+uint64(len(dst)) > uint64(b.mem.Len()) {
		return fmt.Errorf("%w: read of %d bytes at %d from %q (%d bytes)",
			gpucore.ErrInvalidSize, len(dst), offset, b.label, b.mem.Len())
	}
	copy(dst, b.mem.b[offset:])
	return nil
}

// CreateProgram records the program source and options. An empty
// compilation unit is rejected the way a device compiler would.
func (d *Device) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if d.destroyed {
		return gpucore.InvalidID, gpucore.ErrDeviceDestroyed
	}
	src := strings.Join(desc.Fragments, "")
	if strings.TrimSpace(src) == "" {
		return gpucore.InvalidID, &gpucore.CompileError{Log: "error: empty compilation unit"}
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &program{label: desc.Label, source: src, options: desc.Options}
	d.emit("software: program %q accepted (%d bytes, options %q)", desc.Label, len(src), desc.Options.String())
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	delete(d.programs, id)
}

// CreateKernel binds a registered Go kernel to argument buffers.
func (d *Device) CreateKernel(desc *gpucore.KernelDesc) (gpucore.KernelID, error) {
	p, ok := d.programs[desc.Program]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: program %d", gpucore.ErrInvalidID, desc.Program)
	}
	fn, ok := d.kernels[desc.EntryPoint]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: %q", gpucore.ErrUnknownEntryPoint, desc.EntryPoint)
	}
	for i, arg := range desc.Args {
		if _, ok := d.buffers[arg]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: argument %d of %q", gpucore.ErrInvalidID, i, desc.EntryPoint)
		}
	}
	id := gpucore.KernelID(d.newID())
	d.bound[id] = &kernel{
		entry:   desc.EntryPoint,
		fn:      fn,
		program: p,
		args:    append([]gpucore.BufferID(nil), desc.Args...),
	}
	return id, nil
}

// DestroyKernel releases a kernel.
func (d *Device) DestroyKernel(id gpucore.KernelID) {
	delete(d.bound, id)
}

// Dispatch runs the kernel over the global range, one goroutine per
// work-group up to the worker limit.
func (d *Device) Dispatch(id gpucore.KernelID, global, local gpucore.Size2) error {
	k, ok := d.bound[id]
	if !ok {
		return fmt.Errorf("%w: kernel %d", gpucore.ErrInvalidID, id)
	}
	for i := range global {
		if local[i] <= 0 || global[i] <= 0 || global[i]%local[i] != 0 {
			return fmt.Errorf("%w: global %v is not a multiple of local %v", gpucore.ErrInvalidSize, global, local)
		}
	}
	if local.Count() > d.maxWG {
		return fmt.Errorf("%w: work-group %v exceeds %d items", gpucore.ErrInvalidSize, local, d.maxWG)
	}

	args := make([]Memory, len(k.args))
	for i, arg := range k.args {
		b, ok := d.buffers[arg]
		if !ok {
			return fmt.Errorf("%w: argument %d of %q was destroyed", gpucore.ErrInvalidID, i, k.entry)
		}
		args[i] = b.mem
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for gy := 0; gy < global[1]; gy += local[1] {
		for gx := 0; gx < global[0]; gx += local[0] {
			origin := gpucore.Size2{gx, gy}
			g.Go(func() error {
				return d.runGroup(k, origin, global, local, args)
			})
		}
	}
	if err := g.Wait(); err != nil {
		d.emit("software: %v", err)
		return err
	}
	return nil
}

// runGroup executes every work-item of one work-group.
func (d *Device) runGroup(k *kernel, origin, global, local gpucore.Size2, args []Memory) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel %q panicked in work-group at %v: %v", k.entry, origin, r)
		}
	}()
	inv := Invocation{GlobalSize: global, Args: args, Options: &k.program.options}
	for y := 0; y < local[1]; y++ {
		for x := 0; x < local[0]; x++ {
			inv.GlobalID = gpucore.Size2{origin[0] + x, origin[1] + y}
			k.fn(&inv)
		}
	}
	return nil
}

// Finish is a no-op: dispatches complete before Dispatch returns.
func (d *Device) Finish() error {
	if d.destroyed {
		return gpucore.ErrDeviceDestroyed
	}
	return nil
}

// Destroy releases all resources.
func (d *Device) Destroy() {
	d.buffers = map[gpucore.BufferID]*buffer{}
	d.programs = map[gpucore.ProgramID]*program{}
	d.bound = map[gpucore.KernelID]*kernel{}
	d.destroyed = true
}

// Source returns the concatenated source of a program, for inspection.
func (d *Device) Source(id gpucore.ProgramID) (string, bool) {
	p, ok := d.programs[id]
	if !ok {
		return "", false
	}
	return p.source, true
}
