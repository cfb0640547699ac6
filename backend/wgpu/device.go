//go:build !nogpu

package wgpu

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/lensed/backend"
	"github.com/gogpu/lensed/gpucore"
)

// maxInvocationsPerWorkgroup is the WebGPU default limit for
// maxComputeInvocationsPerWorkgroup, requested with DefaultLimits.
const maxInvocationsPerWorkgroup = 256

// waitTimeout bounds a single fence wait. Likelihood dispatches over large
// images with many quadrature points can run for seconds on small GPUs.
const waitTimeout = 60 * time.Second

func init() {
	backend.Register(backend.BackendWGPU, func(opts backend.Options) (gpucore.Device, error) {
		return Open(opts.Class, opts.Notify)
	})
}

// Device is a compute device on a wgpu HAL device and queue.
//
// Dispatches are recorded and submitted together when the host next
// touches device memory or calls Finish, so the queue stays in order.
//
// Device is not safe for concurrent use.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool

	info   gpucore.DeviceInfo
	notify gpucore.NotifyFunc

	nextID   uint64
	buffers  map[gpucore.BufferID]*buffer
	programs map[gpucore.ProgramID]*program
	kernels  map[gpucore.KernelID]*kernel
	pending  []dispatch
}

var _ gpucore.Device = (*Device)(nil)

// Open selects an adapter of the requested class and opens a device on it.
func Open(class gpucore.DeviceClass, notify gpucore.NotifyFunc) (*Device, error) {
	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", gpucore.ErrNoDevice)
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		// no loader or driver means no adapter of any class
		return nil, fmt.Errorf("%w: create vulkan instance: %v", gpucore.ErrNoDevice, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapterClass(adapters[i].Info.DeviceType) == class {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no %s adapter among %d", gpucore.ErrNoDevice, class, len(adapters))
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device %q: %w", selected.Info.Name, err)
	}

	d := newDevice(openDev.Device, openDev.Queue, notify)
	d.instance = instance
	d.info.Name = selected.Info.Name
	d.info.Class = class
	slogger().Info("wgpu: device opened", "adapter", selected.Info.Name, "class", class.String())
	return d, nil
}

// FromProvider wraps a HAL device owned by the host application. The
// provider must expose HalDevice() and HalQueue() returning hal.Device and
// hal.Queue. Destroy releases lensed resources but leaves the device open.
func FromProvider(provider gpucontext.DeviceProvider, notify gpucore.NotifyFunc) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", gpucore.ErrNoDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", gpucore.ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", gpucore.ErrNoDevice)
	}

	d := newDevice(device, queue, notify)
	d.external = true
	d.info.Name = "shared device"
	d.info.Class = gpucore.DeviceGPU
	slogger().Info("wgpu: using shared device")
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, notify gpucore.NotifyFunc) *Device {
	return &Device{
		device: device,
		queue:  queue,
		notify: notify,
		info: gpucore.DeviceInfo{
			Backend:          backend.BackendWGPU,
			MaxWorkGroupSize: maxInvocationsPerWorkgroup,
		},
		buffers:  make(map[gpucore.BufferID]*buffer),
		programs: make(map[gpucore.ProgramID]*program),
		kernels:  make(map[gpucore.KernelID]*kernel),
	}
}

// adapterClass maps a WebGPU device type to a device class. Virtual and
// unknown adapters are treated as GPUs.
func adapterClass(t gputypes.DeviceType) gpucore.DeviceClass {
	if t == gputypes.DeviceTypeCPU {
		return gpucore.DeviceCPU
	}
	return gpucore.DeviceGPU
}

// SetLogger sets the logger for the wgpu backend.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// emit forwards a diagnostic to the notification sink and the debug log.
func (d *Device) emit(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slogger().Debug(msg)
	if d.notify != nil {
		d.notify(msg)
	}
}

// Info describes the device.
func (d *Device) Info() gpucore.DeviceInfo { return d.info }

// MaxWorkGroupSize returns the work-group invocation limit.
func (d *Device) MaxWorkGroupSize() int { return d.info.MaxWorkGroupSize }

// Destroy releases every resource created through the device, then the
// device itself unless it is shared.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	d.pending = nil
	for id := range d.kernels {
		d.DestroyKernel(id)
	}
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
