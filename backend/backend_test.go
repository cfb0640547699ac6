package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/lensed/gpucore"
)

func TestRegistry(t *testing.T) {
	const name = "test-backend"
	var got Options
	Register(name, func(opts Options) (gpucore.Device, error) {
		got = opts
		return nil, gpucore.ErrNoDevice
	})
	defer Unregister(name)

	if !IsRegistered(name) {
		t.Fatalf("IsRegistered(%q) = false", name)
	}

	found := false
	for _, n := range Available() {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, missing %q", Available(), name)
	}

	_, err := Acquire(name, Options{Class: gpucore.DeviceGPU})
	if !errors.Is(err, gpucore.ErrNoDevice) {
		t.Errorf("Acquire error = %v, want ErrNoDevice", err)
	}
	if got.Class != gpucore.DeviceGPU {
		t.Errorf("factory saw class %v, want GPU", got.Class)
	}
}

func TestAcquireUnknown(t *testing.T) {
	_, err := Acquire("does-not-exist", Options{})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Fatalf("Acquire error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestDefaultPriority(t *testing.T) {
	noop := func(Options) (gpucore.Device, error) { return nil, nil }

	Register(BackendSoftware, noop)
	defer Unregister(BackendSoftware)
	if got := Default(); got != BackendSoftware && got != BackendWGPU {
		t.Errorf("Default() = %q", got)
	}

	Register(BackendWGPU, noop)
	defer Unregister(BackendWGPU)
	if got := Default(); got != BackendWGPU {
		t.Errorf("Default() = %q, want %q", got, BackendWGPU)
	}
}

func TestOptionsNotifier(t *testing.T) {
	var msgs []string
	o := Options{Notify: func(m string) { msgs = append(msgs, m) }}
	o.Notifier()("hello")
	if len(msgs) != 1 || msgs[0] != "hello" {
		t.Errorf("msgs = %v", msgs)
	}

	// A nil sink must be safe to call.
	Options{}.Notifier()("dropped")
}

func TestAcquireDefaultSkipsMissingClass(t *testing.T) {
	var calls []string
	factory := func(name string, err error) Factory {
		return func(Options) (gpucore.Device, error) {
			calls = append(calls, name)
			return nil, err
		}
	}
	errBroken := errors.New("driver crashed")

	tests := []struct {
		name      string
		wgpu, sw  error
		wantCalls []string
		want      error
	}{
		{"first serves", nil, nil, []string{BackendWGPU}, nil},
		{"skips backend without class", gpucore.ErrNoDevice, nil, []string{BackendWGPU, BackendSoftware}, nil},
		{"none serves", gpucore.ErrNoDevice, gpucore.ErrNoDevice, []string{BackendWGPU, BackendSoftware}, gpucore.ErrNoDevice},
		{"other errors stop", errBroken, nil, []string{BackendWGPU}, errBroken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = nil
			Register(BackendWGPU, factory(BackendWGPU, tt.wgpu))
			Register(BackendSoftware, factory(BackendSoftware, tt.sw))
			defer Unregister(BackendWGPU)
			defer Unregister(BackendSoftware)

			_, err := Acquire("", Options{Class: gpucore.DeviceCPU})
			if tt.want == nil && err != nil {
				t.Errorf("Acquire error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Acquire error = %v, want %v", err, tt.want)
			}
			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("tried %v, want %v", calls, tt.wantCalls)
			}
			for i := range calls {
				if calls[i] != tt.wantCalls[i] {
					t.Errorf("tried %v, want %v", calls, tt.wantCalls)
				}
			}
		})
	}
}
