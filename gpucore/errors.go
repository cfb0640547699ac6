package gpucore

import (
	"errors"
	"fmt"
)

// Package errors for device backends.
var (
	// ErrNoDevice is returned when no device of the requested class exists.
	ErrNoDevice = errors.New("gpucore: no matching compute device")

	// ErrInvalidID is returned when a resource ID is unknown to the device.
	ErrInvalidID = errors.New("gpucore: invalid resource id")

	// ErrInvalidSize is returned for zero or out-of-range sizes.
	ErrInvalidSize = errors.New("gpucore: invalid size")

	// ErrNotHostReadable is returned when reading a buffer created without MemHostRead.
	ErrNotHostReadable = errors.New("gpucore: buffer is not host readable")

	// ErrUnknownEntryPoint is returned when a program has no such kernel.
	ErrUnknownEntryPoint = errors.New("gpucore: unknown kernel entry point")

	// ErrDeviceDestroyed is returned when using a destroyed device.
	ErrDeviceDestroyed = errors.New("gpucore: device has been destroyed")
)

// CompileError reports a failed program compilation together with the
// compiler's diagnostic log.
type CompileError struct {
	// Log is the compiler output.
	Log string

	// Err is the underlying backend error, if any.
	Err error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpucore: program compilation failed: %v", e.Err)
	}
	return "gpucore: program compilation failed"
}

func (e *CompileError) Unwrap() error { return e.Err }
