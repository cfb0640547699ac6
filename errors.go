package lensed

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	// ErrDevice is matched by *DeviceError.
	ErrDevice = errors.New("lensed: device error")

	// ErrBuild is matched by *BuildError.
	ErrBuild = errors.New("lensed: kernel build failed")

	// ErrAllocation is matched by *AllocationError.
	ErrAllocation = errors.New("lensed: device allocation failed")

	// ErrDegenerateFit is matched by *DegenerateFitError.
	ErrDegenerateFit = errors.New("lensed: no degrees of freedom")

	// ErrNoSummary is returned when a driver finishes without calling Dump.
	ErrNoSummary = errors.New("lensed: driver reported no summary")

	// ErrInvalidInput is returned for inconsistent objects or data.
	ErrInvalidInput = errors.New("lensed: invalid input")
)

// DeviceError reports a failure to acquire or drive the compute device.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("lensed: device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDevice.
func (e *DeviceError) Is(target error) bool { return target == ErrDevice }

// BuildError reports a failed kernel program build. Log holds the
// compiler output; it is logged at debug level when the build fails.
type BuildError struct {
	Op  string
	Log string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("lensed: kernel %s failed: %v (enable debug logging for the build log)", e.Op, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Is reports whether target is ErrBuild.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }

// AllocationError reports a failed device buffer or kernel creation.
type AllocationError struct {
	Op  string
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("lensed: allocate %s: %v", e.Op, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrAllocation.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// DegenerateFitError reports that the unmasked pixels do not exceed the
// number of parameters, so chi-square per degree of freedom is undefined.
type DegenerateFitError struct {
	Pixels int
	Masked int
	NDim   int
}

func (e *DegenerateFitError) Error() string {
	return fmt.Sprintf("lensed: %d pixels with %d masked leave no degrees of freedom for %d parameters",
		e.Pixels, e.Masked, e.NDim)
}

// Is reports whether target is ErrDegenerateFit.
func (e *DegenerateFitError) Is(target error) bool { return target == ErrDegenerateFit }
