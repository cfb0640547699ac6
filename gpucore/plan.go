package gpucore

import "fmt"

// WorkGroupPlan is the 2-D work distribution used by every per-pixel
// dispatch. It is computed once per device and never changes.
type WorkGroupPlan struct {
	// Local is the work-group tile size (lx, ly).
	Local Size2

	// Global is the image size padded up to a multiple of Local.
	Global Size2
}

// Groups returns the number of work-groups in the plan.
func (p WorkGroupPlan) Groups() int {
	return (p.Global[0] / p.Local[0]) * (p.Global[1] / p.Local[1])
}

// String returns e.g. "8x8 tiles over 16x16".
func (p WorkGroupPlan) String() string {
	return fmt.Sprintf("%dx%d tiles over %dx%d", p.Local[0], p.Local[1], p.Global[0], p.Global[1])
}

// PlanWorkGroups computes the work-group tiling for an image.
//
// The tile starts square with side equal to the smallest power of two not
// below sqrt(maxWorkGroupSize). While the tile holds more than
// maxWorkGroupSize items, x and y are halved in turn, x first. The global
// size is the image size padded to the next multiple of the tile.
//
// Both tile dimensions are always powers of two, also when
// maxWorkGroupSize itself is not.
func PlanWorkGroups(width, height, maxWorkGroupSize int) (WorkGroupPlan, error) {
	if width <= 0 || height <= 0 {
		return WorkGroupPlan{}, fmt.Errorf("%w: image %dx%d", ErrInvalidSize, width, height)
	}
	if maxWorkGroupSize <= 0 {
		return WorkGroupPlan{}, fmt.Errorf("%w: max work-group size %d", ErrInvalidSize, maxWorkGroupSize)
	}

	side := 1
	for side*side < maxWorkGroupSize {
		side *= 2
	}

	local := Size2{side, side}
	for i := 0; local[0]*local[1] > maxWorkGroupSize; i++ {
		local[i%2] /= 2
	}

	return WorkGroupPlan{
		Local:  local,
		Global: Size2{padTo(width, local[0]), padTo(height, local[1])},
	}, nil
}

// padTo returns the smallest multiple of m that is >= n.
func padTo(n, m int) int {
	if r := n % m; r != 0 {
		return n + m - r
	}
	return n
}
