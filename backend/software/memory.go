package software

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/lensed/gpucore"
)

// Memory is a kernel's view of a device buffer. Element accessors use the
// little-endian device layout, so a buffer written by the host with
// gpucore.Float32Bytes reads back through Float32.
//
// Work-items may write distinct elements of the same Memory concurrently.
type Memory struct {
	b []byte
}

// Len returns the buffer size in bytes.
func (m Memory) Len() int { return len(m.b) }

// Bytes returns the underlying storage.
func (m Memory) Bytes() []byte { return m.b }

// Float32 returns element i of a float buffer.
func (m Memory) Float32(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(m.b[i*4:]))
}

// SetFloat32 stores element i of a float buffer.
func (m Memory) SetFloat32(i int, v float32) {
	binary.LittleEndian.PutUint32(m.b[i*4:], math.Float32bits(v))
}

// Float32At returns the float stored at a byte offset.
func (m Memory) Float32At(off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(m.b[off:]))
}

// SetFloat32At stores a float at a byte offset.
func (m Memory) SetFloat32At(off int, v float32) {
	binary.LittleEndian.PutUint32(m.b[off:], math.Float32bits(v))
}

// Float2 returns element i of a float2 buffer.
func (m Memory) Float2(i int) gpucore.Float2 {
	return gpucore.Float2{X: m.Float32(2 * i), Y: m.Float32(2*i + 1)}
}

// SetFloat4 stores element i of a float4 buffer.
func (m Memory) SetFloat4(i int, v gpucore.Float4) {
	for c := 0; c < 4; c++ {
		m.SetFloat32(4*i+c, v.S[c])
	}
}
