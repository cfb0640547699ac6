package gpucore

import (
	"encoding/binary"
	"math"
)

// Device buffers are little-endian, as on every backend we target.

// Float32Bytes packs float32 values into a byte slice for upload.
func Float32Bytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Float2Bytes packs float2 vectors for upload.
func Float2Bytes(v []Float2) []byte {
	out := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(f.X))
		binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(f.Y))
	}
	return out
}

// PutFloat64s converts float64 values to device float32 in place of dst.
// dst must hold at least 4*len(v) bytes.
func PutFloat64s(dst []byte, v []float64) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(float32(f)))
	}
}

// Float32s decodes a byte slice of packed float32 values into dst.
func Float32s(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

// Float4s decodes a byte slice of packed float4 values into dst.
func Float4s(dst []Float4, src []byte) {
	for i := range dst {
		for c := 0; c < 4; c++ {
			dst[i].S[c] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*16+c*4:]))
		}
	}
}
