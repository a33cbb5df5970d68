package fft

import "unsafe"

// The engine contract moves raw byte buffers. These helpers view typed slices
// as bytes and back without copying, so a view shares memory with its
// argument.

// Float32Bytes views s as its bytes in native byte order.
func Float32Bytes(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
}

// Float64Bytes views s as its bytes.
func Float64Bytes(s []float64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
}

// Complex64Bytes views s as interleaved float32 real and imaginary parts.
func Complex64Bytes(s []complex64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
}

// Complex128Bytes views s as interleaved float64 real and imaginary parts.
func Complex128Bytes(s []complex128) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*16)
}

func bytesFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func bytesFloat64(b []byte) []float64 {
	if len(b) < 8 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&b[0])), len(b)/8)
}

func bytesComplex64(b []byte) []complex64 {
	if len(b) < 8 {
		return nil
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(&b[0])), len(b)/8)
}

func bytesComplex128(b []byte) []complex128 {
	if len(b) < 16 {
		return nil
	}
	return unsafe.Slice((*complex128)(unsafe.Pointer(&b[0])), len(b)/16)
}
