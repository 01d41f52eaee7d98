// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
)

func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Int16ToFloat32 scales a signed 16-bit sample into [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 scales a signed PCM sample of the given bit depth into
// [-1, 1). Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(float64(v) / 2147483648.0)
	default:
		return float32(v) / 32768.0
	}
}

// PutFloat32LE encodes samples as little-endian IEEE-754 into dst and
// returns the number of bytes written. dst must hold 4*len(samples) bytes.
func PutFloat32LE(dst []byte, samples []float32) int {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(s))
	}
	return 4 * len(samples)
}
