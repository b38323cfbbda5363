// SPDX-License-Identifier: EPL-2.0

// Package utils provides small sample conversion helpers shared by the
// format decoders.
package utils

import (
	"fmt"
	"math"
)

// SignedFromU8 converts an offset-binary 8-bit sample (0-255, silence
// at 128) to its signed value.
func SignedFromU8(x byte) int32 {
	return int32(x) - 128
}

// U8FromSigned converts a signed 8-bit sample to offset-binary.
func U8FromSigned(x int8) byte {
	return byte(int16(x) + 128)
}

// NarrowToInt16 casts a sample to 16 bits, failing on overflow.
func NarrowToInt16(x int32) (int16, error) {
	if x < math.MinInt16 || x > math.MaxInt16 {
		return 0, fmt.Errorf("sample %d does not fit in 16 bits", x)
	}
	return int16(x), nil
}

// NarrowToInt24 casts a sample to 24 bits, failing on overflow.
func NarrowToInt24(x int32) (int32, error) {
	if x < -(1<<23) || x > 1<<23-1 {
		return 0, fmt.Errorf("sample %d does not fit in 24 bits", x)
	}
	return x, nil
}
