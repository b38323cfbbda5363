// SPDX-License-Identifier: EPL-2.0

package utils

import "testing"

func TestSignedFromU8(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   byte
		want int32
	}{
		{0, -128},
		{128, 0},
		{255, 127},
	}
	for _, c := range cases {
		if got := SignedFromU8(c.in); got != c.want {
			t.Errorf("SignedFromU8(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestU8FromSignedRoundTrip(t *testing.T) {
	t.Parallel()

	for i := -128; i <= 127; i++ {
		if got := SignedFromU8(U8FromSigned(int8(i))); got != int32(i) {
			t.Fatalf("round trip of %d gave %d", i, got)
		}
	}
}

func TestNarrowToInt16(t *testing.T) {
	t.Parallel()

	for _, ok := range []int32{32767, -32768, 0} {
		if _, err := NarrowToInt16(ok); err != nil {
			t.Errorf("NarrowToInt16(%d) error = %v, want nil", ok, err)
		}
	}
	for _, bad := range []int32{32768, -32769} {
		if _, err := NarrowToInt16(bad); err == nil {
			t.Errorf("NarrowToInt16(%d) error = nil, want overflow", bad)
		}
	}
}

func TestNarrowToInt24(t *testing.T) {
	t.Parallel()

	for _, ok := range []int32{8388607, -8388608} {
		if _, err := NarrowToInt24(ok); err != nil {
			t.Errorf("NarrowToInt24(%d) error = %v, want nil", ok, err)
		}
	}
	for _, bad := range []int32{8388608, -8388609} {
		if _, err := NarrowToInt24(bad); err == nil {
			t.Errorf("NarrowToInt24(%d) error = nil, want overflow", bad)
		}
	}
}
