// SPDX-License-Identifier: EPL-2.0

package bits

import (
	"bytes"
	"io"
	"testing"
)

func TestReadBits_MSBFirst(t *testing.T) {
	t.Parallel()

	// 0b10110100 0b11001010
	r := NewReader(bytes.NewReader([]byte{0xb4, 0xca}))

	v, err := r.ReadBits(3)
	if err != nil {
		t.Fatalf("ReadBits(3) error = %v", err)
	}
	if v != 0b101 {
		t.Errorf("ReadBits(3) = %#b, want 0b101", v)
	}

	// Crosses the byte boundary.
	v, err = r.ReadBits(9)
	if err != nil {
		t.Fatalf("ReadBits(9) error = %v", err)
	}
	if v != 0b10100_1100 {
		t.Errorf("ReadBits(9) = %#b, want 0b101001100", v)
	}

	v, err = r.ReadBits(4)
	if err != nil {
		t.Fatalf("ReadBits(4) error = %v", err)
	}
	if v != 0b1010 {
		t.Errorf("ReadBits(4) = %#b, want 0b1010", v)
	}
}

func TestReadBits_64Bits(t *testing.T) {
	t.Parallel()

	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	r := NewReader(bytes.NewReader(data))

	v, err := r.ReadBits(64)
	if err != nil {
		t.Fatalf("ReadBits(64) error = %v", err)
	}
	if v != 0x0123456789abcdef {
		t.Errorf("ReadBits(64) = %#x, want 0x0123456789abcdef", v)
	}
}

func TestReadBitsSigned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		n    uint
		want int64
	}{
		{"positive", []byte{0b0101_0000}, 4, 5},
		{"negative", []byte{0b1011_0000}, 4, -5},
		{"minimum", []byte{0b1000_0000}, 4, -8},
		{"minus one", []byte{0xff}, 8, -1},
		{"wide negative", []byte{0xff, 0xfe}, 16, -2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewReader(bytes.NewReader(tt.data))
			v, err := r.ReadBitsSigned(tt.n)
			if err != nil {
				t.Fatalf("ReadBitsSigned(%d) error = %v", tt.n, err)
			}
			if v != tt.want {
				t.Errorf("ReadBitsSigned(%d) = %d, want %d", tt.n, v, tt.want)
			}
		})
	}
}

func TestReadUnary(t *testing.T) {
	t.Parallel()

	// 0b00010010 0b10000000: unary 3, 2, then 1 spanning the byte
	// boundary, then zeros forever.
	r := NewReader(bytes.NewReader([]byte{0x12, 0x80}))

	for i, want := range []uint32{3, 2, 1} {
		v, err := r.ReadUnary()
		if err != nil {
			t.Fatalf("ReadUnary() #%d error = %v", i, err)
		}
		if v != want {
			t.Errorf("ReadUnary() #%d = %d, want %d", i, v, want)
		}
	}

	// The remaining bits are all zero, so the terminating one bit never
	// arrives.
	if _, err := r.ReadUnary(); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadUnary() past end error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadBits_EOFSemantics(t *testing.T) {
	t.Parallel()

	t.Run("clean boundary", func(t *testing.T) {
		t.Parallel()

		r := NewReader(bytes.NewReader([]byte{0xaa}))
		if _, err := r.ReadBits(8); err != nil {
			t.Fatalf("ReadBits(8) error = %v", err)
		}
		if _, err := r.ReadBits(8); err != io.EOF {
			t.Errorf("ReadBits(8) at end error = %v, want io.EOF", err)
		}
	})

	t.Run("mid value", func(t *testing.T) {
		t.Parallel()

		r := NewReader(bytes.NewReader([]byte{0xaa}))
		if _, err := r.ReadBits(16); err != io.ErrUnexpectedEOF {
			t.Errorf("ReadBits(16) error = %v, want io.ErrUnexpectedEOF", err)
		}
	})

	t.Run("empty source", func(t *testing.T) {
		t.Parallel()

		r := NewReader(bytes.NewReader(nil))
		if _, err := r.ReadBits(8); err != io.EOF {
			t.Errorf("ReadBits(8) on empty error = %v, want io.EOF", err)
		}
	})
}

func TestAlign(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader([]byte{0xff, 0x0f}))
	if !r.Aligned() {
		t.Error("fresh reader not aligned")
	}

	if _, err := r.ReadBits(3); err != nil {
		t.Fatalf("ReadBits(3) error = %v", err)
	}
	if r.Aligned() {
		t.Error("Aligned() = true after 3 bits")
	}

	r.Align()
	if !r.Aligned() {
		t.Error("Aligned() = false after Align")
	}
	v, err := r.ReadBits(8)
	if err != nil {
		t.Fatalf("ReadBits(8) error = %v", err)
	}
	if v != 0x0f {
		t.Errorf("ReadBits(8) after Align = %#x, want 0x0f", v)
	}
}

func TestReadBytes_UpdatesChecksums(t *testing.T) {
	t.Parallel()

	data := []byte("123456789")
	r := NewReader(bytes.NewReader(data))

	got := make([]byte, len(data))
	if err := r.ReadBytes(got); err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadBytes() = %q, want %q", got, data)
	}
	if r.CRC8() != CRC8(data) {
		t.Errorf("running CRC8 = %#02x, want %#02x", r.CRC8(), CRC8(data))
	}
	if r.CRC16() != CRC16(data) {
		t.Errorf("running CRC16 = %#04x, want %#04x", r.CRC16(), CRC16(data))
	}
}

func TestSkipBytes(t *testing.T) {
	t.Parallel()

	data := make([]byte, 3000)
	data[2999] = 0x42
	r := NewReader(bytes.NewReader(data))

	if err := r.SkipBytes(2999); err != nil {
		t.Fatalf("SkipBytes() error = %v", err)
	}
	v, err := r.ReadBits(8)
	if err != nil {
		t.Fatalf("ReadBits(8) error = %v", err)
	}
	if v != 0x42 {
		t.Errorf("byte after skip = %#x, want 0x42", v)
	}

	if err := r.SkipBytes(1); err != io.ErrUnexpectedEOF {
		t.Errorf("SkipBytes() past end error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestResetCRC(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef}))
	if _, err := r.ReadBits(16); err != nil {
		t.Fatalf("ReadBits(16) error = %v", err)
	}

	r.ResetCRC8()
	r.ResetCRC16()
	if _, err := r.ReadBits(16); err != nil {
		t.Fatalf("ReadBits(16) error = %v", err)
	}

	rest := []byte{0xbe, 0xef}
	if r.CRC8() != CRC8(rest) {
		t.Errorf("CRC8 after reset = %#02x, want %#02x", r.CRC8(), CRC8(rest))
	}
	if r.CRC16() != CRC16(rest) {
		t.Errorf("CRC16 after reset = %#04x, want %#04x", r.CRC16(), CRC16(rest))
	}
}
