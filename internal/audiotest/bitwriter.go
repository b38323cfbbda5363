// SPDX-License-Identifier: EPL-2.0

package audiotest

// BitWriter packs values most-significant-bit first, the mirror of the
// module's bit reader. It is a test fixture tool and panics on misuse
// rather than returning errors.
type BitWriter struct {
	buf  []byte
	cur  uint8
	bits uint
}

// WriteBits appends the low n bits of v, most significant first.
func (w *BitWriter) WriteBits(v uint64, n uint) {
	if n > 64 {
		panic("audiotest: more than 64 bits")
	}
	for i := int(n) - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | uint8(v>>uint(i)&1)
		w.bits++
		if w.bits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.bits = 0, 0
		}
	}
}

// WriteUnary appends v zero bits followed by a one bit.
func (w *BitWriter) WriteUnary(v uint) {
	w.WriteBits(0, v)
	w.WriteBits(1, 1)
}

// Align pads the current byte with zero bits.
func (w *BitWriter) Align() {
	for w.bits != 0 {
		w.WriteBits(0, 1)
	}
}

// Bytes aligns and returns the packed stream.
func (w *BitWriter) Bytes() []byte {
	w.Align()
	return w.buf
}
