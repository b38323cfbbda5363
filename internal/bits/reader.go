// SPDX-License-Identifier: EPL-2.0

// Package bits provides an MSB-first bit reader over a byte stream,
// with running CRC-8 and CRC-16 checksums of the consumed bytes.
package bits

import "io"

// Reader is a sequential bit-level cursor over an io.Reader. Bits are
// consumed most significant first. The cursor only moves forward; the
// only alignment operation is discarding bits up to the next byte
// boundary.
//
// Every byte pulled from the source updates the two running checksums,
// which callers can query and reset independently of the bit cursor.
type Reader struct {
	r        io.Reader
	data     uint8 // unconsumed bits of the current byte, MSB-aligned
	bitsLeft uint  // number of unconsumed bits in data
	crc8     uint8
	crc16    uint16
	buf      [1]byte
}

// NewReader returns a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// readByte pulls the next byte from the source and folds it into both
// running checksums.
func (r *Reader) readByte() (byte, error) {
	if _, err := io.ReadFull(r.r, r.buf[:1]); err != nil {
		return 0, err
	}
	b := r.buf[0]
	r.updateCRC(b)
	return b, nil
}

func (r *Reader) updateCRC(b byte) {
	r.crc8 = crc8Table[r.crc8^b]
	r.crc16 = r.crc16<<8 ^ crc16Table[byte(r.crc16>>8)^b]
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint8, error) {
	if r.bitsLeft == 0 {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		r.data = b << 1
		r.bitsLeft = 7
		return b >> 7, nil
	}
	bit := r.data >> 7
	r.data <<= 1
	r.bitsLeft--
	return bit, nil
}

// ReadBits reads n bits, 0 < n <= 64, and returns them as an unsigned
// integer built MSB first. If the source ends after some of the n bits
// were already consumed the error is io.ErrUnexpectedEOF; if it ends on
// the value boundary the error is io.EOF.
func (r *Reader) ReadBits(n uint) (uint64, error) {
	var v uint64
	started := false

	if take := min(n, r.bitsLeft); take > 0 {
		v = uint64(r.data >> (8 - take))
		r.data <<= take
		r.bitsLeft -= take
		n -= take
		started = true
	}
	for n >= 8 {
		b, err := r.readByte()
		if err != nil {
			return 0, eofToUnexpected(err, started)
		}
		v = v<<8 | uint64(b)
		n -= 8
		started = true
	}
	if n > 0 {
		b, err := r.readByte()
		if err != nil {
			return 0, eofToUnexpected(err, started)
		}
		v = v<<n | uint64(b>>(8-n))
		r.data = b << n
		r.bitsLeft = 8 - n
	}
	return v, nil
}

// ReadBitsSigned reads n bits, 0 < n <= 64, as a two's complement
// signed integer, extending the sign bit.
func (r *Reader) ReadBitsSigned(n uint) (int64, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	return int64(v<<(64-n)) >> (64 - n), nil
}

// ReadUnary counts consecutive zero bits up to and including the
// terminating one bit, returning the count of zeros. A source that
// ends before the terminating one yields io.ErrUnexpectedEOF.
func (r *Reader) ReadUnary() (uint32, error) {
	var n uint32
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, eofToUnexpected(err, true)
		}
		if bit == 1 {
			return n, nil
		}
		n++
	}
}

// Align discards bits up to the next byte boundary.
func (r *Reader) Align() {
	r.data = 0
	r.bitsLeft = 0
}

// Aligned reports whether the cursor sits on a byte boundary.
func (r *Reader) Aligned() bool {
	return r.bitsLeft == 0
}

// ReadBytes fills p with whole bytes. The cursor must be byte aligned.
func (r *Reader) ReadBytes(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		return err
	}
	for _, b := range p {
		r.updateCRC(b)
	}
	return nil
}

// SkipBytes discards n whole bytes. The cursor must be byte aligned.
func (r *Reader) SkipBytes(n int64) error {
	var scratch [1024]byte
	for n > 0 {
		chunk := scratch[:min(n, int64(len(scratch)))]
		if err := r.ReadBytes(chunk); err != nil {
			return eofToUnexpected(err, true)
		}
		n -= int64(len(chunk))
	}
	return nil
}

// CRC8 returns the running 8-bit checksum of all bytes consumed since
// the last ResetCRC8.
func (r *Reader) CRC8() uint8 { return r.crc8 }

// CRC16 returns the running 16-bit checksum of all bytes consumed
// since the last ResetCRC16.
func (r *Reader) CRC16() uint16 { return r.crc16 }

// ResetCRC8 restarts the 8-bit checksum.
func (r *Reader) ResetCRC8() { r.crc8 = 0 }

// ResetCRC16 restarts the 16-bit checksum.
func (r *Reader) ResetCRC16() { r.crc16 = 0 }

func eofToUnexpected(err error, started bool) error {
	if started && err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
