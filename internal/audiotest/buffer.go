// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds fixture builders shared by the decoder
// tests: an in-memory seekable buffer for encoders that patch up
// headers after the fact, an MSB-first bit writer, and a synthetic
// FLAC stream builder with valid checksums.
package audiotest

import (
	"fmt"
	"io"
)

// Buffer is an in-memory io.WriteSeeker. The go-audio encoders seek
// back to fill in chunk sizes, which bytes.Buffer cannot do.
type Buffer struct {
	data []byte
	pos  int64
}

func (b *Buffer) Write(p []byte) (int, error) {
	if need := b.pos + int64(len(p)); need > int64(len(b.data)) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += int64(len(p))
	return len(p), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.pos + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("audiotest: bad whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("audiotest: seek before start")
	}
	b.pos = pos
	return pos, nil
}

// Bytes returns everything written so far.
func (b *Buffer) Bytes() []byte { return b.data }
