// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/decant/audio"
)

// framesPerRead is how many sample times one NextFrame call yields.
// 1152 is the granule size of an MPEG-1 layer III frame.
const framesPerRead = 1152

// Decoder adapts the go-mp3 decoder to audio.Decoder. The underlying
// library always produces 16-bit little-endian stereo, so Info reports
// two channels at 16 bits regardless of the source layout.
type Decoder struct {
	dec  *gomp3.Decoder
	info audio.StreamInfo

	raw []byte
	out []int32
}

// NewDecoder probes the stream for an MPEG frame and prepares it for
// decoding.
func NewDecoder(r io.Reader) (*Decoder, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: opening stream: %w", audio.ErrInvalidFormat)
	}

	info := audio.StreamInfo{
		SampleRate:    uint32(dec.SampleRate()),
		Channels:      2,
		BitsPerSample: 16,
	}
	// Length is the decoded byte count, or -1 when the source is not
	// seekable. Four bytes per sample time (two 16-bit channels).
	if n := dec.Length(); n > 0 {
		info.TotalSamples = uint64(n) / 4
	}
	return &Decoder{dec: dec, info: info}, nil
}

// Info returns the stream properties.
func (d *Decoder) Info() audio.StreamInfo { return d.info }

// NextFrame decodes up to framesPerRead sample times of interleaved
// stereo.
func (d *Decoder) NextFrame() ([]int32, error) {
	want := framesPerRead * 4
	if cap(d.raw) < want {
		d.raw = make([]byte, want)
	}
	d.raw = d.raw[:want]

	n, err := io.ReadFull(d.dec, d.raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("mp3: decoding frame: %w", err)
	}
	// Whole sample times only; the decoder never splits one.
	n -= n % 4
	if n == 0 {
		return nil, io.EOF
	}

	count := n / 2
	if cap(d.out) < count {
		d.out = make([]int32, count)
	}
	d.out = d.out[:count]
	for i := 0; i < count; i++ {
		d.out[i] = int32(int16(binary.LittleEndian.Uint16(d.raw[2*i:])))
	}
	return d.out, nil
}
