// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ik5/decant/audio"
)

var (
	formID = []byte("FORM")
	aiffID = []byte("AIFF")
	aifcID = []byte("AIFC")
	commID = []byte("COMM")
	ssndID = []byte("SSND")

	// The only AIFC compression type decoded here is uncompressed
	// big-endian PCM.
	compressionNone = []byte("NONE")
)

// framesPerRead is how many sample times one NextFrame call yields.
const framesPerRead = 1024

// Decoder reads interleaved PCM from a FORM/AIFF stream, the
// big-endian sibling of RIFF/WAVE. It implements audio.Decoder.
type Decoder struct {
	r    io.Reader
	info audio.StreamInfo

	bytesPerSample int
	dataLeft       int64

	raw []byte
	out []int32
}

// NewDecoder parses the FORM preamble and scans chunks until the SSND
// chunk is located. Unknown chunks are skipped by their declared size,
// padded to an even byte boundary. The COMM chunk must appear before
// SSND.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{r: r}

	var preamble [12]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, fmt.Errorf("aiff: reading FORM header: %w", headerErr(err))
	}
	if !bytes.Equal(preamble[0:4], formID) {
		return nil, fmt.Errorf("aiff: no FORM marker: %w", audio.ErrInvalidFormat)
	}
	compressed := false
	switch {
	case bytes.Equal(preamble[8:12], aiffID):
	case bytes.Equal(preamble[8:12], aifcID):
		compressed = true
	default:
		return nil, fmt.Errorf("aiff: form type %q: %w", preamble[8:12], audio.ErrInvalidFormat)
	}

	haveComm := false
	var frames uint32
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("aiff: no SSND chunk: %w", audio.ErrMissingChunk)
			}
			return nil, fmt.Errorf("aiff: reading chunk header: %w", err)
		}
		size := binary.BigEndian.Uint32(chunk[4:8])

		switch {
		case bytes.Equal(chunk[0:4], commID):
			f, err := d.parseCOMM(size, compressed)
			if err != nil {
				return nil, err
			}
			frames = f
			haveComm = true
			if size&1 == 1 {
				if err := d.skip(1); err != nil {
					return nil, fmt.Errorf("aiff: COMM padding: %w", err)
				}
			}

		case bytes.Equal(chunk[0:4], ssndID):
			if !haveComm {
				return nil, fmt.Errorf("aiff: SSND chunk before COMM chunk: %w", audio.ErrMissingChunk)
			}
			if err := d.startSSND(size, frames); err != nil {
				return nil, err
			}
			return d, nil

		default:
			if err := d.skip(int64(size) + int64(size&1)); err != nil {
				return nil, fmt.Errorf("aiff: skipping %q chunk: %w", chunk[0:4], err)
			}
		}
	}
}

// Info returns the stream properties from the COMM chunk.
func (d *Decoder) Info() audio.StreamInfo { return d.info }

// NextFrame reads up to framesPerRead sample times of big-endian
// signed PCM. A payload shorter than the declared chunk size yields
// io.ErrUnexpectedEOF.
func (d *Decoder) NextFrame() ([]int32, error) {
	if d.dataLeft == 0 {
		return nil, io.EOF
	}

	want := min(int64(framesPerRead*d.bytesPerSample*int(d.info.Channels)), d.dataLeft)
	if int64(cap(d.raw)) < want {
		d.raw = make([]byte, want)
	}
	d.raw = d.raw[:want]
	if _, err := io.ReadFull(d.r, d.raw); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("aiff: SSND chunk shorter than declared: %w", err)
	}
	d.dataLeft -= want

	count := int(want) / d.bytesPerSample
	if cap(d.out) < count {
		d.out = make([]int32, count)
	}
	d.out = d.out[:count]

	switch d.bytesPerSample {
	case 1:
		// AIFF 8-bit samples are signed, unlike WAVE.
		for i := 0; i < count; i++ {
			d.out[i] = int32(int8(d.raw[i]))
		}
	case 2:
		for i := 0; i < count; i++ {
			d.out[i] = int32(int16(binary.BigEndian.Uint16(d.raw[2*i:])))
		}
	case 3:
		for i := 0; i < count; i++ {
			v := uint32(d.raw[3*i])<<16 | uint32(d.raw[3*i+1])<<8 | uint32(d.raw[3*i+2])
			d.out[i] = int32(v<<8) >> 8
		}
	case 4:
		for i := 0; i < count; i++ {
			d.out[i] = int32(binary.BigEndian.Uint32(d.raw[4*i:]))
		}
	}
	return d.out, nil
}

// parseCOMM reads the common chunk: channel count, frame count, sample
// width and the 80-bit extended-float sample rate. AIFC adds a
// compression type, of which only NONE is decoded.
func (d *Decoder) parseCOMM(size uint32, compressed bool) (uint32, error) {
	need := uint32(18)
	if compressed {
		need += 4
	}
	if size < need {
		return 0, fmt.Errorf("aiff: COMM chunk of %d bytes: %w", size, audio.ErrCorruptStream)
	}

	body := make([]byte, need)
	if _, err := io.ReadFull(d.r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("aiff: reading COMM chunk: %w", err)
	}
	channels := binary.BigEndian.Uint16(body[0:2])
	frames := binary.BigEndian.Uint32(body[2:6])
	bits := binary.BigEndian.Uint16(body[6:8])
	rate := float80(body[8:18])

	if compressed && !bytes.Equal(body[18:22], compressionNone) {
		return 0, fmt.Errorf("aiff: compression type %q: %w", body[18:22], audio.ErrUnsupported)
	}
	if channels == 0 {
		return 0, fmt.Errorf("aiff: zero channels: %w", audio.ErrCorruptStream)
	}
	switch bits {
	case 8, 16, 24, 32:
	default:
		return 0, fmt.Errorf("aiff: %d bits per sample: %w", bits, audio.ErrUnsupported)
	}
	if rate <= 0 || rate > math.MaxUint32 {
		return 0, fmt.Errorf("aiff: sample rate %v out of range: %w", rate, audio.ErrCorruptStream)
	}

	if size > need {
		if err := d.skip(int64(size - need)); err != nil {
			return 0, fmt.Errorf("aiff: COMM chunk: %w", err)
		}
	}

	d.bytesPerSample = int(bits) / 8
	d.info = audio.StreamInfo{
		SampleRate:    uint32(rate),
		Channels:      uint8(channels),
		BitsPerSample: uint8(bits),
	}
	return frames, nil
}

// startSSND consumes the SSND header and positions the reader at the
// first sample byte.
func (d *Decoder) startSSND(size uint32, frames uint32) error {
	if size < 8 {
		return fmt.Errorf("aiff: SSND chunk of %d bytes: %w", size, audio.ErrCorruptStream)
	}
	var head [8]byte
	if _, err := io.ReadFull(d.r, head[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("aiff: reading SSND header: %w", err)
	}
	offset := binary.BigEndian.Uint32(head[0:4])
	if err := d.skip(int64(offset)); err != nil {
		return fmt.Errorf("aiff: SSND offset: %w", err)
	}

	frameSize := int64(d.bytesPerSample) * int64(d.info.Channels)
	declared := int64(size) - 8 - int64(offset)
	if declared < 0 {
		return fmt.Errorf("aiff: SSND offset exceeds chunk: %w", audio.ErrCorruptStream)
	}
	// The COMM frame count is authoritative; the chunk may be padded.
	d.dataLeft = min(int64(frames)*frameSize, declared/frameSize*frameSize)
	d.info.TotalSamples = uint64(d.dataLeft / frameSize)
	return nil
}

func (d *Decoder) skip(n int64) error {
	m, err := io.CopyN(io.Discard, d.r, n)
	if err == io.EOF && m < n {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// float80 converts an 80-bit IEEE 754 extended-precision value, the
// sample rate encoding AIFF inherited from the Apple II toolbox.
func float80(b []byte) float64 {
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1
	}
	exp := int(uint16(b[0]&0x7f)<<8 | uint16(b[1]))
	mant := binary.BigEndian.Uint64(b[2:10])
	if exp == 0 && mant == 0 {
		return 0
	}
	return sign * float64(mant) * math.Pow(2, float64(exp-16383-63))
}

// headerErr maps a short read while parsing magic bytes to an invalid
// format, keeping genuine IO failures intact.
func headerErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return audio.ErrInvalidFormat
	}
	return err
}
