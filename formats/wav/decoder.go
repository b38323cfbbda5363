// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"

	"github.com/ik5/decant/audio"
	"github.com/ik5/decant/utils"
)

// Compression format tags of the fmt chunk, as defined in mmreg.h of
// the Windows SDK.
const (
	waveFormatPCM        = 0x0001
	waveFormatIEEEFloat  = 0x0003
	waveFormatALaw       = 0x0006
	waveFormatMuLaw      = 0x0007
	waveFormatExtensible = 0xfffe
)

// Sub-format GUIDs used by WAVE_FORMAT_EXTENSIBLE.
// https://docs.microsoft.com/en-us/windows-hardware/drivers/audio/subformat-guids-for-compressed-audio-formats
var (
	subtypePCM = [16]byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
	}
	subtypeIEEEFloat = [16]byte{
		0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
		0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
	}
)

// framesPerRead is how many sample times one NextFrame call yields.
const framesPerRead = 1024

// Decoder reads interleaved PCM from a RIFF/WAVE stream. It implements
// audio.Decoder.
type Decoder struct {
	r    io.Reader
	info audio.StreamInfo

	bytesPerSample int
	dataLeft       int64 // unread payload bytes, whole frames only

	raw []byte
	out []int32
}

// NewDecoder parses the RIFF preamble and scans chunks until the data
// chunk is located. Unknown chunks are skipped by their declared size,
// padded to an even byte boundary. The fmt chunk must appear before
// the data chunk.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{r: r}

	// The stream starts with 'RIFF', an overall size and 'WAVE'.
	var preamble [12]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, fmt.Errorf("wav: reading RIFF header: %w", headerErr(err))
	}
	if !bytes.Equal(preamble[0:4], riff.RiffID[:]) || !bytes.Equal(preamble[8:12], riff.WavFormatID[:]) {
		return nil, fmt.Errorf("wav: no RIFF/WAVE marker: %w", audio.ErrInvalidFormat)
	}

	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("wav: no data chunk: %w", audio.ErrMissingChunk)
			}
			return nil, fmt.Errorf("wav: reading chunk header: %w", err)
		}
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch {
		case bytes.Equal(chunk[0:4], riff.FmtID[:]):
			if err := d.parseFmt(size); err != nil {
				return nil, err
			}
			haveFmt = true

		case bytes.Equal(chunk[0:4], riff.DataFormatID[:]):
			if !haveFmt {
				return nil, fmt.Errorf("wav: data chunk before fmt chunk: %w", audio.ErrMissingChunk)
			}
			frameSize := d.bytesPerSample * int(d.info.Channels)
			d.info.TotalSamples = uint64(size) / uint64(frameSize)
			d.dataLeft = int64(d.info.TotalSamples) * int64(frameSize)
			return d, nil

		default:
			// Skip chunks we do not recognize, padded to even length.
			if err := d.skip(int64(size) + int64(size&1)); err != nil {
				return nil, fmt.Errorf("wav: skipping %q chunk: %w", chunk[0:4], err)
			}
		}
	}
}

// Info returns the stream properties from the fmt chunk.
func (d *Decoder) Info() audio.StreamInfo { return d.info }

// NextFrame reads up to framesPerRead sample times from the data chunk
// and converts them to signed 32-bit samples. A payload shorter than
// the declared chunk size yields io.ErrUnexpectedEOF.
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
		return nil, fmt.Errorf("wav: data chunk shorter than declared: %w", err)
	}
	d.dataLeft -= want

	count := int(want) / d.bytesPerSample
	if cap(d.out) < count {
		d.out = make([]int32, count)
	}
	d.out = d.out[:count]

	switch d.bytesPerSample {
	case 1:
		// 8-bit samples are stored unsigned with a 128 offset.
		for i := 0; i < count; i++ {
			d.out[i] = utils.SignedFromU8(d.raw[i])
		}
	case 2:
		for i := 0; i < count; i++ {
			d.out[i] = int32(int16(binary.LittleEndian.Uint16(d.raw[2*i:])))
		}
	case 3:
		for i := 0; i < count; i++ {
			v := uint32(d.raw[3*i]) | uint32(d.raw[3*i+1])<<8 | uint32(d.raw[3*i+2])<<16
			d.out[i] = int32(v<<8) >> 8
		}
	case 4:
		for i := 0; i < count; i++ {
			d.out[i] = int32(binary.LittleEndian.Uint32(d.raw[4*i:]))
		}
	}
	return d.out, nil
}

// parseFmt reads the format description chunk.
// https://sites.google.com/site/musicgapi/technical-documents/wav-file-format#fmt
func (d *Decoder) parseFmt(size uint32) error {
	if size < 16 {
		return fmt.Errorf("wav: fmt chunk of %d bytes: %w", size, audio.ErrCorruptStream)
	}

	var base [16]byte
	if err := d.readFull(base[:]); err != nil {
		return fmt.Errorf("wav: reading fmt chunk: %w", err)
	}
	formatTag := binary.LittleEndian.Uint16(base[0:2])
	channels := binary.LittleEndian.Uint16(base[2:4])
	sampleRate := binary.LittleEndian.Uint32(base[4:8])
	byteRate := binary.LittleEndian.Uint32(base[8:12])
	blockAlign := binary.LittleEndian.Uint16(base[12:14])
	bits := binary.LittleEndian.Uint16(base[14:16])

	if channels == 0 {
		return fmt.Errorf("wav: zero channels: %w", audio.ErrCorruptStream)
	}

	// BlockAlign and AvgBytesPerSec are redundant; validate them to
	// fail early on ill-formed files.
	if uint32(blockAlign)/uint32(channels)*8 != uint32(bits) ||
		byteRate != uint32(blockAlign)*sampleRate {
		return fmt.Errorf("wav: inconsistent fmt chunk: %w", audio.ErrCorruptStream)
	}

	switch formatTag {
	case waveFormatPCM:
		// Extra bytes on a plain PCM fmt chunk carry nothing we need.
		if size > 16 {
			if err := d.skip(int64(size - 16)); err != nil {
				return fmt.Errorf("wav: fmt chunk: %w", err)
			}
		}

	case waveFormatIEEEFloat:
		// Exact per the format: an 18-byte chunk carries a zero-sized
		// extension. The sample path is integer PCM only.
		if size == 18 {
			var extra [2]byte
			if err := d.readFull(extra[:]); err != nil {
				return fmt.Errorf("wav: fmt chunk: %w", err)
			}
			if binary.LittleEndian.Uint16(extra[:]) != 0 {
				return fmt.Errorf("wav: malformed float fmt chunk: %w", audio.ErrCorruptStream)
			}
		} else if size > 18 {
			return fmt.Errorf("wav: malformed float fmt chunk: %w", audio.ErrCorruptStream)
		}
		return fmt.Errorf("wav: IEEE float samples: %w", audio.ErrUnsupported)

	case waveFormatALaw, waveFormatMuLaw:
		return fmt.Errorf("wav: companded samples: %w", audio.ErrUnsupported)

	case waveFormatExtensible:
		b, err := d.parseFmtExtensible(size)
		if err != nil {
			return err
		}
		bits = b

	default:
		return fmt.Errorf("wav: format tag %#04x: %w", formatTag, audio.ErrUnsupported)
	}

	switch bits {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("wav: %d bits per sample: %w", bits, audio.ErrUnsupported)
	}

	d.bytesPerSample = int(bits) / 8
	d.info = audio.StreamInfo{
		SampleRate:    sampleRate,
		Channels:      uint8(channels),
		BitsPerSample: uint8(bits),
	}
	return nil
}

// parseFmtExtensible reads the 22-byte extension of an extensible fmt
// chunk and returns the valid bits per sample.
// https://docs.microsoft.com/en-us/windows-hardware/drivers/audio/extensible-wave-format-descriptors
func (d *Decoder) parseFmtExtensible(size uint32) (uint16, error) {
	if size < 40 {
		return 0, fmt.Errorf("wav: malformed extensible fmt chunk: %w", audio.ErrCorruptStream)
	}

	var ext [24]byte // extension size + valid bits + channel mask + GUID
	if err := d.readFull(ext[:]); err != nil {
		return 0, fmt.Errorf("wav: fmt chunk: %w", err)
	}
	if binary.LittleEndian.Uint16(ext[0:2]) != 22 {
		return 0, fmt.Errorf("wav: extensible extension not 22 bytes: %w", audio.ErrCorruptStream)
	}
	validBits := binary.LittleEndian.Uint16(ext[2:4])

	var guid [16]byte
	copy(guid[:], ext[8:24])
	switch guid {
	case subtypePCM:
		if validBits > 32 {
			return 0, fmt.Errorf("wav: %d bits per sample: %w", validBits, audio.ErrUnsupported)
		}
	case subtypeIEEEFloat:
		return 0, fmt.Errorf("wav: IEEE float samples: %w", audio.ErrUnsupported)
	default:
		return 0, fmt.Errorf("wav: extensible sub-format %x: %w", guid, audio.ErrUnsupported)
	}

	if size > 40 {
		if err := d.skip(int64(size - 40)); err != nil {
			return 0, fmt.Errorf("wav: fmt chunk: %w", err)
		}
	}
	return validBits, nil
}

func (d *Decoder) readFull(p []byte) error {
	_, err := io.ReadFull(d.r, p)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func (d *Decoder) skip(n int64) error {
	m, err := io.CopyN(io.Discard, d.r, n)
	if err == io.EOF && m < n {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// headerErr maps a short read while parsing magic bytes to an invalid
// format, keeping genuine IO failures intact.
func headerErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return audio.ErrInvalidFormat
	}
	return err
}
