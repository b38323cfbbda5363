// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"fmt"
	"io"

	"github.com/ik5/decant/audio"
	"github.com/ik5/decant/internal/bits"
)

var flacMarker = [4]byte{'f', 'L', 'a', 'C'}

// Metadata block types.
// https://xiph.org/flac/format.html#metadata_block_header
const (
	blockTypeStreamInfo = 0
	blockTypeInvalid    = 127
)

// Decoder reads a FLAC stream frame by frame. It implements
// audio.Decoder.
//
// A frame whose sync pattern does not match is a hard failure: the
// decoder reports audio.ErrCorruptStream and does not attempt to hunt
// forward for the next sync, since a byte stream that lost sync cannot
// be trusted to align again without seeking.
type Decoder struct {
	br   *bits.Reader
	info audio.StreamInfo

	minBlockSize, maxBlockSize uint16
	minFrameSize, maxFrameSize uint32

	block []int32 // planar per-frame scratch, one channel after another
	out   []int32 // interleaved samples handed to the caller
}

// NewDecoder verifies the fLaC marker, parses the mandatory stream-info
// metadata block and skips all other metadata. The returned decoder is
// positioned at the first audio frame.
func NewDecoder(r io.Reader) (*Decoder, error) {
	d := &Decoder{br: bits.NewReader(r)}

	var marker [4]byte
	if err := d.br.ReadBytes(marker[:]); err != nil {
		return nil, fmt.Errorf("flac: reading stream marker: %w", markerErr(err))
	}
	if marker != flacMarker {
		return nil, fmt.Errorf("flac: no fLaC marker: %w", audio.ErrInvalidFormat)
	}

	haveInfo := false
	for {
		isLast, err := d.br.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("flac: reading metadata header: %w", eofErr(err))
		}
		blockType, err := d.br.ReadBits(7)
		if err != nil {
			return nil, fmt.Errorf("flac: reading metadata header: %w", eofErr(err))
		}
		length, err := d.br.ReadBits(24)
		if err != nil {
			return nil, fmt.Errorf("flac: reading metadata header: %w", eofErr(err))
		}

		switch blockType {
		case blockTypeStreamInfo:
			if err := d.parseStreamInfo(uint32(length)); err != nil {
				return nil, err
			}
			haveInfo = true
		case blockTypeInvalid:
			return nil, fmt.Errorf("flac: metadata block type 127: %w", audio.ErrCorruptStream)
		default:
			if err := d.br.SkipBytes(int64(length)); err != nil {
				return nil, fmt.Errorf("flac: skipping metadata block: %w", err)
			}
		}

		if isLast == 1 {
			break
		}
	}
	if !haveInfo {
		return nil, fmt.Errorf("flac: no stream-info block: %w", audio.ErrCorruptStream)
	}
	return d, nil
}

// Info returns the stream properties from the stream-info block.
func (d *Decoder) Info() audio.StreamInfo { return d.info }

// parseStreamInfo reads the fixed 34-byte stream-info body.
// https://xiph.org/flac/format.html#metadata_block_streaminfo
func (d *Decoder) parseStreamInfo(length uint32) error {
	if length != 34 {
		return fmt.Errorf("flac: stream-info block of %d bytes, want 34: %w",
			length, audio.ErrCorruptStream)
	}

	v, err := d.br.ReadBits(16)
	if err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	d.minBlockSize = uint16(v)
	if v, err = d.br.ReadBits(16); err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	d.maxBlockSize = uint16(v)
	if d.minBlockSize < 16 {
		return fmt.Errorf("flac: minimum block size %d, want at least 16: %w",
			d.minBlockSize, audio.ErrCorruptStream)
	}
	if d.minBlockSize > d.maxBlockSize {
		return fmt.Errorf("flac: min block size exceeds max: %w", audio.ErrCorruptStream)
	}

	if v, err = d.br.ReadBits(24); err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	d.minFrameSize = uint32(v)
	if v, err = d.br.ReadBits(24); err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	d.maxFrameSize = uint32(v)
	if d.minFrameSize > 0 && d.maxFrameSize > 0 && d.maxFrameSize < d.minFrameSize {
		return fmt.Errorf("flac: min frame size exceeds max: %w", audio.ErrCorruptStream)
	}

	sampleRate, err := d.br.ReadBits(20)
	if err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	if sampleRate == 0 || sampleRate > 655350 {
		return fmt.Errorf("flac: sample rate %d out of range: %w", sampleRate, audio.ErrCorruptStream)
	}
	channels, err := d.br.ReadBits(3)
	if err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	channels++ // stored as count-1, giving 1 to 8
	bps, err := d.br.ReadBits(5)
	if err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	bps++ // stored as width-1, giving 4 to 32
	if bps < 4 {
		return fmt.Errorf("flac: %d bits per sample: %w", bps, audio.ErrCorruptStream)
	}
	totalSamples, err := d.br.ReadBits(36)
	if err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}

	d.info = audio.StreamInfo{
		SampleRate:    uint32(sampleRate),
		Channels:      uint8(channels),
		BitsPerSample: uint8(bps),
		TotalSamples:  totalSamples,
		HasMD5:        true,
	}
	if err := d.br.ReadBytes(d.info.MD5[:]); err != nil {
		return fmt.Errorf("flac: reading stream info: %w", eofErr(err))
	}
	return nil
}

// NextFrame decodes one frame: header with CRC-8 check, one subframe
// per channel, stereo reconstruction, then the CRC-16 footer. A footer
// mismatch returns the decoded samples together with a
// *audio.ChecksumError so the caller decides whether to keep them.
func (d *Decoder) NextFrame() ([]int32, error) {
	d.br.Align()
	d.br.ResetCRC8()
	d.br.ResetCRC16()

	hdr, err := d.readFrameHeader()
	if err != nil {
		return nil, err
	}

	bs := int(hdr.blockSize)
	nch := hdr.channels()
	need := bs * nch
	if cap(d.block) < need {
		d.block = make([]int32, need)
	}
	d.block = d.block[:need]

	// One subframe per channel. A side channel carries one extra bit
	// per sample.
	for ch := 0; ch < nch; ch++ {
		bps := uint(hdr.bitsPerSample)
		if hdr.isSideChannel(ch) {
			bps++
		}
		if err := d.decodeSubframe(bps, d.block[ch*bs:(ch+1)*bs]); err != nil {
			return nil, err
		}
	}

	// The footer is byte aligned; padding bits up to the boundary
	// belong to the frame and are already in the running checksum.
	d.br.Align()
	want := d.br.CRC16()
	got, err := d.br.ReadBits(16)
	if err != nil {
		return nil, fmt.Errorf("flac: reading frame footer: %w", eofErr(err))
	}

	switch hdr.channelAssignment {
	case assignLeftSide:
		decodeLeftSide(d.block[:bs], d.block[bs:])
	case assignRightSide:
		decodeRightSide(d.block[:bs], d.block[bs:])
	case assignMidSide:
		decodeMidSide(d.block[:bs], d.block[bs:])
	}

	if cap(d.out) < need {
		d.out = make([]int32, need)
	}
	d.out = d.out[:need]
	for t := 0; t < bs; t++ {
		for ch := 0; ch < nch; ch++ {
			d.out[t*nch+ch] = d.block[ch*bs+t]
		}
	}

	if uint16(got) != want {
		return d.out, &audio.ChecksumError{Want: want, Got: uint16(got)}
	}
	return d.out, nil
}

// markerErr maps a short read of the stream marker to an invalid
// format, keeping genuine IO failures intact.
func markerErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return audio.ErrInvalidFormat
	}
	return err
}

// eofErr maps a clean EOF inside a structure to io.ErrUnexpectedEOF.
func eofErr(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
