// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"fmt"

	"github.com/ik5/decant/audio"
)

// Channel assignments from the frame header.
// https://xiph.org/flac/format.html#frame_header
type channelAssignment uint8

const (
	assignLeftSide  channelAssignment = 0b1000 // channel 0 left, channel 1 side
	assignRightSide channelAssignment = 0b1001 // channel 0 side, channel 1 right
	assignMidSide   channelAssignment = 0b1010 // channel 0 mid, channel 1 side
)

type frameHeader struct {
	blockSize         uint32
	sampleRate        uint32
	bitsPerSample     uint32
	channelAssignment channelAssignment
	// first sample or frame number, depending on the blocking strategy
	position uint64
}

func (h *frameHeader) channels() int {
	if h.channelAssignment < 8 {
		return int(h.channelAssignment) + 1
	}
	return 2
}

func (h *frameHeader) isSideChannel(ch int) bool {
	switch h.channelAssignment {
	case assignLeftSide, assignMidSide:
		return ch == 1
	case assignRightSide:
		return ch == 0
	}
	return false
}

// readFrameHeader parses one frame header and validates its CRC-8. All
// reads go through the bit reader, whose checksums were reset at the
// frame boundary, so the running CRC-8 covers exactly the header bytes.
//
// A clean EOF on the sync read means the stream ended between frames
// and is reported as io.EOF.
func (d *Decoder) readFrameHeader() (*frameHeader, error) {
	sync, err := d.br.ReadBits(16)
	if err != nil {
		return nil, err
	}
	// The first 14 bits must be 11111111111110.
	if sync&0xfffc != 0xfff8 {
		return nil, fmt.Errorf("flac: lost frame sync: %w", audio.ErrCorruptStream)
	}
	// The next bit is reserved and must be 0.
	if sync&0x0002 != 0 {
		return nil, fmt.Errorf("flac: reserved frame header bit set: %w", audio.ErrUnsupported)
	}
	// The last sync bit selects the blocking strategy; either way the
	// position field that follows is read the same, it just counts
	// frames (fixed) or samples (variable).
	hdr := &frameHeader{}

	bsSr, err := d.br.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
	}

	// 4 bits of block size, some values deferring to the header tail.
	var blockSizeTail uint // 0, 1 or 2 bytes read after the position field
	switch bsCode := bsSr >> 4; {
	case bsCode == 0b0000:
		return nil, fmt.Errorf("flac: reserved block size: %w", audio.ErrUnsupported)
	case bsCode == 0b0001:
		hdr.blockSize = 192
	case bsCode <= 0b0101:
		hdr.blockSize = 576 << (bsCode - 2)
	case bsCode == 0b0110:
		blockSizeTail = 1
	case bsCode == 0b0111:
		blockSizeTail = 2
	default:
		hdr.blockSize = 256 << (bsCode - 8)
	}

	// 4 bits of sample rate, again possibly deferred to the tail.
	var sampleRateTail uint // 0 none, 1 = 8-bit kHz, 2 = 16-bit Hz, 3 = 16-bit daHz
	switch bsSr & 0x0f {
	case 0b0000:
		hdr.sampleRate = d.info.SampleRate
	case 0b0001:
		hdr.sampleRate = 88200
	case 0b0010:
		hdr.sampleRate = 176400
	case 0b0011:
		hdr.sampleRate = 192000
	case 0b0100:
		hdr.sampleRate = 8000
	case 0b0101:
		hdr.sampleRate = 16000
	case 0b0110:
		hdr.sampleRate = 22050
	case 0b0111:
		hdr.sampleRate = 24000
	case 0b1000:
		hdr.sampleRate = 32000
	case 0b1001:
		hdr.sampleRate = 44100
	case 0b1010:
		hdr.sampleRate = 48000
	case 0b1011:
		hdr.sampleRate = 96000
	case 0b1100:
		sampleRateTail = 1
	case 0b1101:
		sampleRateTail = 2
	case 0b1110:
		sampleRateTail = 3
	default:
		return nil, fmt.Errorf("flac: invalid sample rate code: %w", audio.ErrCorruptStream)
	}

	chBps, err := d.br.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
	}
	if chCode := chBps >> 4; chCode <= 0b1010 {
		hdr.channelAssignment = channelAssignment(chCode)
	} else {
		return nil, fmt.Errorf("flac: reserved channel assignment: %w", audio.ErrUnsupported)
	}
	switch (chBps & 0b1110) >> 1 {
	case 0b000:
		hdr.bitsPerSample = uint32(d.info.BitsPerSample)
	case 0b001:
		hdr.bitsPerSample = 8
	case 0b010:
		hdr.bitsPerSample = 12
	case 0b100:
		hdr.bitsPerSample = 16
	case 0b101:
		hdr.bitsPerSample = 20
	case 0b110:
		hdr.bitsPerSample = 24
	default:
		return nil, fmt.Errorf("flac: reserved bit depth: %w", audio.ErrUnsupported)
	}
	// The final header bit is reserved and must be 0.
	if chBps&1 != 0 {
		return nil, fmt.Errorf("flac: reserved frame header bit set: %w", audio.ErrUnsupported)
	}

	// Frame number (fixed blocking) or first sample number (variable
	// blocking), UTF-8 style coded.
	hdr.position, err = d.readCodedInt()
	if err != nil {
		return nil, err
	}

	switch blockSizeTail {
	case 1:
		v, err := d.br.ReadBits(8)
		if err != nil {
			return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
		}
		hdr.blockSize = uint32(v) + 1
	case 2:
		v, err := d.br.ReadBits(16)
		if err != nil {
			return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
		}
		hdr.blockSize = uint32(v) + 1
	}
	switch sampleRateTail {
	case 1:
		v, err := d.br.ReadBits(8)
		if err != nil {
			return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
		}
		hdr.sampleRate = uint32(v) * 1000
	case 2:
		v, err := d.br.ReadBits(16)
		if err != nil {
			return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
		}
		hdr.sampleRate = uint32(v)
	case 3:
		v, err := d.br.ReadBits(16)
		if err != nil {
			return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
		}
		hdr.sampleRate = uint32(v) * 10
	}

	// The CRC-8 must match before any subframe is trusted.
	want := d.br.CRC8()
	got, err := d.br.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("flac: reading frame header: %w", eofErr(err))
	}
	if uint8(got) != want {
		return nil, fmt.Errorf("flac: frame header checksum mismatch: %w", audio.ErrCorruptStream)
	}
	return hdr, nil
}

// readCodedInt reads the variable-length frame position. It is coded
// UTF-8 style but extends to 36 bits of payload.
func (d *Decoder) readCodedInt() (uint64, error) {
	first, err := d.br.ReadBits(8)
	if err != nil {
		return 0, fmt.Errorf("flac: reading frame number: %w", eofErr(err))
	}

	var extra uint
	maskMark := uint64(0b1000_0000)
	maskData := uint64(0b0111_1111)
	for first&maskMark != 0 {
		extra++
		maskMark >>= 1
		maskData >>= 1
	}
	if extra > 0 {
		// 10xxxxxx is only valid as a continuation byte.
		if extra == 1 {
			return 0, fmt.Errorf("flac: malformed coded frame number: %w", audio.ErrCorruptStream)
		}
		extra--
	}

	v := (first & maskData) << (6 * extra)
	for i := int(extra) - 1; i >= 0; i-- {
		b, err := d.br.ReadBits(8)
		if err != nil {
			return 0, fmt.Errorf("flac: reading frame number: %w", eofErr(err))
		}
		if b&0b1100_0000 != 0b1000_0000 {
			return 0, fmt.Errorf("flac: malformed coded frame number: %w", audio.ErrCorruptStream)
		}
		v |= (b & 0b0011_1111) << (6 * i)
	}
	return v, nil
}

// decodeLeftSide rewrites the side channel to the right channel:
// side = left - right, so right = left - side.
func decodeLeftSide(left, side []int32) {
	for i, l := range left {
		side[i] = l - side[i]
	}
}

// decodeRightSide rewrites the side channel to the left channel:
// side = left - right, so left = right + side.
func decodeRightSide(side, right []int32) {
	for i, r := range right {
		side[i] = r + side[i]
	}
}

// decodeMidSide rewrites mid/side to left/right. The mid channel
// dropped the low bit when halving, so it is restored from the side
// channel before reconstructing.
func decodeMidSide(mid, side []int32) {
	for i, m := range mid {
		s := side[i]
		m = m<<1 | s&1
		mid[i] = (m + s) >> 1
		side[i] = (m - s) >> 1
	}
}
