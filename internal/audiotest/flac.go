// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"fmt"

	"github.com/ik5/decant/internal/bits"
)

// FLACConfig describes the synthetic stream to build. BlockSize is
// both the stream-info block size and the size of every frame, and
// must be between 16 and 256 so it fits the 8-bit header encoding.
type FLACConfig struct {
	SampleRate    uint32
	Channels      uint8
	BitsPerSample uint8
	TotalSamples  uint64
	BlockSize     uint16
}

// FLACHeader builds the stream marker followed by a single stream-info
// metadata block flagged as the last one.
func FLACHeader(cfg FLACConfig) []byte {
	w := &BitWriter{}
	w.WriteBits(1, 1)  // last metadata block
	w.WriteBits(0, 7)  // stream info
	w.WriteBits(34, 24)

	w.WriteBits(uint64(cfg.BlockSize), 16) // min block size
	w.WriteBits(uint64(cfg.BlockSize), 16) // max block size
	w.WriteBits(0, 24)                     // min frame size unknown
	w.WriteBits(0, 24)                     // max frame size unknown
	w.WriteBits(uint64(cfg.SampleRate), 20)
	w.WriteBits(uint64(cfg.Channels)-1, 3)
	w.WriteBits(uint64(cfg.BitsPerSample)-1, 5)
	w.WriteBits(cfg.TotalSamples, 36)
	w.WriteBits(0, 64) // MD5
	w.WriteBits(0, 64)

	return append([]byte("fLaC"), w.Bytes()...)
}

// FLACFrame builds one fixed-blocking frame holding the given planar
// samples as independent verbatim subframes, with valid header CRC-8
// and footer CRC-16. chans must match cfg.Channels and every channel
// must hold the same number of samples, at most 256.
func FLACFrame(cfg FLACConfig, index uint64, chans [][]int32) []byte {
	if len(chans) != int(cfg.Channels) {
		panic(fmt.Sprintf("audiotest: %d channels, config says %d", len(chans), cfg.Channels))
	}
	blockSize := len(chans[0])
	if blockSize < 1 || blockSize > 256 {
		panic("audiotest: frame block size out of range")
	}
	if index > 0x7f {
		panic("audiotest: frame index too large for fixture")
	}

	w := &BitWriter{}
	w.WriteBits(0b11111111111110_0_0, 16) // sync, reserved, fixed blocking
	w.WriteBits(0b0110, 4)                // block size in 8-bit tail
	w.WriteBits(0b0000, 4)                // sample rate from stream info
	w.WriteBits(uint64(cfg.Channels)-1, 4)
	w.WriteBits(uint64(bpsCode(cfg.BitsPerSample)), 3)
	w.WriteBits(0, 1) // reserved
	w.WriteBits(index, 8)
	w.WriteBits(uint64(blockSize)-1, 8)
	w.WriteBits(uint64(bits.CRC8(w.Bytes())), 8)

	mask := uint64(1)<<cfg.BitsPerSample - 1
	for _, ch := range chans {
		if len(ch) != blockSize {
			panic("audiotest: ragged channel lengths")
		}
		w.WriteBits(0b0_000001_0, 8) // verbatim subframe, no wasted bits
		for _, s := range ch {
			w.WriteBits(uint64(s)&mask, uint(cfg.BitsPerSample))
		}
	}
	w.Align()

	frame := w.Bytes()
	var footer [2]byte
	binary.BigEndian.PutUint16(footer[:], bits.CRC16(frame))
	return append(frame, footer[:]...)
}

// FLACFile builds a complete stream from the header and the given
// frames.
func FLACFile(cfg FLACConfig, frames ...[][]int32) []byte {
	out := FLACHeader(cfg)
	for i, chans := range frames {
		out = append(out, FLACFrame(cfg, uint64(i), chans)...)
	}
	return out
}

func bpsCode(bps uint8) uint8 {
	switch bps {
	case 8:
		return 0b001
	case 12:
		return 0b010
	case 16:
		return 0b100
	case 20:
		return 0b101
	case 24:
		return 0b110
	}
	panic(fmt.Sprintf("audiotest: no frame header code for %d bits", bps))
}
