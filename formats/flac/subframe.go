// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"fmt"

	"github.com/ik5/decant/audio"
)

// decodeSubframe reads one subframe header and fills buf with that
// channel's samples. bps already includes the extra side-channel bit
// when the channel assignment calls for one.
// https://xiph.org/flac/format.html#subframe_header
func (d *Decoder) decodeSubframe(bps uint, buf []int32) error {
	pad, err := d.br.ReadBit()
	if err != nil {
		return fmt.Errorf("flac: reading subframe header: %w", eofErr(err))
	}
	if pad != 0 {
		return fmt.Errorf("flac: subframe padding bit set: %w", audio.ErrCorruptStream)
	}

	sfType, err := d.br.ReadBits(6)
	if err != nil {
		return fmt.Errorf("flac: reading subframe header: %w", eofErr(err))
	}

	// Wasted bits: a flag bit, then unary coded count-1.
	var wasted uint
	flag, err := d.br.ReadBit()
	if err != nil {
		return fmt.Errorf("flac: reading subframe header: %w", eofErr(err))
	}
	if flag == 1 {
		k, err := d.br.ReadUnary()
		if err != nil {
			return fmt.Errorf("flac: reading wasted bits: %w", err)
		}
		wasted = uint(k) + 1
	}
	if wasted > bps {
		return fmt.Errorf("flac: subframe has no non-wasted bits: %w", audio.ErrCorruptStream)
	}
	bps -= wasted

	switch {
	case sfType == 0b000000:
		err = d.decodeConstant(bps, buf)
	case sfType == 0b000001:
		err = d.decodeVerbatim(bps, buf)
	case sfType&0b111000 == 0b001000:
		order := uint(sfType & 0b000111)
		if order > 4 {
			return fmt.Errorf("flac: fixed predictor order %d: %w", order, audio.ErrUnsupported)
		}
		err = d.decodeFixed(bps, order, buf)
	case sfType&0b100000 != 0:
		err = d.decodeLPC(bps, uint(sfType&0b011111)+1, buf)
	default:
		return fmt.Errorf("flac: reserved subframe type %#06b: %w", sfType, audio.ErrUnsupported)
	}
	if err != nil {
		return err
	}

	if wasted > 0 {
		for i := range buf {
			buf[i] <<= wasted
		}
	}
	return nil
}

// decodeConstant fills the whole subframe with a single value.
// https://xiph.org/flac/format.html#subframe_constant
func (d *Decoder) decodeConstant(bps uint, buf []int32) error {
	v, err := d.br.ReadBitsSigned(bps)
	if err != nil {
		return fmt.Errorf("flac: reading constant subframe: %w", eofErr(err))
	}
	for i := range buf {
		buf[i] = int32(v)
	}
	return nil
}

// decodeVerbatim stores samples with no prediction at all.
// https://xiph.org/flac/format.html#subframe_verbatim
func (d *Decoder) decodeVerbatim(bps uint, buf []int32) error {
	for i := range buf {
		v, err := d.br.ReadBitsSigned(bps)
		if err != nil {
			return fmt.Errorf("flac: reading verbatim subframe: %w", eofErr(err))
		}
		buf[i] = int32(v)
	}
	return nil
}

// decodeFixed reads order warm-up samples and residuals, then applies
// the hard-coded polynomial predictor of that order.
// https://xiph.org/flac/format.html#subframe_fixed
func (d *Decoder) decodeFixed(bps, order uint, buf []int32) error {
	if uint(len(buf)) < order {
		return fmt.Errorf("flac: fixed predictor order exceeds block size: %w", audio.ErrCorruptStream)
	}
	if err := d.decodeVerbatim(bps, buf[:order]); err != nil {
		return err
	}
	if err := d.decodeResidual(len(buf), buf[order:]); err != nil {
		return err
	}
	fixedPredict(order, buf)
	return nil
}

// decodeLPC reads order warm-up samples, the quantized coefficients
// and residuals, then runs the linear predictor.
// https://xiph.org/flac/format.html#subframe_lpc
func (d *Decoder) decodeLPC(bps, order uint, buf []int32) error {
	if uint(len(buf)) < order {
		return fmt.Errorf("flac: predictor order exceeds block size: %w", audio.ErrCorruptStream)
	}
	if err := d.decodeVerbatim(bps, buf[:order]); err != nil {
		return err
	}

	p, err := d.br.ReadBits(4)
	if err != nil {
		return fmt.Errorf("flac: reading coefficient precision: %w", eofErr(err))
	}
	if p == 0b1111 {
		return fmt.Errorf("flac: reserved coefficient precision: %w", audio.ErrCorruptStream)
	}
	precision := uint(p) + 1

	shift, err := d.br.ReadBitsSigned(5)
	if err != nil {
		return fmt.Errorf("flac: reading predictor shift: %w", eofErr(err))
	}
	// The format allows a negative shift but no encoder emits one.
	if shift < 0 {
		return fmt.Errorf("flac: negative predictor shift: %w", audio.ErrUnsupported)
	}

	// Coefficients are sign-extended from the declared precision. The
	// first one read applies to the most recent sample.
	var coefs [32]int64
	for i := uint(0); i < order; i++ {
		c, err := d.br.ReadBitsSigned(precision)
		if err != nil {
			return fmt.Errorf("flac: reading predictor coefficients: %w", eofErr(err))
		}
		coefs[i] = c
	}

	if err := d.decodeResidual(len(buf), buf[order:]); err != nil {
		return err
	}

	// Products are at most 41 bits and orders at most 32, so an int64
	// accumulator cannot overflow.
	for i := int(order); i < len(buf); i++ {
		var sum int64
		for j := 0; j < int(order); j++ {
			sum += coefs[j] * int64(buf[i-1-j])
		}
		buf[i] += int32(sum >> uint(shift))
	}
	return nil
}

// decodeResidual reads the partitioned entropy-coded residual into
// buf, which excludes the warm-up samples of the subframe.
// https://xiph.org/flac/format.html#partitioned_rice
func (d *Decoder) decodeResidual(blockSize int, buf []int32) error {
	method, err := d.br.ReadBits(2)
	if err != nil {
		return fmt.Errorf("flac: reading residual method: %w", eofErr(err))
	}
	var paramWidth uint
	switch method {
	case 0:
		paramWidth = 4
	case 1:
		paramWidth = 5
	default:
		return fmt.Errorf("flac: reserved residual method: %w", audio.ErrUnsupported)
	}

	po, err := d.br.ReadBits(4)
	if err != nil {
		return fmt.Errorf("flac: reading partition order: %w", eofErr(err))
	}
	partitions := 1 << po

	// Partitions evenly split the block, so the block size must be a
	// multiple of the partition count.
	if blockSize%partitions != 0 {
		return fmt.Errorf("flac: invalid partition order %d: %w", po, audio.ErrCorruptStream)
	}
	perPartition := blockSize >> po

	// The first partition is shorter by the predictor order.
	warmup := blockSize - len(buf)
	if warmup > perPartition {
		return fmt.Errorf("flac: first residual partition underflows: %w", audio.ErrCorruptStream)
	}

	escape := uint64(1)<<paramWidth - 1
	start := 0
	length := perPartition - warmup
	for p := 0; p < partitions; p++ {
		param, err := d.br.ReadBits(paramWidth)
		if err != nil {
			return fmt.Errorf("flac: reading partition parameter: %w", eofErr(err))
		}
		if err := d.decodeRicePartition(param, escape, buf[start:start+length]); err != nil {
			return err
		}
		start += length
		length = perPartition
	}
	return nil
}

// decodeRicePartition fills one partition. An escape-valued parameter
// switches the partition to raw fixed-width storage.
func (d *Decoder) decodeRicePartition(param, escape uint64, buf []int32) error {
	if param == escape {
		width, err := d.br.ReadBits(5)
		if err != nil {
			return fmt.Errorf("flac: reading escape width: %w", eofErr(err))
		}
		if width == 0 {
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}
		for i := range buf {
			v, err := d.br.ReadBitsSigned(uint(width))
			if err != nil {
				return fmt.Errorf("flac: reading raw residual: %w", eofErr(err))
			}
			buf[i] = int32(v)
		}
		return nil
	}

	k := uint(param)
	for i := range buf {
		q, err := d.br.ReadUnary()
		if err != nil {
			return fmt.Errorf("flac: reading residual quotient: %w", err)
		}
		var r uint64
		if k > 0 {
			if r, err = d.br.ReadBits(k); err != nil {
				return fmt.Errorf("flac: reading residual remainder: %w", eofErr(err))
			}
		}
		buf[i] = riceToSigned(uint64(q)<<k | r)
	}
	return nil
}

// riceToSigned undoes the zigzag mapping of residuals:
// 0, -1, 1, -2, 2, ... for coded 0, 1, 2, 3, 4, ...
func riceToSigned(v uint64) int32 {
	if v&1 == 1 {
		return -1 - int32(v>>1)
	}
	return int32(v >> 1)
}

// fixedPredict applies the hard-coded polynomial of the given order in
// place. Orders 2 to 4 accumulate in 64 bits before truncating, the
// same wrap-around arithmetic the format prescribes.
func fixedPredict(order uint, buf []int32) {
	switch order {
	case 0:
		// Predicts zero: residuals already are the samples.
	case 1:
		for i := 1; i < len(buf); i++ {
			buf[i] += buf[i-1]
		}
	case 2:
		for i := 2; i < len(buf); i++ {
			buf[i] += int32(2*int64(buf[i-1]) - int64(buf[i-2]))
		}
	case 3:
		for i := 3; i < len(buf); i++ {
			buf[i] += int32(3*int64(buf[i-1]) - 3*int64(buf[i-2]) + int64(buf[i-3]))
		}
	case 4:
		for i := 4; i < len(buf); i++ {
			buf[i] += int32(4*int64(buf[i-1]) - 6*int64(buf[i-2]) + 4*int64(buf[i-3]) - int64(buf[i-4]))
		}
	}
}
