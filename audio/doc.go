// SPDX-License-Identifier: EPL-2.0

// Package audio defines the primitives shared by all format decoders.
//
// This package contains the pieces every decoder needs:
//   - StreamInfo with the immutable stream properties
//   - Decoder, the per-format capability interface
//   - the common error taxonomy
//
// # Decoder Interface
//
// Each format package (formats/wav, formats/aiff, formats/flac,
// formats/mp3) returns a Decoder from its constructor:
//
//	type Decoder interface {
//	    Info() StreamInfo
//	    NextFrame() ([]int32, error)
//	}
//
// NextFrame is pull-based: no decoding happens until the caller asks
// for the next frame, and at most one frame of decoded samples is held
// at a time. Samples are interleaved signed integers sign-extended to
// 32 bits.
//
// # Errors
//
// Decoders classify failures by wrapping the package sentinels:
//
//	_, err := flac.NewDecoder(r)
//	if errors.Is(err, audio.ErrInvalidFormat) {
//	    // not a FLAC stream
//	}
//
// A *ChecksumError is special: the frame decoded fine numerically but
// its footer checksum did not match, so the samples are returned with
// the error and the caller chooses whether to keep them.
package audio
