// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF and AIFF-C audio files.
//
// AIFF is the big-endian chunked container of the IFF family: a FORM
// preamble followed by [id][size][payload] chunks padded to even
// length. The COMM chunk carries channel count, sample frames, sample
// width and an 80-bit extended-float sample rate; the SSND chunk holds
// the interleaved big-endian signed PCM.
//
// Supported:
//   - standard AIFF and AIFF-C with compression type NONE
//   - 8, 16, 24 and 32 bits per sample (8-bit AIFF is signed, unlike
//     WAVE)
//   - any channel count
//
// AIFF-C files using any other compression type fail with
// audio.ErrUnsupported.
//
//	dec, err := aiff.NewDecoder(f)
//	if err != nil {
//	    // handle error
//	}
//	samples, err := dec.NextFrame()
package aiff
