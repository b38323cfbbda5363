// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC (Free Lossless Audio Codec) streams.
//
// The decoder is written from the format specification at
// https://xiph.org/flac/format.html and depends on nothing but the
// module's bit reader. It parses the stream marker and metadata blocks
// eagerly on open, then decodes audio frames one at a time on demand.
//
// # Usage
//
//	dec, err := flac.NewDecoder(r)
//	if err != nil {
//	    // not a FLAC stream, or broken metadata
//	}
//	info := dec.Info() // sample rate, channels, bit depth, length
//	for {
//	    samples, err := dec.NextFrame()
//	    if err == io.EOF {
//	        break
//	    }
//	    // samples are interleaved int32 at info.BitsPerSample depth
//	}
//
// # What is decoded
//
//   - all four subframe types: constant, verbatim, fixed predictors of
//     order 0 to 4, and LPC up to order 32
//   - partitioned Rice residuals, both 4- and 5-bit parameters, with
//     escaped raw partitions
//   - independent, left/side, right/side and mid/side channel layouts
//   - wasted-bits subframes
//
// # Integrity checking
//
// Every frame header carries a CRC-8 that must match before the
// subframes are decoded; a mismatch fails that frame with
// audio.ErrCorruptStream since nothing after the header can be
// trusted. The CRC-16 over the whole frame is checked after decoding:
// on mismatch the samples are returned together with a
// *audio.ChecksumError, leaving the keep-or-drop decision to the
// caller.
//
// A frame that does not start with the 14-bit sync pattern is a hard
// error. The decoder does not scan forward for the next sync point.
package flac
