// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2/2.5 layer III audio.
//
// The heavy lifting is done by github.com/hajimehoshi/go-mp3; this
// package wraps it in the module's audio.Decoder interface so MP3
// streams plug into the same pipeline as the native decoders.
//
// go-mp3 always synthesizes 16-bit little-endian stereo, upmixing mono
// sources, so Info reports two channels at 16 bits for every stream.
// The total sample count is only known when the source reader is
// seekable; otherwise Info().TotalSamples is zero.
package mp3
