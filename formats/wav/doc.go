// SPDX-License-Identifier: EPL-2.0

// Package wav decodes RIFF/WAVE audio files.
//
// The container is scanned chunk by chunk: the fmt chunk must appear
// before the data chunk, unknown chunks are skipped by their declared
// size, and odd-sized chunks honor the RIFF padding byte. Decoding
// starts as soon as the data chunk header is reached, so the stream
// only needs to be read once and never seeks.
//
// Supported sample encodings:
//   - integer PCM at 8 (unsigned), 16, 24 and 32 bits, little-endian
//   - WAVE_FORMAT_EXTENSIBLE wrapping integer PCM
//
// IEEE float, A-law and mu-law streams are recognized and rejected
// with audio.ErrUnsupported. Inconsistent fmt fields (block alignment
// or byte rate that disagree with the declared geometry) fail with
// audio.ErrCorruptStream rather than guessing.
//
// WriteWAV16 is the companion encoder for 16-bit PCM, mostly useful
// for producing test fixtures and small conversion tools.
package wav
