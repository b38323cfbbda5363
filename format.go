// SPDX-License-Identifier: EPL-2.0

package decant

import (
	"fmt"

	"github.com/ik5/decant/audio"
)

// Format identifies an audio codec or container.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAIFF
	FormatFLAC
	FormatMP3
	FormatVorbis
	FormatAAC
	FormatPCM // raw headerless PCM
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAIFF:
		return "aiff"
	case FormatFLAC:
		return "flac"
	case FormatMP3:
		return "mp3"
	case FormatVorbis:
		return "vorbis"
	case FormatAAC:
		return "aac"
	case FormatPCM:
		return "pcm"
	}
	return "unknown"
}

// sniffLen is how many leading bytes detection needs: enough for the
// IFF-style containers that carry a form type at offset 8.
const sniffLen = 12

// detect matches the leading bytes against the known signatures. The
// table is fixed; formats that cannot be sniffed (raw PCM) never match.
func detect(p []byte) Format {
	if len(p) < sniffLen {
		return FormatUnknown
	}

	switch {
	case string(p[0:4]) == "RIFF" && string(p[8:12]) == "WAVE":
		return FormatWAV
	case string(p[0:4]) == "FORM" && (string(p[8:12]) == "AIFF" || string(p[8:12]) == "AIFC"):
		return FormatAIFF
	case string(p[0:4]) == "fLaC":
		return FormatFLAC
	case string(p[0:4]) == "OggS":
		return FormatVorbis
	case string(p[0:3]) == "ID3":
		// An ID3v2 tag almost always fronts an MP3 stream.
		return FormatMP3
	case p[0] == 0xff && p[1]&0xf6 == 0xf0:
		// MPEG sync with layer bits 00: ADTS AAC.
		return FormatAAC
	case p[0] == 0xff && p[1]&0xe0 == 0xe0:
		// MPEG sync with a real layer: MPEG audio.
		return FormatMP3
	}
	return FormatUnknown
}

// resolveFormat reconciles an explicit format flag with the sniffed
// magic bytes. A flag must agree with what the stream actually starts
// with; with no flag the magic alone decides.
func resolveFormat(flag Format, head []byte) (Format, error) {
	switch flag {
	case FormatVorbis, FormatAAC:
		return 0, fmt.Errorf("decant: %s decoding not implemented: %w", flag, audio.ErrUnsupported)
	case FormatPCM:
		return 0, fmt.Errorf("decant: raw PCM needs a container: %w", audio.ErrUnsupported)
	}

	sniffed := detect(head)
	if flag == FormatUnknown {
		switch sniffed {
		case FormatUnknown:
			return 0, fmt.Errorf("decant: unrecognized magic bytes: %w", audio.ErrUnsupported)
		case FormatVorbis, FormatAAC:
			return 0, fmt.Errorf("decant: %s decoding not implemented: %w", sniffed, audio.ErrUnsupported)
		}
		return sniffed, nil
	}

	if sniffed != flag {
		return 0, fmt.Errorf("decant: stream is %s, not %s: %w", sniffed, flag, audio.ErrInvalidFormat)
	}
	return flag, nil
}
