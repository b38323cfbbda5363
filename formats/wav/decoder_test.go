// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/decant/audio"
	"github.com/ik5/decant/internal/audiotest"
)

// buildWAV hand-assembles a RIFF/WAVE stream from a fmt chunk body and
// a raw data payload, for cases the encoders will not produce.
func buildWAV(fmtBody, data []byte, extraChunks ...[]byte) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(0)) // size, unchecked
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(len(fmtBody)))
	buf.Write(fmtBody)

	for _, c := range extraChunks {
		buf.Write(c)
	}

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// pcmFmt builds a 16-byte PCM fmt chunk body with consistent geometry.
func pcmFmt(tag, channels, bits uint16, rate uint32) []byte {
	body := make([]byte, 16)
	blockAlign := channels * bits / 8
	binary.LittleEndian.PutUint16(body[0:2], tag)
	binary.LittleEndian.PutUint16(body[2:4], channels)
	binary.LittleEndian.PutUint32(body[4:8], rate)
	binary.LittleEndian.PutUint32(body[8:12], rate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(body[12:14], blockAlign)
	binary.LittleEndian.PutUint16(body[14:16], bits)
	return body
}

func decodeAll(t *testing.T, d *Decoder) []int32 {
	t.Helper()
	var all []int32
	for {
		samples, err := d.NextFrame()
		if err == io.EOF {
			return all
		}
		if err != nil {
			t.Fatalf("NextFrame() error = %v", err)
		}
		all = append(all, samples...)
	}
}

func TestDecoder_Mono16(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 100, 200, -100, -200, 32767, -32768}
	buf := new(bytes.Buffer)
	if err := WriteWAV16(buf, 8000, 1, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	d, err := NewDecoder(buf)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	info := d.Info()
	if info.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", info.BitsPerSample)
	}
	if info.TotalSamples != uint64(len(samples)) {
		t.Errorf("TotalSamples = %d, want %d", info.TotalSamples, len(samples))
	}

	got := decodeAll(t, d)
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i, want := range samples {
		if got[i] != int32(want) {
			t.Errorf("sample %d = %d, want %d", i, got[i], want)
		}
	}
}

// The go-audio encoder seeks back to patch sizes, a different writer
// than our own, so it makes a good cross-check fixture.
func TestDecoder_GoAudioEncoderStereo(t *testing.T) {
	t.Parallel()

	var ws audiotest.Buffer
	enc := gowav.NewEncoder(&ws, 44100, 16, 2, 1)
	in := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		SourceBitDepth: 16,
		Data:           []int{100, -100, 200, -200, 300, -300},
	}
	if err := enc.Write(in); err != nil {
		t.Fatalf("encoder Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder Close() error = %v", err)
	}

	d, err := NewDecoder(bytes.NewReader(ws.Bytes()))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	info := d.Info()
	if info.SampleRate != 44100 || info.Channels != 2 || info.BitsPerSample != 16 {
		t.Fatalf("Info() = %+v, want 44100 Hz, 2 ch, 16 bits", info)
	}

	got := decodeAll(t, d)
	for i, want := range in.Data {
		if got[i] != int32(want) {
			t.Errorf("sample %d = %d, want %d", i, got[i], want)
		}
	}
}

func TestDecoder_Unsigned8Bit(t *testing.T) {
	t.Parallel()

	// 8-bit WAVE is unsigned with a 128 offset.
	data := buildWAV(pcmFmt(waveFormatPCM, 1, 8, 8000), []byte{0, 128, 255})
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	got := decodeAll(t, d)
	want := []int32{-128, 0, 127}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDecoder_24Bit(t *testing.T) {
	t.Parallel()

	// -2 and 0x012345 as little-endian 24-bit values.
	data := buildWAV(pcmFmt(waveFormatPCM, 1, 24, 48000), []byte{
		0xfe, 0xff, 0xff,
		0x45, 0x23, 0x01,
	})
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	got := decodeAll(t, d)
	want := []int32{-2, 0x012345}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDecoder_SkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	// A LIST chunk with an odd size, so the pad byte matters too.
	list := append([]byte("LIST"), 0x05, 0, 0, 0)
	list = append(list, 'I', 'N', 'F', 'O', 'x', 0 /* pad */)

	data := buildWAV(pcmFmt(waveFormatPCM, 1, 16, 8000), []byte{0x01, 0x00}, list)
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	got := decodeAll(t, d)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("decoded %v, want [1]", got)
	}
}

func TestDecoder_Extensible(t *testing.T) {
	t.Parallel()

	body := pcmFmt(waveFormatExtensible, 2, 16, 16000)
	ext := make([]byte, 24)
	binary.LittleEndian.PutUint16(ext[0:2], 22)
	binary.LittleEndian.PutUint16(ext[2:4], 16)   // valid bits
	binary.LittleEndian.PutUint32(ext[4:8], 0b11) // channel mask
	copy(ext[8:24], subtypePCM[:])
	body = append(body, ext...)

	data := buildWAV(body, []byte{0x01, 0x00, 0x02, 0x00})
	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if d.Info().BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", d.Info().BitsPerSample)
	}
	got := decodeAll(t, d)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("decoded %v, want [1 2]", got)
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	floatFmt := pcmFmt(waveFormatIEEEFloat, 1, 32, 8000)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not riff", []byte("NOT A WAV FILE DATA AT ALL...."), audio.ErrInvalidFormat},
		{"truncated header", []byte("RIFF"), audio.ErrInvalidFormat},
		{
			"wrong form type",
			append(append([]byte("RIFF"), 4, 0, 0, 0), "NOPE"...),
			audio.ErrInvalidFormat,
		},
		{
			"ieee float",
			buildWAV(floatFmt, nil),
			audio.ErrUnsupported,
		},
		{
			"a-law",
			buildWAV(pcmFmt(waveFormatALaw, 1, 8, 8000), nil),
			audio.ErrUnsupported,
		},
		{
			"unknown format tag",
			buildWAV(pcmFmt(0x0055, 1, 16, 8000), nil),
			audio.ErrUnsupported,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewDecoder(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("NewDecoder() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_InconsistentFmt(t *testing.T) {
	t.Parallel()

	body := pcmFmt(waveFormatPCM, 2, 16, 8000)
	binary.LittleEndian.PutUint16(body[12:14], 3) // bogus block align

	_, err := NewDecoder(bytes.NewReader(buildWAV(body, nil)))
	if !errors.Is(err, audio.ErrCorruptStream) {
		t.Errorf("NewDecoder() error = %v, want ErrCorruptStream", err)
	}
}

func TestDecoder_DataBeforeFmt(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(0))

	_, err := NewDecoder(buf)
	if !errors.Is(err, audio.ErrMissingChunk) {
		t.Errorf("NewDecoder() error = %v, want ErrMissingChunk", err)
	}
}

func TestDecoder_MissingDataChunk(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	buf.Write(pcmFmt(waveFormatPCM, 1, 16, 8000))

	_, err := NewDecoder(buf)
	if !errors.Is(err, audio.ErrMissingChunk) {
		t.Errorf("NewDecoder() error = %v, want ErrMissingChunk", err)
	}
}

func TestDecoder_TruncatedPayload(t *testing.T) {
	t.Parallel()

	// Declares two samples but carries only one.
	data := buildWAV(pcmFmt(waveFormatPCM, 1, 16, 8000), []byte{0x01, 0x00, 0x02, 0x00})
	data = data[:len(data)-2]

	d, err := NewDecoder(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	_, err = d.NextFrame()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("NextFrame() error = %v, want io.ErrUnexpectedEOF", err)
	}
}
