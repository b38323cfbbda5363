// SPDX-License-Identifier: EPL-2.0

package decant

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/decant/audio"
	"github.com/ik5/decant/formats/aiff"
	"github.com/ik5/decant/formats/flac"
	"github.com/ik5/decant/formats/mp3"
	"github.com/ik5/decant/formats/wav"
)

// Segment is the entry point for decoding: it resolves the format,
// opens the matching decoder eagerly so metadata is available at once,
// and hands out samples lazily through a single SampleReader.
//
// A Segment is single-pass and not safe for concurrent use.
type Segment struct {
	// Format is the resolved stream format.
	Format Format

	// StrictCRC makes frame checksum mismatches fail the read instead
	// of being recorded as a warning. Set it before requesting samples.
	StrictCRC bool

	info audio.StreamInfo
	dec  audio.Decoder
	src  io.Closer // set by ReadFile
	sr   *SampleReader
}

// Read opens a segment from r. With FormatUnknown the format is
// sniffed from the leading magic bytes; an explicit format must agree
// with them. The caller keeps ownership of r.
func Read(r io.Reader, format Format) (*Segment, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decant: sniffing stream: %w", err)
	}

	format, err = resolveFormat(format, head)
	if err != nil {
		return nil, err
	}

	var dec audio.Decoder
	switch format {
	case FormatWAV:
		dec, err = wav.NewDecoder(br)
	case FormatAIFF:
		dec, err = aiff.NewDecoder(br)
	case FormatFLAC:
		dec, err = flac.NewDecoder(br)
	case FormatMP3:
		dec, err = mp3.NewDecoder(br)
	}
	if err != nil {
		return nil, err
	}

	return &Segment{Format: format, info: dec.Info(), dec: dec}, nil
}

// ReadFile opens path and decodes it like Read, sniffing the format
// from the content rather than the file extension. Close releases the
// file.
func ReadFile(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decant: %w", err)
	}
	seg, err := Read(f, FormatUnknown)
	if err != nil {
		f.Close()
		return nil, err
	}
	seg.src = f
	return seg, nil
}

// Info returns the stream properties parsed at open.
func (s *Segment) Info() audio.StreamInfo { return s.info }

// Duration returns the decoded length, or zero when the stream does
// not declare its total sample count.
func (s *Segment) Duration() time.Duration {
	if s.info.TotalSamples == 0 || s.info.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.info.TotalSamples) * time.Second / time.Duration(s.info.SampleRate)
}

// Bitrate returns the decoded PCM bitrate in kbit/s.
func (s *Segment) Bitrate() uint32 {
	return s.info.SampleRate / 1000 * uint32(s.info.BitsPerSample) * uint32(s.info.Channels)
}

// String formats a one-line summary of the stream.
func (s *Segment) String() string {
	out := fmt.Sprintf("%s, %d Hz, %d channel(s), %d bits",
		s.Format, s.info.SampleRate, s.info.Channels, s.info.BitsPerSample)
	if d := s.Duration(); d > 0 {
		out += fmt.Sprintf(", %s", d.Round(time.Millisecond))
	}
	return out
}

// Samples returns the segment's sample reader. The stream is decoded
// in a single pass, so Samples succeeds once; open a new segment to
// decode again.
func (s *Segment) Samples() (*SampleReader, error) {
	if s.sr != nil {
		return nil, fmt.Errorf("decant: samples already requested: %w", audio.ErrUnsupported)
	}
	s.sr = &SampleReader{dec: s.dec, strict: s.StrictCRC}
	return s.sr, nil
}

// ReadPCMBuffer fills buf.Data with up to cap(buf.Data) interleaved
// samples and returns the count, so decant sources plug into go-audio
// pipelines. It shares the segment's single sample pass; io.EOF
// signals the end of the stream.
func (s *Segment) ReadPCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if s.sr == nil {
		s.sr = &SampleReader{dec: s.dec, strict: s.StrictCRC}
	}

	buf.Format = &goaudio.Format{
		NumChannels: int(s.info.Channels),
		SampleRate:  int(s.info.SampleRate),
	}
	buf.SourceBitDepth = int(s.info.BitsPerSample)

	if cap(buf.Data) == 0 {
		buf.Data = make([]int, 4096)
	}
	buf.Data = buf.Data[:cap(buf.Data)]

	n := 0
	for n < len(buf.Data) {
		v, err := s.sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			buf.Data = buf.Data[:n]
			return n, err
		}
		buf.Data[n] = int(v)
		n++
	}
	buf.Data = buf.Data[:n]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Close releases the file opened by ReadFile. Segments opened with
// Read leave the source to the caller.
func (s *Segment) Close() error {
	if s.src == nil {
		return nil
	}
	err := s.src.Close()
	s.src = nil
	return err
}

// SampleReader walks the decoded stream one interleaved sample at a
// time, pulling a frame from the decoder whenever its buffer runs dry.
type SampleReader struct {
	dec    audio.Decoder
	strict bool

	frame []int32
	pos   int
	err   error
	warn  error
}

// Next returns the next sample in channel-interleaved, time-ascending
// order. io.EOF signals a cleanly ended stream; any other error is
// final and repeats on further calls.
func (r *SampleReader) Next() (int32, error) {
	if r.pos < len(r.frame) {
		v := r.frame[r.pos]
		r.pos++
		return v, nil
	}
	if r.err != nil {
		return 0, r.err
	}

	frame, err := r.dec.NextFrame()
	if err != nil {
		var cerr *audio.ChecksumError
		if !r.strict && errors.As(err, &cerr) && len(frame) > 0 {
			// Lenient mode: keep the decoded samples and note the
			// mismatch for Warning.
			r.warn = err
		} else {
			r.err = err
			return 0, err
		}
	}
	r.frame, r.pos = frame, 1
	return frame[0], nil
}

// Read fills p with as many samples as it can, returning io.EOF only
// on an empty result, in the manner of io.Reader.
func (r *SampleReader) Read(p []int32) (int, error) {
	n := 0
	for n < len(p) {
		v, err := r.Next()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		p[n] = v
		n++
	}
	return n, nil
}

// Warning returns the most recent checksum mismatch tolerated in
// lenient mode, or nil.
func (r *SampleReader) Warning() error { return r.warn }
