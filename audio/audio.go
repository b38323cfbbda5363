// SPDX-License-Identifier: EPL-2.0

package audio

// StreamInfo describes the properties of a decoded audio stream. It is
// parsed once from the container or stream headers when a decoder is
// opened and never changes afterwards.
type StreamInfo struct {
	// SampleRate of the stream in Hz.
	SampleRate uint32

	// Channels is the number of audio channels, at least 1.
	Channels uint8

	// BitsPerSample is the width of one decoded sample, 4 to 32 bits.
	BitsPerSample uint8

	// TotalSamples is the number of inter-channel samples (sample
	// times) in the stream. Zero means the length is unknown.
	TotalSamples uint64

	// MD5 is the signature of the unencoded audio data, when the
	// stream carries one. Valid only if HasMD5 is set.
	MD5    [16]byte
	HasMD5 bool
}

// Decoder is the capability every format package provides: metadata up
// front, then one frame of samples per pull. Implementations decode
// lazily and hold at most one frame of samples internally.
type Decoder interface {
	// Info returns the stream properties parsed at open.
	Info() StreamInfo

	// NextFrame decodes the next frame and returns its samples in
	// channel-interleaved, time-ascending order. Samples are signed
	// integers at the stream bit depth, sign-extended to 32 bits.
	//
	// The returned slice is only valid until the next call. NextFrame
	// returns io.EOF at the clean end of the stream and
	// io.ErrUnexpectedEOF when the source ends inside a frame. A
	// *ChecksumError is returned together with the decoded samples;
	// any other error means the frame could not be decoded.
	NextFrame() ([]int32, error)
}
