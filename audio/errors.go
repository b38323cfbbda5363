// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

// The error taxonomy shared by all decoders. Format packages wrap these
// sentinels with fmt.Errorf("...: %w", ...) so callers can classify any
// failure with errors.Is. Read errors from the source and
// io.ErrUnexpectedEOF (source ended before a declared length) propagate
// as-is.
var (
	// ErrInvalidFormat means magic bytes, a sync pattern or a stream
	// marker did not match the expected format.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrUnsupported means the data was recognized but uses a codec,
	// bit depth or channel layout this library does not decode.
	ErrUnsupported = errors.New("unsupported codec or feature")

	// ErrMissingChunk means a required container chunk was absent, for
	// example a payload chunk before any format description.
	ErrMissingChunk = errors.New("missing required chunk")

	// ErrCorruptStream means the data failed validation: a checksum
	// mismatch, an invalid partition order or a malformed length.
	ErrCorruptStream = errors.New("corrupt stream")
)

// ChecksumError reports a frame footer checksum mismatch. The samples
// of the frame were already fully decoded when the mismatch was
// detected, so decoders hand them to the caller alongside this error
// instead of discarding finished work. It unwraps to ErrCorruptStream.
type ChecksumError struct {
	Want, Got uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("frame checksum mismatch: got %#04x, want %#04x", e.Got, e.Want)
}

func (e *ChecksumError) Unwrap() error { return ErrCorruptStream }
