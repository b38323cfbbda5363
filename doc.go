// SPDX-License-Identifier: EPL-2.0

// Package decant decodes audio files into interleaved signed PCM
// samples through one uniform interface.
//
// The package supports decoding the following audio formats:
//   - WAV (RIFF/WAVE, integer PCM including WAVE_FORMAT_EXTENSIBLE)
//   - AIFF and AIFF-C (uncompressed)
//   - FLAC (native implementation)
//   - MP3 (via github.com/hajimehoshi/go-mp3)
//
// Vorbis and AAC are recognized by their magic bytes but not decoded
// yet; selecting them fails with audio.ErrUnsupported.
//
// # Reading a file
//
//	seg, err := decant.ReadFile("track.flac")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer seg.Close()
//
//	fmt.Println(seg) // "flac, 44100 Hz, 2 channel(s), 16 bits, 3m21s"
//
//	sr, err := seg.Samples()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    sample, err := sr.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = sample // interleaved int32 at Info().BitsPerSample depth
//	}
//
// The format is sniffed from the stream's magic bytes. Passing an
// explicit Format to Read instead requires the magic bytes to agree,
// which catches mislabeled sources early.
//
// # Metadata before samples
//
// Opening a segment parses only headers and metadata; Info, Duration,
// Bitrate and String work before any sample is decoded, and samples
// are decoded one frame at a time as they are pulled.
//
// # Checksum policy
//
// FLAC frames carry a 16-bit footer checksum. By default a mismatch is
// tolerated: the decoded samples are delivered and the mismatch is
// available from SampleReader.Warning. Setting Segment.StrictCRC
// before requesting samples turns a mismatch into a hard error.
//
// # Lower-level access
//
// Each format lives in its own package under formats/ and exposes an
// audio.Decoder that yields one frame of interleaved samples per call,
// for callers that do not want the façade.
package decant
