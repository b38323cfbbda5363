// SPDX-License-Identifier: EPL-2.0

package decant_test

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/decant"
	"github.com/ik5/decant/formats/wav"
)

// Example demonstrates opening a stream with format sniffing and
// pulling the decoded samples.
func Example() {
	// Build a small WAV stream in memory.
	src := new(bytes.Buffer)
	if err := wav.WriteWAV16(src, 16000, 1, []int16{100, 200, 300, 400, 500}); err != nil {
		fmt.Println("encode error:", err)
		return
	}

	seg, err := decant.Read(src, decant.FormatUnknown)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	fmt.Printf("format: %s, %d Hz, %d channel(s)\n",
		seg.Format, seg.Info().SampleRate, seg.Info().Channels)

	sr, err := seg.Samples()
	if err != nil {
		fmt.Println("samples error:", err)
		return
	}
	total := 0
	for {
		_, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("decode error:", err)
			return
		}
		total++
	}
	fmt.Printf("decoded %d samples\n", total)

	// Output:
	// format: wav, 16000 Hz, 1 channel(s)
	// decoded 5 samples
}
