package recognize

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

const flacBlockSize = 4096

// EncodeFLAC encodes 16-bit mono PCM as a FLAC stream.
func EncodeFLAC(a segment.Audio) ([]byte, error) {
	if a.SampleWidth != 2 {
		return nil, fmt.Errorf("flac: unsupported sample width %d", a.SampleWidth)
	}
	n := len(a.Data) / 2
	samples := make([]int32, n)
	for i := range samples {
		samples[i] = int32(int16(binary.LittleEndian.Uint16(a.Data[2*i:])))
	}

	var buf bytes.Buffer
	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(a.SampleRate),
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      uint64(n),
	}
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}

	for start := 0; start < n; start += flacBlockSize {
		end := min(start+flacBlockSize, n)
		block := samples[start:end]
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(len(block)),
				SampleRate:        uint32(a.SampleRate),
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
				Num:               uint64(start / flacBlockSize),
			},
			Subframes: []*frame.Subframe{{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   block,
				NSamples:  len(block),
			}},
		}
		if err := enc.WriteFrame(f); err != nil {
			return nil, fmt.Errorf("writing flac frame: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing flac encoder: %w", err)
	}
	return buf.Bytes(), nil
}
