// Package segment defines captured audio segments and the queue that carries
// them from the capture loop to the dispatch loop.
package segment

import "time"

// Audio is a contiguous run of PCM samples.
type Audio struct {
	Data        []byte
	SampleRate  int
	SampleWidth int
}

// Duration returns the play time of the samples.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 || a.SampleWidth <= 0 {
		return 0
	}
	frames := len(a.Data) / a.SampleWidth
	return time.Duration(frames) * time.Second / time.Duration(a.SampleRate)
}

// Concat joins frames into a fresh Audio. The inputs are never aliased, so a
// segment built from them stays valid after the caller keeps appending.
func Concat(frames []Audio) Audio {
	if len(frames) == 0 {
		return Audio{}
	}
	n := 0
	for _, f := range frames {
		n += len(f.Data)
	}
	data := make([]byte, 0, n)
	for _, f := range frames {
		data = append(data, f.Data...)
	}
	return Audio{Data: data, SampleRate: frames[0].SampleRate, SampleWidth: frames[0].SampleWidth}
}

// Segment is one unit of recognition work. Final marks the end of an utterance.
type Segment struct {
	Audio Audio
	Final bool
	// Captured is when the segment was enqueued.
	Captured time.Time
}
