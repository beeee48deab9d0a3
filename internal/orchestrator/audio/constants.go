// Package audio turns device frames into queued speech segments
package audio

import "time"

// Segmentation constants
const (
	// Consecutive chunks after which an utterance restarts from the current frame
	MaxChunks = 10

	// Longest frame the device is asked for
	PhraseLimit = time.Second

	// Quiet time after which the device reports a wait timeout
	WaitTimeout = 100 * time.Millisecond

	// Pause after a failed device read before trying again
	ReadErrorPause = 250 * time.Millisecond
)
