// Package dispatch turns queued segments into chatbox display updates
package dispatch

// Outcome of one segment's trip through the loop.
type Outcome int

const (
	Displayed Outcome = iota
	DroppedMuted
	DroppedPaused
	DroppedInterim
	DroppedDebounce
	DroppedDuplicate
	Unrecognized
	RecognitionTimeout
	RecognitionFailed
	Cancelled

	numOutcomes
)

var outcomeNames = [numOutcomes]string{
	Displayed:          "displayed",
	DroppedMuted:       "dropped_muted",
	DroppedPaused:      "dropped_paused",
	DroppedInterim:     "dropped_interim",
	DroppedDebounce:    "dropped_debounce",
	DroppedDuplicate:   "dropped_duplicate",
	Unrecognized:       "unrecognized",
	RecognitionTimeout: "recognition_timeout",
	RecognitionFailed:  "recognition_failed",
	Cancelled:          "cancelled",
}

func (o Outcome) String() string {
	if o < 0 || o >= numOutcomes {
		return "unknown"
	}
	return outcomeNames[o]
}

// Annotation appended to translated text.
const translationTagFormat = " [%s->%s]"
