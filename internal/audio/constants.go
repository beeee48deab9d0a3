package audio

import "time"

const (
	defaultSampleRate      = 16000
	defaultFramesPerBuffer = 1024
	defaultEnergyThreshold = 300
	defaultDamping         = 0.15
	defaultRatio           = 1.5
	defaultPause           = 800 * time.Millisecond
	defaultNonSpeaking     = 500 * time.Millisecond
	defaultMinPhrase       = 300 * time.Millisecond

	sampleWidth = 2
)
