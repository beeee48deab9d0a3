package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrWaitTimeout is returned by Listen when no speech starts within the wait timeout.
var ErrWaitTimeout = errors.New("listening timed out while waiting for phrase to start")

// EnergyConfig tunes the energy gate.
type EnergyConfig struct {
	SampleRate      int
	FramesPerBuffer int
	Threshold       float64
	Dynamic         bool
	Damping         float64
	Ratio           float64
	Pause           time.Duration
	NonSpeaking     time.Duration
	MinPhrase       time.Duration
}

func (c EnergyConfig) withDefaults() EnergyConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.FramesPerBuffer <= 0 {
		c.FramesPerBuffer = defaultFramesPerBuffer
	}
	if c.Threshold <= 0 {
		c.Threshold = defaultEnergyThreshold
	}
	if c.Damping <= 0 {
		c.Damping = defaultDamping
	}
	if c.Ratio <= 0 {
		c.Ratio = defaultRatio
	}
	if c.Pause <= 0 {
		c.Pause = defaultPause
	}
	if c.NonSpeaking <= 0 {
		c.NonSpeaking = defaultNonSpeaking
	}
	if c.NonSpeaking > c.Pause {
		c.NonSpeaking = c.Pause
	}
	if c.MinPhrase <= 0 {
		c.MinPhrase = defaultMinPhrase
	}
	return c
}

// Detector splits a stream of int16 buffers into phrases by RMS energy. The
// threshold follows the ambient level while no one is speaking.
type Detector struct {
	cfg       EnergyConfig
	threshold float64
}

func NewDetector(cfg EnergyConfig) *Detector {
	cfg = cfg.withDefaults()
	return &Detector{cfg: cfg, threshold: cfg.Threshold}
}

// Threshold returns the current energy threshold.
func (d *Detector) Threshold() float64 { return d.threshold }

func (d *Detector) bufferSeconds() float64 {
	return float64(d.cfg.FramesPerBuffer) / float64(d.cfg.SampleRate)
}

func (d *Detector) buffersFor(dur time.Duration) int {
	return int(math.Ceil(dur.Seconds() / d.bufferSeconds()))
}

// Listen reads buffers until a phrase has been captured. The phrase ends
// after Pause of quiet or once it is longer than phraseLimit. When no buffer
// rises above the threshold within timeout, ErrWaitTimeout is returned.
// Zero phraseLimit or timeout disables the respective limit.
func (d *Detector) Listen(ctx context.Context, read func() ([]int16, error), phraseLimit, timeout time.Duration) ([]int16, error) {
	spb := d.bufferSeconds()
	pauseBuffers := d.buffersFor(d.cfg.Pause)
	nonSpeakingBuffers := d.buffersFor(d.cfg.NonSpeaking)
	minPhraseBuffers := d.buffersFor(d.cfg.MinPhrase)

	var elapsed float64
	var frames [][]int16
	var pauseCount int

	for {
		frames = frames[:0]

		// Wait for the energy to rise above the threshold.
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if timeout > 0 && elapsed > timeout.Seconds() {
				return nil, ErrWaitTimeout
			}
			buf, err := read()
			if err != nil {
				return nil, err
			}
			elapsed += spb
			frames = append(frames, buf)
			if len(frames) > nonSpeakingBuffers {
				frames = frames[1:]
			}

			energy := rms(buf)
			if energy > d.threshold {
				break
			}
			if d.cfg.Dynamic {
				damping := math.Pow(d.cfg.Damping, spb)
				target := energy * d.cfg.Ratio
				d.threshold = d.threshold*damping + target*(1-damping)
			}
		}

		// Collect until a long enough pause or the phrase limit.
		phraseStart := elapsed
		phraseCount := 0
		pauseCount = 0
		limited := false
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if phraseLimit > 0 && elapsed-phraseStart > phraseLimit.Seconds() {
				limited = true
				break
			}
			buf, err := read()
			if err != nil {
				return nil, err
			}
			elapsed += spb
			frames = append(frames, buf)
			phraseCount++

			if rms(buf) > d.threshold {
				pauseCount = 0
			} else {
				pauseCount++
			}
			if pauseCount > pauseBuffers {
				break
			}
		}

		phraseCount -= pauseCount
		if limited || phraseCount >= minPhraseBuffers {
			break
		}
	}

	if trim := pauseCount - nonSpeakingBuffers; trim > 0 && trim < len(frames) {
		frames = frames[:len(frames)-trim]
	}

	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out, nil
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Int16ToBytes encodes samples as little-endian 16-bit PCM.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}
