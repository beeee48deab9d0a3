package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	audiocap "github.com/AymNine/vrc-osc-scripts/internal/audio"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

// Source yields one frame per call, or audiocap.ErrWaitTimeout when no
// speech started within timeout.
type Source interface {
	Listen(ctx context.Context, phraseLimit, timeout time.Duration) (segment.Audio, error)
}

// Sink receives segments in capture order.
type Sink interface {
	Push(segment.Segment)
}

// Config for the segmenter
type Config struct {
	PhraseLimit time.Duration
	WaitTimeout time.Duration
	MaxChunks   int
}

func (c Config) withDefaults() Config {
	if c.PhraseLimit <= 0 {
		c.PhraseLimit = PhraseLimit
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = WaitTimeout
	}
	if c.MaxChunks <= 0 {
		c.MaxChunks = MaxChunks
	}
	return c
}

// Segmenter is the capture loop. Every frame produces a partial segment for
// the utterance so far; a wait timeout finalizes it.
type Segmenter struct {
	src  Source
	sink Sink
	cfg  Config

	// state, owned by Run
	frames []segment.Audio
	chunks int

	resets atomic.Int64
}

// NewSegmenter creates a capture loop reading from src and pushing to sink.
func NewSegmenter(src Source, sink Sink, cfg Config) *Segmenter {
	return &Segmenter{src: src, sink: sink, cfg: cfg.withDefaults()}
}

// Resets reports how many times an utterance hit the chunk cap.
func (s *Segmenter) Resets() int64 { return s.resets.Load() }

// Run reads frames until ctx is done.
func (s *Segmenter) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := s.src.Listen(ctx, s.cfg.PhraseLimit, s.cfg.WaitTimeout)
		switch {
		case err == nil:
			s.onFrame(frame)
		case errors.Is(err, audiocap.ErrWaitTimeout):
			s.onSilence()
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			slog.Warn("audio read failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ReadErrorPause):
			}
		}
	}
}

func (s *Segmenter) accumulating() bool { return len(s.frames) > 0 }

func (s *Segmenter) onFrame(frame segment.Audio) {
	// An empty read carries no audio and is not silence either.
	if len(frame.Data) == 0 {
		return
	}

	if !s.accumulating() {
		s.frames = []segment.Audio{frame}
		s.chunks = 0
	} else {
		s.chunks++
		if s.chunks > s.cfg.MaxChunks {
			s.resets.Add(1)
			slog.Debug("utterance hit chunk cap, restarting", "chunks", s.chunks)
			s.frames = []segment.Audio{frame}
			s.chunks = 0
		} else {
			s.frames = append(s.frames, frame)
		}
	}
	s.push(false)
}

func (s *Segmenter) onSilence() {
	if !s.accumulating() {
		return
	}
	s.push(true)
	s.frames = nil
	s.chunks = 0
}

func (s *Segmenter) push(final bool) {
	s.sink.Push(segment.Segment{
		Audio:    segment.Concat(s.frames),
		Final:    final,
		Captured: time.Now(),
	})
}
