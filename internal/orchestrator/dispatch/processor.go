package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"


	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/lang"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
	"github.com/AymNine/vrc-osc-scripts/internal/output"
	"github.com/AymNine/vrc-osc-scripts/internal/store"
	"github.com/AymNine/vrc-osc-scripts/internal/trace"
)

// Source yields segments in capture order.
type Source interface {
	Pop(ctx context.Context) (segment.Segment, error)
}

// Recognizer transcribes a segment.
type Recognizer interface {
	Recognize(ctx context.Context, audio segment.Audio, language string) (string, error)
}

// Translator translates recognized text.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// Normalizer converts text to its display form for a language.
type Normalizer interface {
	Normalize(text, language string) (string, bool)
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock replaces the wall clock and the rate-limit sleep.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Processor) {
		p.now = now
		p.sleep = sleep
	}
}

// WithTranslator enables translation when EnableTranslation is set.
func WithTranslator(t Translator) Option {
	return func(p *Processor) { p.tr = t }
}

// Processor is the recognition and dispatch loop. It reads settings from the
// shared stores on every segment and writes nothing back to them.
type Processor struct {
	src   Source
	rec   Recognizer
	tr    Translator
	norm  Normalizer
	out   output.Output
	state *store.Store
	cfg   *store.Store

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// cursor, owned by Run
	lastText    string
	lastDisplay time.Time

	counts [numOutcomes]atomic.Int64
}

// NewProcessor creates a dispatch loop.
func NewProcessor(src Source, rec Recognizer, norm Normalizer, out output.Output, state, cfg *store.Store, opts ...Option) *Processor {
	p := &Processor{
		src:   src,
		rec:   rec,
		norm:  norm,
		out:   out,
		state: state,
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run pops and processes segments until ctx is done or the source closes.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		seg, err := p.src.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, segment.ErrClosed) {
				return nil
			}
			trace.Logger(ctx).Warn("segment queue pop failed", "error", err)
			continue
		}
		p.Process(ctx, seg)
	}
}

// Stats returns how many segments ended in each outcome.
func (p *Processor) Stats() map[string]int64 {
	out := make(map[string]int64, numOutcomes)
	for i := Outcome(0); i < numOutcomes; i++ {
		out[i.String()] = p.counts[i].Load()
	}
	return out
}

// Process runs one segment through the gates, recognition, rate limit,
// translation, truncation and normalization, then dispatches it.
func (p *Processor) Process(ctx context.Context, seg segment.Segment) Outcome {
	ctx, span := trace.StartSpan(ctx, "dispatch_segment")
	defer span.End()
	span.SetAttr("final", seg.Final)
	span.SetAttr("audio", seg.Audio.Duration())

	outcome := p.process(ctx, seg)
	span.SetAttr("outcome", outcome.String())
	p.counts[outcome].Add(1)
	return outcome
}

func (p *Processor) process(ctx context.Context, seg segment.Segment) Outcome {
	log := trace.Logger(ctx)

	if p.cfg.Bool(store.KeyFollowMicMute) && p.state.Bool(store.KeyCaptureMuted) {
		return DroppedMuted
	}
	if p.cfg.Bool(store.KeyPause) {
		return DroppedPaused
	}

	if err := p.out.SetTyping(ctx, !seg.Final); err != nil {
		log.Debug("typing indicator failed", "error", err)
	}

	translating := p.cfg.Bool(store.KeyEnableTranslation)
	if translating && !p.cfg.Bool(store.KeyTranslateInterimResults) && !seg.Final {
		return DroppedInterim
	}

	if !seg.Final && p.now().Sub(p.lastDisplay) < p.cfg.Duration(store.KeyDebounceWindowMs) {
		return DroppedDebounce
	}

	captured := p.cfg.String(store.KeyCapturedLanguage)
	text, err := p.rec.Recognize(ctx, seg.Audio, captured)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = apperrors.New(apperrors.CodeRecognitionUnrecognized, "empty transcript")
		}
	}
	if err != nil {
		return p.recognitionFailed(ctx, err)
	}

	if text == p.lastText {
		return DroppedDuplicate
	}

	interval := p.cfg.Duration(store.KeyMinMessageIntervalMs)
	if elapsed := p.now().Sub(p.lastDisplay); elapsed < interval {
		wait := interval - elapsed
		log.Info("delaying display to respect rate limit", "wait", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return Cancelled
		}
	}

	display, language := text, captured
	if translating && p.tr != nil {
		display, language = p.translate(ctx, text, captured)
	} else {
		log.Info("recognized", "text", text, "final", seg.Final)
	}

	display = Truncate(display, p.cfg.Int(store.KeyMaxDisplayLength))

	normalized, changed := p.norm.Normalize(display, language)
	if changed {
		log.Debug("converted for display", "text", normalized, "language", language)
	}

	p.lastText = text
	p.lastDisplay = p.now()

	if err := p.out.Display(ctx, output.DisplayUpdate{
		Text:       normalized,
		Language:   language,
		Normalized: changed,
		Final:      seg.Final,
	}); err != nil {
		log.Debug("display dispatch failed", "error", err)
	}
	return Displayed
}

func (p *Processor) recognitionFailed(ctx context.Context, err error) Outcome {
	log := trace.Logger(ctx)
	switch apperrors.CodeOf(err) {
	case apperrors.CodeRecognitionUnrecognized:
		log.Debug("speech not understood")
		return Unrecognized
	case apperrors.CodeRecognitionTimeout:
		log.Warn("recognition timed out", "error", err)
		return RecognitionTimeout
	case apperrors.CodeCancelled:
		return Cancelled
	default:
		if ctx.Err() != nil {
			return Cancelled
		}
		log.Warn("recognition failed", "error", err)
		return RecognitionFailed
	}
}

func (p *Processor) translate(ctx context.Context, text, captured string) (string, string) {
	log := trace.Logger(ctx)
	target := p.cfg.String(store.KeyTranslateTo)

	out, err := p.tr.Translate(ctx, text, lang.StripDialect(captured), lang.StripDialect(target))
	if err != nil {
		log.Warn("translation failed, showing original text", "error", err)
		return text, captured
	}
	out = strings.TrimSpace(out) + fmt.Sprintf(translationTagFormat, captured, target)
	log.Info("recognized", "text", text, "translated", out)
	return out, target
}

// Truncate keeps the last wrapped line of text when it is longer than limit.
// Width is counted in characters, so CJK text gets the same budget as Latin.
// Lines break at word boundaries; a word longer than limit fills the rest of
// the current line and continues on the next.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	var line []rune
	for _, field := range strings.Fields(text) {
		word := []rune(field)
		for len(word) > 0 {
			sep := 0
			if len(line) > 0 {
				sep = 1
			}
			if len(line)+sep+len(word) <= limit {
				if sep > 0 {
					line = append(line, ' ')
				}
				line = append(line, word...)
				break
			}
			if len(word) > limit {
				if room := limit - len(line) - sep; room > 0 {
					if sep > 0 {
						line = append(line, ' ')
					}
					line = append(line, word[:room]...)
					word = word[room:]
				}
			}
			line = line[:0]
		}
	}
	return string(line)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
