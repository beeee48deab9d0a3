package recognize

import (
	"context"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
	"github.com/AymNine/vrc-osc-scripts/internal/resilience"
)

// Guarded wraps a Recognizer with a circuit breaker. While the breaker is
// open segments fail fast with RECOGNITION_FAILED and never reach the service.
type Guarded struct {
	next    Recognizer
	breaker *resilience.Breaker
}

// WithBreaker guards r. Only service faults count against the breaker; an
// unrecognized segment or a cancelled call does not.
func WithBreaker(r Recognizer, cfg resilience.Config) *Guarded {
	cfg.IsFailure = func(err error) bool {
		switch apperrors.CodeOf(err) {
		case apperrors.CodeRecognitionUnrecognized, apperrors.CodeCancelled:
			return false
		}
		return true
	}
	return &Guarded{next: r, breaker: resilience.New("recognizer", cfg)}
}

// Breaker exposes the underlying breaker.
func (g *Guarded) Breaker() *resilience.Breaker { return g.breaker }

func (g *Guarded) Recognize(ctx context.Context, audio segment.Audio, language string) (string, error) {
	text, err := resilience.Call(g.breaker, func() (string, error) {
		return g.next.Recognize(ctx, audio, language)
	})
	if err != nil && apperrors.IsCode(err, apperrors.CodeUnavailable) {
		return "", apperrors.Wrap(err, apperrors.CodeRecognitionFailed, "recognizer unavailable")
	}
	return text, err
}
