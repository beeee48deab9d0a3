// Package recognize turns audio segments into text through a speech-to-text service.
package recognize

import (
	"context"
	stderrors "errors"
	"net"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

// Recognizer transcribes one segment. Errors carry RECOGNITION_UNRECOGNIZED
// when no speech was understood, RECOGNITION_TIMEOUT when the service did not
// answer in time and RECOGNITION_FAILED otherwise.
type Recognizer interface {
	Recognize(ctx context.Context, audio segment.Audio, language string) (string, error)
}

// New builds the recognizer named by cfg.Provider.
func New(cfg config.RecognizerConfig) (Recognizer, error) {
	switch cfg.Provider {
	case config.ProviderGoogle, "":
		return NewGoogle(cfg)
	case config.ProviderWhisper:
		return NewWhisper(cfg)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown recognizer provider %q", cfg.Provider)
	}
}

var errUnrecognized = apperrors.New(apperrors.CodeRecognitionUnrecognized, "speech not understood")

// classify maps a transport error onto the recognition codes.
func classify(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.Canceled) && ctx.Err() != nil {
		return apperrors.Wrap(err, apperrors.CodeCancelled, msg)
	}
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.Wrap(err, apperrors.CodeRecognitionTimeout, msg)
	}
	return apperrors.Wrap(err, apperrors.CodeRecognitionFailed, msg)
}

func withTimeout(ctx context.Context, cfg config.RecognizerConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}
