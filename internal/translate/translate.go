// Package translate translates recognized text through a machine translation service.
package translate

import (
	"context"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
)

// Translator translates text from src to dst. Languages are passed as the
// service expects them (see lang.StripDialect). Failures carry TRANSLATION_FAILED.
type Translator interface {
	Translate(ctx context.Context, text, src, dst string) (string, error)
}

// New builds the translator named by cfg.Provider.
func New(cfg config.TranslatorConfig) (Translator, error) {
	switch cfg.Provider {
	case config.ProviderGoogle, "":
		return NewGoogle(cfg), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigInvalid, "unknown translator provider %q", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, cfg config.TranslatorConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

func failed(err error, msg string) error {
	return apperrors.Wrap(err, apperrors.CodeTranslationFailed, msg)
}
