package recognize

import (
	"bytes"
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/lang"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

// Whisper sends segments to an OpenAI-compatible transcription endpoint.
type Whisper struct {
	cfg    config.RecognizerConfig
	client *openai.Client
	model  string
}

// NewWhisper creates a Whisper recognizer. Endpoint overrides the API base
// URL for self-hosted servers.
func NewWhisper(cfg config.RecognizerConfig) (*Whisper, error) {
	if cfg.APIKey == "" && cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.CodeConfigMissing, "recognizer.api_key or recognizer.endpoint is required for the whisper provider")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		oc.BaseURL = cfg.Endpoint
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{cfg: cfg, client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (w *Whisper) Name() string { return config.ProviderWhisper }

// Recognize uploads the segment as WAV.
func (w *Whisper) Recognize(ctx context.Context, audio segment.Audio, language string) (string, error) {
	reqCtx, cancel := withTimeout(ctx, w.cfg)
	defer cancel()

	resp, err := w.client.CreateTranscription(reqCtx, openai.AudioRequest{
		Model:    w.model,
		FilePath: "segment.wav",
		Reader:   bytes.NewReader(EncodeWAV(audio)),
		Language: lang.Base(language),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(ctx, err, "transcription request")
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errUnrecognized
	}
	return text, nil
}
