package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
)

const systemPrompt = "You translate live speech subtitles from %s to %s. " +
	"Reply with the translation only, no quotes or commentary."

// OpenAI translates with a chat completion model.
type OpenAI struct {
	cfg    config.TranslatorConfig
	client *openai.Client
	model  string
}

func NewOpenAI(cfg config.TranslatorConfig) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.Endpoint == "" {
		return nil, apperrors.New(apperrors.CodeConfigMissing, "translator.api_key is required for the openai provider")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		oc.BaseURL = cfg.Endpoint
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{cfg: cfg, client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (o *OpenAI) Name() string { return config.ProviderOpenAI }

func (o *OpenAI) Translate(ctx context.Context, text, src, dst string) (string, error) {
	reqCtx, cancel := withTimeout(ctx, o.cfg)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, src, dst)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", failed(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeTranslationFailed, "no completion choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", apperrors.New(apperrors.CodeTranslationFailed, "empty completion")
	}
	return out, nil
}
