package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google uses the public gtx translate endpoint.
type Google struct {
	cfg      config.TranslatorConfig
	endpoint string
	client   *http.Client
}

func NewGoogle(cfg config.TranslatorConfig) *Google {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = googleEndpoint
	}
	return &Google{cfg: cfg, endpoint: endpoint, client: &http.Client{}}
}

func (g *Google) Name() string { return config.ProviderGoogle }

func (g *Google) Translate(ctx context.Context, text, src, dst string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", dst)
	q.Set("dt", "t")
	q.Set("q", text)

	reqCtx, cancel := withTimeout(ctx, g.cfg)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", failed(err, "build request")
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", failed(err, "translate request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", failed(err, "read translate response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Newf(apperrors.CodeTranslationFailed, "translate status %d", resp.StatusCode)
	}

	out, err := parseGoogle(body)
	if err != nil {
		return "", failed(err, "parse translate response")
	}
	return out, nil
}

// parseGoogle joins the translated sentences from the nested-array response:
// [[["translated","original",...],...],...].
func parseGoogle(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", err
	}
	if len(root) == 0 {
		return "", fmt.Errorf("empty response")
	}
	var sentences [][]json.RawMessage
	if err := json.Unmarshal(root[0], &sentences); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(s[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no translated text")
	}
	return out, nil
}
