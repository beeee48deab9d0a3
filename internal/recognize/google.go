package recognize

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

const googleEndpoint = "http://www.google.com/speech-api/v2/recognize"

// Google talks to the speech-api v2 endpoint used by Chromium.
type Google struct {
	cfg      config.RecognizerConfig
	endpoint string
	client   *http.Client
}

// NewGoogle creates a Google recognizer. An API key is required.
func NewGoogle(cfg config.RecognizerConfig) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeConfigMissing, "recognizer.api_key is required for the google provider")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = googleEndpoint
	}
	return &Google{cfg: cfg, endpoint: endpoint, client: &http.Client{}}, nil
}

func (g *Google) Name() string { return config.ProviderGoogle }

type googleResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string   `json:"transcript"`
			Confidence *float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
}

// Recognize posts the segment as FLAC and returns the best transcript.
func (g *Google) Recognize(ctx context.Context, audio segment.Audio, language string) (string, error) {
	body, err := EncodeFLAC(audio)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRecognitionFailed, "encode segment")
	}

	q := url.Values{}
	q.Set("client", "chromium")
	q.Set("lang", language)
	q.Set("key", g.cfg.APIKey)
	q.Set("pFilter", "0")

	reqCtx, cancel := withTimeout(ctx, g.cfg)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRecognitionFailed, "build request")
	}
	req.Header.Set("Content-Type", fmt.Sprintf("audio/x-flac; rate=%d", audio.SampleRate))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", classify(ctx, err, "speech request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.Newf(apperrors.CodeRecognitionFailed, "speech API status %d", resp.StatusCode).
			WithMetadata("body", strings.TrimSpace(string(msg)))
	}

	text, err := parseGoogle(resp.Body)
	if err != nil {
		return "", classify(ctx, err, "read speech response")
	}
	return text, nil
}

// parseGoogle reads the line-delimited JSON results. The first line with a
// non-empty result wins; the alternative with the highest confidence is kept.
func parseGoogle(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var gr googleResponse
		if err := json.Unmarshal([]byte(line), &gr); err != nil {
			slog.Debug("skipping malformed speech result", "line", line, "error", err)
			continue
		}
		if len(gr.Result) == 0 {
			continue
		}
		alts := gr.Result[0].Alternative
		if len(alts) == 0 {
			return "", errUnrecognized
		}
		best := alts[0]
		for _, a := range alts[1:] {
			if a.Confidence != nil && (best.Confidence == nil || *a.Confidence > *best.Confidence) {
				best = a
			}
		}
		if text := strings.TrimSpace(best.Transcript); text != "" {
			return text, nil
		}
		return "", errUnrecognized
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errUnrecognized
}
