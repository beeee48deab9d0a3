package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
)

func TestGoogleTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "en" || q.Get("tl") != "ja" || q.Get("dt") != "t" {
			t.Errorf("query = %v", q)
		}
		if q.Get("q") != "Hello. How are you?" {
			t.Errorf("q = %q", q.Get("q"))
		}
		_, _ = io.WriteString(w, `[[["こんにちは。","Hello.",null,null,10],["お元気ですか？","How are you?",null,null,10]],null,"en"]`)
	}))
	defer srv.Close()

	g := NewGoogle(config.TranslatorConfig{Endpoint: srv.URL})
	got, err := g.Translate(context.Background(), "Hello. How are you?", "en", "ja")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "こんにちは。お元気ですか？" {
		t.Errorf("Translate() = %q", got)
	}
}

func TestGoogleTranslateFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down"},
		{"not json", http.StatusOK, "<html>"},
		{"empty", http.StatusOK, `[]`},
		{"no text", http.StatusOK, `[[],null,"en"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGoogle(config.TranslatorConfig{Endpoint: srv.URL}).Translate(context.Background(), "hi", "en", "de")
			if !apperrors.IsCode(err, apperrors.CodeTranslationFailed) {
				t.Errorf("Translate() error = %v, want TRANSLATION_FAILED", err)
			}
		})
	}
}

func TestOpenAITranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, "from en to de") {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.Messages[1].Content != "good morning" {
			t.Errorf("user message = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Guten Morgen "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI(config.TranslatorConfig{APIKey: "sk", Endpoint: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	got, err := o.Translate(context.Background(), "good morning", "en", "de")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "Guten Morgen" {
		t.Errorf("Translate() = %q, want Guten Morgen", got)
	}
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	o, _ := NewOpenAI(config.TranslatorConfig{APIKey: "sk", Endpoint: srv.URL + "/v1"})
	if _, err := o.Translate(context.Background(), "x", "en", "de"); !apperrors.IsCode(err, apperrors.CodeTranslationFailed) {
		t.Errorf("Translate() error = %v, want TRANSLATION_FAILED", err)
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := New(config.TranslatorConfig{Provider: "deepl"}); !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("New() error = %v", err)
	}
	if _, err := New(config.TranslatorConfig{Provider: config.ProviderOpenAI}); !apperrors.IsCode(err, apperrors.CodeConfigMissing) {
		t.Errorf("New() error = %v, want CONFIG_MISSING", err)
	}
	tr, err := New(config.TranslatorConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := tr.(*Google); !ok {
		t.Errorf("New() = %T, want *Google", tr)
	}
}
