package recognize

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mewkiz/flac"

	"github.com/AymNine/vrc-osc-scripts/internal/config"
	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/orchestrator/segment"
)

func testAudio(n int) segment.Audio {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(i%200-100)))
	}
	return segment.Audio{Data: data, SampleRate: 16000, SampleWidth: 2}
}

func TestEncodeWAV(t *testing.T) {
	a := testAudio(100)
	wav := EncodeWAV(a)

	if len(wav) != wavHeaderSize+200 {
		t.Fatalf("len = %d, want %d", len(wav), wavHeaderSize+200)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Error("missing RIFF markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != 200 {
		t.Errorf("data size = %d, want 200", got)
	}
	if !bytes.Equal(wav[wavHeaderSize:], a.Data) {
		t.Error("payload differs from input")
	}
}

func TestEncodeFLACRoundTrip(t *testing.T) {
	a := testAudio(5000)
	data, err := EncodeFLAC(a)
	if err != nil {
		t.Fatalf("EncodeFLAC() error = %v", err)
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("flac.New() error = %v", err)
	}
	if stream.Info.SampleRate != 16000 || stream.Info.NChannels != 1 {
		t.Errorf("stream info = %+v", stream.Info)
	}

	var got []int32
	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ParseNext() error = %v", err)
		}
		got = append(got, f.Subframes[0].Samples...)
	}
	if len(got) != 5000 {
		t.Fatalf("decoded %d samples, want 5000", len(got))
	}
	for i := 0; i < 5000; i += 997 {
		if want := int32(i%200 - 100); got[i] != want {
			t.Errorf("sample %d = %d, want %d", i, got[i], want)
		}
	}
}

func TestEncodeFLACRejectsWidth(t *testing.T) {
	if _, err := EncodeFLAC(segment.Audio{Data: []byte{1}, SampleRate: 16000, SampleWidth: 1}); err == nil {
		t.Error("EncodeFLAC() should reject 8-bit audio")
	}
}

func googleServer(t *testing.T, status int, body string, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.URL.Query().Get("lang"); got != "en-US" {
			t.Errorf("lang = %q, want en-US", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "audio/x-flac; rate=16000" {
			t.Errorf("Content-Type = %q", got)
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleRecognize(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		delay  time.Duration
		want   string
		code   apperrors.Code
	}{
		{
			name:   "best alternative",
			status: http.StatusOK,
			body: `{"result":[]}
{"result":[{"alternative":[{"transcript":"hello word","confidence":0.4},{"transcript":"hello world","confidence":0.9}],"final":true}],"result_index":0}
`,
			want: "hello world",
		},
		{
			name:   "no confidence takes first",
			status: http.StatusOK,
			body:   `{"result":[{"alternative":[{"transcript":"first"},{"transcript":"second"}],"final":true}]}`,
			want:   "first",
		},
		{name: "empty result", status: http.StatusOK, body: `{"result":[]}` + "\n", code: apperrors.CodeRecognitionUnrecognized},
		{name: "empty body", status: http.StatusOK, body: "", code: apperrors.CodeRecognitionUnrecognized},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", code: apperrors.CodeRecognitionFailed},
		{name: "timeout", status: http.StatusOK, body: `{"result":[]}`, delay: time.Second, code: apperrors.CodeRecognitionTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := googleServer(t, tt.status, tt.body, tt.delay)
			g, err := NewGoogle(config.RecognizerConfig{APIKey: "test-key", Endpoint: srv.URL, Timeout: 100 * time.Millisecond})
			if err != nil {
				t.Fatalf("NewGoogle() error = %v", err)
			}

			got, err := g.Recognize(context.Background(), testAudio(1600), "en-US")
			if tt.code != apperrors.CodeUnknown {
				if !apperrors.IsCode(err, tt.code) {
					t.Fatalf("Recognize() error = %v, want code %v", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recognize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Recognize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoogleRequiresKey(t *testing.T) {
	if _, err := NewGoogle(config.RecognizerConfig{}); !apperrors.IsCode(err, apperrors.CodeConfigMissing) {
		t.Errorf("NewGoogle() error = %v, want CONFIG_MISSING", err)
	}
}

func TestWhisperRecognize(t *testing.T) {
	var gotLang, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		gotLang = r.FormValue("language")
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" konnichiwa "}`)
	}))
	defer srv.Close()

	w, err := NewWhisper(config.RecognizerConfig{APIKey: "sk", Endpoint: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewWhisper() error = %v", err)
	}
	got, err := w.Recognize(context.Background(), testAudio(1600), "ja-JP")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if got != "konnichiwa" {
		t.Errorf("Recognize() = %q, want konnichiwa", got)
	}
	if gotLang != "ja" {
		t.Errorf("language = %q, want ja", gotLang)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", gotModel)
	}
}

func TestWhisperEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":""}`)
	}))
	defer srv.Close()

	w, _ := NewWhisper(config.RecognizerConfig{APIKey: "sk", Endpoint: srv.URL + "/v1"})
	if _, err := w.Recognize(context.Background(), testAudio(1600), "en-US"); !apperrors.IsCode(err, apperrors.CodeRecognitionUnrecognized) {
		t.Errorf("Recognize() error = %v, want RECOGNITION_UNRECOGNIZED", err)
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := New(config.RecognizerConfig{Provider: "vosk"}); !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("New() error = %v, want CONFIG_INVALID", err)
	}
	r, err := New(config.RecognizerConfig{Provider: config.ProviderWhisper, APIKey: "sk"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := r.(*Whisper); !ok {
		t.Errorf("New() = %T, want *Whisper", r)
	}
}

func TestClassifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := classify(ctx, context.Canceled, "x"); !apperrors.IsCode(err, apperrors.CodeCancelled) {
		t.Errorf("classify() = %v, want CANCELLED", err)
	}
	if err := classify(context.Background(), context.DeadlineExceeded, "x"); !apperrors.IsCode(err, apperrors.CodeRecognitionTimeout) {
		t.Errorf("classify() = %v, want RECOGNITION_TIMEOUT", err)
	}
}
