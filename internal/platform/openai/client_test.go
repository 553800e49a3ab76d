package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log, Config{APIKey: "sk-test", BaseURL: srv.URL, MaxRetries: retries})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestChatSendsParametersAndReturnsContent(t *testing.T) {
	var got chatCompletionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path: want=/v1/chat/completions got=%s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("auth header: got=%q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":3,"completion_tokens":1}}`)
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 0).Chat(context.Background(), ChatRequest{
		Messages:    []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: DefaultTemperature,
		MaxTokens:   150,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "hello" {
		t.Fatalf("content: want=hello got=%q", out)
	}
	if got.Model != DefaultModel || got.Temperature != 0.7 || got.MaxTokens != 150 || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestChatDoesNotRetryByDefault(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "u"}}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if HTTPStatus(err) != http.StatusServiceUnavailable {
		t.Fatalf("status: want=503 got=%d", HTTPStatus(err))
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls: want=1 got=%d", n)
	}
}

func TestChatRetriesWhenConfigured(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 1).Chat(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "u"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("want ok after 2 calls, got=%q calls=%d", out, calls)
	}
}

func TestSpeechDefaults(t *testing.T) {
	var got speechRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{0xFF, 0xFB, 0x90})
	}))
	defer srv.Close()

	audio, err := newTestClient(t, srv, 0).Speech(context.Background(), SpeechRequest{Input: "hi"})
	if err != nil {
		t.Fatalf("Speech: %v", err)
	}
	if len(audio) != 3 {
		t.Fatalf("audio bytes: want=3 got=%d", len(audio))
	}
	if got.Model != TTSModel || got.Voice != DefaultVoice || got.ResponseFormat != "mp3" {
		t.Fatalf("unexpected speech request: %+v", got)
	}
}

func TestSpeechRejectsEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call")
	}))
	defer srv.Close()
	if _, err := newTestClient(t, srv, 0).Speech(context.Background(), SpeechRequest{Input: "  "}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewClient(log, Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
