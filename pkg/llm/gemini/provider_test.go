package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rag-chat-be/pkg/llm"
)

func newTestProvider(serverURL string) *GeminiProvider {
	p := NewGeminiProvider("test-key", "gemini-2.5-flash")
	p.BaseURL = serverURL
	return p
}

func TestGenerateStreamChunkOrder(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Hel", "lo", " world"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":%q}]}}]}\n\n", text)
		}
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	var chunks []string
	err := p.GenerateStream(context.Background(), "say hello", func(text string) error {
		chunks = append(chunks, text)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream() error: %v", err)
	}
	if requests != 1 {
		t.Errorf("made %d requests, want 1", requests)
	}

	want := []string{"Hel", "lo", " world"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v, want %v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestGenerateStreamSkipsEmptyAndMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"keep\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"\"}]}}]}\n\n")
		fmt.Fprint(w, ": comment line\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"also keep\"}]}}]}\n\n")
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	var chunks []string
	err := p.GenerateStream(context.Background(), "prompt", func(text string) error {
		chunks = append(chunks, text)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream() error: %v", err)
	}
	if len(chunks) != 2 || chunks[0] != "keep" || chunks[1] != "also keep" {
		t.Errorf("chunks = %v, want [keep, also keep]", chunks)
	}
}

func TestGenerateStreamCallbackErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"chunk%d\"}]}}]}\n\n", i)
		}
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	sinkErr := errors.New("client gone")
	calls := 0
	err := p.GenerateStream(context.Background(), "prompt", func(text string) error {
		calls++
		if calls == 2 {
			return sinkErr
		}
		return nil
	})
	if !errors.Is(err, sinkErr) {
		t.Errorf("GenerateStream() error = %v, want callback error returned as-is", err)
	}
	if calls != 2 {
		t.Errorf("callback ran %d times, want 2 (abort after the failing call)", calls)
	}
}

func TestGenerateStreamEmptyPrompt(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	err := p.GenerateStream(context.Background(), "   ", func(text string) error { return nil })
	if !errors.Is(err, llm.ErrEmptyPrompt) {
		t.Errorf("GenerateStream() error = %v, want ErrEmptyPrompt", err)
	}
	if requests != 0 {
		t.Error("empty prompt must fail before any network call")
	}
}

func TestGenerateStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	err := p.GenerateStream(context.Background(), "prompt", func(text string) error {
		t.Error("no chunks expected on upstream error")
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("GenerateStream() error = %v, want status error carrying 429", err)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"full answer"}]}}]}`)
	}))
	defer server.Close()

	p := newTestProvider(server.URL)

	got, err := p.Generate(context.Background(), "question")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "full answer" {
		t.Errorf("Generate() = %q, want %q", got, "full answer")
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	p := NewGeminiProvider("key", "")
	_, err := p.Generate(context.Background(), "")
	if !errors.Is(err, llm.ErrEmptyPrompt) {
		t.Errorf("Generate() error = %v, want ErrEmptyPrompt", err)
	}
}
