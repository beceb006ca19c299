package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/copyforge/copyforge-backend/internal/logger"
)

type fakeTransport struct {
	fn func(req *http.Request) (*http.Response, error)
}

func (f fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func jsonResponse(status int, body any) *http.Response {
	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(raw)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, fn func(req *http.Request) (*http.Response, error)) *client {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	impl := c.(*client)
	impl.httpClient = &http.Client{Transport: fakeTransport{fn: fn}}
	return impl
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewClient(log); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestEmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/embeddings" {
			t.Fatalf("path: want=/v1/embeddings got=%s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization header: got=%q", got)
		}
		// Return vectors out of order to assert index-based placement.
		return jsonResponse(200, map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.3, 0.4}},
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		}), nil
	})

	vectors, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("vectors: want=2 got=%d", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.3 {
		t.Fatalf("vectors misordered: got=%v", vectors)
	}
}

func TestEmbedCountMismatchIsError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{0.1}}},
		}), nil
	})
	if _, err := c.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on vector count mismatch")
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty input")
		return nil, nil
	})
	vectors, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 0 {
		t.Fatalf("vectors: want=0 got=%d", len(vectors))
	}
}

func TestCompleteReturnsTextAndUsage(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/chat/completions" {
			t.Fatalf("path: want=/v1/chat/completions got=%s", req.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["max_tokens"] != float64(256) {
			t.Fatalf("max_tokens: want=256 got=%v", body["max_tokens"])
		}
		return jsonResponse(200, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  generated text  "}},
			},
			"usage": map[string]any{"total_tokens": 321},
		}), nil
	})

	got, err := c.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: "user", Content: "write something"}},
		Temperature: 0.8,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Text != "generated text" {
		t.Fatalf("text: want=%q got=%q", "generated text", got.Text)
	}
	if got.TokensUsed != 321 {
		t.Fatalf("tokens: want=321 got=%d", got.TokensUsed)
	}
}

func TestCompleteNon2xxIsError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(429, map[string]any{"error": map[string]any{"message": "rate limited"}}), nil
	})
	_, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestCompleteEmptyMessagesIsError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := c.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error for empty messages")
	}
}
