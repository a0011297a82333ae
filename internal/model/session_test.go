package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeEndpoint serves the two OpenAI-compatible routes the session touches.
func fakeEndpoint(t *testing.T, completion string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": completion}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestInitializeSettlesReady(t *testing.T) {
	srv := fakeEndpoint(t, "@action: open excel")
	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test"})

	if s.State() != StateUninitialized {
		t.Fatalf("state=%v", s.State())
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() || s.FallbackMode() {
		t.Fatalf("state=%v", s.State())
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	srv := fakeEndpoint(t, "ok")
	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test"})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv.Close()
	// Second call must not probe again; the settled state sticks even with
	// the endpoint gone.
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Fatalf("state=%v", s.State())
	}
}

func TestInitializeDegradesGracefully(t *testing.T) {
	srv := fakeEndpoint(t, "ok")
	srv.Close()
	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test"})

	// An unreachable endpoint is not an error, only a degraded state.
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateDegraded || !s.FallbackMode() {
		t.Fatalf("state=%v", s.State())
	}
}

func TestInferRequiresReady(t *testing.T) {
	s := NewSession(Config{Model: "test"})
	if _, err := s.Infer(context.Background(), "hi", InferOptions{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v want ErrNotReady", err)
	}
}

func TestInferReturnsCompletion(t *testing.T) {
	srv := fakeEndpoint(t, "@action: open excel")
	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test"})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	out, err := s.Infer(context.Background(), "open excel", InferOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "@action: open excel" {
		t.Fatalf("out=%q", out)
	}
}

func TestInferTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		// Outlast the session's bounded window; the client must give up first.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test", TimeoutMS: 50})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Fatalf("state=%v", s.State())
	}

	start := time.Now()
	_, err := s.Infer(context.Background(), "open excel", InferOptions{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err=%v want ErrTimeout", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout was not enforced by the session")
	}
}

func TestInferRejectsEmptyCompletion(t *testing.T) {
	srv := fakeEndpoint(t, "   ")
	s := NewSession(Config{BaseURL: srv.URL + "/v1", Model: "test"})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Infer(context.Background(), "hi", InferOptions{}); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err=%v want ErrEmpty", err)
	}
}
