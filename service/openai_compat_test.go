package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCreateCompletionMessageShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "hello"}}]}`))
	}))
	defer server.Close()

	s := NewOpenAICompatService(server.URL, "test-key", "test-model", time.Second, 0)
	out, err := s.CreateCompletion(context.Background(), ChatRequest{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected 'hello', got %q", out)
	}
}

func TestCreateCompletionTextShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"text": "plain completion"}]}`))
	}))
	defer server.Close()

	s := NewOpenAICompatService(server.URL, "", "m", time.Second, 0)
	out, err := s.CreateCompletion(context.Background(), ChatRequest{User: "usr"})
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if out != "plain completion" {
		t.Fatalf("expected completions-style text, got %q", out)
	}
}

func TestCreateCompletionRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "recovered"}}]}`))
	}))
	defer server.Close()

	s := NewOpenAICompatService(server.URL, "", "m", time.Second, 2)
	out, err := s.CreateCompletion(context.Background(), ChatRequest{User: "usr"})
	if err != nil {
		t.Fatalf("CreateCompletion: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("expected retry to recover, got %q", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestCreateCompletionNoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	s := NewOpenAICompatService(server.URL, "", "m", time.Second, 3)
	if _, err := s.CreateCompletion(context.Background(), ChatRequest{User: "usr"}); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", got)
	}
}

func TestCreateCompletionEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	s := NewOpenAICompatService(server.URL, "", "m", time.Second, 0)
	if _, err := s.CreateCompletion(context.Background(), ChatRequest{User: "usr"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
