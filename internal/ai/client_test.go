package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientComplete(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k1" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"hi\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "k1", Model: "m", Temperature: 0.7, MaxTokens: 1000, Timeout: 5 * time.Second}, nil)
	got, err := c.Complete(context.Background(), BuildMessages("note"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"title":"hi"}` {
		t.Errorf("content = %q", got)
	}
	if gotReq.Model != "m" || gotReq.MaxTokens != 1000 || gotReq.Temperature == nil || *gotReq.Temperature != 0.7 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || !strings.Contains(gotReq.Messages[1].Content, "note") {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
}

func TestClientComplete_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantEmpty  bool
	}{
		{"http error", http.StatusUnauthorized, `{"error":"bad key"}`, http.StatusUnauthorized, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, http.StatusOK, true},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`, http.StatusOK, true},
		{"bad json", http.StatusOK, `<html>`, http.StatusOK, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
			_, err := c.Complete(context.Background(), nil)
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("expected *TransportError, got %v", err)
			}
			if te.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", te.StatusCode, tt.wantStatus)
			}
			if errors.Is(err, ErrEmptyResponse) != tt.wantEmpty {
				t.Errorf("ErrEmptyResponse match = %v, want %v (%v)", !tt.wantEmpty, tt.wantEmpty, err)
			}
		})
	}
}

func TestClientComplete_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)
	_, err := c.Complete(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
