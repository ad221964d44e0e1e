package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Text == "" {
			t.Error("empty text forwarded")
		}
		json.NewEncoder(w).Encode(scoreResponse{Score: 0.7})
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, time.Second)
	score, err := s.Score(context.Background(), "lovely weather")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 0.7 {
		t.Errorf("score = %v, want 0.7", score)
	}
}

func TestHTTPScorerClampsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(scoreResponse{Score: 3.2})
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, time.Second)
	score, err := s.Score(context.Background(), "x")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 1 {
		t.Errorf("score = %v, want clamp to 1", score)
	}
}

func TestHTTPScorerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPScorer(srv.URL, time.Second)
	if _, err := s.Score(context.Background(), "x"); err == nil {
		t.Error("expected error on non-200 status")
	}
}
