package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(retries int) *Client {
	return NewClient(Options{
		Timeout:   2 * time.Second,
		Retries:   retries,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	})
}

func TestGetJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing Accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Historia":{}}`))
	}))
	defer srv.Close()

	body, err := newTestClient(0).GetJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(body) != `{"Historia":{}}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetJSONNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(3).GetJSON(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusNotFound {
		t.Errorf("status = %d; want 404", se.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestGetJSONRetriesUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := newTestClient(3).GetJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(body) != `[]` {
		t.Errorf("body = %s", body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGetJSONGivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(2).GetJSON(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGetJSONCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(0).GetJSON(ctx, srv.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestGetJSONFollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a":"b"}`))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/doc", http.StatusFound)
	}))
	defer origin.Close()

	body, err := newTestClient(0).GetJSON(context.Background(), origin.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(body) != `{"a":"b"}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetJSONRedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusMovedPermanently)
	}))
	defer srv.Close()

	if _, err := newTestClient(0).GetJSON(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for endless redirects")
	}
}

func TestBackoffStaysBounded(t *testing.T) {
	c := NewClient(Options{Retries: 100, BaseDelay: 250 * time.Millisecond, MaxDelay: 2 * time.Second})
	for attempt := 0; attempt <= 100; attempt++ {
		d := c.backoff(attempt)
		if d <= 0 || d > 2*time.Second {
			t.Fatalf("backoff(%d) = %s", attempt, d)
		}
	}
	if d := c.backoff(0); d < 250*time.Millisecond {
		t.Errorf("backoff(0) = %s; want at least the base delay", d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.sleepWithBackoff(ctx, 40); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepWithBackoff = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"this is long", 4, "this..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.max); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}
