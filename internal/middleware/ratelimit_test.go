package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func limitedHandler(rl *RateLimiter, served *int) http.Handler {
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*served++
		w.WriteHeader(http.StatusOK)
	}))
}

func doFrom(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterKeysByClientHost(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	served := 0
	handler := limitedHandler(rl, &served)

	if rec := doFrom(handler, "10.0.0.1:1111"); rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rec.Code)
	}
	// A new connection from the same host shares the bucket.
	if rec := doFrom(handler, "10.0.0.1:2222"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same host, new port: got %d, want 429", rec.Code)
	}
	// A different host gets its own bucket.
	if rec := doFrom(handler, "10.0.0.2:3333"); rec.Code != http.StatusOK {
		t.Fatalf("different host: got %d, want 200", rec.Code)
	}

	if served != 2 {
		t.Fatalf("handler ran %d times, want 2", served)
	}
}

func TestRateLimiterErrorEnvelope(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	served := 0
	handler := limitedHandler(rl, &served)

	doFrom(handler, "10.0.0.1:1111")
	rec := doFrom(handler, "10.0.0.1:1111")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rec.Code)
	}

	var env struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if env.Code != "rate_limited" || env.Error == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestClientHostToleratesBareAddresses(t *testing.T) {
	if got := clientHost("10.0.0.1:1234"); got != "10.0.0.1" {
		t.Fatalf("got %q, want 10.0.0.1", got)
	}
	if got := clientHost("[::1]:1234"); got != "::1" {
		t.Fatalf("got %q, want ::1", got)
	}
	if got := clientHost("no-port-here"); got != "no-port-here" {
		t.Fatalf("got %q, want the input unchanged", got)
	}
}
