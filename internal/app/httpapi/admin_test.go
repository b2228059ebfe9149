package httpapi

import (
	"net/http"
	"testing"
	"time"
)

func TestAdminUnconfiguredTokenIsServerError(t *testing.T) {
	router, _ := newTestServer(t, serverOptions{streamingEnabled: true})

	rec := doJSON(t, router, http.MethodPost, "/api/admin/streams/cleanup", "anything", nil)
	wantError(t, rec, http.StatusInternalServerError, "admin_token_unconfigured")
}

func TestAdminRejectsWrongToken(t *testing.T) {
	router, _ := newTestServer(t, serverOptions{adminToken: "right-token", streamingEnabled: true})

	rec := doJSON(t, router, http.MethodPost, "/api/admin/streams/cleanup", "wrong-token", nil)
	wantError(t, rec, http.StatusUnauthorized, "unauthorized")

	rec = doJSON(t, router, http.MethodPost, "/api/admin/streams/cleanup", "", nil)
	wantError(t, rec, http.StatusUnauthorized, "unauthorized")
}

func TestAdminCleanupIsIdempotent(t *testing.T) {
	router, _ := newTestServer(t, serverOptions{
		adminToken: "admin-secret",
		// Everything live counts as stale immediately.
		cleanupIdleAfter: time.Nanosecond,
		streamingEnabled: true,
	})
	userToken, _ := login(t, router, newTestWallet(t))

	rec := doJSON(t, router, http.MethodPost, "/api/streams/start", userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start stream: got %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		Stream struct {
			ID string `json:"id"`
		} `json:"stream"`
	}
	decodeJSON(t, rec, &started)

	time.Sleep(5 * time.Millisecond)

	rec = doJSON(t, router, http.MethodPost, "/api/admin/streams/cleanup", "admin-secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup: got %d: %s", rec.Code, rec.Body.String())
	}
	var first struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &first)
	if first.Count != 1 {
		t.Fatalf("first cleanup ended %d streams, want 1", first.Count)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/streams/"+started.Stream.ID, "", nil)
	var view struct {
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &view)
	if view.Status != "ended" {
		t.Fatalf("stream status %q after cleanup, want ended", view.Status)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/admin/streams/cleanup", "admin-secret", nil)
	var second struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &second)
	if second.Count != 0 {
		t.Fatalf("second cleanup ended %d streams, want 0", second.Count)
	}
}

func TestAdminHealth(t *testing.T) {
	router, _ := newTestServer(t, serverOptions{adminToken: "admin-secret", streamingEnabled: true})

	rec := doJSON(t, router, http.MethodGet, "/api/admin/health", "admin-secret", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: got %d: %s", rec.Code, rec.Body.String())
	}
	var report struct {
		Status     string `json:"status"`
		Goroutines int    `json:"goroutines"`
	}
	decodeJSON(t, rec, &report)
	if report.Status != "ok" {
		t.Fatalf("got status %q, want ok", report.Status)
	}
	if report.Goroutines <= 0 {
		t.Fatalf("goroutine count %d not reported", report.Goroutines)
	}
}
