package httpapi

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	app "github.com/streamlaunch/platform/internal/app"
	"github.com/streamlaunch/platform/internal/blob"
	"github.com/streamlaunch/platform/internal/media"
)

const testSessionSecret = "test-session-secret"

type serverOptions struct {
	adminToken       string
	cleanupIdleAfter time.Duration
	streamingEnabled bool
	blobs            blob.Store
}

func newTestServer(t *testing.T, opts serverOptions) (*mux.Router, *app.Application) {
	t.Helper()

	enabled := opts.streamingEnabled
	mediaClient := media.NewClient(media.Config{
		APIKey:    "test-key",
		APISecret: "test-media-secret",
		TokenTTL:  time.Hour,
		Enabled:   enabled,
	})

	application := app.New(app.Options{
		Media:         mediaClient,
		Blobs:         opts.blobs,
		SessionSecret: testSessionSecret,
	})

	router := NewServer(application, Config{
		AdminToken:       opts.adminToken,
		CleanupIdleAfter: opts.cleanupIdleAfter,
	}, nil)

	return router, application
}

type testWallet struct {
	address string
	priv    ed25519.PrivateKey
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return testWallet{address: hex.EncodeToString(pub), priv: priv}
}

func (w testWallet) sign(message []byte) string {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(w.priv, message))
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// login runs the nonce/login exchange for the wallet and returns the session
// token and user ID.
func login(t *testing.T, router http.Handler, w testWallet) (string, string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/nonce", "", map[string]string{"wallet": w.address})
	if rec.Code != http.StatusOK {
		t.Fatalf("nonce request: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var nonceResp struct {
		Nonce string `json:"nonce"`
	}
	decodeJSON(t, rec, &nonceResp)

	message := fmt.Sprintf("streamlaunch login\nwallet: %s\nnonce: %s", w.address, nonceResp.Nonce)
	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"wallet":    w.address,
		"nonce":     nonceResp.Nonce,
		"signature": w.sign([]byte(message)),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login request: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var loginResp struct {
		Token string `json:"token"`
		User  struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeJSON(t, rec, &loginResp)
	if loginResp.Token == "" || loginResp.User.ID == "" {
		t.Fatalf("login response missing token or user: %s", rec.Body.String())
	}
	return loginResp.Token, loginResp.User.ID
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("got status %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	var env errorEnvelope
	decodeJSON(t, rec, &env)
	if env.Code != code {
		t.Fatalf("got error code %q, want %q: %s", env.Code, code, rec.Body.String())
	}
	if env.Error == "" {
		t.Fatalf("error response has no message: %s", rec.Body.String())
	}
}

// recordingBlobStore captures uploads for assertions.
type recordingBlobStore struct {
	paths []string
}

func (s *recordingBlobStore) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	s.paths = append(s.paths, path)
	return "https://cdn.example.com/" + path, nil
}

func (s *recordingBlobStore) Remove(_ context.Context, _ []string) error { return nil }
