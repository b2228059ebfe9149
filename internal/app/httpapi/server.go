// Package httpapi exposes the platform REST API. Every endpoint runs through
// the same pipeline: resolve the caller identity, validate the declared
// body, run the handler, map domain errors, shape the response.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	app "github.com/streamlaunch/platform/internal/app"
	"github.com/streamlaunch/platform/internal/app/metrics"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Server bundles the HTTP endpoints for the application services.
type Server struct {
	app      *app.Application
	log      *logger.Logger
	validate *validator.Validate

	adminToken       string
	cleanupIdleAfter time.Duration
}

// Config holds the HTTP-surface settings the server needs beyond the
// application itself.
type Config struct {
	// AdminToken guards the admin routes. Empty means unconfigured, which
	// the admin routes report as a server error, not a 401.
	AdminToken string
	// CleanupIdleAfter is how long a stream may stay live before the admin
	// cleanup considers it stale.
	CleanupIdleAfter time.Duration
}

// NewServer returns a router exposing the REST API.
func NewServer(application *app.Application, cfg Config, log *logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if cfg.CleanupIdleAfter <= 0 {
		cfg.CleanupIdleAfter = 4 * time.Hour
	}

	s := &Server{
		app:              application,
		log:              log,
		validate:         validator.New(),
		adminToken:       cfg.AdminToken,
		cleanupIdleAfter: cfg.CleanupIdleAfter,
	}

	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/nonce", s.route(RouteConfig{Body: newBody[nonceRequest]}, s.handleAuthNonce)).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.route(RouteConfig{Body: newBody[loginRequest]}, s.handleAuthLogin)).Methods(http.MethodPost)

	// Users
	api.HandleFunc("/users/me", s.route(RouteConfig{Auth: AuthRequired, AuthMode: AuthFull, Body: newBody[updateProfileRequest]}, s.handleUpdateProfile)).Methods(http.MethodPut)
	api.HandleFunc("/users/{username}", s.route(RouteConfig{}, s.handleGetUser)).Methods(http.MethodGet)

	// Posts
	api.HandleFunc("/posts", s.route(RouteConfig{Auth: AuthRequired, Body: newBody[createPostRequest]}, s.handleCreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts", s.route(RouteConfig{}, s.handleListPosts)).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.route(RouteConfig{Auth: AuthRequired}, s.handleDeletePost)).Methods(http.MethodDelete)

	// Streams
	api.HandleFunc("/streams/start", s.route(RouteConfig{Auth: AuthRequired, AuthMode: AuthFull, Body: newBody[startStreamRequest]}, s.handleStartStream)).Methods(http.MethodPost)
	api.HandleFunc("/streams", s.route(RouteConfig{}, s.handleListStreams)).Methods(http.MethodGet)
	api.HandleFunc("/streams/{id}", s.route(RouteConfig{}, s.handleGetStream)).Methods(http.MethodGet)
	api.HandleFunc("/streams/{id}/end", s.route(RouteConfig{Auth: AuthRequired}, s.handleEndStream)).Methods(http.MethodPost)
	api.HandleFunc("/streams/{id}/join", s.route(RouteConfig{}, s.handleJoinStream)).Methods(http.MethodPost)
	api.HandleFunc("/streams/{id}/heartbeat", s.route(RouteConfig{Body: newBody[heartbeatRequest]}, s.handleStreamHeartbeat)).Methods(http.MethodPost)

	// Tokens
	api.HandleFunc("/tokens", s.route(RouteConfig{Auth: AuthRequired, Body: newBody[createTokenRequest]}, s.handleCreateToken)).Methods(http.MethodPost)
	api.HandleFunc("/tokens", s.route(RouteConfig{}, s.handleListTokens)).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{symbol}", s.route(RouteConfig{}, s.handleGetToken)).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{symbol}/curve", s.route(RouteConfig{}, s.handleTokenCurve)).Methods(http.MethodGet)

	// Feed
	api.HandleFunc("/feed", s.route(RouteConfig{}, s.handleFeed)).Methods(http.MethodGet)

	// Uploads
	api.HandleFunc("/uploads/{category}", s.route(RouteConfig{Auth: AuthRequired}, s.handleUpload)).Methods(http.MethodPost)

	// Admin
	api.HandleFunc("/admin/streams/cleanup", s.requireAdmin(s.handleAdminCleanup)).Methods(http.MethodPost)
	api.HandleFunc("/admin/health", s.requireAdmin(s.handleAdminHealth)).Methods(http.MethodGet)

	return r
}

// newBody is the Body factory for a request struct type.
func newBody[T any]() interface{} {
	return new(T)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
