// Package app wires the domain services together.
package app

import (
	"time"

	"github.com/streamlaunch/platform/internal/app/services/feed"
	"github.com/streamlaunch/platform/internal/app/services/posts"
	"github.com/streamlaunch/platform/internal/app/services/streams"
	"github.com/streamlaunch/platform/internal/app/services/tokens"
	"github.com/streamlaunch/platform/internal/app/services/uploads"
	"github.com/streamlaunch/platform/internal/app/services/users"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/internal/auth"
	"github.com/streamlaunch/platform/internal/blob"
	"github.com/streamlaunch/platform/internal/media"
	"github.com/streamlaunch/platform/internal/presence"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users   storage.UserStore
	Posts   storage.PostStore
	Streams storage.StreamStore
	Tokens  storage.TokenStore
}

// Options configures an Application. Zero values pick safe in-process
// defaults everywhere except the session secret.
type Options struct {
	Stores   Stores
	Media    *media.Client
	Presence presence.Tracker
	Blobs    blob.Store
	Nonces   auth.NonceStore
	Verifier auth.SignatureVerifier

	SessionSecret string
	SessionTTL    time.Duration

	Log *logger.Logger
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Users   *users.Service
	Posts   *posts.Service
	Streams *streams.Service
	Tokens  *tokens.Service
	Feed    *feed.Service
	Uploads *uploads.Service

	Sessions *auth.SessionManager
	Nonces   auth.NonceStore
	Verifier auth.SignatureVerifier

	UserStore storage.UserStore
}

// New builds a fully initialised application.
func New(opts Options) *Application {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := storage.NewMemory()
	stores := opts.Stores
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Posts == nil {
		stores.Posts = mem
	}
	if stores.Streams == nil {
		stores.Streams = mem
	}
	if stores.Tokens == nil {
		stores.Tokens = mem
	}

	mediaClient := opts.Media
	if mediaClient == nil {
		mediaClient = media.NewClient(media.Config{Enabled: false})
	}

	nonces := opts.Nonces
	if nonces == nil {
		nonces = auth.NewMemoryNonceStore()
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = auth.Ed25519Verifier{}
	}

	return &Application{
		log:       log,
		Users:     users.New(stores.Users, log),
		Posts:     posts.New(stores.Posts, log),
		Streams:   streams.New(stores.Streams, mediaClient, opts.Presence, log),
		Tokens:    tokens.New(stores.Tokens, log),
		Feed:      feed.New(stores.Posts, stores.Streams, log),
		Uploads:   uploads.New(opts.Blobs, log),
		Sessions:  auth.NewSessionManager(opts.SessionSecret, opts.SessionTTL),
		Nonces:    nonces,
		Verifier:  verifier,
		UserStore: stores.Users,
	}
}
