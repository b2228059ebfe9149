// Package storage defines the persistence interfaces used by the domain
// services, plus the structured outcomes they report. Stores classify their
// own backend failures: callers branch on ErrNotFound and ErrConflict with
// errors.Is and never inspect vendor error strings.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/streamlaunch/platform/internal/app/domain/post"
	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/domain/token"
	"github.com/streamlaunch/platform/internal/app/domain/user"
)

var (
	// ErrNotFound marks a row that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation.
	ErrConflict = errors.New("conflict")
)

// UserStore persists user profiles. Wallet and Username are unique.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByWallet(ctx context.Context, wallet string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

// PostStore persists posts.
type PostStore interface {
	CreatePost(ctx context.Context, p post.Post) (post.Post, error)
	GetPost(ctx context.Context, id string) (post.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
	ListRecentPosts(ctx context.Context, limit int) ([]post.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// StreamStore persists stream sessions.
type StreamStore interface {
	CreateStream(ctx context.Context, s stream.Stream) (stream.Stream, error)
	UpdateStream(ctx context.Context, s stream.Stream) (stream.Stream, error)
	GetStream(ctx context.Context, id string) (stream.Stream, error)
	GetLiveStreamByOwner(ctx context.Context, ownerID string) (stream.Stream, error)
	ListLiveStreams(ctx context.Context) ([]stream.Stream, error)
	ListLiveStartedBefore(ctx context.Context, cutoff time.Time) ([]stream.Stream, error)
}

// TokenStore persists creator tokens. Symbol is unique.
type TokenStore interface {
	CreateToken(ctx context.Context, t token.Token) (token.Token, error)
	GetTokenBySymbol(ctx context.Context, symbol string) (token.Token, error)
	ListTokens(ctx context.Context) ([]token.Token, error)
}
