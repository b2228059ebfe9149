package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streamlaunch/platform/internal/app/domain/post"
	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/domain/token"
	"github.com/streamlaunch/platform/internal/app/domain/user"
)

// Memory is a thread-safe in-memory persistence layer implementing every
// store interface in this package. It is intended for tests and for running
// without a database, and deliberately keeps the implementation simple.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]user.User
	posts   map[string]post.Post
	streams map[string]stream.Stream
	tokens  map[string]token.Token
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]user.User),
		posts:   make(map[string]post.Post),
		streams: make(map[string]stream.Stream),
		tokens:  make(map[string]token.Token),
	}
}

var _ UserStore = (*Memory)(nil)
var _ PostStore = (*Memory)(nil)
var _ StreamStore = (*Memory)(nil)
var _ TokenStore = (*Memory)(nil)

// UserStore implementation ----------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Wallet == u.Wallet {
			return user.User{}, fmt.Errorf("wallet %s: %w", u.Wallet, ErrConflict)
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return user.User{}, fmt.Errorf("username %s: %w", u.Username, ErrConflict)
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	original, ok := m.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	for id, existing := range m.users {
		if id != u.ID && strings.EqualFold(existing.Username, u.Username) {
			return user.User{}, fmt.Errorf("username %s: %w", u.Username, ErrConflict)
		}
	}

	u.Wallet = original.Wallet
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

func (m *Memory) GetUserByWallet(_ context.Context, wallet string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Wallet == wallet {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("wallet %s: %w", wallet, ErrNotFound)
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("username %s: %w", username, ErrNotFound)
}

// PostStore implementation ----------------------------------------------------

func (m *Memory) CreatePost(_ context.Context, p post.Post) (post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	m.posts[p.ID] = p
	return p, nil
}

func (m *Memory) GetPost(_ context.Context, id string) (post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return post.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (m *Memory) ListPostsByAuthor(_ context.Context, authorID string) ([]post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]post.Post, 0)
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			result = append(result, p)
		}
	}
	sortPostsNewestFirst(result)
	return result, nil
}

func (m *Memory) ListRecentPosts(_ context.Context, limit int) ([]post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]post.Post, 0, len(m.posts))
	for _, p := range m.posts {
		result = append(result, p)
	}
	sortPostsNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

func sortPostsNewestFirst(posts []post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// StreamStore implementation --------------------------------------------------

func (m *Memory) CreateStream(_ context.Context, s stream.Stream) (stream.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}

	m.streams[s.ID] = s
	return s, nil
}

func (m *Memory) UpdateStream(_ context.Context, s stream.Stream) (stream.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	original, ok := m.streams[s.ID]
	if !ok {
		return stream.Stream{}, fmt.Errorf("stream %s: %w", s.ID, ErrNotFound)
	}

	s.OwnerID = original.OwnerID
	s.StartedAt = original.StartedAt

	m.streams[s.ID] = s
	return s, nil
}

func (m *Memory) GetStream(_ context.Context, id string) (stream.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.streams[id]
	if !ok {
		return stream.Stream{}, fmt.Errorf("stream %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *Memory) GetLiveStreamByOwner(_ context.Context, ownerID string) (stream.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.streams {
		if s.OwnerID == ownerID && s.Status == stream.StatusLive {
			return s, nil
		}
	}
	return stream.Stream{}, fmt.Errorf("live stream for owner %s: %w", ownerID, ErrNotFound)
}

func (m *Memory) ListLiveStreams(_ context.Context) ([]stream.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]stream.Stream, 0)
	for _, s := range m.streams {
		if s.Status == stream.StatusLive {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

func (m *Memory) ListLiveStartedBefore(_ context.Context, cutoff time.Time) ([]stream.Stream, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]stream.Stream, 0)
	for _, s := range m.streams {
		if s.Status == stream.StatusLive && s.StartedAt.Before(cutoff) {
			result = append(result, s)
		}
	}
	return result, nil
}

// TokenStore implementation ---------------------------------------------------

func (m *Memory) CreateToken(_ context.Context, t token.Token) (token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.tokens {
		if strings.EqualFold(existing.Symbol, t.Symbol) {
			return token.Token{}, fmt.Errorf("symbol %s: %w", t.Symbol, ErrConflict)
		}
	}

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	m.tokens[t.ID] = t
	return t, nil
}

func (m *Memory) GetTokenBySymbol(_ context.Context, symbol string) (token.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, nil
		}
	}
	return token.Token{}, fmt.Errorf("token %s: %w", symbol, ErrNotFound)
}

func (m *Memory) ListTokens(_ context.Context) ([]token.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]token.Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
