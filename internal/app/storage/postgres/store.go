// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/streamlaunch/platform/internal/app/domain/post"
	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/domain/token"
	"github.com/streamlaunch/platform/internal/app/domain/user"
	"github.com/streamlaunch/platform/internal/app/storage"
)

// pq error code for unique constraint violations.
const uniqueViolation = "23505"

// Store implements the storage interfaces on a PostgreSQL database.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PostStore = (*Store)(nil)
var _ storage.StreamStore = (*Store)(nil)
var _ storage.TokenStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database, applies pending migrations, and returns a
// ready Store.
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(db.DB); err != nil {
		return nil, err
	}
	return New(db), nil
}

// classify maps backend failures to the structured outcomes declared in the
// storage package so callers never inspect vendor error codes.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// userRow is the database projection of user.User.
type userRow struct {
	ID          string    `db:"id"`
	Wallet      string    `db:"wallet"`
	Username    string    `db:"username"`
	DisplayName string    `db:"display_name"`
	Bio         string    `db:"bio"`
	AvatarURL   string    `db:"avatar_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r userRow) model() user.User {
	return user.User(r)
}

// --- UserStore ----------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, wallet, username, display_name, bio, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Wallet, u.Username, u.DisplayName, u.Bio, u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, classify(err, "create user")
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, display_name = $3, bio = $4, avatar_url = $5, updated_at = $6
		WHERE id = $1
	`, u.ID, u.Username, u.DisplayName, u.Bio, u.AvatarURL, u.UpdatedAt)
	if err != nil {
		return user.User{}, classify(err, "update user")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return user.User{}, fmt.Errorf("update user %s: %w", u.ID, storage.ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

const selectUser = `SELECT id, wallet, username, display_name, bio, avatar_url, created_at, updated_at FROM users`

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, selectUser+` WHERE id = $1`, id); err != nil {
		return user.User{}, classify(err, "get user")
	}
	return row.model(), nil
}

func (s *Store) GetUserByWallet(ctx context.Context, wallet string) (user.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, selectUser+` WHERE wallet = $1`, wallet); err != nil {
		return user.User{}, classify(err, "get user by wallet")
	}
	return row.model(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, selectUser+` WHERE lower(username) = lower($1)`, username); err != nil {
		return user.User{}, classify(err, "get user by username")
	}
	return row.model(), nil
}

// --- PostStore ------------------------------------------------------------------

type postRow struct {
	ID        string    `db:"id"`
	AuthorID  string    `db:"author_id"`
	Body      string    `db:"body"`
	MediaURL  string    `db:"media_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r postRow) model() post.Post {
	return post.Post(r)
}

func (s *Store) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, body, media_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.AuthorID, p.Body, p.MediaURL, p.CreatedAt)
	if err != nil {
		return post.Post{}, classify(err, "create post")
	}
	return p, nil
}

const selectPost = `SELECT id, author_id, body, media_url, created_at FROM posts`

func (s *Store) GetPost(ctx context.Context, id string) (post.Post, error) {
	var row postRow
	if err := s.db.GetContext(ctx, &row, selectPost+` WHERE id = $1`, id); err != nil {
		return post.Post{}, classify(err, "get post")
	}
	return row.model(), nil
}

func (s *Store) ListPostsByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	var rows []postRow
	err := s.db.SelectContext(ctx, &rows, selectPost+` WHERE author_id = $1 ORDER BY created_at DESC`, authorID)
	if err != nil {
		return nil, classify(err, "list posts by author")
	}
	return postModels(rows), nil
}

func (s *Store) ListRecentPosts(ctx context.Context, limit int) ([]post.Post, error) {
	var rows []postRow
	err := s.db.SelectContext(ctx, &rows, selectPost+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, classify(err, "list recent posts")
	}
	return postModels(rows), nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete post")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete post %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func postModels(rows []postRow) []post.Post {
	result := make([]post.Post, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result
}

// --- StreamStore ----------------------------------------------------------------

type streamRow struct {
	ID        string       `db:"id"`
	OwnerID   string       `db:"owner_id"`
	Title     string       `db:"title"`
	RoomName  string       `db:"room_name"`
	StreamKey string       `db:"stream_key"`
	Status    string       `db:"status"`
	StartedAt time.Time    `db:"started_at"`
	EndedAt   sql.NullTime `db:"ended_at"`
}

func (r streamRow) model() stream.Stream {
	s := stream.Stream{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Title:     r.Title,
		RoomName:  r.RoomName,
		StreamKey: r.StreamKey,
		Status:    stream.Status(r.Status),
		StartedAt: r.StartedAt,
	}
	if r.EndedAt.Valid {
		ended := r.EndedAt.Time
		s.EndedAt = &ended
	}
	return s
}

func (s *Store) CreateStream(ctx context.Context, st stream.Stream) (stream.Stream, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.StartedAt.IsZero() {
		st.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streams (id, owner_id, title, room_name, stream_key, status, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, st.ID, st.OwnerID, st.Title, st.RoomName, st.StreamKey, string(st.Status), st.StartedAt, nullTime(st.EndedAt))
	if err != nil {
		return stream.Stream{}, classify(err, "create stream")
	}
	return st, nil
}

func (s *Store) UpdateStream(ctx context.Context, st stream.Stream) (stream.Stream, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE streams
		SET title = $2, status = $3, ended_at = $4
		WHERE id = $1
	`, st.ID, st.Title, string(st.Status), nullTime(st.EndedAt))
	if err != nil {
		return stream.Stream{}, classify(err, "update stream")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return stream.Stream{}, fmt.Errorf("update stream %s: %w", st.ID, storage.ErrNotFound)
	}
	return s.GetStream(ctx, st.ID)
}

const selectStream = `SELECT id, owner_id, title, room_name, stream_key, status, started_at, ended_at FROM streams`

func (s *Store) GetStream(ctx context.Context, id string) (stream.Stream, error) {
	var row streamRow
	if err := s.db.GetContext(ctx, &row, selectStream+` WHERE id = $1`, id); err != nil {
		return stream.Stream{}, classify(err, "get stream")
	}
	return row.model(), nil
}

func (s *Store) GetLiveStreamByOwner(ctx context.Context, ownerID string) (stream.Stream, error) {
	var row streamRow
	err := s.db.GetContext(ctx, &row, selectStream+` WHERE owner_id = $1 AND status = 'live' ORDER BY started_at DESC LIMIT 1`, ownerID)
	if err != nil {
		return stream.Stream{}, classify(err, "get live stream by owner")
	}
	return row.model(), nil
}

func (s *Store) ListLiveStreams(ctx context.Context) ([]stream.Stream, error) {
	var rows []streamRow
	err := s.db.SelectContext(ctx, &rows, selectStream+` WHERE status = 'live' ORDER BY started_at DESC`)
	if err != nil {
		return nil, classify(err, "list live streams")
	}
	return streamModels(rows), nil
}

func (s *Store) ListLiveStartedBefore(ctx context.Context, cutoff time.Time) ([]stream.Stream, error) {
	var rows []streamRow
	err := s.db.SelectContext(ctx, &rows, selectStream+` WHERE status = 'live' AND started_at < $1`, cutoff)
	if err != nil {
		return nil, classify(err, "list live streams before cutoff")
	}
	return streamModels(rows), nil
}

func streamModels(rows []streamRow) []stream.Stream {
	result := make([]stream.Stream, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// --- TokenStore -----------------------------------------------------------------

type tokenRow struct {
	ID         string    `db:"id"`
	CreatorID  string    `db:"creator_id"`
	Symbol     string    `db:"symbol"`
	Name       string    `db:"name"`
	ImageURL   string    `db:"image_url"`
	PriceUSD   float64   `db:"price_usd"`
	MarketCap  float64   `db:"market_cap"`
	SupplyBase float64   `db:"supply_base"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r tokenRow) model() token.Token {
	return token.Token(r)
}

func (s *Store) CreateToken(ctx context.Context, t token.Token) (token.Token, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (id, creator_id, symbol, name, image_url, price_usd, market_cap, supply_base, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.CreatorID, t.Symbol, t.Name, t.ImageURL, t.PriceUSD, t.MarketCap, t.SupplyBase, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return token.Token{}, classify(err, "create token")
	}
	return t, nil
}

const selectToken = `SELECT id, creator_id, symbol, name, image_url, price_usd, market_cap, supply_base, created_at, updated_at FROM tokens`

func (s *Store) GetTokenBySymbol(ctx context.Context, symbol string) (token.Token, error) {
	var row tokenRow
	if err := s.db.GetContext(ctx, &row, selectToken+` WHERE upper(symbol) = upper($1)`, symbol); err != nil {
		return token.Token{}, classify(err, "get token by symbol")
	}
	return row.model(), nil
}

func (s *Store) ListTokens(ctx context.Context) ([]token.Token, error) {
	var rows []tokenRow
	err := s.db.SelectContext(ctx, &rows, selectToken+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, classify(err, "list tokens")
	}
	result := make([]token.Token, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result, nil
}
