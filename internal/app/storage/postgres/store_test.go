package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/domain/user"
	"github.com/streamlaunch/platform/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestGetUserMapsNoRowsToNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser+` WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserMapsUniqueViolationToConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_wallet_key"})

	_, err := store.CreateUser(context.Background(), user.User{Wallet: "w1", Username: "alice"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateUserPassesThroughOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(boom)

	_, err := store.CreateUser(context.Background(), user.User{Wallet: "w1", Username: "alice"})
	if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("generic failure misclassified: %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestGetUserScansRow(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "wallet", "username", "display_name", "bio", "avatar_url", "created_at", "updated_at"}).
		AddRow("u1", "w1", "alice", "Alice", "hi", "", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser+` WHERE id = $1`)).
		WithArgs("u1").
		WillReturnRows(rows)

	u, err := store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.ID != "u1" || u.Username != "alice" || u.DisplayName != "Alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestDeletePostReportsMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM posts WHERE id = $1`)).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeletePost(context.Background(), "p1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateStreamReportsMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE streams`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateStream(context.Background(), stream.Stream{ID: "s1", Status: stream.StatusEnded})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
