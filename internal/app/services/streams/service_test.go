package streams

import (
	"context"
	"errors"
	"testing"
	"time"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/internal/media"
)

func newService(t *testing.T, enabled bool) (*Service, *storage.Memory) {
	t.Helper()

	store := storage.NewMemory()
	client := media.NewClient(media.Config{
		APIKey:    "key",
		APISecret: "secret",
		Enabled:   enabled,
	})
	return New(store, client, nil, nil), store
}

func TestStartAssignsOwnerRoom(t *testing.T) {
	svc, _ := newService(t, true)
	ctx := context.Background()

	result, err := svc.Start(ctx, "owner-1", "  my title  ")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.RoomName != "user-owner-1" {
		t.Fatalf("got room %q, want user-owner-1", result.RoomName)
	}
	if result.Stream.Title != "my title" {
		t.Fatalf("title not trimmed: %q", result.Stream.Title)
	}
	if result.Stream.StreamKey == "" {
		t.Fatalf("start did not assign a stream key")
	}
	if result.JoinToken == "" {
		t.Fatalf("start did not mint a join token")
	}
}

func TestRestartEndsPreviousSession(t *testing.T) {
	svc, store := newService(t, true)
	ctx := context.Background()

	first, err := svc.Start(ctx, "owner-1", "one")
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.Start(ctx, "owner-1", "two")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.Stream.ID == second.Stream.ID {
		t.Fatalf("restart reused the stream row")
	}

	previous, err := store.GetStream(ctx, first.Stream.ID)
	if err != nil {
		t.Fatalf("get previous: %v", err)
	}
	if previous.Status != stream.StatusEnded || previous.EndedAt == nil {
		t.Fatalf("previous stream not ended: %+v", previous)
	}

	live, err := store.ListLiveStreams(ctx)
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(live) != 1 || live[0].ID != second.Stream.ID {
		t.Fatalf("expected exactly the new stream live, got %+v", live)
	}
}

func TestKillSwitchLeavesNoSideEffects(t *testing.T) {
	svc, store := newService(t, false)
	ctx := context.Background()

	_, err := svc.Start(ctx, "owner-1", "blocked")
	if !errors.Is(err, media.ErrStreamingDisabled) {
		t.Fatalf("got %v, want ErrStreamingDisabled", err)
	}
	serviceErr := apierrors.GetServiceError(err)
	if serviceErr == nil || serviceErr.HTTPStatus != 503 {
		t.Fatalf("kill switch error is not a 503: %v", err)
	}

	live, err := store.ListLiveStreams(ctx)
	if err != nil {
		t.Fatalf("list live: %v", err)
	}
	if len(live) != 0 {
		t.Fatalf("kill switch created %d streams", len(live))
	}
}

func TestEndRequiresOwnership(t *testing.T) {
	svc, _ := newService(t, true)
	ctx := context.Background()

	started, err := svc.Start(ctx, "owner-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = svc.End(ctx, "someone-else", started.Stream.ID)
	serviceErr := apierrors.GetServiceError(err)
	if serviceErr == nil || serviceErr.Code != apierrors.CodeForbidden {
		t.Fatalf("got %v, want forbidden", err)
	}

	ended, err := svc.End(ctx, "owner-1", started.Stream.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Status != stream.StatusEnded {
		t.Fatalf("stream not ended: %+v", ended)
	}

	// Ending twice is a no-op, not an error.
	again, err := svc.End(ctx, "owner-1", started.Stream.ID)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if again.Status != stream.StatusEnded {
		t.Fatalf("second end changed status: %+v", again)
	}
}

func TestJoinRejectsEndedStream(t *testing.T) {
	svc, _ := newService(t, true)
	ctx := context.Background()

	started, err := svc.Start(ctx, "owner-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.End(ctx, "owner-1", started.Stream.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	_, err = svc.Join(ctx, started.Stream.ID, "")
	serviceErr := apierrors.GetServiceError(err)
	if serviceErr == nil || serviceErr.Code != apierrors.CodeNotFound {
		t.Fatalf("got %v, want not_found", err)
	}
}

func TestCleanupStaleRunsToZero(t *testing.T) {
	svc, _ := newService(t, true)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "owner-1", ""); err != nil {
		t.Fatalf("start 1: %v", err)
	}
	if _, err := svc.Start(ctx, "owner-2", ""); err != nil {
		t.Fatalf("start 2: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()

	count, err := svc.CleanupStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if count != 2 {
		t.Fatalf("first cleanup ended %d, want 2", count)
	}

	count, err = svc.CleanupStale(ctx, time.Now())
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if count != 0 {
		t.Fatalf("second cleanup ended %d, want 0", count)
	}
}
