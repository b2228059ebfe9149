// Package streams manages live stream sessions. The lifecycle is the status
// enum on the stream row (live -> ended, once); all media transport belongs
// to the external media service.
package streams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/internal/media"
	"github.com/streamlaunch/platform/internal/presence"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Service manages stream sessions.
type Service struct {
	store    storage.StreamStore
	media    *media.Client
	presence presence.Tracker
	log      *logger.Logger
}

// New constructs a streams service.
func New(store storage.StreamStore, mediaClient *media.Client, tracker presence.Tracker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("streams")
	}
	if tracker == nil {
		tracker = presence.NewMemory()
	}
	return &Service{store: store, media: mediaClient, presence: tracker, log: log}
}

// StartResult is what a broadcaster gets back from Start.
type StartResult struct {
	Stream    stream.Stream `json:"stream"`
	RoomName  string        `json:"roomName"`
	JoinToken string        `json:"joinToken"`
}

// Start opens a new live stream for ownerID. Any stream the owner still has
// live is ended first, so exactly one live row per owner exists afterwards.
func (s *Service) Start(ctx context.Context, ownerID, title string) (StartResult, error) {
	// Mint before writing anything so the kill switch leaves no side effects.
	roomName := RoomName(ownerID)
	joinToken, err := s.media.MintJoinToken(ownerID, roomName, true)
	if err != nil {
		return StartResult{}, err
	}

	if existing, err := s.store.GetLiveStreamByOwner(ctx, ownerID); err == nil {
		if _, err := s.end(ctx, existing); err != nil {
			return StartResult{}, fmt.Errorf("end previous stream: %w", err)
		}
		s.log.WithContext(ctx).WithField("stream_id", existing.ID).Info("ended stale stream before restart")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return StartResult{}, fmt.Errorf("check live stream: %w", err)
	}

	created, err := s.store.CreateStream(ctx, stream.Stream{
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		RoomName:  roomName,
		StreamKey: uuid.NewString(),
		Status:    stream.StatusLive,
	})
	if err != nil {
		return StartResult{}, fmt.Errorf("create stream: %w", err)
	}

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"stream_id": created.ID,
		"room":      roomName,
	}).Info("stream started")

	return StartResult{Stream: created, RoomName: roomName, JoinToken: joinToken}, nil
}

// End stops a live stream. Only the owner may end it. Ending an already
// ended stream is a no-op.
func (s *Service) End(ctx context.Context, callerID, streamID string) (stream.Stream, error) {
	st, err := s.get(ctx, streamID)
	if err != nil {
		return stream.Stream{}, err
	}
	if st.OwnerID != callerID {
		return stream.Stream{}, apierrors.Forbidden("not the owner of this stream")
	}
	if st.Status == stream.StatusEnded {
		return st, nil
	}
	return s.end(ctx, st)
}

func (s *Service) end(ctx context.Context, st stream.Stream) (stream.Stream, error) {
	now := time.Now().UTC()
	st.Status = stream.StatusEnded
	st.EndedAt = &now
	return s.store.UpdateStream(ctx, st)
}

// StreamView is a stream decorated with its live viewer count.
type StreamView struct {
	stream.Stream
	ViewerCount int `json:"viewerCount"`
}

// Get returns a viewer-safe stream with its current viewer count.
func (s *Service) Get(ctx context.Context, streamID string) (StreamView, error) {
	st, err := s.get(ctx, streamID)
	if err != nil {
		return StreamView{}, err
	}

	count, err := s.presence.ViewerCount(ctx, streamID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("viewer count unavailable")
		count = 0
	}
	return StreamView{Stream: st.Sanitized(), ViewerCount: count}, nil
}

// Join mints a subscriber token for a live stream. Viewers may be anonymous;
// they get a generated identity.
func (s *Service) Join(ctx context.Context, streamID, identity string) (string, error) {
	st, err := s.get(ctx, streamID)
	if err != nil {
		return "", err
	}
	if st.Status != stream.StatusLive {
		return "", apierrors.NotFound("stream is not live")
	}
	if identity == "" {
		identity = "viewer-" + uuid.NewString()
	}
	return s.media.MintJoinToken(identity, st.RoomName, false)
}

// Heartbeat records that viewerID is watching streamID.
func (s *Service) Heartbeat(ctx context.Context, streamID, viewerID string) error {
	if _, err := s.get(ctx, streamID); err != nil {
		return err
	}
	if viewerID == "" {
		return apierrors.BadRequest("viewerId is required")
	}
	return s.presence.Heartbeat(ctx, streamID, viewerID)
}

// ListLive returns all currently live streams, viewer-safe.
func (s *Service) ListLive(ctx context.Context) ([]stream.Stream, error) {
	live, err := s.store.ListLiveStreams(ctx)
	if err != nil {
		return nil, err
	}
	for i := range live {
		live[i] = live[i].Sanitized()
	}
	return live, nil
}

// CleanupStale ends every stream that has been live since before cutoff and
// returns how many were ended. Running it twice in a row ends nothing the
// second time.
func (s *Service) CleanupStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.store.ListLiveStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale streams: %w", err)
	}

	count := 0
	for _, st := range stale {
		if _, err := s.end(ctx, st); err != nil {
			return count, fmt.Errorf("end stream %s: %w", st.ID, err)
		}
		count++
	}
	if count > 0 {
		s.log.WithContext(ctx).WithField("count", count).Info("stale streams cleaned up")
	}
	return count, nil
}

func (s *Service) get(ctx context.Context, streamID string) (stream.Stream, error) {
	st, err := s.store.GetStream(ctx, streamID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stream.Stream{}, apierrors.NotFound("stream not found")
		}
		return stream.Stream{}, err
	}
	return st, nil
}

// RoomName is the fixed room naming scheme at the media service.
func RoomName(ownerID string) string {
	return "user-" + ownerID
}
