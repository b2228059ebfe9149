package stream

import "time"

// Status is the canonical stream lifecycle state. A stream is created live
// and transitions to ended exactly once; there is no other state.
type Status string

const (
	StatusLive  Status = "live"
	StatusEnded Status = "ended"
)

// Stream is a live broadcast session. RoomName identifies the room at the
// external media service; StreamKey is the broadcaster's publish credential
// and is never returned to viewers.
type Stream struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Title     string     `json:"title"`
	RoomName  string     `json:"roomName"`
	StreamKey string     `json:"streamKey,omitempty"`
	Status    Status     `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// IsLive reports whether the stream is currently broadcasting. It is derived
// from Status; callers must not persist it separately.
func (s Stream) IsLive() bool { return s.Status == StatusLive }

// Sanitized returns a copy safe to show to non-owners.
func (s Stream) Sanitized() Stream {
	s.StreamKey = ""
	return s
}
