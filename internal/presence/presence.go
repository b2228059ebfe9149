// Package presence tracks live viewer heartbeats per stream. Counts are
// best-effort and expire on their own; the data store is never involved.
package presence

import (
	"context"
	"sync"
	"time"
)

// ViewerTTL is how long a heartbeat keeps a viewer counted.
const ViewerTTL = 45 * time.Second

// Tracker records viewer heartbeats and answers count queries.
type Tracker interface {
	Heartbeat(ctx context.Context, streamID, viewerID string) error
	ViewerCount(ctx context.Context, streamID string) (int, error)
}

// Memory is an in-process Tracker.
type Memory struct {
	mu      sync.Mutex
	viewers map[string]map[string]time.Time
}

// NewMemory creates an empty in-process tracker.
func NewMemory() *Memory {
	return &Memory{viewers: make(map[string]map[string]time.Time)}
}

var _ Tracker = (*Memory)(nil)

func (m *Memory) Heartbeat(_ context.Context, streamID, viewerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.viewers[streamID]
	if !ok {
		room = make(map[string]time.Time)
		m.viewers[streamID] = room
	}
	room[viewerID] = time.Now()
	return nil
}

func (m *Memory) ViewerCount(_ context.Context, streamID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.viewers[streamID]
	if !ok {
		return 0, nil
	}

	cutoff := time.Now().Add(-ViewerTTL)
	count := 0
	for viewerID, seen := range room {
		if seen.Before(cutoff) {
			delete(room, viewerID)
			continue
		}
		count++
	}
	if count == 0 {
		delete(m.viewers, streamID)
	}
	return count, nil
}
