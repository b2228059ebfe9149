// Package feed assembles the home feed from recent posts and live streams.
package feed

import (
	"context"
	"sort"
	"time"

	"github.com/streamlaunch/platform/internal/app/domain/post"
	"github.com/streamlaunch/platform/internal/app/domain/stream"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/pkg/logger"
)

// ItemKind discriminates feed entries.
type ItemKind string

const (
	KindPost   ItemKind = "post"
	KindStream ItemKind = "stream"
)

// Item is one feed entry. Exactly one of Post or Stream is set, per Kind.
type Item struct {
	Kind      ItemKind       `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Post      *post.Post     `json:"post,omitempty"`
	Stream    *stream.Stream `json:"stream,omitempty"`
}

// Service assembles feeds.
type Service struct {
	posts   storage.PostStore
	streams storage.StreamStore
	log     *logger.Logger
}

// New constructs a feed service.
func New(posts storage.PostStore, streams storage.StreamStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("feed")
	}
	return &Service{posts: posts, streams: streams, log: log}
}

// Home returns live streams and recent posts merged newest first. Live
// streams sort by start time like any other entry; clients pin them as they
// see fit.
func (s *Service) Home(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	recent, err := s.posts.ListRecentPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	live, err := s.streams.ListLiveStreams(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(recent)+len(live))
	for i := range recent {
		p := recent[i]
		items = append(items, Item{Kind: KindPost, Timestamp: p.CreatedAt, Post: &p})
	}
	for i := range live {
		st := live[i].Sanitized()
		items = append(items, Item{Kind: KindStream, Timestamp: st.StartedAt, Stream: &st})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
