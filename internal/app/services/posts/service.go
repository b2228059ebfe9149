// Package posts manages user posts.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/app/domain/post"
	"github.com/streamlaunch/platform/internal/app/storage"
	"github.com/streamlaunch/platform/pkg/logger"
)

// DefaultRecentLimit bounds unfiltered post listings.
const DefaultRecentLimit = 50

// Service manages posts.
type Service struct {
	store storage.PostStore
	log   *logger.Logger
}

// New constructs a posts service.
func New(store storage.PostStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("posts")
	}
	return &Service{store: store, log: log}
}

// Create publishes a post authored by authorID.
func (s *Service) Create(ctx context.Context, authorID, body, mediaURL string) (post.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return post.Post{}, apierrors.BadRequest("body is required")
	}

	created, err := s.store.CreatePost(ctx, post.Post{
		AuthorID: authorID,
		Body:     body,
		MediaURL: strings.TrimSpace(mediaURL),
	})
	if err != nil {
		return post.Post{}, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// ListByAuthor returns the author's posts, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return s.store.ListPostsByAuthor(ctx, authorID)
}

// Recent returns the newest posts across all authors.
func (s *Service) Recent(ctx context.Context, limit int) ([]post.Post, error) {
	if limit <= 0 || limit > DefaultRecentLimit {
		limit = DefaultRecentLimit
	}
	return s.store.ListRecentPosts(ctx, limit)
}

// Delete removes a post. Only the author may delete it; a non-owner gets a
// forbidden error and nothing is mutated.
func (s *Service) Delete(ctx context.Context, callerID, postID string) error {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apierrors.NotFound("post not found")
		}
		return err
	}
	if p.AuthorID != callerID {
		return apierrors.Forbidden("not the author of this post")
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apierrors.NotFound("post not found")
		}
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
