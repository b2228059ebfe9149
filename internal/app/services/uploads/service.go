// Package uploads validates user file uploads and hands them to the object
// storage collaborator.
package uploads

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/streamlaunch/platform/internal/errors"

	"github.com/streamlaunch/platform/internal/blob"
	"github.com/streamlaunch/platform/pkg/logger"
)

// Category is a declared upload kind with its own MIME allow-list.
type Category string

const (
	CategoryAvatar        Category = "avatar"
	CategoryRoomIcon      Category = "room-icon"
	CategoryClipThumbnail Category = "clip-thumbnail"
)

var allowedMIME = map[Category]map[string]string{
	CategoryAvatar: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
	},
	CategoryRoomIcon: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
	},
	CategoryClipThumbnail: {
		"image/png":  ".png",
		"image/jpeg": ".jpg",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	},
}

// MaxUploadBytes bounds a single upload.
const MaxUploadBytes = 8 << 20 // 8 MiB

// Service validates and stores uploads.
type Service struct {
	store blob.Store
	log   *logger.Logger
}

// New constructs an uploads service. A nil store disables uploads.
func New(store blob.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("uploads")
	}
	return &Service{store: store, log: log}
}

// Upload validates contentType against the category's allow-list, writes the
// file under a collision-resistant path namespaced by caller and category,
// and returns the public URL. Upstream failure detail is logged, never
// returned to the caller.
func (s *Service) Upload(ctx context.Context, userID string, category Category, contentType string, data []byte) (string, error) {
	if s.store == nil {
		return "", apierrors.Unavailable(apierrors.CodeUnavailable, "uploads are not configured")
	}

	allowed, ok := allowedMIME[category]
	if !ok {
		return "", apierrors.BadRequest(fmt.Sprintf("unknown upload category %q", category))
	}
	ext, ok := allowed[normalizeMIME(contentType)]
	if !ok {
		return "", apierrors.BadRequest(fmt.Sprintf("content type %q not allowed for %s", contentType, category))
	}
	if len(data) == 0 {
		return "", apierrors.BadRequest("file is empty")
	}
	if len(data) > MaxUploadBytes {
		return "", apierrors.BadRequest("file exceeds the upload size limit")
	}

	objectPath := path.Join(string(category), userID, uuid.NewString()+ext)
	url, err := s.store.Upload(ctx, objectPath, data, contentType)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("path", objectPath).Error("storage upload failed")
		return "", apierrors.Internal("upload failed", err)
	}

	return url, nil
}

func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
