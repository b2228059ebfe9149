// Package blob provides the object storage client. It talks to the storage
// collaborator's REST API; callers get back public URLs and never handle
// storage credentials.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/streamlaunch/platform/internal/httputil"
)

const maxErrorBodyBytes = 32 << 10 // 32 KiB

// Store uploads and removes blobs.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, paths []string) error
}

// Config holds storage service settings.
type Config struct {
	URL        string
	ServiceKey string
	Bucket     string
}

// Client is a REST client for the object storage service.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a storage client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("storage URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("storage service key is required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "media"
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

var _ Store = (*Client)(nil)

// Upload writes data to path in the configured bucket and returns the public
// URL of the object.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.cfg.URL, c.cfg.Bucket, escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("upload %s: %s", path, readUpstreamError(resp))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.cfg.URL, c.cfg.Bucket, escapePath(path)), nil
}

// Remove deletes the given object paths from the bucket. Missing objects are
// not an error.
func (c *Client) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	body := fmt.Sprintf(`{"prefixes":[%s]}`, joinQuoted(paths))
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", c.cfg.URL, c.cfg.Bucket)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create remove request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute remove: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove objects: %s", readUpstreamError(resp))
	}
	return nil
}

// readUpstreamError extracts the storage service's error message from a
// failed response, bounded so a misbehaving upstream cannot balloon logs.
func readUpstreamError(resp *http.Response) string {
	body, truncated, err := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
	if err != nil {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	msg := gjson.GetBytes(body, "message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if truncated {
		msg += "...(truncated)"
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, msg)
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func joinQuoted(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ",")
}
