// Package media mints join tokens for the external real-time media service.
// All media transport, negotiation, and room lifecycle is owned by that
// service; this package only signs short-lived credentials for it.
package media

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/streamlaunch/platform/internal/errors"
)

// ErrStreamingDisabled is returned for every token request while the kill
// switch is on.
var ErrStreamingDisabled = errors.Unavailable(errors.CodeStreamingDisabled, "streaming is temporarily disabled")

// VideoGrant describes what the token holder may do in a room.
type VideoGrant struct {
	Room       string `json:"room"`
	RoomJoin   bool   `json:"roomJoin"`
	CanPublish bool   `json:"canPublish"`
}

type joinClaims struct {
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Config holds the media service credentials.
type Config struct {
	APIKey    string
	APISecret string
	TokenTTL  time.Duration
	// Enabled is the kill switch. When false every mint returns a fixed 503.
	Enabled bool
}

// Client mints signed join tokens.
type Client struct {
	cfg Config
}

// NewClient creates a media token client.
func NewClient(cfg Config) *Client {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 6 * time.Hour
	}
	return &Client{cfg: cfg}
}

// MintJoinToken signs a token allowing identity to join room. canPublish
// distinguishes broadcasters from viewers.
func (c *Client) MintJoinToken(identity, room string, canPublish bool) (string, error) {
	if !c.cfg.Enabled {
		return "", ErrStreamingDisabled
	}
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return "", errors.Internal("media service is not configured", nil)
	}

	now := time.Now()
	claims := joinClaims{
		Video: VideoGrant{Room: room, RoomJoin: true, CanPublish: canPublish},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.APIKey,
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return signed, nil
}
