package media

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestKillSwitchBlocksMinting(t *testing.T) {
	client := NewClient(Config{APIKey: "key", APISecret: "secret", Enabled: false})

	_, err := client.MintJoinToken("user-1", "user-user-1", true)
	if !errors.Is(err, ErrStreamingDisabled) {
		t.Fatalf("got %v, want ErrStreamingDisabled", err)
	}
}

func TestMintJoinTokenGrants(t *testing.T) {
	client := NewClient(Config{
		APIKey:    "api-key",
		APISecret: "api-secret",
		TokenTTL:  time.Hour,
		Enabled:   true,
	})

	signed, err := client.MintJoinToken("viewer-9", "user-owner-1", false)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims := &joinClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if claims.Subject != "viewer-9" {
		t.Fatalf("got subject %q, want viewer-9", claims.Subject)
	}
	if claims.Issuer != "api-key" {
		t.Fatalf("got issuer %q, want api-key", claims.Issuer)
	}
	if claims.Video.Room != "user-owner-1" || !claims.Video.RoomJoin {
		t.Fatalf("unexpected grant: %+v", claims.Video)
	}
	if claims.Video.CanPublish {
		t.Fatalf("viewer token allows publishing")
	}
}

func TestMintRequiresCredentials(t *testing.T) {
	client := NewClient(Config{Enabled: true})

	if _, err := client.MintJoinToken("user-1", "room", true); err == nil {
		t.Fatalf("mint succeeded without credentials")
	}
}
