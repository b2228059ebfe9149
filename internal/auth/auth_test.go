package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	apierrors "github.com/streamlaunch/platform/internal/errors"
)

func TestSessionRoundTrip(t *testing.T) {
	mgr := NewSessionManager("secret", time.Hour)

	token, err := mgr.Mint("user-1", "wallet-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := mgr.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Wallet != "wallet-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestSessionRejectsWrongSecret(t *testing.T) {
	token, err := NewSessionManager("secret-a", time.Hour).Mint("user-1", "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = NewSessionManager("secret-b", time.Hour).Verify(token)
	serviceErr := apierrors.GetServiceError(err)
	if serviceErr == nil || serviceErr.Code != apierrors.CodeInvalidToken {
		t.Fatalf("got %v, want invalid_token", err)
	}
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	mgr := NewSessionManager("secret", time.Nanosecond)

	token, err := mgr.Mint("user-1", "")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := mgr.Verify(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	mgr := NewSessionManager("secret", time.Hour)
	if _, err := mgr.Verify("not-a-jwt"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}

func TestNonceSingleUse(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	nonce, err := store.Issue(ctx, "wallet-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := store.Consume(ctx, "wallet-1", nonce)
	if err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}
	ok, err = store.Consume(ctx, "wallet-1", nonce)
	if err != nil || ok {
		t.Fatalf("second consume: ok=%v err=%v, want not ok", ok, err)
	}
}

func TestNonceIsPerWallet(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	nonce, err := store.Issue(ctx, "wallet-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := store.Consume(ctx, "wallet-2", nonce)
	if err != nil || ok {
		t.Fatalf("nonce accepted for a different wallet")
	}
}

func TestNonceReissueInvalidatesPrevious(t *testing.T) {
	store := NewMemoryNonceStore()
	ctx := context.Background()

	first, _ := store.Issue(ctx, "wallet-1")
	if _, err := store.Issue(ctx, "wallet-1"); err != nil {
		t.Fatalf("reissue: %v", err)
	}

	ok, _ := store.Consume(ctx, "wallet-1", first)
	if ok {
		t.Fatalf("stale nonce accepted after reissue")
	}
}

func TestEd25519Verifier(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	wallet := hex.EncodeToString(pub)
	message := ChallengeMessage(wallet, "nonce-1")

	v := Ed25519Verifier{}
	if err := v.Verify(wallet, message, ed25519.Sign(priv, message)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := v.Verify(wallet, message, ed25519.Sign(priv, []byte("other"))); err == nil {
		t.Fatalf("wrong-message signature accepted")
	}
	if err := v.Verify("zz-not-hex", message, ed25519.Sign(priv, message)); err == nil {
		t.Fatalf("invalid wallet accepted")
	}
}
