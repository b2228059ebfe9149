package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// ChallengeMessage is the exact byte string a wallet must sign for a nonce.
func ChallengeMessage(wallet, nonce string) []byte {
	return []byte(fmt.Sprintf("streamlaunch login\nwallet: %s\nnonce: %s", wallet, nonce))
}

// SignatureVerifier checks a wallet's signature over a login challenge. The
// wallet scheme itself is a collaborator concern; implementations only need
// to answer valid/invalid.
type SignatureVerifier interface {
	Verify(wallet string, message, signature []byte) error
}

// Ed25519Verifier treats the wallet address as a hex-encoded ed25519 public
// key.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(wallet string, message, signature []byte) error {
	pub, err := hex.DecodeString(wallet)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("wallet is not a valid public key")
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), message, signature) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}
