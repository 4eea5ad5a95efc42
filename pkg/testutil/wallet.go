// Package testutil provides common test utilities for handler and service
// tests.
package testutil

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"weaveid/internal/signature"
)

// Wallet is a throwaway secp256k1 keypair for tests.
type Wallet struct {
	priv *ecdsa.PrivateKey

	// PublicKey is the base64-encoded compressed verifying key, as clients
	// send it.
	PublicKey string
}

// NewWallet generates a fresh wallet.
func NewWallet(t *testing.T) *Wallet {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &Wallet{
		priv:      priv,
		PublicKey: base64.StdEncoding.EncodeToString(crypto.CompressPubkey(&priv.PublicKey)),
	}
}

// Sign produces the base64 wallet signature over the canonical message for
// (signer, payload), exactly as a real wallet would.
func (w *Wallet) Sign(t *testing.T, signer string, payload []byte) string {
	t.Helper()
	digest := sha256.Sum256(signature.CanonicalMessage(signer, payload))
	sig, err := crypto.Sign(digest[:], w.priv)
	require.NoError(t, err)
	// Drop the recovery byte; wallets emit 64-byte R||S signatures.
	return base64.StdEncoding.EncodeToString(sig[:64])
}
