// Package signature verifies wallet signatures over canonically encoded
// messages. Wallets sign with secp256k1 over the SHA-256 digest of the
// canonical message; keys travel base64-encoded in compressed form.
package signature

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/crypto"

	domainerrors "weaveid/pkg/domain-errors"
)

const (
	compressedPubKeyLen = 33
	signatureLen        = 64
)

var (
	// ErrMalformedKey and ErrMalformedSignature are client input errors and
	// are never worth retrying.
	ErrMalformedKey       = domainerrors.New(domainerrors.CodeBadRequest, "malformed public key")
	ErrMalformedSignature = domainerrors.New(domainerrors.CodeBadRequest, "malformed signature")
	ErrSignatureInvalid   = domainerrors.New(domainerrors.CodeUnauthorized, "invalid signature")
)

// Bundle pairs a verifying key with a signature it produced. Opaque
// cryptographic material, immutable once constructed.
type Bundle struct {
	VerifyingKey []byte `json:"verifying_key"`
	Signature    []byte `json:"signature"`
}

// Verifier checks wallet signatures. It is stateless and safe for concurrent
// use.
type Verifier struct{}

// Verify checks that signature (base64, 64-byte R||S) was produced by
// publicKey (base64, 33-byte compressed secp256k1) over the canonical message
// for (signer, payload). On success it returns the bundle that authorized the
// payload.
func (Verifier) Verify(signer, publicKey, sig string, payload []byte) (*Bundle, error) {
	key, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, ErrMalformedKey
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrMalformedSignature
	}
	if err := VerifyBytes(signer, key, sigBytes, payload); err != nil {
		return nil, err
	}
	return &Bundle{VerifyingKey: key, Signature: sigBytes}, nil
}

// DecodeKey decodes and validates a base64 compressed verifying key.
func DecodeKey(publicKey string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, ErrMalformedKey
	}
	if len(key) != compressedPubKeyLen {
		return nil, ErrMalformedKey
	}
	if _, err := crypto.DecompressPubkey(key); err != nil {
		return nil, ErrMalformedKey
	}
	return key, nil
}

// VerifyBytes is the decoded-material form of Verify. The ledger uses it to
// re-check bundles attached to transactions.
func VerifyBytes(signer string, publicKey, sig, payload []byte) error {
	if len(publicKey) != compressedPubKeyLen {
		return ErrMalformedKey
	}
	if _, err := crypto.DecompressPubkey(publicKey); err != nil {
		return ErrMalformedKey
	}
	if len(sig) != signatureLen {
		return ErrMalformedSignature
	}

	digest := sha256.Sum256(CanonicalMessage(signer, payload))
	if !crypto.VerifySignature(publicKey, digest[:], sig) {
		return ErrSignatureInvalid
	}
	return nil
}
