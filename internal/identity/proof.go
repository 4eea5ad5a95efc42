// Package identity turns externally verified proofs into provider-tagged
// identity records bound to a ledger account.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	domainerrors "weaveid/pkg/domain-errors"
)

// ClaimData is the claim portion of a proof. Context is a JSON document
// carrying the parameters the attestor extracted from the session.
type ClaimData struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Context    string `json:"context"`
}

// Proof is an attestation produced by the external proof system. This service
// never checks its cryptographic validity itself; that is the verifier
// collaborator's job.
type Proof struct {
	Identifier string            `json:"identifier"`
	ClaimData  ClaimData         `json:"claimData"`
	Signatures []string          `json:"signatures"`
	PublicData map[string]string `json:"publicData,omitempty"`
}

// CanonicalBytes returns the deterministic encoding of the proof used for
// hashing. encoding/json sorts map keys, so identical proofs always encode
// identically.
func (p *Proof) CanonicalBytes() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, domainerrors.New(domainerrors.CodeInternal, "failed to encode proof")
	}
	return raw, nil
}

// Hash computes the dedup fingerprint: hex SHA-256 over the canonical proof
// bytes. Two submissions of the same underlying proof always collide here.
func (p *Proof) Hash() (string, error) {
	raw, err := p.CanonicalBytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
