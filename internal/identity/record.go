package identity

import (
	"maps"
	"time"
)

// Provider identifies the upstream platform a record was derived from.
type Provider string

const (
	ProviderX        Provider = "x"
	ProviderGoogle   Provider = "google"
	ProviderGitHub   Provider = "github"
	ProviderLinkedIn Provider = "linkedin"
	ProviderGeneric  Provider = "generic"
)

// Record is the provider-shaped identity payload written onto the ledger as
// signed account data. ProofIdentifier is stable per underlying proof, so
// re-deriving a record from the same proof is idempotent.
type Record struct {
	Provider        Provider          `json:"provider"`
	ProofIdentifier string            `json:"proof_identifier"`
	PublicData      map[string]string `json:"public_data,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`

	// x
	Nickname string `json:"nickname,omitempty"`

	// google
	Email string `json:"email,omitempty"`

	// github / linkedin
	Username string `json:"username,omitempty"`

	// generic fallback
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Matches reports whether two records carry the same identity facts.
// CreatedAt is deliberately excluded: it is stamped at build time, so a
// record a wallet signed moments ago still matches its re-derivation.
func (r *Record) Matches(other *Record) bool {
	return r.Provider == other.Provider &&
		r.ProofIdentifier == other.ProofIdentifier &&
		r.Nickname == other.Nickname &&
		r.Email == other.Email &&
		r.Username == other.Username &&
		maps.Equal(r.PublicData, other.PublicData) &&
		maps.Equal(r.Parameters, other.Parameters)
}
