// Package storage persists users and applied proofs. The ledger remains the
// source of truth for signed identity data; this layer exists for dedup,
// lookups and aggregate stats.
package storage

import (
	"context"
	"time"

	domainerrors "weaveid/pkg/domain-errors"
)

var (
	ErrNotFound = domainerrors.New(domainerrors.CodeNotFound, "record not found")
	ErrConflict = domainerrors.New(domainerrors.CodeConflict, "record already exists")
)

// User is a wallet principal that has authenticated at least once.
type User struct {
	ID        string
	PublicKey string
	CreatedAt time.Time
}

// Proof is an applied identity proof. RawProofHash is the dedup key: a hex
// SHA-256 of the canonical proof bytes, unique across all users.
type Proof struct {
	ProofIdentifier string
	UserID          string
	Provider        string
	RawProof        []byte
	RawProofHash    string
	PublicData      []byte
	CreatedAt       time.Time
}

// ProviderStat counts applied proofs per provider.
type ProviderStat struct {
	Provider string `json:"provider"`
	Count    int64  `json:"count"`
}

type Store interface {
	// InsertUser records a principal on first authentication. Inserting an
	// existing ID is a no-op so the auth path stays idempotent.
	InsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)

	// InsertProof returns ErrConflict when a proof with the same hash was
	// already applied, by anyone.
	InsertProof(ctx context.Context, proof Proof) error
	// DeleteProofByHash releases a reserved hash after a failed anchor.
	// Deleting an unknown hash is a no-op.
	DeleteProofByHash(ctx context.Context, hash string) error
	ProofExistsByHash(ctx context.Context, hash string) (bool, error)
	ListProofsByUser(ctx context.Context, userID string) ([]Proof, error)
	ProofStatsByProvider(ctx context.Context) ([]ProviderStat, error)

	Ping(ctx context.Context) error
}
