// Package ledger defines the narrow contract this service has with the
// external verifiable ledger: read an account, submit a transaction. The
// ledger owns ground truth for accounts; this service only drives state
// transitions through fully authorized transactions.
//
// Every account mutation needs two independent signatures: the operator's
// service key (ed25519) authorizes the operation on behalf of the service,
// and the user's wallet key counter-signs it. The two-step
// UnsignedTransaction -> Transaction builder makes a partially authorized
// transaction unsubmittable by construction.
package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"weaveid/internal/signature"
)

// OpType enumerates the ledger operations this service submits.
type OpType string

const (
	OpCreateAccount OpType = "create_account"
	OpAddData       OpType = "add_data"
)

// SignedEntry is one append-only data entry on an account, together with the
// bundle that authorized it.
type SignedEntry struct {
	Data   []byte           `json:"data"`
	Bundle signature.Bundle `json:"bundle"`
}

// Account is the ledger's view of a user: an id bound to a wallet verifying
// key and an ordered, append-only sequence of signed data.
type Account struct {
	ID           string        `json:"id"`
	VerifyingKey []byte        `json:"verifying_key"`
	SignedData   []SignedEntry `json:"signed_data"`
}

// Operation describes a single account mutation.
type Operation struct {
	Type      OpType `json:"type"`
	AccountID string `json:"account_id"`
	ServiceID string `json:"service_id"`

	// UserKey is the wallet verifying key being registered (create only).
	UserKey []byte `json:"user_key,omitempty"`

	// Data is the payload being appended (add_data only).
	Data []byte `json:"data,omitempty"`
}

// challengeBytes is the deterministic encoding the service key signs to
// authorize an operation.
func (o Operation) challengeBytes() []byte {
	return fmt.Appendf(nil, "%s|%s|%s|%s|%s",
		o.Type, o.AccountID, o.ServiceID,
		base64.StdEncoding.EncodeToString(o.UserKey),
		base64.StdEncoding.EncodeToString(o.Data))
}

// UnsignedTransaction is an operation carrying the service challenge but not
// yet the user's counter-signature. Only Transaction values can be submitted.
type UnsignedTransaction struct {
	Operation        Operation `json:"operation"`
	ServiceChallenge []byte    `json:"service_challenge"`
	ServiceKey       []byte    `json:"service_key"`
}

// SigningBytes returns the exact bytes the user must sign to authorize this
// transaction. Encoding is deterministic: preparing the same transaction
// twice yields identical bytes because ed25519 service signatures are
// deterministic.
func (t UnsignedTransaction) SigningBytes() []byte {
	raw, err := json.Marshal(t)
	if err != nil {
		// Marshal of these concrete fields cannot fail.
		panic(err)
	}
	return raw
}

// ExternallySigned attaches the user's signature bundle, producing a
// submittable transaction.
func (t UnsignedTransaction) ExternallySigned(bundle signature.Bundle) Transaction {
	return Transaction{UnsignedTransaction: t, UserBundle: bundle}
}

// Transaction is a fully authorized account mutation.
type Transaction struct {
	UnsignedTransaction
	UserBundle signature.Bundle `json:"user_bundle"`
}

// Client is the ledger contract. Implementations manage their own
// concurrency and may block on network I/O.
type Client interface {
	// GetAccount returns the account or ErrAccountNotFound.
	GetAccount(ctx context.Context, id string) (*Account, error)
	// Submit validates and applies a transaction, returning the resulting
	// account state.
	Submit(ctx context.Context, tx Transaction) (*Account, error)
}

// ServiceSigner holds the operator's ed25519 signing key and produces service
// challenges for transactions.
type ServiceSigner struct {
	serviceID string
	key       ed25519.PrivateKey
}

// NewServiceSigner derives the signing key from a 32-byte seed.
func NewServiceSigner(serviceID string, seed []byte) (*ServiceSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("service key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &ServiceSigner{serviceID: serviceID, key: ed25519.NewKeyFromSeed(seed)}, nil
}

// ServiceID returns the service account id this signer authorizes for.
func (s *ServiceSigner) ServiceID() string {
	return s.serviceID
}

// PublicKey returns the service verifying key.
func (s *ServiceSigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Challenge builds an unsigned transaction whose service challenge signs op.
func (s *ServiceSigner) Challenge(op Operation) UnsignedTransaction {
	return UnsignedTransaction{
		Operation:        op,
		ServiceChallenge: ed25519.Sign(s.key, op.challengeBytes()),
		ServiceKey:       s.PublicKey(),
	}
}

// VerifyChallenge checks a transaction's service challenge against the given
// service verifying key.
func VerifyChallenge(serviceKey ed25519.PublicKey, tx UnsignedTransaction) bool {
	return ed25519.Verify(serviceKey, tx.Operation.challengeBytes(), tx.ServiceChallenge)
}
