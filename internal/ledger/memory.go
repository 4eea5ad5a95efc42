package ledger

import (
	"context"
	"crypto/ed25519"
	"sync"

	"weaveid/internal/signature"
	domainerrors "weaveid/pkg/domain-errors"
)

var (
	ErrAccountNotFound   = domainerrors.New(domainerrors.CodeNotFound, "account not found")
	ErrAccountExists     = domainerrors.New(domainerrors.CodeConflict, "account already exists")
	ErrChallengeMismatch = domainerrors.New(domainerrors.CodeBadRequest, "service challenge mismatch")
	ErrBundleInvalid     = domainerrors.New(domainerrors.CodeUnauthorized, "user signature bundle invalid")
	ErrKeyMismatch       = domainerrors.New(domainerrors.CodeUnauthorized, "bundle key does not match account key")
)

// Memory is an in-process ledger for development and tests. It enforces the
// same authorization rules the real ledger does: a valid service challenge
// from the registered service key plus a valid user counter-signature.
type Memory struct {
	serviceKey ed25519.PublicKey

	mu       sync.Mutex
	accounts map[string]*Account

	// creates counts accepted create_account transactions, exposed for tests
	// asserting at-most-once registration.
	creates int
}

// NewMemory constructs an empty in-memory ledger trusting serviceKey.
func NewMemory(serviceKey ed25519.PublicKey) *Memory {
	return &Memory{
		serviceKey: serviceKey,
		accounts:   make(map[string]*Account),
	}
}

func (m *Memory) GetAccount(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(acc), nil
}

func (m *Memory) Submit(_ context.Context, tx Transaction) (*Account, error) {
	if !VerifyChallenge(m.serviceKey, tx.UnsignedTransaction) {
		return nil, ErrChallengeMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	op := tx.Operation
	switch op.Type {
	case OpCreateAccount:
		if _, ok := m.accounts[op.AccountID]; ok {
			return nil, ErrAccountExists
		}
		// The user signs the unsigned transaction bytes with the wallet key
		// being registered.
		if err := signature.VerifyBytes(op.AccountID, tx.UserBundle.VerifyingKey,
			tx.UserBundle.Signature, tx.SigningBytes()); err != nil {
			return nil, ErrBundleInvalid
		}
		if string(tx.UserBundle.VerifyingKey) != string(op.UserKey) {
			return nil, ErrKeyMismatch
		}
		acc := &Account{ID: op.AccountID, VerifyingKey: op.UserKey}
		m.accounts[op.AccountID] = acc
		m.creates++
		return copyAccount(acc), nil

	case OpAddData:
		acc, ok := m.accounts[op.AccountID]
		if !ok {
			return nil, ErrAccountNotFound
		}
		if string(tx.UserBundle.VerifyingKey) != string(acc.VerifyingKey) {
			return nil, ErrKeyMismatch
		}
		// The user signs the appended payload itself.
		if err := signature.VerifyBytes(op.AccountID, tx.UserBundle.VerifyingKey,
			tx.UserBundle.Signature, op.Data); err != nil {
			return nil, ErrBundleInvalid
		}
		acc.SignedData = append(acc.SignedData, SignedEntry{Data: op.Data, Bundle: tx.UserBundle})
		return copyAccount(acc), nil

	default:
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "unknown operation type")
	}
}

// Creates reports how many create_account transactions were accepted.
func (m *Memory) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func copyAccount(acc *Account) *Account {
	cp := &Account{
		ID:           acc.ID,
		VerifyingKey: append([]byte(nil), acc.VerifyingKey...),
		SignedData:   make([]SignedEntry, len(acc.SignedData)),
	}
	copy(cp.SignedData, acc.SignedData)
	return cp
}
