// Package account mediates between a user's wallet signature and the
// ledger's authorization model. Registration is a two-phase challenge
// protocol: prepare returns the exact bytes to sign, the wallet signs them
// out of band, and register submits the counter-signed transaction.
package account

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"weaveid/internal/ledger"
	"weaveid/internal/signature"
	domainerrors "weaveid/pkg/domain-errors"
)

// ErrTransaction wraps ledger rejections the client cannot fix by retrying.
var ErrTransaction = domainerrors.New(domainerrors.CodeInternal, "ledger transaction failed")

// Credential is a wallet-signed request: the signer id, the wallet verifying
// key, and a signature over Data. Transient, never persisted.
type Credential struct {
	Signer    string
	PublicKey string
	Signature string
	Data      []byte
}

// Service builds and submits ledger transactions on behalf of wallet users.
type Service struct {
	ledger   ledger.Client
	signer   *ledger.ServiceSigner
	verifier signature.Verifier
	logger   *slog.Logger
}

// NewService constructs an account service.
func NewService(client ledger.Client, signer *ledger.ServiceSigner, logger *slog.Logger) *Service {
	return &Service{ledger: client, signer: signer, logger: logger}
}

// PrepareRegistration builds the unsigned create-account transaction for
// (signer, publicKey) and returns the exact bytes the wallet must sign.
// Deterministic: calling it twice before registration yields identical bytes,
// so retried prepares never invalidate an in-flight signature.
func (s *Service) PrepareRegistration(ctx context.Context, signerID, publicKey string) ([]byte, error) {
	key, err := signature.DecodeKey(publicKey)
	if err != nil {
		return nil, err
	}
	return s.createTx(signerID, key).SigningBytes(), nil
}

// Register completes the challenge protocol: it verifies the wallet signature
// over the registration bytes, attaches the bundle, and submits the
// transaction. The signature is checked on every call, registered or not;
// registering an already-registered account then returns the existing account
// without resubmission, so network retries of the final step are harmless.
func (s *Service) Register(ctx context.Context, cred Credential) (*ledger.Account, error) {
	key, err := signature.DecodeKey(cred.PublicKey)
	if err != nil {
		return nil, err
	}

	unsigned := s.createTx(cred.Signer, key)
	bundle, err := s.verifier.Verify(cred.Signer, cred.PublicKey, cred.Signature, unsigned.SigningBytes())
	if err != nil {
		return nil, err
	}

	if acc, err := s.ledger.GetAccount(ctx, cred.Signer); err == nil {
		// Re-authentication. The wallet proved control of the supplied key,
		// but only the key bound to the account grants access to it.
		if !bytes.Equal(acc.VerifyingKey, key) {
			return nil, ledger.ErrKeyMismatch
		}
		s.logger.DebugContext(ctx, "account already registered", "signer", cred.Signer)
		return acc, nil
	} else if !domainerrors.Is(err, domainerrors.CodeNotFound) {
		return nil, ErrTransaction
	}

	acc, err := s.ledger.Submit(ctx, unsigned.ExternallySigned(*bundle))
	if err != nil {
		// A concurrent registration may have won the race; treat it as ours.
		if errors.Is(err, ledger.ErrAccountExists) {
			return s.ledger.GetAccount(ctx, cred.Signer)
		}
		s.logger.ErrorContext(ctx, "create account transaction rejected",
			"signer", cred.Signer, "error", err)
		return nil, ErrTransaction
	}
	return acc, nil
}

// AddSignedData verifies the wallet signature over cred.Data and appends it
// to the signer's ledger account.
func (s *Service) AddSignedData(ctx context.Context, cred Credential) (*ledger.Account, error) {
	bundle, err := s.verifier.Verify(cred.Signer, cred.PublicKey, cred.Signature, cred.Data)
	if err != nil {
		return nil, err
	}
	return s.AddData(ctx, cred.Signer, cred.Data, *bundle)
}

// AddData submits an add-data transaction authorized by the service key and
// the supplied user bundle. The account must already be registered.
func (s *Service) AddData(ctx context.Context, accountID string, payload []byte, bundle signature.Bundle) (*ledger.Account, error) {
	if _, err := s.ledger.GetAccount(ctx, accountID); err != nil {
		if domainerrors.Is(err, domainerrors.CodeNotFound) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, ErrTransaction
	}

	unsigned := s.signer.Challenge(ledger.Operation{
		Type:      ledger.OpAddData,
		AccountID: accountID,
		ServiceID: s.signer.ServiceID(),
		Data:      payload,
	})

	acc, err := s.ledger.Submit(ctx, unsigned.ExternallySigned(bundle))
	if err != nil {
		if domainerrors.Is(err, domainerrors.CodeUnauthorized) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "add data transaction rejected",
			"account", accountID, "error", err)
		return nil, ErrTransaction
	}
	return acc, nil
}

func (s *Service) createTx(signerID string, key []byte) ledger.UnsignedTransaction {
	return s.signer.Challenge(ledger.Operation{
		Type:      ledger.OpCreateAccount,
		AccountID: signerID,
		ServiceID: s.signer.ServiceID(),
		UserKey:   key,
	})
}
