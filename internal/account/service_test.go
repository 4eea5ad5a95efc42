package account

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaveid/internal/ledger"
	domainerrors "weaveid/pkg/domain-errors"
	"weaveid/pkg/testutil"
)

func newTestService(t *testing.T) (*Service, *ledger.Memory) {
	t.Helper()
	seed := make([]byte, 32)
	copy(seed, "account-service-test-seed")
	signer, err := ledger.NewServiceSigner("weave_service", seed)
	require.NoError(t, err)

	mem := ledger.NewMemory(signer.PublicKey())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(mem, signer, logger), mem
}

func register(t *testing.T, svc *Service, wallet *testutil.Wallet, signer string) *ledger.Account {
	t.Helper()
	ctx := context.Background()

	data, err := svc.PrepareRegistration(ctx, signer, wallet.PublicKey)
	require.NoError(t, err)

	acc, err := svc.Register(ctx, Credential{
		Signer:    signer,
		PublicKey: wallet.PublicKey,
		Signature: wallet.Sign(t, signer, data),
	})
	require.NoError(t, err)
	return acc
}

func TestPrepareRegistration_Deterministic(t *testing.T) {
	svc, _ := newTestService(t)
	wallet := testutil.NewWallet(t)
	ctx := context.Background()

	first, err := svc.PrepareRegistration(ctx, "acct-1", wallet.PublicKey)
	require.NoError(t, err)
	second, err := svc.PrepareRegistration(ctx, "acct-1", wallet.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRegister_FullChallengeFlow(t *testing.T) {
	svc, mem := newTestService(t)
	wallet := testutil.NewWallet(t)

	acc := register(t, svc, wallet, "acct-1")
	assert.Equal(t, "acct-1", acc.ID)
	assert.Equal(t, 1, mem.Creates())
}

func TestRegister_IsIdempotent(t *testing.T) {
	svc, mem := newTestService(t)
	wallet := testutil.NewWallet(t)
	ctx := context.Background()

	first := register(t, svc, wallet, "acct-1")

	// Re-running the whole flow returns the same account without a second
	// ledger create.
	data, err := svc.PrepareRegistration(ctx, "acct-1", wallet.PublicKey)
	require.NoError(t, err)
	second, err := svc.Register(ctx, Credential{
		Signer:    "acct-1",
		PublicKey: wallet.PublicKey,
		Signature: wallet.Sign(t, "acct-1", data),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VerifyingKey, second.VerifyingKey)
	assert.Equal(t, 1, mem.Creates())
}

func TestRegister_RejectsForgedSignature(t *testing.T) {
	svc, mem := newTestService(t)
	wallet := testutil.NewWallet(t)
	intruder := testutil.NewWallet(t)
	ctx := context.Background()

	data, err := svc.PrepareRegistration(ctx, "acct-1", wallet.PublicKey)
	require.NoError(t, err)

	// intruder signs the challenge but claims the wallet's key
	_, err = svc.Register(ctx, Credential{
		Signer:    "acct-1",
		PublicKey: wallet.PublicKey,
		Signature: intruder.Sign(t, "acct-1", data),
	})
	assert.True(t, domainerrors.Is(err, domainerrors.CodeUnauthorized))
	assert.Equal(t, 0, mem.Creates())
}

func TestRegister_ReauthRejectsForgedSignature(t *testing.T) {
	svc, _ := newTestService(t)
	wallet := testutil.NewWallet(t)
	intruder := testutil.NewWallet(t)
	register(t, svc, wallet, "acct-1")

	// The account exists; a sign-in with the intruder's key and a garbage
	// signature must not hand out the registered account.
	_, err := svc.Register(context.Background(), Credential{
		Signer:    "acct-1",
		PublicKey: intruder.PublicKey,
		Signature: base64.StdEncoding.EncodeToString([]byte("garbage-not-a-signature")),
	})
	assert.True(t, domainerrors.Is(err, domainerrors.CodeBadRequest) ||
		domainerrors.Is(err, domainerrors.CodeUnauthorized))
}

func TestRegister_ReauthRejectsForeignKey(t *testing.T) {
	svc, _ := newTestService(t)
	wallet := testutil.NewWallet(t)
	intruder := testutil.NewWallet(t)
	ctx := context.Background()
	register(t, svc, wallet, "acct-1")

	// Even a genuine signature from a key the account was never bound to is
	// refused: the intruder signs its own registration bytes correctly but
	// the ledger account belongs to the original wallet.
	data, err := svc.PrepareRegistration(ctx, "acct-1", intruder.PublicKey)
	require.NoError(t, err)
	_, err = svc.Register(ctx, Credential{
		Signer:    "acct-1",
		PublicKey: intruder.PublicKey,
		Signature: intruder.Sign(t, "acct-1", data),
	})
	assert.ErrorIs(t, err, ledger.ErrKeyMismatch)
}

func TestAddSignedData_AppendsRecord(t *testing.T) {
	svc, _ := newTestService(t)
	wallet := testutil.NewWallet(t)
	register(t, svc, wallet, "acct-1")

	payload := []byte(`{"provider":"github","username":"octocat"}`)
	acc, err := svc.AddSignedData(context.Background(), Credential{
		Signer:    "acct-1",
		PublicKey: wallet.PublicKey,
		Signature: wallet.Sign(t, "acct-1", payload),
		Data:      payload,
	})
	require.NoError(t, err)
	require.Len(t, acc.SignedData, 1)
	assert.Equal(t, payload, acc.SignedData[0].Data)
}

func TestAddSignedData_RequiresRegistration(t *testing.T) {
	svc, _ := newTestService(t)
	wallet := testutil.NewWallet(t)

	payload := []byte(`{"provider":"x","nickname":"ghost"}`)
	_, err := svc.AddSignedData(context.Background(), Credential{
		Signer:    "never-registered",
		PublicKey: wallet.PublicKey,
		Signature: wallet.Sign(t, "never-registered", payload),
		Data:      payload,
	})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestAddSignedData_RejectsForeignWallet(t *testing.T) {
	svc, _ := newTestService(t)
	owner := testutil.NewWallet(t)
	intruder := testutil.NewWallet(t)
	register(t, svc, owner, "acct-1")

	payload := []byte(`{"provider":"x","nickname":"intruder"}`)
	_, err := svc.AddSignedData(context.Background(), Credential{
		Signer:    "acct-1",
		PublicKey: intruder.PublicKey,
		Signature: intruder.Sign(t, "acct-1", payload),
		Data:      payload,
	})
	assert.True(t, domainerrors.Is(err, domainerrors.CodeUnauthorized))
}
