package signature_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weaveid/internal/signature"
	"weaveid/pkg/testutil"
)

func TestVerify_ValidSignature(t *testing.T) {
	wallet := testutil.NewWallet(t)
	payload := []byte(`{"hello":"world"}`)
	sig := wallet.Sign(t, "alice", payload)

	bundle, err := signature.Verifier{}.Verify("alice", wallet.PublicKey, sig, payload)
	require.NoError(t, err)
	assert.Len(t, bundle.VerifyingKey, 33)
	assert.Len(t, bundle.Signature, 64)
}

func TestVerify_FlippedSignatureByte(t *testing.T) {
	wallet := testutil.NewWallet(t)
	payload := []byte("data to sign")
	sig := wallet.Sign(t, "alice", payload)

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	raw[10] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = signature.Verifier{}.Verify("alice", wallet.PublicKey, tampered, payload)
	require.ErrorIs(t, err, signature.ErrSignatureInvalid)
}

func TestVerify_FlippedPayloadByte(t *testing.T) {
	wallet := testutil.NewWallet(t)
	payload := []byte("data to sign")
	sig := wallet.Sign(t, "alice", payload)

	payload[0] ^= 0x01
	_, err := signature.Verifier{}.Verify("alice", wallet.PublicKey, sig, payload)
	require.ErrorIs(t, err, signature.ErrSignatureInvalid)
}

func TestVerify_WrongSigner(t *testing.T) {
	wallet := testutil.NewWallet(t)
	payload := []byte("data to sign")
	sig := wallet.Sign(t, "alice", payload)

	_, err := signature.Verifier{}.Verify("bob", wallet.PublicKey, sig, payload)
	require.ErrorIs(t, err, signature.ErrSignatureInvalid)
}

func TestVerify_MalformedInputs(t *testing.T) {
	wallet := testutil.NewWallet(t)
	payload := []byte("data")
	sig := wallet.Sign(t, "alice", payload)

	tests := []struct {
		name      string
		publicKey string
		sig       string
		want      error
	}{
		{"key not base64", "not-base64!!!", sig, signature.ErrMalformedKey},
		{"key wrong length", base64.StdEncoding.EncodeToString([]byte("short")), sig, signature.ErrMalformedKey},
		{"sig not base64", wallet.PublicKey, "also***not///base64", signature.ErrMalformedSignature},
		{"sig wrong length", wallet.PublicKey, base64.StdEncoding.EncodeToString([]byte("short")), signature.ErrMalformedSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signature.Verifier{}.Verify("alice", tt.publicKey, tt.sig, payload)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCanonicalMessage_Deterministic(t *testing.T) {
	a := signature.CanonicalMessage("alice", []byte("payload"))
	b := signature.CanonicalMessage("alice", []byte("payload"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, signature.CanonicalMessage("bob", []byte("payload")))
	assert.Contains(t, string(a), `"signer":"alice"`)
}
