package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domainerrors "weaveid/pkg/domain-errors"
)

var (
	ErrProofInvalid        = domainerrors.New(domainerrors.CodeUnauthorized, "proof failed verification")
	ErrVerifierUnavailable = domainerrors.New(domainerrors.CodeUnavailable, "proof verifier unreachable")
)

// Verifier checks the cryptographic validity of a proof against the external
// proof system.
type Verifier interface {
	Verify(ctx context.Context, proof *Proof) error
}

// HTTPVerifier delegates verification to a remote proof service.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, proof *Proof) error {
	body, err := proof.CanonicalBytes()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/verify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return ErrVerifierUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return ErrVerifierUnavailable
		}
		return ErrProofInvalid
	}

	var vr verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return ErrVerifierUnavailable
	}
	if !vr.Valid {
		return ErrProofInvalid
	}
	return nil
}

// StaticVerifier accepts any structurally complete proof. It backs local
// development and tests where no proof service is running.
type StaticVerifier struct{}

func (StaticVerifier) Verify(_ context.Context, proof *Proof) error {
	if proof.Identifier == "" || len(proof.Signatures) == 0 {
		return ErrProofInvalid
	}
	return nil
}
