package identity

import (
	"encoding/json"
	"strings"
	"time"

	domainerrors "weaveid/pkg/domain-errors"
)

var (
	ErrMalformedContext   = domainerrors.New(domainerrors.CodeBadRequest, "proof context is not valid JSON")
	ErrScreenNameNotFound = domainerrors.New(domainerrors.CodeBadRequest, "screen_name missing from proof parameters")
	ErrEmailNotFound      = domainerrors.New(domainerrors.CodeBadRequest, "email missing from proof parameters")
	ErrUsernameNotFound   = domainerrors.New(domainerrors.CodeBadRequest, "username missing from proof parameters")
)

// proofContext mirrors the context document embedded in a claim. Extracted
// parameter values are kept as raw strings exactly as the attestor produced
// them.
type proofContext struct {
	ExtractedParameters map[string]string `json:"extractedParameters"`
}

// Builder maps verified proofs to identity records. Known providers get a
// shaped record with the single field that identifies the user on that
// platform; anything else falls back to a generic record carrying all
// extracted parameters.
type Builder struct {
	clock func() time.Time
}

func NewBuilder() Builder {
	return Builder{clock: time.Now}
}

// NewBuilderWithClock fixes the record timestamp source for tests.
func NewBuilderWithClock(clock func() time.Time) Builder {
	return Builder{clock: clock}
}

// Build derives the identity record for a proof. Unknown providers never
// fail: they produce a Generic record, possibly with no parameters at all.
func (b Builder) Build(proof *Proof) (*Record, error) {
	var pctx proofContext
	if proof.ClaimData.Context != "" {
		if err := json.Unmarshal([]byte(proof.ClaimData.Context), &pctx); err != nil {
			return nil, ErrMalformedContext
		}
	}
	params := pctx.ExtractedParameters

	record := &Record{
		ProofIdentifier: proof.Identifier,
		PublicData:      proof.PublicData,
		CreatedAt:       b.now().UTC(),
	}

	switch Provider(strings.ToLower(proof.ClaimData.Provider)) {
	case ProviderX:
		name, ok := params["screen_name"]
		if !ok || name == "" {
			return nil, ErrScreenNameNotFound
		}
		record.Provider = ProviderX
		record.Nickname = name

	case ProviderGoogle:
		email, ok := params["email"]
		if !ok || email == "" {
			return nil, ErrEmailNotFound
		}
		record.Provider = ProviderGoogle
		record.Email = strings.ToLower(email)

	case ProviderGitHub:
		username, ok := params["username"]
		if !ok || username == "" {
			return nil, ErrUsernameNotFound
		}
		record.Provider = ProviderGitHub
		record.Username = username

	case ProviderLinkedIn:
		username, ok := params["Username"]
		if !ok || username == "" {
			return nil, ErrUsernameNotFound
		}
		record.Provider = ProviderLinkedIn
		record.Username = username

	default:
		record.Provider = ProviderGeneric
		record.Parameters = params
	}

	return record, nil
}

func (b Builder) now() time.Time {
	if b.clock == nil {
		return time.Now()
	}
	return b.clock()
}
