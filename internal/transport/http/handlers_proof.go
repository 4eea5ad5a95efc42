package httptransport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"weaveid/internal/account"
	"weaveid/internal/audit"
	"weaveid/internal/identity"
	"weaveid/internal/platform/middleware"
	"weaveid/internal/storage"
	domainerrors "weaveid/pkg/domain-errors"
)

type proofPrepareRequest struct {
	Proof identity.Proof `json:"proof"`
}

type proofPrepareResponse struct {
	// Data is the base64 identity record the wallet must sign.
	Data   string `json:"data"`
	Signer string `json:"signer"`
}

type proofSubmitRequest struct {
	Proof     identity.Proof `json:"proof"`
	PublicKey string         `json:"public_key"`
	Signature string         `json:"signature"`

	// Data is the base64 record returned by prepare, now wallet-signed. It is
	// re-validated against the proof before anything is anchored.
	Data string `json:"data"`
}

type proofSubmitResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider"`
}

type proofStatsResponse struct {
	Stats []storage.ProviderStat `json:"stats"`
}

// handleProofPrepare validates a proof and returns the identity record bytes
// the wallet must countersign before submission.
func (h *Handler) handleProofPrepare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req proofPrepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	data, _, err := h.recordFromProof(r, &req.Proof)
	if err != nil {
		writeError(w, err)
		return
	}

	// surface duplicates before the client spends a wallet signature
	hash, err := req.Proof.Hash()
	if err != nil {
		writeError(w, err)
		return
	}
	exists, err := h.store.ProofExistsByHash(ctx, hash)
	if err != nil {
		h.logger.ErrorContext(ctx, "proof dedup lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "failed to check proof"))
		return
	}
	if exists {
		h.metrics.ProofConflicts.Inc()
		writeError(w, storage.ErrConflict)
		return
	}

	writeJSON(w, http.StatusOK, proofPrepareResponse{
		Data:   base64.StdEncoding.EncodeToString(data),
		Signer: userID,
	})
}

// handleProofSubmit anchors a countersigned identity record on the ledger and
// marks the proof as applied. The same proof can never be applied twice, by
// anyone.
func (h *Handler) handleProofSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	userID := middleware.GetUserID(ctx)

	var req proofSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PublicKey == "" || req.Signature == "" || req.Data == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "proof, public_key, signature and data are required"))
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "data is not valid base64"))
		return
	}
	var record identity.Record
	if err := json.Unmarshal(data, &record); err != nil {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "data is not a valid identity record"))
		return
	}

	// The signed record must restate exactly what the verified proof says;
	// anything else is a client trying to anchor facts the proof does not
	// back.
	_, expected, err := h.recordFromProof(r, &req.Proof)
	if err != nil {
		writeError(w, err)
		return
	}
	if !record.Matches(expected) {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "signed data does not match the proof"))
		return
	}

	hash, err := req.Proof.Hash()
	if err != nil {
		writeError(w, err)
		return
	}
	rawProof, err := req.Proof.CanonicalBytes()
	if err != nil {
		writeError(w, err)
		return
	}
	var publicData []byte
	if len(req.Proof.PublicData) > 0 {
		publicData, _ = json.Marshal(req.Proof.PublicData)
	}

	// The hash is reserved before the ledger append. The unique index is the
	// only atomic gate, so a concurrent duplicate must lose here, not after it
	// has already anchored an entry.
	if err := h.store.InsertProof(ctx, storage.Proof{
		ProofIdentifier: req.Proof.Identifier,
		UserID:          userID,
		Provider:        string(record.Provider),
		RawProof:        rawProof,
		RawProofHash:    hash,
		PublicData:      publicData,
	}); err != nil {
		if domainerrors.Is(err, domainerrors.CodeConflict) {
			h.metrics.ProofConflicts.Inc()
			writeError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to persist proof",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "failed to persist proof"))
		return
	}

	if _, err := h.accounts.AddSignedData(ctx, account.Credential{
		Signer:    userID,
		PublicKey: req.PublicKey,
		Signature: req.Signature,
		Data:      data,
	}); err != nil {
		// Release the reservation so a corrected submission can still apply
		// this proof.
		if delErr := h.store.DeleteProofByHash(ctx, hash); delErr != nil {
			h.logger.ErrorContext(ctx, "failed to release proof reservation",
				"request_id", requestID,
				"error", delErr.Error(),
			)
		}
		h.logger.WarnContext(ctx, "identity record rejected",
			"request_id", requestID,
			"user_id", userID,
			"provider", string(record.Provider),
			"error", err.Error(),
		)
		h.audit.Emit(audit.Event{
			UserID:   userID,
			Action:   audit.ActionProofApplied,
			Provider: string(record.Provider),
			Outcome:  audit.OutcomeRejected,
			Reason:   err.Error(),
		})
		writeError(w, err)
		return
	}

	h.metrics.ProofsApplied.WithLabelValues(string(record.Provider)).Inc()
	h.audit.Emit(audit.Event{
		UserID:   userID,
		Action:   audit.ActionProofApplied,
		Provider: string(record.Provider),
		Outcome:  audit.OutcomeSuccess,
	})

	writeJSON(w, http.StatusOK, proofSubmitResponse{Success: true, Provider: string(record.Provider)})
}

func (h *Handler) handleProofStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.store.ProofStatsByProvider(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "proof stats query failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "failed to load proof stats"))
		return
	}
	if stats == nil {
		stats = []storage.ProviderStat{}
	}
	writeJSON(w, http.StatusOK, proofStatsResponse{Stats: stats})
}

// recordFromProof runs external verification and derives the identity record.
// It returns the record's canonical JSON, which is what wallets sign and what
// lands on the ledger.
func (h *Handler) recordFromProof(r *http.Request, proof *identity.Proof) ([]byte, *identity.Record, error) {
	ctx := r.Context()

	if err := h.verifier.Verify(ctx, proof); err != nil {
		h.logger.WarnContext(ctx, "proof verification failed",
			"request_id", middleware.GetRequestID(ctx),
			"provider", proof.ClaimData.Provider,
			"error", err.Error(),
		)
		return nil, nil, err
	}

	record, err := h.builder.Build(proof)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, nil, domainerrors.New(domainerrors.CodeInternal, "failed to encode identity record")
	}
	return data, record, nil
}
