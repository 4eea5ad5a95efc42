package httptransport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"weaveid/internal/account"
	"weaveid/internal/audit"
	"weaveid/internal/platform/config"
	"weaveid/internal/platform/middleware"
	"weaveid/internal/storage"
	"weaveid/internal/token"
	domainerrors "weaveid/pkg/domain-errors"
)

const refreshTokenCookie = "refresh_token"

type prepareAuthRequest struct {
	Signer    string `json:"signer"`
	PublicKey string `json:"public_key"`
}

type prepareResponse struct {
	// Data is the base64 payload the wallet must sign.
	Data string `json:"data"`
}

type authRequest struct {
	Signer    string `json:"signer"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Success      bool   `json:"success"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// handleAuthPrepare returns the unsigned registration transaction bytes for a
// wallet. The same input always yields the same bytes, so clients may retry.
func (h *Handler) handleAuthPrepare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req prepareAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Signer == "" || req.PublicKey == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "signer and public_key are required"))
		return
	}

	data, err := h.accounts.PrepareRegistration(ctx, req.Signer, req.PublicKey)
	if err != nil {
		h.logger.WarnContext(ctx, "registration prepare failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prepareResponse{Data: base64.StdEncoding.EncodeToString(data)})
}

// handleAuth verifies the wallet's signature over the registration
// transaction, anchors the account if it is new, and starts a session.
func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Signer == "" || req.PublicKey == "" || req.Signature == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "signer, public_key and signature are required"))
		return
	}

	acct, err := h.accounts.Register(ctx, account.Credential{
		Signer:    req.Signer,
		PublicKey: req.PublicKey,
		Signature: req.Signature,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "wallet authentication failed",
			"request_id", requestID,
			"signer", req.Signer,
			"error", err.Error(),
		)
		h.audit.Emit(audit.Event{
			UserID:  req.Signer,
			Action:  audit.ActionWalletLogin,
			Outcome: audit.OutcomeRejected,
			Reason:  err.Error(),
		})
		writeError(w, err)
		return
	}

	if err := h.store.InsertUser(ctx, storage.User{ID: acct.ID, PublicKey: req.PublicKey}); err != nil {
		h.logger.ErrorContext(ctx, "failed to persist user",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "failed to persist user"))
		return
	}

	pair, err := h.tokens.IssuePair(acct.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens",
			"request_id", requestID,
			"error", err.Error(),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "failed to issue tokens"))
		return
	}

	h.metrics.WalletLogins.Inc()
	h.audit.Emit(audit.Event{
		UserID:  acct.ID,
		Action:  audit.ActionWalletLogin,
		Outcome: audit.OutcomeSuccess,
	})

	h.respondTokens(w, acct.ID, pair)
}

// handleRefresh rotates a refresh token into a fresh pair. The old token is
// consumed: presenting it twice fails the second time.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refreshToken := h.extractRefreshToken(r)
	if refreshToken == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "refresh token is required"))
		return
	}

	pair, err := h.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		h.audit.Emit(audit.Event{
			Action:  audit.ActionTokenRefresh,
			Outcome: audit.OutcomeRejected,
			Reason:  err.Error(),
		})
		writeError(w, err)
		return
	}

	h.metrics.TokenRefreshes.Inc()
	h.audit.Emit(audit.Event{
		UserID:  pair.UserID,
		Action:  audit.ActionTokenRefresh,
		Outcome: audit.OutcomeSuccess,
	})
	h.respondTokens(w, pair.UserID, pair)
}

// extractRefreshToken looks in the JSON body first, then the refresh cookie.
func (h *Handler) extractRefreshToken(r *http.Request) string {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// respondTokens emits the session pair according to the configured carrier
// and model. In cookie mode tokens travel only as cookies; in single-token
// mode no refresh token leaves the server at all.
func (h *Handler) respondTokens(w http.ResponseWriter, userID string, pair *token.Pair) {
	resp := tokenResponse{Success: true, UserID: userID}

	includeRefresh := h.cfg.TokenModel != config.ModelSingle

	switch h.cfg.TokenCarrier {
	case config.CarrierCookie:
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AccessTokenCookie,
			Value:    pair.AccessToken,
			Path:     "/",
			MaxAge:   int(h.cfg.AccessTokenTTL.Seconds()),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
		if includeRefresh {
			http.SetCookie(w, &http.Cookie{
				Name:     refreshTokenCookie,
				Value:    pair.RefreshToken,
				Path:     "/auth/refresh",
				MaxAge:   int(h.cfg.RefreshTokenTTL.Seconds()),
				HttpOnly: true,
				Secure:   true,
				SameSite: http.SameSiteStrictMode,
			})
		}
	default:
		resp.AccessToken = pair.AccessToken
		if includeRefresh {
			resp.RefreshToken = pair.RefreshToken
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
