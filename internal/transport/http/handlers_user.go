package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"weaveid/internal/platform/middleware"
	domainerrors "weaveid/pkg/domain-errors"
)

// handleMe returns the authenticated user's profile from the ledger.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "user id missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		writeError(w, domainerrors.New(domainerrors.CodeInternal, "authentication context error"))
		return
	}

	h.writeUser(w, r, userID)
}

// handleUserByID returns any user's public profile. Profiles are ledger data
// and therefore world-readable to authenticated callers.
func (h *Handler) handleUserByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, domainerrors.New(domainerrors.CodeBadRequest, "user id is required"))
		return
	}
	h.writeUser(w, r, id)
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	profile, err := h.users.Get(ctx, id)
	if err != nil {
		if !domainerrors.Is(err, domainerrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "profile lookup failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", id,
				"error", err.Error(),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
