// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and keep transport concerns (decoding, cookies, status mapping)
// out of the domain packages.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weaveid/internal/account"
	"weaveid/internal/audit"
	"weaveid/internal/identity"
	"weaveid/internal/ledger"
	"weaveid/internal/platform/config"
	"weaveid/internal/platform/metrics"
	"weaveid/internal/platform/middleware"
	"weaveid/internal/storage"
	"weaveid/internal/token"
	"weaveid/internal/user"
	domainerrors "weaveid/pkg/domain-errors"
)

// AccountService covers the ledger-backed account operations handlers need.
type AccountService interface {
	PrepareRegistration(ctx context.Context, signerID, publicKey string) ([]byte, error)
	Register(ctx context.Context, cred account.Credential) (*ledger.Account, error)
	AddSignedData(ctx context.Context, cred account.Credential) (*ledger.Account, error)
}

// TokenService issues and rotates session tokens.
type TokenService interface {
	IssuePair(subject string) (*token.Pair, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Pair, error)
}

// UserService resolves the public profile view of an account.
type UserService interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// Handler holds the wired dependencies for all endpoints.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      config.Server
	accounts AccountService
	tokens   TokenService
	users    UserService
	store    storage.Store
	verifier identity.Verifier
	builder  identity.Builder
	audit    *audit.Publisher
}

func NewHandler(
	cfg config.Server,
	accounts AccountService,
	tokens TokenService,
	users UserService,
	store storage.Store,
	verifier identity.Verifier,
	auditPub *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:   logger,
		metrics:  m,
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		users:    users,
		store:    store,
		verifier: verifier,
		builder:  identity.NewBuilder(),
		audit:    auditPub,
	}
}

// NewRouter wires all endpoints behind the shared middleware chain. Proof and
// profile routes require a valid access token.
func NewRouter(h *Handler, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Latency(h.metrics))
	if len(h.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Post("/auth/prepare", h.handleAuthPrepare)
	r.Post("/auth", h.handleAuth)
	r.Post("/auth/refresh", h.handleRefresh)
	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, h.logger))
		r.Post("/proof/prepare", h.handleProofPrepare)
		r.Post("/proof", h.handleProofSubmit)
		r.Get("/proof-stats", h.handleProofStats)
		r.Get("/me", h.handleMe)
		r.Get("/user/{id}", h.handleUserByID)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := domainerrors.ToHTTPStatus(domainerrors.CodeOf(err))
	message := "internal server error"
	var derr domainerrors.Error
	if errors.As(err, &derr) {
		message = derr.Message
	}
	writeJSON(w, status, map[string]any{
		"error":   message,
		"code":    string(domainerrors.CodeOf(err)),
		"success": false,
	})
}
