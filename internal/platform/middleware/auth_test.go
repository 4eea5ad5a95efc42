package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubValidator struct {
	claims *AuthClaims
	err    error
	seen   string
}

func (s *stubValidator) ValidateAccess(tokenString string) (*AuthClaims, error) {
	s.seen = tokenString
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func guard(v TokenValidator) (http.Handler, *string) {
	var gotUser string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &gotUser
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	v := &stubValidator{claims: &AuthClaims{UserID: "acct-1"}}
	h, gotUser := guard(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-123", v.seen)
	assert.Equal(t, "acct-1", *gotUser)
}

func TestRequireAuth_CookieFallback(t *testing.T) {
	v := &stubValidator{claims: &AuthClaims{UserID: "acct-1"}}
	h, _ := guard(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "tok-from-cookie"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-from-cookie", v.seen)
}

func TestRequireAuth_HeaderWinsOverCookie(t *testing.T) {
	v := &stubValidator{claims: &AuthClaims{UserID: "acct-1"}}
	h, _ := guard(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "from-header", v.seen)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	v := &stubValidator{claims: &AuthClaims{UserID: "acct-1"}}
	h, _ := guard(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, v.seen)
	assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid credentials"}`, rec.Body.String())
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	v := &stubValidator{err: errors.New("token is expired")}
	h, gotUser := guard(v)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, *gotUser)
}
