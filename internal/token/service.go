// Package token issues and validates the access/refresh token pair that
// carries a wallet session. Tokens are HS256 JWTs signed with a process-wide
// secret; the claims embed the token type so an access token can never stand
// in for a refresh token or vice versa.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"weaveid/internal/token/rotation"
	domainerrors "weaveid/pkg/domain-errors"
)

// Type discriminates access tokens from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var (
	ErrMalformed         = domainerrors.New(domainerrors.CodeUnauthorized, "invalid token")
	ErrSignatureInvalid  = domainerrors.New(domainerrors.CodeUnauthorized, "token signature invalid")
	ErrExpired           = domainerrors.New(domainerrors.CodeUnauthorized, "token has expired")
	ErrWrongType         = domainerrors.New(domainerrors.CodeUnauthorized, "invalid token type")
	ErrInactivityTimeout = domainerrors.New(domainerrors.CodeUnauthorized, "session expired due to inactivity")
	ErrAlreadyUsed       = domainerrors.New(domainerrors.CodeUnauthorized, "refresh token already used")
)

// Claims are the claims embedded in every issued token. AuthTime is the
// instant the session first authenticated with a wallet signature; it is
// carried unchanged through every rotation so the inactivity ceiling bounds
// the total age of a session, not the age of its newest refresh token.
type Claims struct {
	TokenType Type  `json:"token_type"`
	AuthTime  int64 `json:"auth_time"`
	jwt.RegisteredClaims
}

// Pair is one access/refresh token pair for UserID. RefreshToken is empty
// when the service runs in single-token mode.
type Pair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Service issues and validates tokens. The signing key is immutable after
// construction.
type Service struct {
	signingKey    []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	maxInactivity time.Duration
	rotation      rotation.Store
	clock         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs a token service.
func NewService(signingKey string, accessTTL, refreshTTL, maxInactivity time.Duration, rot rotation.Store, opts ...Option) *Service {
	s := &Service{
		signingKey:    []byte(signingKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		maxInactivity: maxInactivity,
		rotation:      rot,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuePair mints a fresh access/refresh pair for subject, starting a new
// session: auth_time is set to now.
func (s *Service) IssuePair(subject string) (*Pair, error) {
	return s.issuePair(subject, s.clock())
}

func (s *Service) issuePair(subject string, authTime time.Time) (*Pair, error) {
	access, err := s.issue(subject, TypeAccess, authTime)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(subject, TypeRefresh, authTime)
	if err != nil {
		return nil, err
	}
	return &Pair{UserID: subject, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) issue(subject string, typ Type, authTime time.Time) (string, error) {
	now := s.clock()
	ttl := s.accessTTL
	if typ == TypeRefresh {
		ttl = s.refreshTTL
	}
	claims := Claims{
		TokenType: typ,
		AuthTime:  authTime.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", domainerrors.New(domainerrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Verify parses and validates a token and enforces its type.
func (s *Service) Verify(tokenString string, expected Type) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithTimeFunc(s.clock))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.TokenType != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}

// Refresh exchanges a refresh token for a brand-new pair. The old refresh
// token becomes unusable (rotation), and sessions dormant longer than the
// inactivity ceiling are rejected even if the token itself has not expired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Pair, error) {
	claims, err := s.Verify(refreshToken, TypeRefresh)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if now.Sub(time.Unix(claims.AuthTime, 0)) > s.maxInactivity {
		return nil, ErrInactivityTimeout
	}

	ttl := claims.ExpiresAt.Time.Sub(now)
	if ttl <= 0 {
		ttl = time.Minute
	}
	used, err := s.rotation.MarkUsed(ctx, claims.ID, ttl)
	if err != nil {
		return nil, domainerrors.New(domainerrors.CodeUnavailable, "rotation store unavailable")
	}
	if used {
		return nil, ErrAlreadyUsed
	}

	return s.issuePair(claims.Subject, time.Unix(claims.AuthTime, 0))
}
