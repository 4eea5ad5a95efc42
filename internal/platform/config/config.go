package config

import (
	"os"
	"strings"
	"time"
)

// TokenCarrier selects how tokens travel between the server and clients.
type TokenCarrier string

const (
	CarrierHeader TokenCarrier = "header"
	CarrierCookie TokenCarrier = "cookie"
)

// TokenModel selects whether refresh tokens are issued at all.
type TokenModel string

const (
	ModelSingle TokenModel = "single"
	ModelPair   TokenModel = "pair"
)

// Server captures the whole process configuration. It is loaded once at
// startup and injected into constructors; request-handling code never reads
// the environment.
type Server struct {
	Addr string

	JWTSigningKey   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MaxInactivity   time.Duration
	TokenCarrier    TokenCarrier
	TokenModel      TokenModel

	DatabaseURL string
	RedisURL    string

	ServiceID      string
	ServiceKeySeed string

	VerifierURL string

	CORSOrigins []string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("WEAVEID_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	serviceID := os.Getenv("LEDGER_SERVICE_ID")
	if serviceID == "" {
		serviceID = "weave_service"
	}

	carrier := TokenCarrier(os.Getenv("TOKEN_CARRIER"))
	if carrier != CarrierCookie {
		carrier = CarrierHeader
	}

	model := TokenModel(os.Getenv("TOKEN_MODEL"))
	if model != ModelSingle {
		model = ModelPair
	}

	var origins []string
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		AccessTokenTTL:  durationFromEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: durationFromEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		MaxInactivity:   durationFromEnv("MAX_INACTIVITY", 30*24*time.Hour),
		TokenCarrier:    carrier,
		TokenModel:      model,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ServiceID:       serviceID,
		ServiceKeySeed:  os.Getenv("LEDGER_SERVICE_KEY_SEED"),
		VerifierURL:     os.Getenv("PROOF_VERIFIER_URL"),
		CORSOrigins:     origins,
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
