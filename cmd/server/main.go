package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"weaveid/internal/account"
	"weaveid/internal/audit"
	"weaveid/internal/identity"
	"weaveid/internal/ledger"
	"weaveid/internal/platform/config"
	"weaveid/internal/platform/httpserver"
	"weaveid/internal/platform/logger"
	"weaveid/internal/platform/metrics"
	platformredis "weaveid/internal/platform/redis"
	"weaveid/internal/storage"
	"weaveid/internal/token"
	"weaveid/internal/token/rotation"
	httptransport "weaveid/internal/transport/http"
	"weaveid/internal/user"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Token rotation: Redis when configured, in-memory otherwise.
	var rotStore rotation.Store = rotation.NewMemoryStore()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		rotStore = rotation.NewRedisStore(redisClient.Client)
		defer redisClient.Close()
		log.Info("using redis rotation store")
	}

	// Storage: Postgres when configured, in-memory otherwise.
	var store storage.Store = storage.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		db, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		store = storage.NewPostgresStore(db)
		log.Info("using postgres store")
	}

	seed, err := serviceKeySeed(cfg.ServiceKeySeed)
	if err != nil {
		return err
	}
	signer, err := ledger.NewServiceSigner(cfg.ServiceID, seed)
	if err != nil {
		return err
	}

	var proofVerifier identity.Verifier = identity.StaticVerifier{}
	if cfg.VerifierURL != "" {
		proofVerifier = identity.NewHTTPVerifier(cfg.VerifierURL)
	} else {
		log.Warn("no proof verifier configured, accepting all structurally valid proofs")
	}

	ledgerClient := ledger.NewMemory(signer.PublicKey())
	accounts := account.NewService(ledgerClient, signer, log)
	tokens := token.NewService(cfg.JWTSigningKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.MaxInactivity, rotStore)
	users := user.NewService(ledgerClient, log)

	auditPub := audit.NewPublisher(256)
	auditWorker := audit.NewWorker(audit.NewMemoryStore(), auditPub)

	handler := httptransport.NewHandler(cfg, accounts, tokens, users, store, proofVerifier, auditPub, m, log)
	router := httptransport.NewRouter(handler, token.NewServiceAdapter(tokens))
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting weaveid", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// serviceKeySeed decodes the configured hex seed, or generates an ephemeral
// one so development instances start without any setup. Ephemeral keys mean
// ledger accounts do not survive a restart; production must set the seed.
func serviceKeySeed(hexSeed string) ([]byte, error) {
	if hexSeed != "" {
		seed, err := hex.DecodeString(hexSeed)
		if err != nil {
			return nil, errors.New("service key seed must be hex encoded")
		}
		return seed, nil
	}
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}
