package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ETAnderson/gatehouse/internal/admin"
	"github.com/ETAnderson/gatehouse/internal/api/auth"
	"github.com/ETAnderson/gatehouse/internal/api/handlers"
	"github.com/ETAnderson/gatehouse/internal/api/middleware"
	"github.com/ETAnderson/gatehouse/internal/config"
	"github.com/ETAnderson/gatehouse/internal/event"
	"github.com/ETAnderson/gatehouse/internal/gate"
	"github.com/ETAnderson/gatehouse/internal/kv"
	"github.com/ETAnderson/gatehouse/internal/logging"
	"github.com/ETAnderson/gatehouse/internal/migrate"
	"github.com/ETAnderson/gatehouse/internal/pipeline"
	"github.com/ETAnderson/gatehouse/internal/reply"
	"github.com/ETAnderson/gatehouse/internal/retry"
	"github.com/ETAnderson/gatehouse/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := logging.New("gatehouse-api", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factoryRes, err := kv.NewStore(ctx, kv.FactoryConfig{
		Backend:       cfg.KVBackend,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		MySQLDSN:      cfg.MySQLDSN,
	})
	if err != nil {
		logger.Error("kv backend init failed", "backend", cfg.KVBackend, "error", err)
		os.Exit(1)
	}

	if factoryRes.DB != nil && cfg.RunMigrations {
		if err := migrate.Apply(ctx, factoryRes.DB, os.DirFS("migrations")); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	// The fallback is constructed once per process and injected; both
	// gates share it so a degrade window sees one consistent view.
	fallback := kv.NewMemoryStore()

	idem := gate.NewIdempotencyGate(factoryRes.Store, fallback, logger)
	cooldown := gate.NewCooldownGate(factoryRes.Store, fallback, logger)

	poster := reply.Poster{
		BaseURL: cfg.ReplyBaseURL,
		Token:   cfg.ReplyToken,
	}

	pipe := &pipeline.Pipeline{
		Idempotency: idem,
		Cooldown:    cooldown,
		Retry: retry.Client{
			Attempts:  cfg.RetryAttempts,
			BaseDelay: cfg.RetryBaseDelay,
			Logger:    logger,
		},
		Action: func(ctx context.Context, e event.Event, idempotencyKey string) error {
			return poster.Post(ctx, e.ThreadID, cfg.ReplyText, idempotencyKey)
		},
		Logger:         logger,
		DedupeTTL:      cfg.DedupeTTL,
		CooldownWindow: cfg.CooldownWindow,
	}

	pool := worker.NewPool(pipe, cfg.QueueSize, cfg.WorkerConcurrency, logger)
	go func() {
		if err := pool.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("worker pool stopped", "error", err)
		}
	}()

	override := admin.Override{
		Primary:  factoryRes.Store,
		Fallback: fallback,
		Logger:   logger,
	}

	var adminAuth middleware.AuthMiddleware
	adminAuth.Env = cfg.Env
	if pub, err := auth.LoadRSAPublicKeyFromEnv("JWT_PUBLIC_KEY_PEM"); err == nil {
		adminAuth.PublicKey = pub
	} else if cfg.Env != "dev" {
		logger.Error("admin auth key missing", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.Handle("/v1/webhooks/events", handlers.WebhookHandler{
		Queue:     pool,
		Logger:    logger,
		SelfAppID: cfg.SelfAppID,
	})

	dedupeAdmin := adminAuth
	dedupeAdmin.Next = handlers.AdminDedupeKeysHandler{Override: override, Logger: logger}
	mux.Handle("/v1/admin/dedupe-keys/", dedupeAdmin)

	cooldownAdmin := adminAuth
	cooldownAdmin.Next = handlers.AdminCooldownsHandler{
		Override: override,
		Cooldown: cooldown,
		Logger:   logger,
	}
	mux.Handle("/v1/admin/cooldowns/", cooldownAdmin)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting",
			"env", cfg.Env,
			"addr", server.Addr,
			"kv_backend", cfg.KVBackend,
			"cooldown_ms", cfg.CooldownWindow.Milliseconds(),
		)

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(logger, server, cancel, pool)

	if factoryRes.DB != nil {
		_ = factoryRes.DB.Close()
	}
	if factoryRes.Redis != nil {
		_ = factoryRes.Redis.Close()
	}
}

func waitForShutdown(logger interface{ Info(string, ...any) }, server *http.Server, cancel context.CancelFunc, pool *worker.Pool) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("shutdown signal received")

	// Stop accepting new deliveries first, then give the pool a moment
	// to drain what was already queued.
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = server.Shutdown(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for pool.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	logger.Info("shutdown complete")
}
