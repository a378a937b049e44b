package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"impact-platform/internal/audit"
	"impact-platform/internal/auth"
	"impact-platform/internal/catalog"
	"impact-platform/internal/config"
	"impact-platform/internal/events"
	"impact-platform/internal/giftcard"
	"impact-platform/internal/httpapi"
	"impact-platform/internal/ledger"
	"impact-platform/internal/pricing"
	"impact-platform/internal/reporting"
	"impact-platform/internal/wallet"
	"impact-platform/pkg/logger"
	"impact-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Domain wiring. Every service talks Postgres through the same *sqlx.DB
	// pool; the ledger additionally spans catalog, gift codes and wallets
	// inside one transaction per request.
	oracle := pricing.NewOracle(pricing.NewPostgresStore(db), rdb, time.Minute)

	var publisher ledger.Publisher
	if w := events.NewKafkaWriter(cfg.Kafka); w != nil {
		defer w.Close()
		publisher = events.NewPublisher(w, log)
		log.Info("event publishing enabled", "topic", cfg.Kafka.Topic)
	} else {
		log.Info("event publishing disabled")
	}

	ledgerManager := ledger.NewManager(ledger.NewPostgresStore(db), oracle, publisher)
	walletService := wallet.NewService(wallet.NewPostgresStore(db), oracle)
	issuer := giftcard.NewIssuer(giftcard.NewPostgresStore(db), catalog.NewPostgresRepo(db))
	reports := reporting.NewService(reporting.NewPostgresRepo(db))
	auditService := audit.NewService(audit.NewPostgresRepo(db))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:      authManager,
		Ledger:    ledgerManager,
		Wallets:   walletService,
		Pricing:   oracle,
		GiftCards: issuer,
		Reports:   reports,
		Audit:     auditService,
		DB:        db,
	}
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
