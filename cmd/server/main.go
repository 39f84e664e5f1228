package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atelier/internal/audit"
	auditkafka "atelier/internal/audit/kafka"
	"atelier/internal/auth/device"
	authhandler "atelier/internal/auth/handler"
	authservice "atelier/internal/auth/service"
	"atelier/internal/auth/store/revocation"
	httpapi "atelier/internal/http"
	"atelier/internal/jwttoken"
	"atelier/internal/platform/config"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/logger"
	platformmetrics "atelier/internal/platform/metrics"
	"atelier/internal/platform/postgres"
	platformredis "atelier/internal/platform/redis"
	projecthandler "atelier/internal/project/handler"
	projectmetrics "atelier/internal/project/metrics"
	projectservice "atelier/internal/project/service"
	projectstore "atelier/internal/project/store"
	userhandler "atelier/internal/user/handler"
	userservice "atelier/internal/user/service"
	userstore "atelier/internal/user/store"
)

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer func() { _ = db.Close() }()
		log.Info("postgres connected")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		log.Info("redis connected")
	}

	// Revocation list: redis when available, postgres as the shared fallback,
	// process-local memory when neither is configured.
	var trl revocation.TokenRevocationList
	switch {
	case redisClient != nil:
		trl = revocation.NewRedisTRL(redisClient.Client)
	case db != nil:
		trl = revocation.NewPostgresTRL(db)
	default:
		trl = revocation.NewInMemoryTRL()
	}

	var auditPublisher interface {
		Emit(ctx context.Context, event audit.Event) error
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka audit publisher setup failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaPublisher.Close(flushCtx); err != nil {
				log.Error("audit publisher shutdown failed", "error", err)
			}
		}()
		auditPublisher = kafkaPublisher
		log.Info("audit events publishing to kafka", "topic", cfg.KafkaTopic)
	} else {
		auditPublisher = audit.NewPublisher(audit.NewInMemoryStore())
		log.Warn("KAFKA_BROKERS not set, audit events stay in memory")
	}

	var projects projectservice.ProjectStore
	var users userservice.UserStore
	if db != nil {
		projects = projectstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
	} else {
		projects = projectstore.NewInMemory()
		users = userstore.NewInMemory()
	}

	appMetrics := platformmetrics.New()
	accessMetrics := projectmetrics.New()

	tokenService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	devices := device.NewService(cfg.DeviceFingerprinting)

	userSvc := userservice.New(users,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithMetrics(appMetrics),
		userservice.WithBcryptCost(cfg.BcryptCost),
	)
	projectSvc := projectservice.New(projects, userSvc,
		projectservice.WithLogger(log),
		projectservice.WithAuditPublisher(auditPublisher),
		projectservice.WithMetrics(accessMetrics),
	)
	authSvc := authservice.New(userSvc, tokenService, trl, devices,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithMetrics(appMetrics),
		authservice.WithTokenTTL(cfg.TokenTTL),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:            log,
		TokenValidator:    jwttoken.NewJWTServiceAdapter(tokenService),
		RevocationChecker: trl,
		Auth:              authhandler.New(authSvc, log),
		Users:             userhandler.New(userSvc, log),
		Projects:          projecthandler.New(projectSvc, log),
	})

	server := httpserver.New(cfg.Addr, router)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
