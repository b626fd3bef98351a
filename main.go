package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"agrimart/admin"
	"agrimart/auth"
	"agrimart/catalog"
	"agrimart/clients"
	"agrimart/config"
	"agrimart/db"
	"agrimart/docstore"
	"agrimart/handlers"
	"agrimart/hub"
	"agrimart/messaging"
	"agrimart/metrics"
	"agrimart/middleware"
	"agrimart/orders"
	"agrimart/ratelim"
	"agrimart/rdx"
	"agrimart/receipts"
	"agrimart/routes"
	"agrimart/session"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

const (
	sweepInterval = 5 * time.Minute
	startTimeout  = 30 * time.Second
)

// app holds everything main has to release on shutdown.
type app struct {
	handler  http.Handler
	hub      *hub.Hub
	registry *clients.Registry
	closers  []func() error
}

func (a *app) close(logger *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	var notifier docstore.Notifier
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		rc, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		redisClient = rc
		n := rdx.NewNotifier(rc, logger)
		notifier = n
		a.closers = append(a.closers, rc.Close, n.Close)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}

	var docs docstore.Store
	switch cfg.Store {
	case config.StoreMemory:
		docs = docstore.NewMemoryStore(notifier, logger)
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		if notifier == nil {
			notifier = docstore.NewLocalNotifier()
		}
		client, err := db.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { return client.Disconnect(context.Background()) })
		database := client.Database(cfg.MongoDB)
		if err := db.EnsureIndexes(ctx, database); err != nil {
			return nil, err
		}
		docs = docstore.NewMongoStore(database, notifier, logger)
		logger.Info("mongo connected", "db", cfg.MongoDB)
	}

	products := catalog.New(docs, logger)
	if cfg.SeedCatalog {
		if _, err := products.Seed(ctx); err != nil {
			return nil, err
		}
	}

	var publisher orders.Publisher = orders.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		p := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = p
		a.closers = append(a.closers, p.Close)
		logger.Info("publishing domain events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	m := metrics.New()
	orderSvc := orders.NewService(docs, publisher, m, logger)
	authSvc := auth.NewService(docs, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)

	var newCache clients.CacheFactory
	if redisClient != nil {
		newCache = func(sessionID string) session.Cache {
			return rdx.NewCache(redisClient, sessionID, cfg.AccessTokenTTL)
		}
	}
	a.registry = clients.NewRegistry(authSvc, docs, newCache, logger).
		WithAdmins(cfg.AdminEmails).
		WithAnonymousIdle(cfg.AnonSessionTTL)

	a.hub = hub.New(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(cfg.CORSOrigins, origin)
	}, logger)

	h := handlers.New(handlers.Deps{
		Tokens:   tokens,
		Catalog:  products,
		Orders:   orderSvc,
		Reviewer: admin.NewReviewer(orderSvc),
		Receipts: receipts.NewRenderer(cfg.JWTSecret),
		Metrics:  m,
		Hub:      a.hub,
		Logger:   logger,
	})

	router := httprouter.New()
	routes.RoutesWrapper(router, h,
		middleware.New(tokens, a.registry, logger).LimitSessions(ratelim.NewRateLimiter(cfg.SessionRatePerMin)),
		ratelim.NewRateLimiter(cfg.AuthRatePerMin),
		m.Handler(),
	)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders:   []string{middleware.TokenHeader},
		AllowCredentials: true,
	}).Handler(router)
	a.handler = middleware.Logging(logger)(middleware.SecurityHeaders(corsHandler))
	return a, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), startTimeout)
	a, err := build(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.close(logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go a.registry.Run(sweepCtx, sweepInterval, cfg.AccessTokenTTL)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           a.handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// on shutdown: close live connections and client sessions
	server.RegisterOnShutdown(func() {
		a.hub.Stop()
		a.registry.Close()
	})

	go func() {
		logger.Info("server listening", "addr", cfg.Port, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received; shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped cleanly")
}
