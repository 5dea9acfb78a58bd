package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mngkeeper/internal/audit"
	"mngkeeper/internal/auth"
	"mngkeeper/internal/domain/metrics"
	domainservice "mngkeeper/internal/domain/service"
	domainstore "mngkeeper/internal/domain/store"
	"mngkeeper/internal/events"
	"mngkeeper/internal/group"
	"mngkeeper/internal/keycloak"
	"mngkeeper/internal/platform/config"
	"mngkeeper/internal/platform/health"
	"mngkeeper/internal/platform/logger"
	"mngkeeper/internal/platform/mongo"
	"mngkeeper/internal/platform/rabbitmq"
	"mngkeeper/internal/platform/redis"
	"mngkeeper/internal/session"
	"mngkeeper/internal/transport/http/api"
	"mngkeeper/internal/user"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	log.Info("initializing mngkeeper",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	mongoClient, err := mongo.New(cfg.Mongo)
	if err != nil {
		log.Error("mongo init failed", "error", err)
		os.Exit(1)
	}
	if mongoClient == nil {
		log.Error("MONGO_URI is required")
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Close(ctx) //nolint:errcheck // best-effort on shutdown
	}()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient == nil {
		log.Error("REDIS_URL is required")
		os.Exit(1)
	}
	defer redisClient.Close() //nolint:errcheck

	broker, err := rabbitmq.New(cfg.RabbitMQ, log)
	if err != nil {
		log.Error("rabbitmq init failed", "error", err)
		os.Exit(1)
	}
	if broker == nil {
		log.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}
	defer broker.Close() //nolint:errcheck

	kc := keycloak.NewClient(cfg.Keycloak, keycloak.WithLogger(log))

	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
	defer cancelInit()

	domainStore, err := domainstore.NewMongoStore(initCtx, mongoClient.Database())
	if err != nil {
		log.Error("domain store init failed", "error", err)
		os.Exit(1)
	}
	userStore, err := user.NewMongoStore(initCtx, mongoClient.Database())
	if err != nil {
		log.Error("user store init failed", "error", err)
		os.Exit(1)
	}
	groupStore, err := group.NewMongoStore(initCtx, mongoClient.Database())
	if err != nil {
		log.Error("group store init failed", "error", err)
		os.Exit(1)
	}

	notifier := events.NewNotifier(broker, events.WithNotifierLogger(log))

	recorder := audit.NewRecorder(audit.NewMongoStore(mongoClient.Database()),
		audit.WithLogger(log))
	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	defer cancelConsume()
	if err := broker.Subscribe(consumeCtx, audit.Queue, audit.BindingKey, recorder.Handle); err != nil {
		log.Error("audit consumer init failed", "error", err)
		os.Exit(1)
	}

	domains := domainservice.NewService(domainStore, kc, mongoClient, notifier,
		domainservice.WithLogger(log),
		domainservice.WithMetrics(metrics.New()),
	)
	users := user.NewService(userStore, domains, kc, notifier, user.WithLogger(log))
	groups := group.NewService(groupStore, domains, users, kc, notifier, group.WithLogger(log))

	sessions := session.NewStore(session.NewRedisCache(redisClient, cfg.Redis.KeyPrefix),
		session.WithLogger(log),
		session.WithDefaultTTL(cfg.Session.DefaultTTL),
		session.WithSlidingExpiry(cfg.Session.SlidingExpiry, cfg.Session.SlidingTTL),
	)

	authSvc := auth.NewService(domains, kc, sessions, auth.WithLogger(log))

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("mongo", dependencyCheck(mongoClient.Health))
	healthHandler.RegisterCheck("redis", dependencyCheck(redisClient.Health))
	healthHandler.RegisterCheck("rabbitmq", dependencyCheck(broker.Health))

	router := api.NewRouter(api.Dependencies{
		Logger:        log,
		Health:        healthHandler,
		Auth:          api.NewAuthHandler(authSvc),
		Domains:       api.NewDomainHandler(domains),
		Users:         api.NewUserHandler(users),
		Groups:        api.NewGroupHandler(groups),
		ValidateToken: kc.ValidateToken,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopStats := make(chan struct{})
	go poolStatsLoop(redisClient, stopStats)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	close(stopStats)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// dependencyCheck bounds a client health probe so a hung backend cannot stall
// the readiness endpoint.
func dependencyCheck(probe func(ctx context.Context) error) health.CheckFunc {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return probe(ctx)
	}
}

// poolStatsLoop publishes Redis connection pool statistics until stop closes.
func poolStatsLoop(client *redis.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			client.RecordPoolStats()
		}
	}
}
