package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hackgods/clinic-appointments/internal/api"
	"github.com/hackgods/clinic-appointments/internal/appointment"
	"github.com/hackgods/clinic-appointments/internal/config"
	"github.com/hackgods/clinic-appointments/internal/db"
	"github.com/hackgods/clinic-appointments/internal/logging"
	"github.com/hackgods/clinic-appointments/internal/notification"
	redisclient "github.com/hackgods/clinic-appointments/internal/redis"
	"github.com/hackgods/clinic-appointments/internal/telemetry"
	"github.com/hackgods/clinic-appointments/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("api-server", "dev").Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New("api-server", cfg.Env)
	logger.Info("api-server starting up", "http_port", cfg.HTTPPort, "store_driver", cfg.StoreDriver)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(rootCtx, cfg.Telemetry.ServiceName, cfg.Telemetry.Version, logger)
	if err != nil {
		logger.Error("tracing setup error", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing shutdown error", "err", err)
		}
	}()

	var (
		store   appointment.Store
		users   user.Resolver
		pgCheck api.PingFunc
	)

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			logger.Error("postgres connection error", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		logger.Info("connected to Postgres")

		sqlDB := db.OpenSQL(pgPool)
		defer sqlDB.Close()

		if err := db.Migrate(rootCtx, sqlDB, logger); err != nil {
			logger.Error("schema migration error", "err", err)
			os.Exit(1)
		}

		store = appointment.NewSQLStore(sqlDB)
		users = user.NewSQLResolver(sqlDB)
		pgCheck = sqlPinger(sqlDB)

	case config.StoreDriverMemory:
		store = appointment.NewMemStore(nil)
		users = demoDirectory(logger)
		logger.Warn("using in-memory store, data is lost on restart")
	}

	// The API starts even when Redis is down; publishing then fails and is
	// logged per event, and readiness reports "degraded".
	rdb := redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "err", err)
		}
	}()
	pingCtx, cancelPing := context.WithTimeout(rootCtx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, notifications will be dropped", "addr", cfg.RedisAddr, "err", err)
	} else {
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
	}
	cancelPing()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	notifyMetrics, err := notification.NewMetrics(registry)
	if err != nil {
		logger.Error("metrics setup error", "err", err)
		os.Exit(1)
	}

	topo := cfg.Notification.Topology()
	publisher := notification.NewPublisher(rdb, topo, notification.PublisherOptions{
		Timeout: cfg.Notification.PublishTimeout,
		MaxLen:  cfg.Notification.StreamMaxLen,
	}, logger, notifyMetrics)

	svc := appointment.NewService(store, users, publisher, logger)

	handler, err := api.NewRouter(api.RouterConfig{
		Service:       svc,
		Logger:        logger,
		Registry:      registry,
		PostgresCheck: pgCheck,
		RedisCheck:    redisclient.Pinger(rdb),
		ServiceName:   cfg.Telemetry.ServiceName,
		Env:           cfg.Env,
		Version:       cfg.Telemetry.Version,
	})
	if err != nil {
		logger.Error("router setup error", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		logger.Error("http server error", "err", err)
	}

	logger.Info("shutting down api-server", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}
}

func sqlPinger(sqlDB *sql.DB) api.PingFunc {
	return func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	}
}

// demoDirectory fills the in-memory identity directory with fake doctors and
// patients so the memory driver is usable without a database.
func demoDirectory(logger *slog.Logger) *user.Directory {
	f := gofakeit.New(0)
	dir := user.NewDirectory()

	for i := 0; i < 5; i++ {
		d := user.FakeDoctor(f)
		dir.Put(d)
		logger.Info("demo doctor", "id", d.ID, "name", d.FullName, "specialty", *d.Specialty)
	}
	for i := 0; i < 20; i++ {
		p := user.FakePatient(f)
		dir.Put(p)
		logger.Info("demo patient", "id", p.ID, "name", p.FullName, "email", p.Email)
	}
	return dir
}
