package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-appointments/internal/config"
	"github.com/hackgods/clinic-appointments/internal/logging"
	"github.com/hackgods/clinic-appointments/internal/notification"
	redisclient "github.com/hackgods/clinic-appointments/internal/redis"
	"github.com/hackgods/clinic-appointments/internal/telemetry"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		logging.New("notification-worker", "dev").Error("config load error", "err", err)
		os.Exit(1)
	}

	logger := logging.New("notification-worker", cfg.Env)
	logger.Info("notification-worker starting up",
		"consumer", cfg.Notification.ConsumerName,
		"queue", cfg.Notification.Queue,
		"rate_per_sec", cfg.Notification.RatePerSec,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(rootCtx, cfg.Telemetry.ServiceName+"-worker", cfg.Telemetry.Version, logger)
	if err != nil {
		logger.Error("tracing setup error", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection error", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("error closing redis", "err", err)
		}
	}()
	logger.Info("connected to Redis", "addr", cfg.RedisAddr)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := notification.NewMetrics(registry)
	if err != nil {
		logger.Error("metrics setup error", "err", err)
		os.Exit(1)
	}

	topo := cfg.Notification.Topology()
	consumer := notification.NewConsumer(rdb, topo, notification.NewLogNotifier(logger), notification.ConsumerOptions{
		Name:       cfg.Notification.ConsumerName,
		BatchSize:  cfg.Notification.BatchSize,
		Block:      cfg.Notification.BlockTimeout,
		ClaimIdle:  cfg.Notification.ClaimIdle,
		RatePerSec: cfg.Notification.RatePerSec,
	}, logger, metrics)

	metricsSrv := newMetricsServer(cfg.Notification.MetricsPort, registry, redisclient.Pinger(rdb))
	go func() {
		logger.Info("metrics server listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "err", err)
		}
	}()

	if err := consumer.Run(rootCtx); err != nil {
		logger.Error("notification consumer error", "err", err)
	}

	logger.Info("shutting down notification-worker")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown error", "err", err)
	}
}

func newMetricsServer(port string, registry *prometheus.Registry, redisPing func(context.Context) error) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), time.Second)
		defer cancel()
		if err := redisPing(ctx); err != nil {
			http.Error(w, "redis down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
