package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"helpline-scheduler/config"
	"helpline-scheduler/logger"
	"helpline-scheduler/metrics"
	"helpline-scheduler/server"
	"helpline-scheduler/store"
)

func main() {
	// Define flags; flags override environment configuration.
	addr := flag.String("addr", "", "Listen address for the API server (overrides LISTEN_ADDR)")
	dbPath := flag.String("db", "", "Path to the SQLite database file (overrides DB_PATH)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to on shutdown (e.g., http://localhost:9091)")
	logDir := flag.String("log-dir", "", "Directory for rotating log files (default: stderr only)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logg, err := logger.New(logger.Config{Debug: *debug, LogDir: *logDir})
	if err != nil {
		// Logger is not up yet; nothing better to report with.
		os.Exit(1)
	}

	cfg := config.Load()
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if cfg.AdminPassword == "" {
		logg.Warn("ADMIN_PASSWORD not set; admin operations are disabled")
	}

	st := store.New(cfg.DBPath, logg)
	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		logg.Fatal("failed to open database", "path", cfg.DBPath, "err", err)
	}
	defer st.Close()

	// Start metrics server if address provided
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logg.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logg.Error("metrics server error", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(st, cfg, logg).Handler(),
	}

	go func() {
		logg.Info("api server listening", "addr", cfg.ListenAddr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("api server error", "err", err)
		}
	}()

	// Wait for interrupt signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", "err", err)
	}

	if *pushGateway != "" {
		if err := push.New(*pushGateway, "helpline_scheduler").Gatherer(metrics.Registry).Push(); err != nil {
			logg.Error("failed to push metrics to Pushgateway", "err", err)
		} else {
			logg.Info("metrics pushed to Pushgateway")
		}
	}
}
