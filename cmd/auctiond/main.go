// Package main provides the auctiond daemon: a single-process,
// in-memory multi-user auction server (spec.md §1).
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgehouse/auctiond/internal/audit"
	"github.com/forgehouse/auctiond/internal/auction"
	"github.com/forgehouse/auctiond/internal/command"
	"github.com/forgehouse/auctiond/internal/config"
	"github.com/forgehouse/auctiond/internal/ledger"
	"github.com/forgehouse/auctiond/internal/metrics"
	"github.com/forgehouse/auctiond/internal/monitor"
	"github.com/forgehouse/auctiond/internal/queue"
	"github.com/forgehouse/auctiond/internal/session"
	"github.com/forgehouse/auctiond/internal/transport"
	"github.com/forgehouse/auctiond/internal/worker"
	"github.com/forgehouse/auctiond/pkg/logging"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		port            = flag.Int("port", 0, "TCP port to listen on (default from config, normally 10000)")
		debug           = flag.Bool("debug", false, "Enable verbose (debug) logging")
		fee             = flag.Uint64("fee", 0, "Listing fee (default from config, normally 1)")
		defaultDuration = flag.Duration("default-duration", 0, "Overrides the config's default_duration (not applied to SELL, which defaults to 300s)")
		dataDir         = flag.String("data-dir", "", "Data directory (default from config, normally ~/.auctiond)")
		showVersion     = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("auctiond %s\n", version)
		return 0
	}

	effectiveDataDir := config.DefaultConfig().Storage.DataDir
	if *dataDir != "" {
		effectiveDataDir = *dataDir
	}

	cfg, err := config.LoadConfig(effectiveDataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	cfg.Storage.DataDir = effectiveDataDir

	if *port != 0 {
		if *port < 1 || *port > 65535 {
			fmt.Fprintf(os.Stderr, "invalid --port %d: must be in 1..65535\n", *port)
			return 1
		}
		cfg.Network.Port = *port
	}
	if *fee != 0 {
		cfg.Auction.ListingFee = *fee
	}
	if *defaultDuration != 0 {
		cfg.Auction.DefaultDuration = *defaultDuration
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	log := logging.New(&logging.Config{Level: cfg.Logging.Level, TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	auditLog, err := audit.Open(cfg.Storage.DataDir)
	if err != nil {
		log.Error("failed to open audit log", "error", err)
		return 1
	}
	defer auditLog.Close()

	sessions := session.New()
	book := auction.New()
	ledgerStore := ledger.New()
	taskQueue := queue.New()
	reg := metrics.New()

	cmdCtx := command.Context{
		Ledger:     ledgerStore,
		Sessions:   sessions,
		Book:       book,
		ListingFee: cfg.Auction.ListingFee,
		Audit:      auditLog,
		Metrics:    reg,
	}

	srv, err := transport.Listen(fmt.Sprintf(":%d", cfg.Network.Port), sessions, taskQueue, cmdCtx)
	if err != nil {
		log.Error("failed to bind listener", "error", err)
		return 1
	}
	go srv.Serve()
	log.Info("listening", "addr", srv.Addr().String())

	dispatcher := worker.NewDispatcher(taskQueue, sessions, srv)
	dispatcher.Start()

	expiryWorker := worker.NewExpiryWorker(book, ledgerStore, sessions, taskQueue, auditLog, reg)
	expiryWorker.Start()

	hub := monitor.NewHub()
	go hub.Run()

	// Periodically mirrors live connection/queue depth into the
	// Prometheus gauges; both change on every connect/disconnect and
	// every enqueue/dequeue, far too often to justify pushing from
	// those call sites instead of sampling.
	statsStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-statsStop:
				return
			case <-ticker.C:
				reg.ConnectionsActive.Set(float64(srv.ConnectionCount()))
				reg.TasksQueued.Set(float64(taskQueue.Len()))
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.Handle("/ws", hub)
	httpSrv := &http.Server{Addr: cfg.Network.MetricsAddr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("monitor/metrics server failed", "error", err)
		}
	}()
	log.Info("monitor and metrics listening", "addr", cfg.Network.MetricsAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down", "connections", srv.ConnectionCount())

	close(statsStop)
	httpSrv.Close()
	srv.Close()
	dispatcher.Stop()
	expiryWorker.Stop()

	log.Info("shutdown complete")
	return 0
}
