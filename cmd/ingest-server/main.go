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

	"github.com/Guinness96/drone-sim/internal/ingest"
	"github.com/Guinness96/drone-sim/internal/logging"
	"github.com/Guinness96/drone-sim/internal/observability"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewIngestCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to register metrics", logging.Any("error", err))
		os.Exit(1)
	}

	store := ingest.NewStore(metrics)
	server := ingest.NewServer(store, log, metrics, nil)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "server shutdown failed", logging.Any("error", err))
		}
	}()

	log.Info(ctx, "ingest server listening", logging.String("addr", *addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server error", logging.Any("error", err))
		os.Exit(1)
	}
	log.Info(ctx, "ingest server stopped")
}
