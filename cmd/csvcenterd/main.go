package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/common"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/export"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/llm/gemini"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/metrics"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/pipeline"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/repository"
	"github.com/KaitoS828/sappuri-CSVcenter/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, err := repository.NewSnapshotStore(cfg.Snapshot.Path, logger)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err, "path", cfg.Snapshot.Path)
		os.Exit(1)
	}
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Warn("snapshot store close error", "error", err)
		}
	}()

	store := record.NewStore(snapshots.Load(), snapshots, logger)

	m := metrics.New()
	m.SetRecordsHeld(store.Len())

	extractor := gemini.NewClient(gemini.Config{
		APIKey:        cfg.Gemini.APIKey,
		BaseURL:       cfg.Gemini.BaseURL,
		Model:         cfg.Gemini.Model,
		FallbackModel: cfg.Gemini.FallbackModel,
		Timeout:       cfg.Gemini.Timeout,
	}, logger)

	orch := pipeline.NewOrchestrator(extractor, store, m, logger)
	exporter := export.NewService(logger)

	router := chi.NewRouter()
	handler := server.NewHandler(orch, store, exporter, logger)
	handler.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	logger.Info("csvcenterd listening",
		"addr", cfg.Server.Addr,
		"model", cfg.Gemini.Model,
		"fallback_model", cfg.Gemini.FallbackModel,
		"records_loaded", store.Len(),
	)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
