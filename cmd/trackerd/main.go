package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urduaiorg/tracker/internal/config"
	"github.com/urduaiorg/tracker/internal/export"
	"github.com/urduaiorg/tracker/internal/ingest"
	"github.com/urduaiorg/tracker/internal/ocr"
	"github.com/urduaiorg/tracker/internal/server"
	"github.com/urduaiorg/tracker/internal/sheet"
	"github.com/urduaiorg/tracker/internal/store"
	"github.com/urduaiorg/tracker/internal/tracker"
	"github.com/urduaiorg/tracker/internal/upload"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := tracker.NewStore(logger)
	metrics := store.NewAnalyticsStore(logger)
	brand := store.NewBrandStore()

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Pdftotext:           cfg.OCR.Pdftotext,
		Language:            cfg.OCR.Language,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
	}, logger)

	ctrl := upload.NewController(
		jobs, metrics,
		extractor,
		extractor,
		sheet.NewParser(logger),
		logger,
		upload.WithTimeout(cfg.Pipeline.JobTimeout),
		upload.WithMaxConcurrent(cfg.Pipeline.Workers),
		upload.WithLanguage(cfg.OCR.Language),
	)

	if len(cfg.Watch.Roots) > 0 {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Watch.Roots,
			InitialScan: cfg.Watch.InitialScan,
			Debounce:    cfg.Watch.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start drop-directory watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			for {
				select {
				case path, ok := <-events:
					if !ok {
						return
					}
					submitPath(ctrl, logger, path)
				case werr, ok := <-errs:
					if !ok {
						return
					}
					logger.Warn("watcher error", "error", werr)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		SpoolDir: cfg.Pipeline.SpoolDir,
	}, ctrl, jobs, metrics, brand, export.NewService(metrics, brand, logger), logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down, draining jobs")
	ctrl.Wait()
}

func submitPath(ctrl *upload.Controller, logger *slog.Logger, path string) {
	fi, err := os.Stat(path)
	if err != nil {
		logger.Warn("dropped file vanished before submit", "path", path, "error", err)
		return
	}
	if _, err := ctrl.Submit(upload.FileInput{
		Name: fi.Name(),
		Size: fi.Size(),
		Path: path,
	}); err != nil {
		logger.Error("failed to submit dropped file", "path", path, "error", err)
	}
}
