// Command tracker is the command-line companion to trackerd: it runs
// the extraction pipeline directly against local files, watches drop
// directories, and downloads media-kit exports from a running server.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/urduaiorg/tracker/internal/config"
	"github.com/urduaiorg/tracker/internal/ocr"
	"github.com/urduaiorg/tracker/internal/sheet"
	"github.com/urduaiorg/tracker/internal/store"
	"github.com/urduaiorg/tracker/internal/tracker"
	"github.com/urduaiorg/tracker/internal/upload"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Extract social media metrics from screenshots, PDFs and spreadsheets",
	Long: `tracker pulls follower counts, views, engagement and other
analytics metrics out of platform screenshots, exported PDFs and
spreadsheets, and collects them for media-kit export.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// pipeline bundles the locally-wired extraction components the file
// subcommands share.
type pipeline struct {
	cfg     *config.Config
	jobs    *tracker.Store
	metrics *store.AnalyticsStore
	ctrl    *upload.Controller
	logger  *slog.Logger
}

func newPipeline() (*pipeline, error) {
	logger := newLogger()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	jobs := tracker.NewStore(logger)
	metrics := store.NewAnalyticsStore(logger)
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
	return &pipeline{
		cfg:     cfg,
		jobs:    jobs,
		metrics: metrics,
		ctrl:    ctrl,
		logger:  logger,
	}, nil
}
