// Package ocr extracts raw text from image and PDF uploads using the
// tesseract and pdftotext binaries behind a stubbable Runner seam.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/urduaiorg/tracker/constants"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"

	Language    string // default "eng"
	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	EnableTSVConfidence bool
}

// Result is the outcome of one text extraction.
type Result struct {
	Text       string
	Pages      int
	Kind       constants.FileKind // image or pdf
	Method     string             // "image-ocr" | "pdf-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // 0..1
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)
	switch constants.MapExtToKind(ext) {
	case constants.KindPDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.KindImage:
		res, err := e.extractImage(ctx, path, "")
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported extraction extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

// Recognize runs image OCR with an optional language hint overriding the
// configured language. It satisfies the recognition worker's contract.
func (e *Extractor) Recognize(ctx context.Context, path, lang string) (string, float32, error) {
	res, err := e.extractImage(ctx, path, lang)
	if err != nil {
		return "", 0, err
	}
	return res.Text, res.Confidence, nil
}
