package ocr

import (
	"context"
	"strings"

	"github.com/urduaiorg/tracker/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	txt, pages, warn, err := e.pdfToText(ctx, path)
	if err != nil {
		return Result{Kind: constants.KindPDF, Warnings: warn}, err
	}
	txt = Normalize(txt)
	return Result{
		Text:       txt,
		Pages:      pages,
		Kind:       constants.KindPDF,
		Method:     "pdf-text",
		Warnings:   warn,
		Confidence: heuristicConfidence(txt),
	}, nil
}

// PDFText extracts the text layer of a PDF. It is the PDF-path analogue
// of Recognize.
func (e *Extractor) PDFText(ctx context.Context, path string) (string, error) {
	res, err := e.extractPDF(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// a form feed separates pages in pdftotext output
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}
