// Package export renders the collected metrics as a media-kit XLSX
// workbook for download.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/urduaiorg/tracker/internal/entity"
	"github.com/urduaiorg/tracker/internal/store"
)

// Service produces XLSX bytes from the session's metric collection.
type Service struct {
	metrics *store.AnalyticsStore
	brand   *store.BrandStore
	logger  *slog.Logger
}

func NewService(metrics *store.AnalyticsStore, brand *store.BrandStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{metrics: metrics, brand: brand, logger: logger}
}

// MediaKitXLSX returns an XLSX workbook (as bytes) for the current
// metric collection, branded with the saved settings if present.
func (s *Service) MediaKitXLSX() ([]byte, error) {
	start := time.Now()
	recs := s.metrics.List()

	var brand *entity.BrandSettings
	if b, ok := s.brand.Get(); ok {
		brand = &b
	}

	buf, err := BuildWorkbook(recs, brand)
	if err != nil {
		return nil, err
	}

	s.logger.Info("media kit exported",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// BuildWorkbook writes records into a single-sheet workbook. The brand
// block is optional.
func BuildWorkbook(recs []entity.MetricRecord, brand *entity.BrandSettings) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Media Kit"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultSheet := f.GetSheetName(0); defaultSheet != sheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	if brand != nil {
		write(1, brand.Name)
		row++
		write(1, brand.Handle)
		row++
		if brand.Bio != "" {
			write(1, brand.Bio)
			row++
		}
		row++ // blank separator line
	}

	headers := []string{"Platform", "Metric", "Value", "Period", "Confidence", "Source"}
	for i, h := range headers {
		write(i+1, h)
	}
	row++

	for _, r := range recs {
		write(1, string(r.Platform))
		write(2, r.MetricName)
		write(3, r.MetricValue)
		write(4, r.Period)
		if r.Confidence != nil {
			write(5, *r.Confidence)
		}
		write(6, string(r.SourceType))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 18)
	_ = f.SetColWidth(sheet, "C", "C", 16)
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 12)
	_ = f.SetColWidth(sheet, "F", "F", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
