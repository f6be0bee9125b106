// Package sheet extracts metric records from tabular uploads. A header
// row naming metric/value columns maps cells straight to records; sheets
// without a usable header fall back to the text pattern engine.
package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/entity"
	"github.com/urduaiorg/tracker/internal/extract"
)

// CellConfidence is attached to header-mapped records: the values come
// straight from cells, not from pattern matching over noisy text.
const CellConfidence = 98

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads the spreadsheet at path and returns its metric records.
func (p *Parser) Parse(ctx context.Context, path string) ([]entity.MetricRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows [][]string
	var err error
	switch ext := constants.NormalizeExt(filepath.Ext(path)); ext {
	case "csv":
		rows, err = readCSV(path)
	case "xlsx", "xls", "ods":
		rows, err = readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet extension: %q", ext)
	}
	if err != nil {
		return nil, err
	}

	records := p.mapRows(rows)
	p.logger.Info("spreadsheet parsed", "path", path, "rows", len(rows), "records", len(records))
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// Column roles a header row may declare. Aliases keep the mapping
// tolerant of export variations.
var headerAliases = map[string]string{
	"platform":     "platform",
	"network":      "platform",
	"metric":       "metric",
	"metric name":  "metric",
	"value":        "value",
	"metric value": "value",
	"count":        "value",
	"period":       "period",
	"month":        "period",
	"date":         "period",
}

func detectHeader(row []string) (map[int]string, bool) {
	cols := make(map[int]string)
	for i, cell := range row {
		if role, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			if _, taken := colsValue(cols, role); !taken {
				cols[i] = role
			}
		}
	}
	_, hasMetric := colsValue(cols, "metric")
	_, hasValue := colsValue(cols, "value")
	return cols, hasMetric && hasValue
}

func colsValue(cols map[int]string, role string) (int, bool) {
	for i, r := range cols {
		if r == role {
			return i, true
		}
	}
	return 0, false
}

func (p *Parser) mapRows(rows [][]string) []entity.MetricRecord {
	if len(rows) == 0 {
		return nil
	}

	if cols, ok := detectHeader(rows[0]); ok {
		return mapWithHeader(cols, rows[1:])
	}

	// No recognizable header: run the flattened cell text through the
	// same pattern engine used for recognized text.
	p.logger.Debug("no header row detected, falling back to pattern engine")
	var lines []string
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " "))
	}
	return extract.Metrics(strings.Join(lines, "\n"), constants.SourceSpreadsheet)
}

func mapWithHeader(cols map[int]string, rows [][]string) []entity.MetricRecord {
	now := time.Now().UTC()
	var records []entity.MetricRecord
	for _, row := range rows {
		cell := func(role string) string {
			i, ok := colsValue(cols, role)
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := strings.ToLower(cell("metric"))
		value := extract.StripCommas(cell("value"))
		if name == "" || value == "" {
			continue
		}

		platform := constants.PlatformOther
		if c := cell("platform"); c != "" {
			platform = extract.DetectPlatform(c)
		}

		records = append(records, entity.MetricRecord{
			ID:          uuid.New(),
			Platform:    platform,
			MetricName:  name,
			MetricValue: value,
			Period:      cell("period"),
			Confidence:  entity.Confidence(CellConfidence),
			SourceType:  constants.SourceSpreadsheet,
			CreatedAt:   now,
		})
	}
	return records
}
