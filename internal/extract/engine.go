// Package extract turns recognized or parsed text into structured
// metric records using declarative pattern tables.
package extract

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/entity"
)

// DefaultConfidence is attached to every pattern-extracted record. The
// detection is rule-based, not learned, so the score is a fixed heuristic.
const DefaultConfidence = 90

// DetectPlatform returns the first platform whose pattern matches the
// text, defaulting to PlatformOther.
func DetectPlatform(text string) constants.Platform {
	for _, p := range platformPatterns {
		if p.re.MatchString(text) {
			return p.platform
		}
	}
	return constants.PlatformOther
}

// DetectPeriod returns the first date-shaped substring of the text, or
// "" when none is found.
func DetectPeriod(text string) string {
	return rePeriod.FindString(text)
}

// Metrics scans the full text with every metric pattern and returns one
// record per non-overlapping match. Scanning is exhaustive: multiple
// occurrences of the same label all produce records; reconciliation is
// the caller's concern.
func Metrics(text string, source constants.SourceType) []entity.MetricRecord {
	platform := DetectPlatform(text)
	period := DetectPeriod(text)
	now := time.Now().UTC()

	var records []entity.MetricRecord
	for _, p := range metricPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			value := StripCommas(m[2])
			if len(m) > 3 && m[3] != "" {
				// unit suffix (e.g. "hrs") stays on the value
				value = value + " " + strings.ToLower(m[3])
			}
			records = append(records, entity.MetricRecord{
				ID:          uuid.New(),
				Platform:    platform,
				MetricName:  p.name,
				MetricValue: value,
				Period:      period,
				Confidence:  entity.Confidence(DefaultConfidence),
				SourceType:  source,
				CreatedAt:   now,
			})
		}
	}
	return records
}

// StripCommas removes thousands separators from a numeric-looking value.
func StripCommas(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
