package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
)

// MetricRecord is a single extracted (platform, metric, value) tuple.
// Immutable once produced; the value stays a string because source
// formats disagree on numeric formatting.
type MetricRecord struct {
	ID          uuid.UUID            `json:"id"`
	Platform    constants.Platform   `json:"platform"`
	MetricName  string               `json:"metric_name"`
	MetricValue string               `json:"metric_value"`
	Period      string               `json:"period,omitempty"`
	Confidence  *int                 `json:"confidence,omitempty"`
	SourceType  constants.SourceType `json:"source_type"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Confidence returns a pointer to v for optional confidence fields.
func Confidence(v int) *int {
	return &v
}
