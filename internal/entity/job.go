package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
)

// ProcessingJob tracks one uploaded file's progress through the
// extraction pipeline. Mutated only through the tracker store.
type ProcessingJob struct {
	ID         uuid.UUID           `json:"id"`
	Name       string              `json:"name"`
	Size       int64               `json:"size"`
	Kind       constants.FileKind  `json:"kind"`
	Status     constants.JobStatus `json:"status"`
	Progress   int                 `json:"progress"`
	Error      *string             `json:"error,omitempty"`
	Records    []MetricRecord      `json:"records,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}
