// Package store holds the session-scoped collections the review and
// export surfaces read: the global metric collection and the brand
// settings. Nothing here persists beyond the process by design.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
)

// RecordPatch is a partial metric update; nil fields are left unchanged.
type RecordPatch struct {
	Platform    *constants.Platform
	MetricName  *string
	MetricValue *string
	Period      *string
	Confidence  *int
}

// AnalyticsStore is the ordered global metric collection.
type AnalyticsStore struct {
	logger *slog.Logger

	mu      sync.RWMutex
	records map[uuid.UUID]*entity.MetricRecord
	order   []uuid.UUID
}

func NewAnalyticsStore(logger *slog.Logger) *AnalyticsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsStore{
		logger:  logger,
		records: make(map[uuid.UUID]*entity.MetricRecord),
	}
}

// Append adds extracted records to the collection, assigning identity to
// any record that lacks it.
func (s *AnalyticsStore) Append(recs ...entity.MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		rec := r
		s.records[r.ID] = &rec
		s.order = append(s.order, r.ID)
	}
	s.logger.Info("metrics appended", "count", len(recs), "total", len(s.order))
}

// Create adds a single user-entered record and returns it with identity
// assigned.
func (s *AnalyticsStore) Create(r entity.MetricRecord) entity.MetricRecord {
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	s.Append(r)
	return r
}

// Update merges the patch into an existing record.
func (s *AnalyticsStore) Update(id uuid.UUID, p RecordPatch) (entity.MetricRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return entity.MetricRecord{}, common.ErrNotFound
	}
	if p.Platform != nil {
		r.Platform = *p.Platform
	}
	if p.MetricName != nil {
		r.MetricName = *p.MetricName
	}
	if p.MetricValue != nil {
		r.MetricValue = *p.MetricValue
	}
	if p.Period != nil {
		r.Period = *p.Period
	}
	if p.Confidence != nil {
		r.Confidence = p.Confidence
	}
	return *r, nil
}

// Delete removes a record.
func (s *AnalyticsStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.records, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns copies of all records in insertion order.
func (s *AnalyticsStore) List() []entity.MetricRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.MetricRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out
}

// ListByPlatform returns records for one platform, in insertion order.
func (s *AnalyticsStore) ListByPlatform(p constants.Platform) []entity.MetricRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.MetricRecord
	for _, id := range s.order {
		if s.records[id].Platform == p {
			out = append(out, *s.records[id])
		}
	}
	return out
}

// Clear empties the collection (the "start over" action).
func (s *AnalyticsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[uuid.UUID]*entity.MetricRecord)
	s.order = nil
	s.logger.Info("metric collection cleared")
}
