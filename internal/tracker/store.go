// Package tracker owns the authoritative set of in-flight and completed
// processing jobs for the session.
package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
)

// Patch is a partial job update; nil fields are left unchanged.
type Patch struct {
	Status     *constants.JobStatus
	Progress   *int
	Error      *string
	Records    []entity.MetricRecord
	FinishedAt *time.Time
}

// Store is an ordered, in-memory job collection with single-writer
// update operations. All methods are safe for concurrent use.
type Store struct {
	logger *slog.Logger

	mu    sync.RWMutex
	jobs  map[uuid.UUID]*entity.ProcessingJob
	order []uuid.UUID
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger,
		jobs:   make(map[uuid.UUID]*entity.ProcessingJob),
	}
}

// Add inserts a job at the end of the collection. The id must be new.
func (s *Store) Add(job entity.ProcessingJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		s.logger.Error("job already tracked", "job_id", job.ID)
		return common.ErrAlreadyExists
	}
	j := job
	s.jobs[job.ID] = &j
	s.order = append(s.order, job.ID)
	s.logger.Info("job tracked", "job_id", job.ID, "name", job.Name, "kind", job.Kind)
	return nil
}

// Update merges the patch into the job, enforcing the job invariants:
// progress never decreases, terminal jobs never transition again, and a
// terminal job carries exactly one of {error, records}.
func (s *Store) Update(id uuid.UUID, p Patch) (entity.ProcessingJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return entity.ProcessingJob{}, common.ErrNotFound
	}
	if j.Status.Terminal() {
		return *j, nil
	}

	if p.Progress != nil && *p.Progress > j.Progress {
		j.Progress = *p.Progress
	}
	if p.Error != nil {
		j.Error = p.Error
	}
	if p.Records != nil {
		j.Records = p.Records
	}
	if p.FinishedAt != nil {
		j.FinishedAt = p.FinishedAt
	}
	if p.Status != nil {
		j.Status = *p.Status
		switch *p.Status {
		case constants.JobStatusCompleted:
			j.Error = nil
			j.Progress = 100
		case constants.JobStatusError:
			j.Records = nil
		}
	}
	return *j, nil
}

// Remove deletes the job from the collection.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.jobs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Info("job removed", "job_id", id)
	return nil
}

// Get returns a copy of the job.
func (s *Store) Get(id uuid.UUID) (entity.ProcessingJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return entity.ProcessingJob{}, false
	}
	return *j, true
}

// List returns copies of all jobs in creation order.
func (s *Store) List() []entity.ProcessingJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ProcessingJob, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.jobs[id])
	}
	return out
}
