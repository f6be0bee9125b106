package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
)

func newJob(name string) entity.ProcessingJob {
	return entity.ProcessingJob{
		ID:        uuid.New(),
		Name:      name,
		Size:      1024,
		Kind:      constants.KindImage,
		Status:    constants.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func status(s constants.JobStatus) *constants.JobStatus { return &s }
func intp(v int) *int                                   { return &v }
func strp(v string) *string                             { return &v }

func TestAddRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	j := newJob("a.png")
	if err := s.Add(j); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(j); !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("duplicate Add err = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	if _, err := s.Update(uuid.New(), Patch{Progress: intp(50)}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	j := newJob("a.png")
	if err := s.Add(j); err != nil {
		t.Fatalf("Add: %v", err)
	}

	for _, p := range []int{10, 40, 30, 70, 70, 90} {
		if _, err := s.Update(j.ID, Patch{Progress: intp(p)}); err != nil {
			t.Fatalf("Update(%d): %v", p, err)
		}
	}
	got, _ := s.Get(j.ID)
	if got.Progress != 90 {
		t.Errorf("progress = %d, want 90", got.Progress)
	}
}

func TestTerminalJobIsFrozen(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	j := newJob("a.png")
	if err := s.Add(j); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := s.Update(j.ID, Patch{Status: status(constants.JobStatusError), Error: strp("boom")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := s.Update(j.ID, Patch{Status: status(constants.JobStatusCompleted), Progress: intp(100)}); err != nil {
		t.Fatalf("Update after terminal: %v", err)
	}

	got, _ := s.Get(j.ID)
	if got.Status != constants.JobStatusError {
		t.Errorf("status = %q, want error (terminal states are final)", got.Status)
	}
}

func TestTerminalExclusivity(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)

	// completed job keeps records, drops error
	done := newJob("done.png")
	if err := s.Add(done); err != nil {
		t.Fatalf("Add: %v", err)
	}
	recs := []entity.MetricRecord{{ID: uuid.New(), MetricName: "views", MetricValue: "5"}}
	if _, err := s.Update(done.ID, Patch{
		Status:  status(constants.JobStatusCompleted),
		Records: recs,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get(done.ID)
	if got.Error != nil || len(got.Records) != 1 || got.Progress != 100 {
		t.Errorf("completed job = %+v, want records only and progress 100", got)
	}

	// failed job keeps error, drops records
	failed := newJob("failed.png")
	if err := s.Add(failed); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Update(failed.ID, Patch{
		Status:  status(constants.JobStatusError),
		Error:   strp("engine failure"),
		Records: recs,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = s.Get(failed.ID)
	if got.Error == nil || got.Records != nil {
		t.Errorf("failed job = %+v, want error only", got)
	}
}

func TestRemoveAndOrder(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	a, b, c := newJob("a.png"), newJob("b.pdf"), newJob("c.csv")
	for _, j := range []entity.ProcessingJob{a, b, c} {
		if err := s.Add(j); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if err := s.Remove(b.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(b.ID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("second Remove err = %v, want ErrNotFound", err)
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Errorf("list after remove = %v, want [a c] in creation order", list)
	}
}
