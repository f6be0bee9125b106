package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
	"github.com/urduaiorg/tracker/internal/store"
	"github.com/urduaiorg/tracker/internal/tracker"
)

type fakeRecognizer struct {
	text  string
	conf  float32
	err   error
	block bool
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path, lang string) (string, float32, error) {
	if f.block {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	return f.text, f.conf, f.err
}

type fakePDF struct {
	text string
	err  error
}

func (f *fakePDF) PDFText(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

type fakeSheets struct {
	records []entity.MetricRecord
	err     error
}

func (f *fakeSheets) Parse(ctx context.Context, path string) ([]entity.MetricRecord, error) {
	return f.records, f.err
}

type fixture struct {
	jobs    *tracker.Store
	metrics *store.AnalyticsStore
	ctrl    *Controller
}

func newFixture(t *testing.T, rec *fakeRecognizer, pdf *fakePDF, sheets *fakeSheets, opts ...Option) *fixture {
	t.Helper()
	jobs := tracker.NewStore(nil)
	metrics := store.NewAnalyticsStore(nil)
	if rec == nil {
		rec = &fakeRecognizer{}
	}
	if pdf == nil {
		pdf = &fakePDF{}
	}
	if sheets == nil {
		sheets = &fakeSheets{}
	}
	return &fixture{
		jobs:    jobs,
		metrics: metrics,
		ctrl:    NewController(jobs, metrics, rec, pdf, sheets, nil, opts...),
	}
}

func spool(t *testing.T, name string) FileInput {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("spool: %v", err)
	}
	return FileInput{Name: name, Size: 7, Path: path}
}

func waitTerminal(t *testing.T, jobs *tracker.Store, id uuid.UUID) entity.ProcessingJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if j, ok := jobs.Get(id); ok && j.Status.Terminal() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	j, _ := jobs.Get(id)
	t.Fatalf("job never reached a terminal state: %+v", j)
	return j
}

func TestUnknownKindFailsImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	id, err := f.ctrl.Submit(spool(t, "report.xyz"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	j, _ := f.jobs.Get(id)
	if j.Status != constants.JobStatusError {
		t.Errorf("status = %q, want error", j.Status)
	}
	if j.Error == nil || *j.Error != MsgUnsupportedType {
		t.Errorf("error = %v, want %q", j.Error, MsgUnsupportedType)
	}
	if j.Progress != 0 {
		t.Errorf("progress = %d, want 0 (no processing phase)", j.Progress)
	}
	if j.Records != nil {
		t.Errorf("records = %v, want none", j.Records)
	}
}

func TestImagePipelineSuccess(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{text: "Instagram Followers: 89,423 Apr 2023", conf: 0.82}
	f := newFixture(t, rec, nil, nil)

	id, err := f.ctrl.Submit(spool(t, "shot.png"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusCompleted {
		t.Fatalf("status = %q (error=%v), want completed", j.Status, j.Error)
	}
	if j.Progress != 100 {
		t.Errorf("progress = %d, want 100", j.Progress)
	}
	if j.Error != nil {
		t.Errorf("error = %v, want nil", j.Error)
	}
	if len(j.Records) != 1 || j.Records[0].MetricName != "followers" || j.Records[0].MetricValue != "89423" {
		t.Fatalf("records = %+v", j.Records)
	}
	if j.Records[0].SourceType != constants.SourceScreenshot {
		t.Errorf("source = %q, want screenshot", j.Records[0].SourceType)
	}

	// completed records land in the global collection
	if got := f.metrics.List(); len(got) != 1 || got[0].MetricValue != "89423" {
		t.Errorf("global collection = %+v", got)
	}
}

func TestImagePipelineEngineError(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{err: errors.New("tesseract: exit status 1")}
	f := newFixture(t, rec, nil, nil)

	id, _ := f.ctrl.Submit(spool(t, "shot.jpg"))
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusError {
		t.Fatalf("status = %q, want error", j.Status)
	}
	if j.Error == nil || *j.Error != "tesseract: exit status 1" {
		t.Errorf("error = %v", j.Error)
	}
	if j.Records != nil {
		t.Errorf("records = %v, want none", j.Records)
	}
	if got := f.metrics.List(); len(got) != 0 {
		t.Errorf("failed job leaked records into collection: %v", got)
	}
}

func TestPDFPipeline(t *testing.T) {
	t.Parallel()

	pdf := &fakePDF{text: "YouTube Subscribers: 156,240 Apr 2023"}
	f := newFixture(t, nil, pdf, nil)

	id, _ := f.ctrl.Submit(spool(t, "report.pdf"))
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusCompleted {
		t.Fatalf("status = %q (error=%v), want completed", j.Status, j.Error)
	}
	if len(j.Records) != 1 || j.Records[0].SourceType != constants.SourcePDF {
		t.Fatalf("records = %+v", j.Records)
	}
	if j.Records[0].Platform != constants.PlatformYouTube {
		t.Errorf("platform = %q, want youtube", j.Records[0].Platform)
	}
}

func TestSheetPipeline(t *testing.T) {
	t.Parallel()

	sheets := &fakeSheets{records: []entity.MetricRecord{{
		ID:          uuid.New(),
		Platform:    constants.PlatformTikTok,
		MetricName:  "views",
		MetricValue: "3542871",
		SourceType:  constants.SourceSpreadsheet,
	}}}
	f := newFixture(t, nil, nil, sheets)

	id, _ := f.ctrl.Submit(spool(t, "metrics.xlsx"))
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusCompleted {
		t.Fatalf("status = %q (error=%v), want completed", j.Status, j.Error)
	}
	if len(j.Records) != 1 || j.Records[0].MetricValue != "3542871" {
		t.Fatalf("records = %+v", j.Records)
	}
}

func TestSheetPipelineParserError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, &fakeSheets{err: errors.New("open workbook: bad zip")})

	id, _ := f.ctrl.Submit(spool(t, "metrics.csv"))
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusError || j.Error == nil {
		t.Fatalf("job = %+v, want error state", j)
	}
}

func TestReadErrorFailsJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRecognizer{text: "ignored"}, nil, nil)
	in := FileInput{Name: "gone.png", Size: 1, Path: filepath.Join(t.TempDir(), "gone.png")}

	id, _ := f.ctrl.Submit(in)
	j := waitTerminal(t, f.jobs, id)

	if j.Error == nil || *j.Error != MsgReadFailed {
		t.Fatalf("error = %v, want %q", j.Error, MsgReadFailed)
	}
}

func TestCancelMidProcessing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRecognizer{block: true}, nil, nil)
	id, _ := f.ctrl.Submit(spool(t, "slow.png"))

	// wait for the job to enter processing
	deadline := time.Now().Add(2 * time.Second)
	for {
		if j, _ := f.jobs.Get(id); j.Status == constants.JobStatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("job never started processing")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := f.ctrl.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	j := waitTerminal(t, f.jobs, id)

	if j.Status != constants.JobStatusError {
		t.Fatalf("status = %q, want error", j.Status)
	}
	if j.Error == nil || *j.Error != MsgCancelled {
		t.Errorf("error = %v, want %q", j.Error, MsgCancelled)
	}
	if j.Records != nil {
		t.Errorf("records = %v, want none after cancel", j.Records)
	}
}

func TestCancelDismissesTerminalJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	id, _ := f.ctrl.Submit(spool(t, "report.xyz")) // fails immediately

	if err := f.ctrl.Cancel(id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, ok := f.jobs.Get(id); ok {
		t.Error("expected job to be removed from the tracker")
	}
	if err := f.ctrl.Cancel(id); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second Cancel err = %v, want ErrNotFound", err)
	}
}

func TestTimeoutForcesError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRecognizer{block: true}, nil, nil,
		WithTimeout(50*time.Millisecond))

	id, _ := f.ctrl.Submit(spool(t, "slow.png"))
	j := waitTerminal(t, f.jobs, id)

	if j.Error == nil || *j.Error != MsgTimedOut {
		t.Fatalf("error = %v, want %q", j.Error, MsgTimedOut)
	}
}

func TestConcurrentJobsAreIndependent(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{err: errors.New("engine down")}
	pdf := &fakePDF{text: "Likes: 12"}
	f := newFixture(t, rec, pdf, nil)

	badID, _ := f.ctrl.Submit(spool(t, "bad.png"))
	goodID, _ := f.ctrl.Submit(spool(t, "good.pdf"))
	f.ctrl.Wait()

	bad, _ := f.jobs.Get(badID)
	good, _ := f.jobs.Get(goodID)
	if bad.Status != constants.JobStatusError {
		t.Errorf("bad job status = %q, want error", bad.Status)
	}
	if good.Status != constants.JobStatusCompleted {
		t.Errorf("good job status = %q (error=%v), want completed", good.Status, good.Error)
	}
}

func TestSpooledFileCleanup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &fakeRecognizer{text: "Views: 5"}, nil, nil)
	in := spool(t, "shot.png")
	in.Cleanup = true

	id, _ := f.ctrl.Submit(in)
	waitTerminal(t, f.jobs, id)
	f.ctrl.Wait()

	if _, err := os.Stat(in.Path); !os.IsNotExist(err) {
		t.Errorf("expected spooled file to be removed, stat err = %v", err)
	}
}

func TestProgressMonotonic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, &fakePDF{text: "Reach: 9,001"}, nil)
	id, _ := f.ctrl.Submit(spool(t, "r.pdf"))

	var last int
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, _ := f.jobs.Get(id)
		if j.Progress < last {
			t.Fatalf("progress decreased: %d -> %d", last, j.Progress)
		}
		last = j.Progress
		if j.Status.Terminal() {
			if j.Progress != 100 {
				t.Fatalf("terminal progress = %d, want 100", j.Progress)
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("job never finished")
}
