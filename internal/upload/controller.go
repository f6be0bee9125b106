// Package upload drives each uploaded file from classification through
// extraction to a terminal job state. Jobs run concurrently and
// independently; one file's failure never aborts its siblings.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urduaiorg/tracker/constants"
	"github.com/urduaiorg/tracker/internal/common"
	"github.com/urduaiorg/tracker/internal/entity"
	"github.com/urduaiorg/tracker/internal/extract"
	"github.com/urduaiorg/tracker/internal/store"
	"github.com/urduaiorg/tracker/internal/tracker"
	"github.com/urduaiorg/tracker/internal/worker"
)

// Messages surfaced on the job when a pipeline fails. The cancel message
// is distinguishable so the UI can tell "cancelled" from "failed".
const (
	MsgUnsupportedType = "Unsupported file type"
	MsgReadFailed      = "Failed to read file"
	MsgCancelled       = "Processing cancelled"
	MsgTimedOut        = "Processing timed out"
)

// PDFTextExtractor extracts the text layer of a PDF.
type PDFTextExtractor interface {
	PDFText(ctx context.Context, path string) (string, error)
}

// SheetParser extracts metric records from a spreadsheet.
type SheetParser interface {
	Parse(ctx context.Context, path string) ([]entity.MetricRecord, error)
}

// FileInput is one user-provided file, already spooled to disk.
type FileInput struct {
	Name    string
	Size    int64
	Path    string
	Cleanup bool // remove Path once the job is terminal
}

type activeJob struct {
	cancel context.CancelFunc
	worker *worker.Worker
}

// Controller orchestrates the per-file pipeline: classify, dispatch to
// the kind-specific extraction path, and mirror progress and outcomes
// into the job tracker and the global metric collection.
type Controller struct {
	jobs    *tracker.Store
	metrics *store.AnalyticsStore
	rec     worker.Recognizer
	pdf     PDFTextExtractor
	sheets  SheetParser
	logger  *slog.Logger

	timeout  time.Duration
	langHint string
	sem      chan struct{}

	mu     sync.Mutex
	active map[uuid.UUID]*activeJob
	wg     sync.WaitGroup
}

type Option func(*Controller)

// WithTimeout bounds each job's extraction; past it the job is forced
// into the error state.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxConcurrent caps how many jobs extract at once.
func WithMaxConcurrent(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// WithLanguage sets the recognition language hint.
func WithLanguage(lang string) Option {
	return func(c *Controller) {
		if lang != "" {
			c.langHint = lang
		}
	}
}

func NewController(
	jobs *tracker.Store,
	metrics *store.AnalyticsStore,
	rec worker.Recognizer,
	pdf PDFTextExtractor,
	sheets SheetParser,
	logger *slog.Logger,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		jobs:     jobs,
		metrics:  metrics,
		rec:      rec,
		pdf:      pdf,
		sheets:   sheets,
		logger:   logger,
		timeout:  3 * time.Minute,
		langHint: "eng",
		sem:      make(chan struct{}, 4),
		active:   make(map[uuid.UUID]*activeJob),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit creates a job for the file and starts its extraction path.
// Unknown file kinds fail immediately without a processing phase.
func (c *Controller) Submit(in FileInput) (uuid.UUID, error) {
	kind := constants.ClassifyFilename(in.Name)
	job := entity.ProcessingJob{
		ID:        uuid.New(),
		Name:      in.Name,
		Size:      in.Size,
		Kind:      kind,
		Status:    constants.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.jobs.Add(job); err != nil {
		return uuid.Nil, err
	}
	c.logger.Info("file submitted",
		"job_id", job.ID,
		"name", in.Name,
		"size", common.FormatBytes(in.Size),
		"kind", kind,
	)

	if kind == constants.KindUnknown {
		c.fail(job.ID, MsgUnsupportedType)
		c.cleanup(in)
		return job.ID, nil
	}

	c.wg.Add(1)
	go c.run(job.ID, kind, in)
	return job.ID, nil
}

// Cancel terminates a processing job, or dismisses a terminal one.
func (c *Controller) Cancel(id uuid.UUID) error {
	job, ok := c.jobs.Get(id)
	if !ok {
		return common.ErrNotFound
	}

	if job.Status.Terminal() {
		return c.jobs.Remove(id)
	}

	c.mu.Lock()
	a := c.active[id]
	c.mu.Unlock()
	if a != nil {
		if a.worker != nil {
			a.worker.Cancel()
		}
		a.cancel()
	}
	c.fail(id, MsgCancelled)
	c.logger.Info("job cancelled", "job_id", id)
	return nil
}

// Wait blocks until every submitted job has reached a terminal state.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) run(id uuid.UUID, kind constants.FileKind, in FileInput) {
	defer c.wg.Done()
	defer c.cleanup(in)

	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.mu.Lock()
	a := &activeJob{cancel: cancel}
	c.active[id] = a
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.active, id)
		c.mu.Unlock()
	}()

	// last line of defense: a panicking extraction path fails its own
	// job instead of taking the process down
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("extraction panicked", "job_id", id, "panic", r)
			c.fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if _, err := os.Stat(in.Path); err != nil {
		c.fail(id, MsgReadFailed)
		return
	}

	c.setStatus(id, constants.JobStatusProcessing)
	c.setProgress(id, 10)

	switch kind {
	case constants.KindImage:
		c.runImage(ctx, id, a, in)
	case constants.KindPDF:
		c.runPDF(ctx, id, in)
	case constants.KindSpreadsheet:
		c.runSheet(ctx, id, in)
	}
}

// runImage hands the payload to a recognition worker and mirrors its
// progress into the job, scaled into the 10..90 band.
func (c *Controller) runImage(ctx context.Context, id uuid.UUID, a *activeJob, in FileInput) {
	w := worker.New(c.rec, c.logger)
	c.mu.Lock()
	a.worker = w
	c.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	w.Start(ctx, in.Path, c.langHint, worker.Callbacks{
		OnProgress: func(p int) {
			c.setProgress(id, 10+p*80/100)
		},
		OnDone: func(res worker.Result) {
			records := extract.Metrics(res.Text, constants.SourceScreenshot)
			c.complete(id, records)
			finish()
		},
		OnError: func(err error) {
			c.fail(id, err.Error())
			finish()
		},
	})

	select {
	case <-done:
	case <-ctx.Done():
		w.Cancel()
		c.failFromContext(ctx, id)
	}
}

// runPDF and runSheet lack a dedicated worker; they advance progress
// deterministically and check for cancellation between steps.
func (c *Controller) runPDF(ctx context.Context, id uuid.UUID, in FileInput) {
	text, err := c.pdf.PDFText(ctx, in.Path)
	if c.checkCancelled(ctx, id) {
		return
	}
	if err != nil {
		c.fail(id, err.Error())
		return
	}
	c.setProgress(id, 60)

	records := extract.Metrics(text, constants.SourcePDF)
	if c.checkCancelled(ctx, id) {
		return
	}
	c.setProgress(id, 90)
	c.complete(id, records)
}

func (c *Controller) runSheet(ctx context.Context, id uuid.UUID, in FileInput) {
	records, err := c.sheets.Parse(ctx, in.Path)
	if c.checkCancelled(ctx, id) {
		return
	}
	if err != nil {
		c.fail(id, err.Error())
		return
	}
	c.setProgress(id, 90)
	c.complete(id, records)
}

// checkCancelled fails the job with the appropriate message when its
// context is done, and reports whether the path should abort.
func (c *Controller) checkCancelled(ctx context.Context, id uuid.UUID) bool {
	if ctx.Err() == nil {
		return false
	}
	c.failFromContext(ctx, id)
	return true
}

func (c *Controller) failFromContext(ctx context.Context, id uuid.UUID) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.fail(id, MsgTimedOut)
		return
	}
	c.fail(id, MsgCancelled)
}

func (c *Controller) setStatus(id uuid.UUID, s constants.JobStatus) {
	if _, err := c.jobs.Update(id, tracker.Patch{Status: &s}); err != nil {
		c.logger.Error("job status update failed", "job_id", id, "error", err)
	}
}

func (c *Controller) setProgress(id uuid.UUID, p int) {
	if p > 100 {
		p = 100
	}
	if _, err := c.jobs.Update(id, tracker.Patch{Progress: &p}); err != nil {
		c.logger.Error("job progress update failed", "job_id", id, "error", err)
	}
}

// complete attaches the records to the job and appends them to the
// global metric collection.
func (c *Controller) complete(id uuid.UUID, records []entity.MetricRecord) {
	if records == nil {
		records = []entity.MetricRecord{}
	}
	now := time.Now().UTC()
	s := constants.JobStatusCompleted
	p := 100
	job, err := c.jobs.Update(id, tracker.Patch{
		Status:     &s,
		Progress:   &p,
		Records:    records,
		FinishedAt: &now,
	})
	if err != nil {
		c.logger.Error("job completion update failed", "job_id", id, "error", err)
		return
	}
	if job.Status != constants.JobStatusCompleted {
		return // lost the race to a cancel; keep the collection clean
	}
	if len(records) > 0 {
		c.metrics.Append(records...)
	}
	c.logger.Info("job completed", "job_id", id, "records", len(records))
}

func (c *Controller) fail(id uuid.UUID, msg string) {
	now := time.Now().UTC()
	s := constants.JobStatusError
	if _, err := c.jobs.Update(id, tracker.Patch{
		Status:     &s,
		Error:      &msg,
		FinishedAt: &now,
	}); err != nil {
		c.logger.Error("job failure update failed", "job_id", id, "error", err)
		return
	}
	c.logger.Warn("job failed", "job_id", id, "error", msg)
}

func (c *Controller) cleanup(in FileInput) {
	if !in.Cleanup || in.Path == "" {
		return
	}
	if err := os.Remove(in.Path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("spooled file cleanup failed", "path", in.Path, "error", err)
	}
}
