// Package worker runs image text recognition as an isolated, cancellable
// unit of work: progress stream in [0,100], then exactly one terminal
// callback (done or error). No callbacks fire after Cancel.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Recognizer is the recognition engine the worker drives.
type Recognizer interface {
	Recognize(ctx context.Context, path, lang string) (text string, confidence float32, err error)
}

// Result carries the recognized text and the engine's overall confidence
// in 0..1.
type Result struct {
	Text       string
	Confidence float32
}

// Callbacks receive progress and the terminal outcome. OnProgress values
// are strictly increasing; exactly one of OnDone/OnError fires unless the
// run is cancelled first.
type Callbacks struct {
	OnProgress func(pct int)
	OnDone     func(Result)
	OnError    func(err error)
}

// Worker owns at most one in-flight recognition. Start is reentrant:
// it cancels and replaces any run already in flight.
type Worker struct {
	rec    Recognizer
	logger *slog.Logger

	// progress synthesis: the engine gives no mid-run signal, so the
	// worker advances a capped ticker while the engine works.
	tick time.Duration
	step int
	cap  int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func New(rec Recognizer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		rec:    rec,
		logger: logger,
		tick:   150 * time.Millisecond,
		step:   5,
		cap:    95,
	}
}

// Start begins recognizing the image at path, cancelling any run already
// in flight on this worker. Callbacks are invoked from the worker's
// goroutine.
func (w *Worker) Start(ctx context.Context, path, lang string, cb Callbacks) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	go w.run(runCtx, gen, path, lang, cb)
}

// Cancel terminates the in-flight recognition, if any. Safe to call when
// idle. No callbacks fire after Cancel returns.
func (w *Worker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++ // invalidate any pending callbacks
}

// current reports whether callbacks for generation gen may still fire.
func (w *Worker) current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen == gen
}

func (w *Worker) run(ctx context.Context, gen uint64, path, lang string, cb Callbacks) {
	type outcome struct {
		res Result
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		text, conf, err := w.rec.Recognize(ctx, path, lang)
		resCh <- outcome{Result{Text: text, Confidence: conf}, err}
	}()

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	progress := 0

	for {
		select {
		case <-ticker.C:
			if progress >= w.cap {
				continue
			}
			progress += w.step
			if w.current(gen) && cb.OnProgress != nil {
				cb.OnProgress(progress)
			}
		case out := <-resCh:
			if !w.current(gen) {
				return // cancelled or replaced; stay silent
			}
			if out.err != nil {
				if ctx.Err() != nil {
					// cooperative cancellation surfaced as an engine
					// error; the caller already observed the cancel
					return
				}
				w.logger.Error("recognition failed", "path", path, "error", out.err)
				if cb.OnError != nil {
					cb.OnError(out.err)
				}
				return
			}
			w.logger.Debug("recognition complete",
				"path", path,
				"chars", len(out.res.Text),
				"confidence", out.res.Confidence,
			)
			if cb.OnDone != nil {
				cb.OnDone(out.res)
			}
			return
		case <-ctx.Done():
			// drain the engine goroutine result later; nothing to report
			return
		}
	}
}
