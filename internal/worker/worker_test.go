package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeRecognizer struct {
	text  string
	conf  float32
	err   error
	delay time.Duration
	block bool // wait for ctx cancellation instead of returning
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path, lang string) (string, float32, error) {
	if f.block {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
	return f.text, f.conf, f.err
}

// recorder collects callbacks under a lock so tests can assert on them.
type recorder struct {
	mu       sync.Mutex
	progress []int
	done     *Result
	err      error
	finished chan struct{}
}

func newRecorder() *recorder {
	return &recorder{finished: make(chan struct{})}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(p int) {
			r.mu.Lock()
			r.progress = append(r.progress, p)
			r.mu.Unlock()
		},
		OnDone: func(res Result) {
			r.mu.Lock()
			r.done = &res
			r.mu.Unlock()
			close(r.finished)
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			close(r.finished)
		},
	}
}

func (r *recorder) snapshot() (progress []int, done *Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress...), r.done, r.err
}

func TestWorkerProgressAndCompletion(t *testing.T) {
	t.Parallel()

	w := New(&fakeRecognizer{text: "Followers: 10", conf: 0.8, delay: 60 * time.Millisecond}, nil)
	w.tick = 10 * time.Millisecond

	rec := newRecorder()
	w.Start(context.Background(), "shot.png", "eng", rec.callbacks())

	select {
	case <-rec.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}

	progress, done, err := rec.snapshot()
	if err != nil {
		t.Fatalf("unexpected error callback: %v", err)
	}
	if done == nil || done.Text != "Followers: 10" || done.Confidence != 0.8 {
		t.Fatalf("done = %+v", done)
	}
	if len(progress) == 0 {
		t.Fatal("expected progress callbacks before completion")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] <= progress[i-1] {
			t.Fatalf("progress not strictly increasing: %v", progress)
		}
	}
	if last := progress[len(progress)-1]; last > 95 {
		t.Fatalf("progress exceeded cap: %d", last)
	}
}

func TestWorkerErrorCallback(t *testing.T) {
	t.Parallel()

	engineErr := errors.New("tesseract: exit status 1")
	w := New(&fakeRecognizer{err: engineErr, delay: 5 * time.Millisecond}, nil)

	rec := newRecorder()
	w.Start(context.Background(), "shot.png", "", rec.callbacks())

	select {
	case <-rec.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not finish")
	}

	_, done, err := rec.snapshot()
	if done != nil {
		t.Fatalf("unexpected success: %+v", done)
	}
	if !errors.Is(err, engineErr) {
		t.Fatalf("err = %v, want %v", err, engineErr)
	}
}

func TestWorkerCancelSilencesCallbacks(t *testing.T) {
	t.Parallel()

	w := New(&fakeRecognizer{block: true}, nil)
	w.tick = 10 * time.Millisecond

	rec := newRecorder()
	w.Start(context.Background(), "shot.png", "", rec.callbacks())

	time.Sleep(30 * time.Millisecond) // let some progress flow
	w.Cancel()

	before, _, _ := rec.snapshot()
	time.Sleep(60 * time.Millisecond)
	after, done, err := rec.snapshot()

	if done != nil || err != nil {
		t.Fatalf("terminal callback fired after cancel: done=%v err=%v", done, err)
	}
	// allow at most one in-flight progress callback racing the cancel
	if len(after) > len(before)+1 {
		t.Fatalf("progress kept flowing after cancel: before=%v after=%v", before, after)
	}
}

func TestWorkerCancelWhenIdle(t *testing.T) {
	t.Parallel()

	w := New(&fakeRecognizer{}, nil)
	w.Cancel() // must not panic
}

// byPathRecognizer blocks on "a.png" and succeeds on anything else.
type byPathRecognizer struct{}

func (byPathRecognizer) Recognize(ctx context.Context, path, lang string) (string, float32, error) {
	if path == "a.png" {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}
	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
	return "Views: 7", 0.5, nil
}

func TestWorkerReentrantStartReplacesRun(t *testing.T) {
	t.Parallel()

	w := New(byPathRecognizer{}, nil)
	w.tick = 10 * time.Millisecond

	first := newRecorder()
	w.Start(context.Background(), "a.png", "", first.callbacks())
	time.Sleep(20 * time.Millisecond)

	second := newRecorder()
	w.Start(context.Background(), "b.png", "", second.callbacks())

	select {
	case <-second.finished:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement run did not finish")
	}

	_, done, err := second.snapshot()
	if err != nil || done == nil || done.Text != "Views: 7" {
		t.Fatalf("replacement outcome: done=%v err=%v", done, err)
	}
	if _, firstDone, firstErr := first.snapshot(); firstDone != nil || firstErr != nil {
		t.Fatalf("replaced run fired a terminal callback: done=%v err=%v", firstDone, firstErr)
	}
}
