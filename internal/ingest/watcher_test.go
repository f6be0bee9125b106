package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAllowed(t *testing.T) {
	t.Parallel()

	exts := map[string]struct{}{"png": {}, "csv": {}}
	tests := []struct {
		path string
		want bool
	}{
		{"/drop/shot.PNG", true},
		{"/drop/metrics.csv", true},
		{"/drop/report.pdf", false},
		{"/drop/noext", false},
	}
	for _, tt := range tests {
		if got := allowed(tt.path, exts); got != tt.want {
			t.Errorf("allowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	t.Parallel()

	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, nil); err == nil {
		t.Fatal("expected error for empty roots")
	}
}

func TestStartWatcherInitialScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a.png", "b.csv", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evCh, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
	}, nil)
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case p := <-evCh:
			seen[filepath.Base(p)] = true
		case <-timeout:
			t.Fatalf("initial scan incomplete, saw %v", seen)
		}
	}
	if !seen["a.png"] || !seen["b.csv"] {
		t.Errorf("seen = %v, want a.png and b.csv", seen)
	}
	if seen["skip.txt"] {
		t.Error("disallowed extension was emitted")
	}
}
