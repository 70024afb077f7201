package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestStartRunsInitialPassAndStops(t *testing.T) {
	var runs atomic.Int32
	r := New(t.TempDir(), func() { runs.Add(1) }, zap.NewNop())
	r.debounce = 50 * time.Millisecond

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- r.Start(stop) }()

	waitFor(t, func() bool { return runs.Load() == 1 })

	close(stop)
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after stop")
	}
}

func TestStartTriggersOnNewImage(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	r := New(dir, func() { runs.Add(1) }, zap.NewNop())
	r.debounce = 50 * time.Millisecond

	stop := make(chan struct{})
	defer close(stop)
	go func() { _ = r.Start(stop) }()

	waitFor(t, func() bool { return runs.Load() == 1 })

	if err := os.WriteFile(filepath.Join(dir, "new.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return runs.Load() >= 2 })
}

func TestStartIgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	r := New(dir, func() { runs.Add(1) }, zap.NewNop())
	r.debounce = 50 * time.Millisecond

	stop := make(chan struct{})
	defer close(stop)
	go func() { _ = r.Start(stop) }()

	waitFor(t, func() bool { return runs.Load() == 1 })

	if err := os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if runs.Load() != 1 {
		t.Errorf("non-image event triggered a pass: %d runs", runs.Load())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
