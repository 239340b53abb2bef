package workflows

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "exome.nf"), "v1")

	cfg := testWorkflowsConfig(dir)
	cfg.WatchDebounce = 20 * time.Millisecond

	store, err := NewStore(func() (*Catalog, error) {
		return LoadCatalog(cfg, "")
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewWatcher(store, cfg, "", nil).Run(ctx)
	}()

	// The watch is registered asynchronously, so keep touching the file
	// until the reload lands.
	deadline := time.Now().Add(5 * time.Second)
	for store.Describe("wgs") != "wgs v1" {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for reload")
		}
		writeFile(t, filepath.Join(dir, "wgs.nf"), "wgs v1")
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	cfg := testWorkflowsConfig(filepath.Join(t.TempDir(), "absent"))
	cfg.Optional = true

	store, err := NewStore(func() (*Catalog, error) { return LoadCatalog(cfg, "") })
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := NewWatcher(store, cfg, "", nil).Run(ctx); err != nil {
		t.Errorf("expected nil on missing directory, got %v", err)
	}
}

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "custom.workflow")

	cfg := testWorkflowsConfig(dir)
	cfg.Definitions = map[string]string{"custom": explicit}

	w := NewWatcher(nil, cfg, "", nil)

	if len(w.Dirs()) != 2 {
		t.Errorf("expected 2 watched dirs, got %v", w.Dirs())
	}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"workflow write", fsnotify.Event{Name: filepath.Join(dir, "a.nf"), Op: fsnotify.Write}, true},
		{"workflow create", fsnotify.Event{Name: filepath.Join(dir, "a.nf"), Op: fsnotify.Create}, true},
		{"workflow remove", fsnotify.Event{Name: filepath.Join(dir, "a.nf"), Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(dir, "a.nf"), Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: filepath.Join(dir, "a.txt"), Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: filepath.Join(dir, ".a.nf.swp"), Op: fsnotify.Write}, false},
		{"explicit definition", fsnotify.Event{Name: explicit, Op: fsnotify.Write}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	d.Trigger()

	time.Sleep(80 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("expected no calls after Stop, got %d", got)
	}
}
