package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/metrics"
)

const testDebounce = 100 * time.Millisecond

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startWatcher(t *testing.T, root string, onChange func(context.Context) error, opts ...WatcherOption) *Watcher {
	t.Helper()
	opts = append([]WatcherOption{WithDebounce(testDebounce)}, opts...)
	w := NewWatcher(root, onChange, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_WatchesSubdirectories(t *testing.T) {
	root := t.TempDir()
	if err := mkdirAll(filepath.Join(root, "0")); err != nil {
		t.Fatal(err)
	}
	if err := mkdirAll(filepath.Join(root, "1")); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root, func(context.Context) error { return nil })
	if got := len(w.Directories()); got != 3 {
		t.Errorf("watching %d directories, want 3: %v", got, w.Directories())
	}
}

func TestWatcher_DebouncesBurstIntoOneRun(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "0")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	var runs atomic.Int32
	startWatcher(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		if err := writeFile(filepath.Join(sub, string(rune('a'+i))), "hello"); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return runs.Load() >= 1 })
	time.Sleep(3 * testDebounce)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	w := startWatcher(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	sub := filepath.Join(root, "7")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(w.Directories()) == 2 && runs.Load() == 1 })

	if err := writeFile(filepath.Join(sub, "1"), "<h1>new</h1>"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return runs.Load() == 2 })
}

func TestWatcher_IgnoredPaths(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "index.json")
	var runs atomic.Int32
	startWatcher(t, root, func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithIgnore(out))

	if err := writeFile(out, "{}"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * testDebounce)
	if got := runs.Load(); got != 0 {
		t.Errorf("runs = %d, want 0 for ignored file", got)
	}
}

func TestWatcher_OutputsInsideRootDoNotRetrigger(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "0")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(root, "index.json")
	prom := filepath.Join(root, "tagdex.prom")
	m := metrics.New()
	var runs atomic.Int32
	startWatcher(t, root, func(context.Context) error {
		runs.Add(1)
		if err := index.Save(out, index.New()); err != nil {
			return err
		}
		return m.WriteTextfile(prom)
	}, WithIgnore(out, prom))

	if err := writeFile(filepath.Join(sub, "1"), "<h1>page</h1>"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return runs.Load() >= 1 })
	time.Sleep(5 * testDebounce)
	if got := runs.Load(); got != 1 {
		t.Errorf("runs after one corpus change = %d, want 1", got)
	}
}

func TestWatcher_Ignored(t *testing.T) {
	w := NewWatcher("/corpus", nil, WithIgnore("/corpus/index.json", "/corpus/cache.db"))
	tests := []struct {
		path string
		want bool
	}{
		{"/corpus/index.json", true},
		{"/corpus/.index.json-123456", true},
		{"/corpus/cache.db-wal", true},
		{"/corpus/cache.db-shm", true},
		{"/corpus/0/index.json", false},
		{"/corpus/0/1", false},
		{"/corpus/bookkeeping.tsv", false},
	}
	for _, tt := range tests {
		if got := w.ignored(filepath.FromSlash(tt.path)); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_RunsDoNotOverlap(t *testing.T) {
	var active, maxActive, runs atomic.Int32
	release := make(chan struct{})
	w := NewWatcher(t.TempDir(), func(context.Context) error {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		<-release
		active.Add(-1)
		runs.Add(1)
		return nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.trigger(ctx)
	}()
	waitFor(t, func() bool { return active.Load() == 1 })
	// both arrive while the first run is blocked and collapse into one more run
	w.trigger(ctx)
	w.trigger(ctx)
	close(release)
	wg.Wait()

	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
	if got := maxActive.Load(); got != 1 {
		t.Errorf("max concurrent runs = %d, want 1", got)
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent"), func(context.Context) error { return nil })
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing root")
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/ab", false},
		{"/a", "/", false},
		{"/a/b", "/a/b/../c", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, filepath.Clean(tt.path)); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
