package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func collect(w *Watcher) <-chan Event {
	ch := make(chan Event, 16)
	w.OnChange(func(e Event) { ch <- e })
	return ch
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		existing, next, want Operation
	}{
		{OpCreate, OpWrite, OpCreate},
		{OpWrite, OpWrite, OpWrite},
		{OpWrite, OpRemove, OpRemove},
		{OpCreate, OpRemove, OpRemove},
		{OpRemove, OpCreate, OpWrite},
		{OpRename, OpCreate, OpWrite},
		{OpWrite, OpRename, OpRename},
		{OpRemove, OpWrite, OpRemove},
	}
	for _, tt := range tests {
		if got := coalesce(tt.existing, tt.next); got != tt.want {
			t.Errorf("coalesce(%s, %s) = %s, want %s", tt.existing, tt.next, got, tt.want)
		}
	}
}

func TestWatcher_ReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, "p {}")

	w := newWatcher(t, WithDebounce(20*time.Millisecond))
	events := collect(w)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeFile(t, path, "p { color: red; }")

	e := waitEvent(t, events)
	abs, _ := filepath.Abs(path)
	if e.Path != abs {
		t.Errorf("Path = %s, want %s", e.Path, abs)
	}
	if e.Op != OpWrite {
		t.Errorf("Op = %s, want write", e.Op)
	}
}

func TestWatcher_ReportsCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "later.css")

	w := newWatcher(t, WithDebounce(20*time.Millisecond))
	events := collect(w)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeFile(t, path, "p {}")

	if e := waitEvent(t, events); e.Op != OpCreate {
		t.Errorf("Op = %s, want create", e.Op)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, "")

	w := newWatcher(t, WithDebounce(150*time.Millisecond))
	events := collect(w)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, path, "p {}")
	}

	waitEvent(t, events)
	select {
	case e := <-events:
		t.Errorf("burst produced a second event: %+v", e)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnwatchedSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.css")
	other := filepath.Join(dir, "b.css")
	writeFile(t, watched, "")

	w := newWatcher(t, WithDebounce(0))
	events := collect(w)
	if err := w.Watch(watched); err != nil {
		t.Fatal(err)
	}

	writeFile(t, other, "x")
	select {
	case e := <-events:
		t.Errorf("event for unwatched file: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_HandlerPanicIsContained(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.css")
	writeFile(t, path, "")

	w := newWatcher(t, WithDebounce(10*time.Millisecond))
	w.OnChange(func(Event) { panic("boom") })
	events := collect(w)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "p {}")
	waitEvent(t, events)
}

func TestWatcher_WatchListAndClose(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.css")
	b := filepath.Join(dir, "b.css")

	w := newWatcher(t)
	for _, p := range []string{b, a, a} {
		if err := w.Watch(p); err != nil {
			t.Fatalf("Watch(%s) error = %v", p, err)
		}
	}
	files := w.WatchedFiles()
	if len(files) != 2 || filepath.Base(files[0]) != "a.css" {
		t.Errorf("WatchedFiles() = %v", files)
	}

	if err := w.Unwatch(a); err != nil {
		t.Errorf("Unwatch() error = %v", err)
	}
	if err := w.Unwatch(a); !errors.Is(err, ErrNotWatching) {
		t.Errorf("second Unwatch() error = %v, want ErrNotWatching", err)
	}

	if err := w.Watch(filepath.Join(dir, "missing", "c.css")); err == nil {
		t.Error("Watch() in a missing directory succeeded")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Watch(a); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch() after Close error = %v, want ErrWatcherClosed", err)
	}
}
