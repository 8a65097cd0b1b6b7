package watch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/core/config"
	"github.com/ankit-chaubey/metadata-surgery/core/image"
	"github.com/ankit-chaubey/metadata-surgery/internal/testutil"
)

type syncEvent struct {
	path string
	ok   bool
}

func openImage(path string) (core.Provider, error) { return image.New(path), nil }

func startWatcher(t *testing.T, opts ...Option) (src, derived string, events <-chan syncEvent) {
	t.Helper()
	src, derived = t.TempDir(), t.TempDir()
	ch := make(chan syncEvent, 16)

	opts = append(opts, WithCallback(func(path string, ok bool) { ch <- syncEvent{path, ok} }))
	w, err := New(config.WatchConfig{Source: src, Derived: derived, Debounce: 50 * time.Millisecond}, openImage, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
	return src, derived, ch
}

func next(t *testing.T, events <-chan syncEvent) syncEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no sync within 5s")
		return syncEvent{}
	}
}

func TestWatcher_CopiesFromOriginal(t *testing.T) {
	src, derived, events := startWatcher(t)
	testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, src, "photo.jpg")

	thumb := testutil.JPEG{}.Write(t, derived, "photo.jpg")
	ev := next(t, events)
	if ev.path != thumb || !ev.ok {
		t.Fatalf("sync = %+v, want ok for %s", ev, thumb)
	}

	d := image.New(thumb).Metadata([]string{"Exif.Image.Make", core.OrientationKey})
	if d["Exif.Image.Make"].Value != "Acme" || d[core.OrientationKey].Value != "Normal" {
		t.Errorf("derived metadata = %v", d)
	}

	// Our own write must not trigger another copy.
	select {
	case ev := <-events:
		t.Errorf("unexpected second sync %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_MatchesStem(t *testing.T) {
	src, derived, events := startWatcher(t, WithCopyOptions(core.KeepOrientation()))
	testutil.JPEG{Exif: testutil.SampleExif()}.Write(t, src, "scan.jpg")

	converted := testutil.WriteFile(t, derived, "scan.png", testutil.PNG(t, nil))
	ev := next(t, events)
	if ev.path != converted || !ev.ok {
		t.Fatalf("sync = %+v, want ok for %s", ev, converted)
	}
	d := image.New(converted).Metadata([]string{core.OrientationKey})
	if d[core.OrientationKey].Value != "Rotate 90 CW" {
		t.Errorf("Orientation = %v, want Rotate 90 CW", d)
	}
}

func TestWatcher_NoOriginal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	_, derived, events := startWatcher(t, WithLogger(logger))
	orphan := testutil.JPEG{}.Write(t, derived, "orphan.jpg")

	ev := next(t, events)
	if ev.path != orphan || ev.ok {
		t.Errorf("sync = %+v, want failure for %s", ev, orphan)
	}
	if !strings.Contains(logs.String(), "watcher: no original") {
		t.Errorf("log output %q, want a no original warning", logs.String())
	}
}

func TestNew_NotReady(t *testing.T) {
	if _, err := New(config.WatchConfig{Source: t.TempDir()}, openImage); err == nil {
		t.Error("New() accepted a config without derived directory")
	}
	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := New(config.WatchConfig{Source: t.TempDir(), Derived: missing}, openImage); err == nil {
		t.Error("New() accepted a missing derived directory")
	}
}

func TestOriginal(t *testing.T) {
	src := t.TempDir()
	w := &Watcher{source: src}
	for _, name := range []string{"a.jpg", "b.tif", "b.tiff.bak", "c[1].jpg"} {
		if err := os.WriteFile(filepath.Join(src, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := map[string]string{
		"a.jpg":    "a.jpg",
		"a.png":    "a.jpg",
		"b.png":    "b.tif",
		"c[1].png": "c[1].jpg",
	}
	for name, want := range tests {
		got, err := w.original(name)
		if err != nil {
			t.Errorf("original(%q): %v", name, err)
			continue
		}
		if got != filepath.Join(src, want) {
			t.Errorf("original(%q) = %q, want %q", name, got, want)
		}
	}
	if _, err := w.original("d.jpg"); !errors.Is(err, errNoOriginal) {
		t.Errorf("original(d.jpg) error = %v, want errNoOriginal", err)
	}
}
