// Package watch keeps derived images (thumbnails, conversions) in step with
// the metadata of their originals. When a file appears or changes in the
// derived directory, the metadata of the original with the same name is
// copied onto it.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/core/config"
)

// Opener binds a provider to the original at path.
type Opener func(path string) (core.Provider, error)

// SyncCallback is called after every copy attempt.
type SyncCallback func(derived string, ok bool)

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger replaces slog.Default as the destination of watcher logs.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

func WithCopyOptions(opts ...core.CopyOption) Option {
	return func(w *Watcher) { w.copyOpts = opts }
}

func WithCallback(cb SyncCallback) Option {
	return func(w *Watcher) { w.onSync = cb }
}

// stamp identifies the content we last wrote to a derived file.
type stamp struct {
	mod  time.Time
	size int64
}

// Watcher copies metadata from originals onto derived images.
type Watcher struct {
	source   string
	derived  string
	debounce time.Duration
	open     Opener
	copyOpts []core.CopyOption
	logger   *slog.Logger
	onSync   SyncCallback

	fs      *fsnotify.Watcher
	written map[string]stamp
}

// New starts watching cfg.Derived. Events are handled once Run is called.
func New(cfg config.WatchConfig, open Opener, opts ...Option) (*Watcher, error) {
	if err := cfg.Ready(); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		source:   cfg.Source,
		derived:  cfg.Derived,
		debounce: cfg.Debounce,
		open:     open,
		logger:   slog.Default(),
		written:  map[string]stamp{},
	}
	for _, opt := range opts {
		opt(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(w.derived); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.derived, err)
	}
	w.fs = fw
	return w, nil
}

// Run processes change events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	w.logger.Info("watcher: started", slog.String("source", w.source), slog.String("derived", w.derived))

	due := make(chan string)
	pending := map[string]*time.Timer{}
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case path := <-due:
			delete(pending, path)
			w.sync(path)

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || skipName(ev.Name) {
				continue
			}
			if t, ok := pending[ev.Name]; ok {
				t.Reset(w.debounce)
				continue
			}
			path := ev.Name
			pending[path] = time.AfterFunc(w.debounce, func() {
				select {
				case due <- path:
				case <-ctx.Done():
				}
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error { return w.fs.Close() }

func skipName(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// sync copies the original's metadata onto the derived file at path, unless
// path still holds what the previous sync wrote.
func (w *Watcher) sync(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if s, ok := w.written[path]; ok && s.mod.Equal(info.ModTime()) && s.size == info.Size() {
		w.logger.Debug("watcher: unchanged since last sync", slog.String("path", path))
		return
	}

	ok := w.copy(path)
	if ok {
		if info, err := os.Stat(path); err == nil {
			w.written[path] = stamp{mod: info.ModTime(), size: info.Size()}
		}
	}
	if w.onSync != nil {
		w.onSync(path, ok)
	}
}

func (w *Watcher) copy(path string) bool {
	src, err := w.original(filepath.Base(path))
	if err != nil {
		w.logger.Warn("watcher: no original", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	p, err := w.open(src)
	if err != nil {
		w.logger.Warn("watcher: open failed", slog.String("path", src), slog.String("error", err.Error()))
		return false
	}
	if !p.CopyMetadata(path, w.copyOpts...) {
		w.logger.Warn("watcher: copy failed", slog.String("source", src), slog.String("path", path))
		return false
	}
	w.logger.Debug("watcher: synced", slog.String("source", src), slog.String("path", path))
	return true
}

var errNoOriginal = errors.New("original not found")

// original finds the file in the source directory named like name, or
// failing that one with the same stem and another extension.
func (w *Watcher) original(name string) (string, error) {
	exact := filepath.Join(w.source, name)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, nil
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	matches, err := filepath.Glob(filepath.Join(globEscape(w.source), globEscape(stem)+".*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)) == stem {
			return m, nil
		}
	}
	return "", fmt.Errorf("%s in %s: %w", name, w.source, errNoOriginal)
}

func globEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
