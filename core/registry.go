package core

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Backend describes a provider implementation that can be made active.
type Backend struct {
	Name    string
	Version string
	// New binds a provider to path. It must not fail: a path that cannot be
	// opened yields a NullBacked provider.
	New func(path string) Provider
}

var active atomic.Pointer[Backend]

// Register makes b the active backend for the rest of the process. Only the
// first call succeeds; later calls return ErrBackendRegistered. Call it during
// start-up, before any provider is opened.
func Register(b Backend) error {
	if b.New == nil {
		return fmt.Errorf("register %q: nil constructor", b.Name)
	}
	if !active.CompareAndSwap(nil, &b) {
		return fmt.Errorf("register %q: %w (active: %q)", b.Name, ErrBackendRegistered, active.Load().Name)
	}
	return nil
}

// Active returns the registered backend.
func Active() (Backend, bool) {
	b := active.Load()
	if b == nil {
		return Backend{}, false
	}
	return *b, true
}

// Open binds the active backend to path.
func Open(path string) (Provider, error) {
	b := active.Load()
	if b == nil {
		return nil, ErrNoBackend
	}
	return b.New(path), nil
}

// OpenMany opens providers for paths concurrently with at most limit
// constructions in flight (runtime.NumCPU() when limit <= 0). Results keep
// the order of paths. Each returned provider belongs to the caller alone.
func OpenMany(ctx context.Context, limit int, paths ...string) ([]Provider, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	b := active.Load()
	if b == nil {
		return nil, ErrNoBackend
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	results := make([]Provider, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = b.New(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
