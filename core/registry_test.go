package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubProvider struct {
	NullBacked
	path string
}

func stubBackend(name string) Backend {
	return Backend{
		Name:    name,
		Version: "test",
		New:     func(path string) Provider { return &stubProvider{path: path} },
	}
}

func resetRegistry(t *testing.T) {
	t.Helper()
	active.Store(nil)
	t.Cleanup(func() { active.Store(nil) })
}

func TestRegister_WriteOnce(t *testing.T) {
	resetRegistry(t)

	if _, ok := Active(); ok {
		t.Fatal("Active() reported a backend before registration")
	}
	if _, err := Open("a.jpg"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Open() error = %v, want ErrNoBackend", err)
	}

	if err := Register(stubBackend("first")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(stubBackend("second")); !errors.Is(err, ErrBackendRegistered) {
		t.Errorf("second Register() error = %v, want ErrBackendRegistered", err)
	}
	b, ok := Active()
	if !ok || b.Name != "first" {
		t.Errorf("Active() = %q, %v; want first", b.Name, ok)
	}

	p, err := Open("a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if sp, ok := p.(*stubProvider); !ok || sp.path != "a.jpg" {
		t.Errorf("Open() = %#v", p)
	}
}

func TestRegister_NilConstructor(t *testing.T) {
	resetRegistry(t)
	if err := Register(Backend{Name: "broken"}); err == nil {
		t.Error("Register() accepted a backend without constructor")
	}
	if _, ok := Active(); ok {
		t.Error("failed registration left a backend active")
	}
}

func TestOpenMany(t *testing.T) {
	resetRegistry(t)
	if _, err := OpenMany(context.Background(), 2, "a.jpg"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("OpenMany() error = %v, want ErrNoBackend", err)
	}
	if err := Register(stubBackend("stub")); err != nil {
		t.Fatal(err)
	}

	paths := make([]string, 20)
	for i := range paths {
		paths[i] = fmt.Sprintf("img-%02d.jpg", i)
	}
	got, err := OpenMany(context.Background(), 3, paths...)
	if err != nil {
		t.Fatalf("OpenMany: %v", err)
	}
	if len(got) != len(paths) {
		t.Fatalf("OpenMany() returned %d providers, want %d", len(got), len(paths))
	}
	for i, p := range got {
		if sp := p.(*stubProvider); sp.path != paths[i] {
			t.Errorf("provider %d bound to %q, want %q", i, sp.path, paths[i])
		}
	}

	if got, err := OpenMany(context.Background(), 0); err != nil || got != nil {
		t.Errorf("OpenMany() with no paths = %v, %v", got, err)
	}
}

func TestOpenMany_Cancelled(t *testing.T) {
	resetRegistry(t)
	if err := Register(stubBackend("stub")); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := OpenMany(ctx, 1, "a.jpg", "b.jpg"); !errors.Is(err, context.Canceled) {
		t.Errorf("OpenMany() error = %v, want context.Canceled", err)
	}
}
