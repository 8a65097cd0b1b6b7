package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/core/audio"
	"github.com/ankit-chaubey/metadata-surgery/core/config"
	"github.com/ankit-chaubey/metadata-surgery/core/image"
	"github.com/ankit-chaubey/metadata-surgery/core/jpg"
)

var backends = map[string]func() error{
	image.BackendName: image.Init,
	jpg.BackendName:   jpg.Init,
	audio.BackendName: audio.Init,
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	out     io.Writer
	cfg     *config.Config
	printer *core.Printer
}

// setup loads the configuration, installs the logger and activates the
// configured backend.
func (a *app) setup(cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if name := cmd.String("backend"); name != "" {
		cfg.Backend.Name = name
		if err := cfg.Backend.Validate(); err != nil {
			return fmt.Errorf("backend %q: %w", name, err)
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel})))

	if err := activate(cfg.Backend.Name); err != nil {
		return err
	}
	a.cfg = cfg
	a.printer = core.NewPrinter(cmd.Bool("json"), a.out)
	return nil
}

// activate registers the named backend. Asking again for the backend that
// is already active is not an error.
func activate(name string) error {
	initFn, ok := backends[name]
	if !ok {
		return fmt.Errorf("unknown backend %q", name)
	}
	err := initFn()
	if errors.Is(err, core.ErrBackendRegistered) {
		if b, _ := core.Active(); b.Name == name {
			return nil
		}
	}
	return err
}

func (a *app) open(path string) (core.Provider, error) {
	p, err := core.Open(path)
	if err != nil {
		return nil, err
	}
	if core.IsNullBacked(p) {
		slog.Debug("no metadata dictionary", slog.String("path", path), slog.String("backend", p.Name()))
	}
	return p, nil
}

func (a *app) copyOptions(keep bool) []core.CopyOption {
	return []core.CopyOption{core.WithResetOrientation(a.cfg.Copy.ResetOrientation && !keep)}
}
