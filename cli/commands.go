package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"slices"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ankit-chaubey/metadata-surgery/core"
	"github.com/ankit-chaubey/metadata-surgery/internal/watch"
)

func newCommand(out io.Writer) *cli.Command {
	a := &app{out: out}
	return &cli.Command{
		Name:  "surgery",
		Usage: "Inspect image and audio metadata and transplant it onto derived files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("SURGERY_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print JSON instead of text",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Metadata backend: goexif, goexif-legacy or tag",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "keys",
				Usage:     "List the metadata keys of a file",
				ArgsUsage: "FILE",
				Action:    a.keys,
			},
			{
				Name:      "get",
				Usage:     "Print label and value of metadata keys (all keys when none are given)",
				ArgsUsage: "FILE [KEY...]",
				Action:    a.get,
			},
			{
				Name:      "date",
				Usage:     "Print the creation timestamp of a file",
				ArgsUsage: "FILE",
				Action:    a.date,
			},
			{
				Name:      "copy",
				Usage:     "Copy the metadata of SRC onto DEST",
				ArgsUsage: "SRC DEST",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "keep-orientation",
						Usage: "Do not reset the orientation of the copy to Normal",
					},
				},
				Action: a.copy,
			},
			{
				Name:      "probe",
				Usage:     "Summarise the metadata of many files",
				ArgsUsage: "FILE...",
				Action:    a.probe,
			},
			{
				Name:   "watch",
				Usage:  "Copy metadata onto derived images as they appear",
				Action: a.watch,
			},
		},
	}
}

func (a *app) keys(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: keys FILE")
	}
	if err := a.setup(cmd); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	p, err := a.open(path)
	if err != nil {
		return err
	}
	a.printer.PrintKeys(path, slices.Collect(p.Keys()))
	return nil
}

func (a *app) get(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("usage: get FILE [KEY...]")
	}
	if err := a.setup(cmd); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	p, err := a.open(path)
	if err != nil {
		return err
	}
	keys := cmd.Args().Slice()[1:]
	if len(keys) == 0 {
		keys = slices.Collect(p.Keys())
	}
	a.printer.PrintDict(path, p.Metadata(keys))
	return nil
}

func (a *app) date(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: date FILE")
	}
	if err := a.setup(cmd); err != nil {
		return err
	}
	path := cmd.Args().Get(0)
	p, err := a.open(path)
	if err != nil {
		return err
	}
	a.printer.PrintDate(path, p.DateTime())
	return nil
}

func (a *app) copy(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return fmt.Errorf("usage: copy SRC DEST")
	}
	if err := a.setup(cmd); err != nil {
		return err
	}
	src, dest := cmd.Args().Get(0), cmd.Args().Get(1)
	p, err := a.open(src)
	if err != nil {
		return err
	}
	if !p.CopyMetadata(dest, a.copyOptions(cmd.Bool("keep-orientation"))...) {
		return fmt.Errorf("copy %s -> %s: %w", src, dest, core.ErrWriteFailure)
	}
	a.printer.PrintSuccess(fmt.Sprintf("metadata copied from %s to %s", src, dest))
	return nil
}

func (a *app) probe(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("usage: probe FILE...")
	}
	if err := a.setup(cmd); err != nil {
		return err
	}
	paths := cmd.Args().Slice()
	providers, err := core.OpenMany(ctx, a.cfg.Probe.Workers, paths...)
	if err != nil {
		return err
	}
	results := make([]core.ProbeResult, len(providers))
	for i, p := range providers {
		results[i] = core.Probe(paths[i], p)
	}
	a.printer.PrintProbe(results)
	return nil
}

func (a *app) watch(ctx context.Context, cmd *cli.Command) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	w, err := watch.New(a.cfg.Watch, a.open,
		watch.WithLogger(slog.Default().With(slog.String("component", "watch"))),
		watch.WithCopyOptions(a.copyOptions(false)...),
	)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
