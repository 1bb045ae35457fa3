package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v2"

	lcfg "github.com/lcfg/go"
	"github.com/lcfg/go/export"
	"github.com/lcfg/go/internal/watch"
)

// env carries what every command needs.
type env struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr, logger: slog.New(slog.NewTextHandler(stderr, nil))}

	return &cli.App{
		Name:      "lcfg",
		Usage:     "check and inspect libconfig-style configuration files",
		Writer:    stdout,
		ErrWriter: stderr,
		Suggest:   true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				EnvVars: []string{"LCFG_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "log format: text or json",
				EnvVars: []string{"LCFG_LOG_FORMAT"},
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := newLogger(e.stderr, c.String("log-level"), c.String("log-format"))
			if err != nil {
				return err
			}
			e.logger = logger
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "parse files and report errors",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "lenient",
						Usage: "accept files whose only errors are bad escape sequences",
					},
				},
				Action: e.check,
			},
			{
				Name:      "get",
				Usage:     "print the setting at a path such as server.ports[0]",
				ArgsUsage: "FILE PATH",
				Action:    e.get,
			},
			{
				Name:      "dump",
				Usage:     "export files as JSON, YAML or TOML, later files overlaying earlier ones",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json, yaml or toml"},
					&cli.StringFlag{Name: "merge", Value: lcfg.MergeDeep, Usage: "deep, shallow or replace"},
					&cli.StringFlag{Name: "lists", Value: lcfg.ListAppend, Usage: "append, replace or unique"},
				},
				Action: e.dump,
			},
			{
				Name:      "watch",
				Usage:     "check a file every time it changes",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "debounce", Value: watch.DefaultDebounce, Usage: "quiet period before re-checking"},
				},
				Action: e.watch,
			},
			{
				Name:  "man",
				Usage: "print the manual page",
				Action: func(c *cli.Context) error {
					page, err := c.App.ToMan()
					if err != nil {
						return err
					}
					_, err = fmt.Fprint(e.stdout, page)
					return err
				},
			},
		},
	}
}

// load parses path and prints its errors as FILE:LINE: message. ok is false
// when the file did not parse; err is only set when it could not be read.
func (e *env) load(path string, lenient bool) (cfg *lcfg.Config, ok bool, err error) {
	cfg = lcfg.New()
	perr := cfg.ParseFile(path)
	if perr != nil && len(cfg.Errors()) == 0 {
		return nil, false, perr
	}
	for _, pe := range cfg.Errors() {
		fmt.Fprintf(e.stderr, "%s:%d: %s\n", path, pe.Loc.Line, pe.Msg)
	}
	if lenient {
		perr = lcfg.FatalOnly(perr)
	}
	return cfg, perr == nil, nil
}

func (e *env) check(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("check: no files given", 2)
	}

	failed := 0
	for _, path := range files {
		cfg, ok, err := e.load(path, c.Bool("lenient"))
		if err != nil {
			e.logger.Error("cannot read file", "file", path, "error", err)
			failed++
			continue
		}
		if !ok {
			failed++
			continue
		}
		e.logger.Debug("file ok", "file", path, "settings", cfg.Root().Count(), "errors", len(cfg.Errors()))
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(files)), 1)
	}
	return nil
}

func (e *env) get(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("get: want FILE PATH", 2)
	}
	cfg, ok, err := e.load(c.Args().Get(0), false)
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("", 1)
	}

	s, err := cfg.Lookup(c.Args().Get(1))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if s.IsScalar() {
		_, err = fmt.Fprintln(e.stdout, s)
		return err
	}
	return export.Write(e.stdout, s, export.FormatJSON)
}

func (e *env) dump(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("dump: no files given", 2)
	}
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	merger := lcfg.NewMerger().WithOptions(lcfg.MergeOptions{
		Strategy:     c.String("merge"),
		ListStrategy: c.String("lists"),
	})

	var merged *lcfg.Setting
	for _, path := range files {
		cfg, ok, err := e.load(path, false)
		if err != nil {
			return err
		}
		if !ok {
			return cli.Exit("", 1)
		}
		if merged == nil {
			merged = cfg.Root()
			continue
		}
		if merged, err = merger.Merge(merged, cfg.Root()); err != nil {
			return cli.Exit(fmt.Sprintf("merging %s: %v", path, err), 1)
		}
		e.logger.Debug("merged", "file", path)
	}

	return export.Write(e.stdout, merged, format)
}

func (e *env) watch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("watch: want FILE", 2)
	}
	path := c.Args().First()

	recheck := func() {
		_, ok, err := e.load(path, false)
		switch {
		case err != nil:
			e.logger.Warn("cannot read file", "file", path, "error", err)
		case ok:
			e.logger.Info("file ok", "file", path)
		default:
			e.logger.Info("file has errors", "file", path)
		}
	}

	w, err := watch.New(func(ev watch.Event) {
		e.logger.Debug("file changed", "file", ev.Path, "op", ev.Op)
		if ev.Op == watch.OpRemove || ev.Op == watch.OpRename {
			e.logger.Warn("file went away", "file", path)
			return
		}
		recheck()
	}, watch.WithDebounce(c.Duration("debounce")), watch.WithLogger(e.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return err
	}
	recheck()

	e.logger.Info("watching", "file", path)
	if err := w.Run(c.Context); err != nil && c.Context.Err() == nil {
		return err
	}
	return nil
}
