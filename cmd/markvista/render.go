package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/markvista/markvista/internal/config"
	"github.com/markvista/markvista/internal/render"
	"github.com/samber/oops"
	"github.com/urfave/cli/v3"
)

func newRenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render markdown documents to HTML",
		ArgsUsage: "<file-or-glob...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory (default: stdout)"},
			&cli.BoolFlag{Name: "resolve", Usage: "Resolve all engines before rendering"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Action: renderAction,
	}
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: markvista render <file-or-glob...>").
			Errorf("expected at least one file or glob argument")
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return err
	}

	log := newLogger(cmd.Bool("verbose"))
	app := newCore(cfg, log)

	if cmd.Bool("resolve") {
		summary := app.resolver.ResolveAll(ctx, nil)
		log.Info().
			Int("ready", summary.Succeeded).
			Int("unavailable", summary.Failed).
			Msg("engine resolution finished")
	}

	paths, err := expandArgs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	outDir := cmd.String("out")
	if outDir != "" {
		if mkErr := os.MkdirAll(outDir, 0o755); mkErr != nil {
			return oops.
				Code("WRITE_FAILED").
				With("path", outDir).
				Wrapf(mkErr, "creating output directory")
		}
	}

	for _, path := range paths {
		if renderErr := renderFile(ctx, app, path, outDir); renderErr != nil {
			return renderErr
		}
	}

	return nil
}

func renderFile(ctx context.Context, app *core, path, outDir string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return oops.
			Code("READ_FAILED").
			With("path", path).
			Wrapf(err, "reading document")
	}

	markup, err := app.renderer.Process(ctx, string(content))
	if err != nil {
		// A CLI invocation renders each document once, so a pass can
		// only be superseded by a bug; surface it rather than hide it.
		if errors.Is(err, render.ErrSuperseded) {
			return oops.
				Code("RENDER_SUPERSEDED").
				With("path", path).
				Errorf("render pass for %q was superseded", path)
		}

		return err
	}

	if outDir == "" {
		fmt.Println(markup)
		return nil
	}

	outPath := filepath.Join(outDir, htmlName(path))
	if writeErr := os.WriteFile(outPath, []byte(markup), 0o644); writeErr != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", outPath).
			Wrapf(writeErr, "writing rendered document")
	}

	return nil
}

func expandArgs(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]struct{})

	for _, arg := range args {
		matches, err := expandArg(arg)
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}

			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}

	if len(paths) == 0 {
		return nil, oops.
			Code("INVALID_ARGS").
			Hint("Check the glob pattern against your files").
			Errorf("no documents matched the given arguments")
	}

	return paths, nil
}

func expandArg(arg string) ([]string, error) {
	if !strings.ContainsAny(arg, "*?[{") {
		return []string{arg}, nil
	}

	matches, err := doublestar.FilepathGlob(arg)
	if err != nil {
		return nil, oops.
			Code("INVALID_ARGS").
			With("pattern", arg).
			Wrapf(err, "expanding glob pattern")
	}

	return matches, nil
}

func htmlName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	return base + ".html"
}
