package main

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/markvista/markvista/internal/config"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/ui"
	"github.com/urfave/cli/v3"
)

func newEnginesCommand() *cli.Command {
	return &cli.Command{
		Name:  "engines",
		Usage: "Resolve all rendering engines and report readiness",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
			&cli.BoolFlag{Name: "retry", Usage: "Retry engines that previously failed"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Enable debug logging"},
		},
		Action: enginesAction,
	}
}

func enginesAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return err
	}

	log := newLogger(cmd.Bool("verbose"))
	app := newCore(cfg, log)

	var tracker *progress.Tracker
	if !cmd.Bool("json") {
		writer := ui.NewProgressWriter()
		tracker = &progress.Tracker{
			Message: "resolving engines",
			Total:   int64(len(app.registry.All())),
		}
		writer.AppendTracker(tracker)
		go writer.Render()
	}

	summary := app.resolver.ResolveAll(ctx, tracker)

	if cmd.Bool("retry") && summary.Failed > 0 {
		for _, entry := range summary.Entries {
			if entry.Status != library.StatusReady {
				_, _ = app.resolver.Retry(ctx, entry.Name)
			}
		}

		summary = app.resolver.ResolveAll(ctx, nil)
	}

	return ui.RenderEngineSummary(summary, ui.ListOptions{JSON: cmd.Bool("json")})
}
