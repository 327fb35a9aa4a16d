package main

import (
	"os"
	"time"

	"github.com/markvista/markvista/internal/compile"
	"github.com/markvista/markvista/internal/config"
	"github.com/markvista/markvista/internal/hostsvc"
	"github.com/markvista/markvista/internal/library"
	"github.com/markvista/markvista/internal/notation"
	"github.com/markvista/markvista/internal/remote"
	"github.com/markvista/markvista/internal/render"
	"github.com/rs/zerolog"
)

// core bundles the wired rendering pipeline for one CLI invocation.
type core struct {
	registry *library.Registry
	resolver *library.Resolver
	renderer *render.Renderer
	log      zerolog.Logger
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func newCore(cfg *config.Config, log zerolog.Logger) *core {
	remoteClient := remote.New(cfg.Remote.RenderURL, log)
	hostClient := hostsvc.New(cfg.Host.TypesetURL, log)

	registry := library.Builtin(library.BuiltinOptions{
		LocalDir:   cfg.Engines.LocalDir,
		PrimaryCDN: cfg.Engines.PrimaryCDN,
		AltCDNs:    cfg.Engines.AltCDNs,
	})

	resolver := library.NewResolver(registry, library.Options{
		Client:       remoteClient,
		Log:          log,
		PollAttempts: cfg.Engines.PollAttempts,
		PollInterval: time.Duration(cfg.Engines.PollIntervalMS) * time.Millisecond,
	})

	adapters := notation.NewSet(notation.Deps{
		Resolver:     resolver,
		Remote:       remoteClient,
		Host:         hostClient,
		Log:          log,
		PlantUMLBase: cfg.Remote.PlantUMLURL,
	})

	compiler := compile.New(resolver, log)
	renderer := render.New(compiler, adapters, render.Options{
		Log:         log,
		MaxParallel: cfg.Render.MaxParallel,
	})

	return &core{
		registry: registry,
		resolver: resolver,
		renderer: renderer,
		log:      log,
	}
}
