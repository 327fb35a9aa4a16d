package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

const (
	DefaultRenderURL    = "https://kroki.io"
	DefaultPlantUMLURL  = "https://www.plantuml.com/plantuml"
	DefaultPollAttempts = 50
	DefaultPollInterval = 100
	DefaultMaxParallel  = 4
)

// Config is the full markvista configuration.
type Config struct {
	Engines   Engines `koanf:"engines"`
	Remote    Remote  `koanf:"remote"`
	Host      Host    `koanf:"host"`
	Render    Render  `koanf:"render"`
	ConfigDir string  `koanf:"-"`
}

// Engines controls where rendering engines are acquired from.
type Engines struct {
	LocalDir       string   `koanf:"local_dir"`
	PrimaryCDN     string   `koanf:"primary_cdn"      validate:"omitempty,url"`
	AltCDNs        []string `koanf:"alt_cdns"         validate:"omitempty,dive,url"`
	PollAttempts   int      `koanf:"poll_attempts"    validate:"omitempty,gte=1,lte=500"`
	PollIntervalMS int      `koanf:"poll_interval_ms" validate:"omitempty,gte=10,lte=5000"`
}

// Remote configures external rendering services.
type Remote struct {
	RenderURL   string `koanf:"render_url"   validate:"omitempty,url"`
	PlantUMLURL string `koanf:"plantuml_url" validate:"omitempty,url"`
}

// Host configures the privileged typeset service exposed by the host
// application process. Empty means the host exposed none.
type Host struct {
	TypesetURL string `koanf:"typeset_url" validate:"omitempty,url"`
}

// Render tunes the post-processing orchestrator.
type Render struct {
	MaxParallel int `koanf:"max_parallel" validate:"omitempty,gte=1,lte=64"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.Remote.RenderURL == "" {
		c.Remote.RenderURL = DefaultRenderURL
	}
	if c.Remote.PlantUMLURL == "" {
		c.Remote.PlantUMLURL = DefaultPlantUMLURL
	}
	if c.Engines.PollAttempts == 0 {
		c.Engines.PollAttempts = DefaultPollAttempts
	}
	if c.Engines.PollIntervalMS == 0 {
		c.Engines.PollIntervalMS = DefaultPollInterval
	}
	if c.Render.MaxParallel == 0 {
		c.Render.MaxParallel = DefaultMaxParallel
	}
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return oops.
				Code("CONFIG_INVALID").
				Wrapf(err, "validating config")
		}

		for _, fe := range validationErrors {
			return mapValidationError(fe)
		}
	}

	return nil
}

func mapValidationError(fe validator.FieldError) error {
	field := strings.ToLower(fe.Namespace())

	switch fe.Tag() {
	case "url":
		return oops.
			Code("CONFIG_INVALID").
			With("field", field).
			Hint("Use an absolute http(s) URL").
			Errorf("invalid URL in config field %s", field)
	case "gte", "lte":
		return oops.
			Code("CONFIG_INVALID").
			With("field", field).
			Errorf("config field %s is out of range", field)
	default:
		return oops.
			Code("CONFIG_INVALID").
			With("field", field).
			With("tag", fe.Tag()).
			Errorf("invalid config field %s", field)
	}
}
