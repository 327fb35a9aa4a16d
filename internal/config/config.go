// Package config loads markvista configuration from TOML files.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

func configFilenames() []string {
	return []string{"markvista.toml", ".markvista.toml"}
}

// Load reads the config at configPath, or discovers one by walking up
// from the working directory when configPath is empty.
func Load(configPath string) (*Config, error) {
	resolvedPath, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}

	absConfigPath, err := filepath.Abs(resolvedPath)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving absolute config path")
	}

	cfg := &Config{}
	k := koanf.New(".")

	if loadErr := k.Load(file.Provider(absConfigPath), toml.Parser()); loadErr != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", absConfigPath).
			Hint("Fix TOML syntax in your config").
			Wrapf(loadErr, "loading config from %q", absConfigPath)
	}

	if unmarshalErr := k.Unmarshal("", cfg); unmarshalErr != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", absConfigPath).
			Hint("Fix config structure to match the markvista schema").
			Wrapf(unmarshalErr, "decoding config from %q", absConfigPath)
	}

	cfg.ConfigDir = filepath.Dir(absConfigPath)
	cfg.ApplyDefaults()

	if valErr := cfg.Validate(); valErr != nil {
		return nil, valErr
	}

	if cfg.Engines.LocalDir != "" && !filepath.IsAbs(cfg.Engines.LocalDir) {
		cfg.Engines.LocalDir = filepath.Clean(filepath.Join(cfg.ConfigDir, cfg.Engines.LocalDir))
	}

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults when no
// config file exists anywhere up the tree.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err == nil {
		return cfg, nil
	}

	if typed, ok := oops.AsOops(err); ok && typed.Code() == "CONFIG_NOT_FOUND" && configPath == "" {
		return Default(), nil
	}

	return nil, err
}

// FindConfigFile walks up from the working directory looking for a
// markvista config file.
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", oops.Wrapf(err, "getting working directory")
	}

	for {
		foundPath, found, findErr := findConfigInDirectory(dir)
		if findErr != nil {
			return "", findErr
		}

		if found {
			return foundPath, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			return "", oops.
				Code("CONFIG_NOT_FOUND").
				Hint("Create markvista.toml or pass --config").
				Errorf("no markvista.toml or .markvista.toml found in any parent directory")
		}

		dir = parentDir
	}
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", oops.
					Code("CONFIG_NOT_FOUND").
					With("path", configPath).
					Hint("Create the file or pass a valid --config path").
					Errorf("config file %q does not exist", configPath)
			}

			return "", oops.Wrapf(err, "checking config file %q", configPath)
		}

		return configPath, nil
	}

	return FindConfigFile()
}

func findConfigInDirectory(dir string) (string, bool, error) {
	for _, name := range configFilenames() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, oops.Wrapf(err, "checking for config file at %q", path)
		}
	}

	return "", false, nil
}
