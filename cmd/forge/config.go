package main

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is the configuration of the forge tool.
type Config struct {
	ResourceDir string `toml:"resource_dir"`
	BudgetBytes uint64 `toml:"budget_bytes"`
	Workers     int    `toml:"workers"`
	PointLights int    `toml:"point_lights"`
	SpotLights  int    `toml:"spot_lights"`
}

// DefaultConfig is used when no config file is given.
var DefaultConfig = Config{
	ResourceDir: "resources",
	BudgetBytes: 64 << 20,
	Workers:     4,
	PointLights: 16,
	SpotLights:  8,
}

// LoadConfig reads config file. Options missing in the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %q failed", path)
	}
	if cfg.Workers < 1 {
		return Config{}, errors.Errorf("number of workers must be positive, %d given", cfg.Workers)
	}
	return cfg, nil
}
