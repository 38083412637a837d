package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/scoring"
)

const defaultDSN = "gradebook.db"

type Config struct {
	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`

	Export struct {
		Directory string `toml:"directory"`
	} `toml:"export"`

	Metrics struct {
		Textfile string `toml:"textfile"`
	} `toml:"metrics"`

	Scoring struct {
		Scale scoring.Scale `toml:"scale"`
	} `toml:"scoring"`
}

func DefaultConfig() *Config {
	var config Config
	config.Database.DSN = defaultDSN
	config.Export.Directory = "."
	return &config
}

// LoadConfig reads a TOML file on top of DefaultConfig. A missing file is
// reported with an error wrapping fs.ErrNotExist so callers can fall back.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Database.DSN == "" {
		config.Database.DSN = defaultDSN
	}
	if config.Export.Directory == "" {
		config.Export.Directory = "."
	}
	if len(config.Scoring.Scale) > 0 {
		if err := config.Scoring.Scale.Validate(); err != nil {
			return nil, fmt.Errorf("invalid [scoring] section in %s: %w", path, err)
		}
	}

	logger.Debug.Printf("Loaded config from %s: dsn=%s export_dir=%s scale_bands=%d",
		path,
		config.Database.DSN,
		config.Export.Directory,
		len(config.Scoring.Scale),
	)

	return config, nil
}

// LoadConfigOrDefault is LoadConfig with DefaultConfig standing in for a
// missing file. A malformed file is still an error.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info.Printf("Config %s not found, using defaults", path)
		return DefaultConfig(), nil
	}
	return config, err
}

// ExportPath resolves a relative export target against the export directory.
func (c *Config) ExportPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Export.Directory, name)
}
