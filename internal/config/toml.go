// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	Export  ExportConfig  `toml:"export"`
	Log     LogConfig     `toml:"log"`
	Serve   ServeConfig   `toml:"serve"`
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	Path       *string `toml:"path"`
	DebounceMs *int    `toml:"debounce-ms"`
}

// ExportConfig maps export settings.
type ExportConfig struct {
	Dir        *string `toml:"dir"`
	CSVQuoting *string `toml:"csv-quoting"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// ServeConfig maps HTTP server settings.
type ServeConfig struct {
	Addr *string `toml:"addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if cfg.Storage.DebounceMs != nil && *cfg.Storage.DebounceMs < 0 {
		return FileConfig{}, fmt.Errorf("storage.debounce-ms must be >= 0")
	}
	return cfg, nil
}
