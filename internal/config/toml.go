// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Display  DisplayConfig  `toml:"display"`
	Playback PlaybackConfig `toml:"playback"`
	Library  LibraryConfig  `toml:"library"`
	Bridge   BridgeConfig   `toml:"bridge"`
	Log      LogConfig      `toml:"log"`
}

// DisplayConfig maps display-related settings.
type DisplayConfig struct {
	LinesPerWindow *int `toml:"lines-per-window"`
	ThrottleMs     *int `toml:"throttle-ms"`
	WidthCols      *int `toml:"width-cols"`
}

// PlaybackConfig maps playback settings.
type PlaybackConfig struct {
	Tempo *int `toml:"tempo"`
}

// LibraryConfig maps where documents are loaded from.
type LibraryConfig struct {
	Dirs []string `toml:"dirs"`
	DB   *string  `toml:"db"`
}

// BridgeConfig maps the HTTP device bridge settings.
type BridgeConfig struct {
	Listen *string `toml:"listen"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
