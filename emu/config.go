package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"nescore/emu/log"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Emulation EmulationConfig `toml:"emulation"`
	Log       LogConfig       `toml:"log"`
	Trace     TraceConfig     `toml:"trace"`
	Video     VideoConfig     `toml:"video"`
}

type EmulationConfig struct {
	// OpenBus is the value returned by reads of undecoded CPU addresses.
	OpenBus uint8 `toml:"open_bus"`

	// Frames is the number of frames to run in headless mode, 0 runs until
	// the CPU halts.
	Frames int `toml:"frames"`

	// NoDMAStall disables the CPU stall following an OAM DMA transfer.
	NoDMAStall bool `toml:"no_dma_stall"`
}

type LogConfig struct {
	Format  string   `toml:"format"` // text or json
	Modules []string `toml:"modules"`
}

type TraceConfig struct {
	Output string `toml:"output"` // file path, stdout or stderr
}

type VideoConfig struct {
	ScreenshotScale int `toml:"screenshot_scale"`
}

// DefaultConfig returns the configuration used when none has been saved.
func DefaultConfig() Config {
	return Config{
		Emulation: EmulationConfig{Frames: 60},
		Log:       LogConfig{Format: "text"},
		Video:     VideoConfig{ScreenshotScale: 1},
	}
}

const cfgFilename = "config.toml"

// ConfigPath returns the path of the configuration file in the user config
// directory.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nescore", cfgFilename), nil
}

// LoadConfig loads the configuration file at path. Values missing from the
// file keep their default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	if cfg.Video.ScreenshotScale < 1 {
		cfg.Video.ScreenshotScale = 1
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config
// directory, or provides the default one.
func LoadConfigOrDefault() Config {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.Warnf("ignoring config file: %v", err)
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig writes cfg to path, creating the parent directory if needed.
func SaveConfig(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
