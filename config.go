package termview

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "termview"

// Config selects the backend and the normalization policy for loaded images
type Config struct {
	Output       Output
	NoCache      bool
	OriginCenter bool
	Scaler       ScaleMode
	// CacheDir overrides where resized images are persisted
	CacheDir string
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() Config {
	return Config{
		Output: OutputCanvas,
		Scaler: ScaleContain,
	}
}

// fileConfig mirrors the TOML layout
type fileConfig struct {
	Output       string `koanf:"output"`
	NoCache      *bool  `koanf:"no_cache"`
	OriginCenter *bool  `koanf:"origin_center"`
	Scaler       string `koanf:"scaler"`
	CacheDir     string `koanf:"cache_dir"`
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/termview/config.toml
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// LoadConfig reads the given TOML files in order (later files win) on top of
// DefaultConfig. Missing files are skipped. TERMVIEW_OUTPUT overrides the output.
func LoadConfig(paths ...string) (Config, error) {
	cfg := DefaultConfig()
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	var fc fileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if env := os.Getenv("TERMVIEW_OUTPUT"); env != "" {
		fc.Output = env
	}
	if fc.Output != "" {
		out, err := ParseOutput(fc.Output)
		if err != nil {
			return cfg, err
		}
		cfg.Output = out
	}
	if fc.Scaler != "" {
		scaler, err := ParseScaleMode(fc.Scaler)
		if err != nil {
			return cfg, err
		}
		cfg.Scaler = scaler
	}
	if fc.NoCache != nil {
		cfg.NoCache = *fc.NoCache
	}
	if fc.OriginCenter != nil {
		cfg.OriginCenter = *fc.OriginCenter
	}
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	return cfg, nil
}
