package config

import (
	"fmt"

	"github.com/ossyrian/mixvfs/internal/locator"
	"github.com/ossyrian/mixvfs/internal/vfs"
)

// Config holds app configuration
type Config struct {
	// Engine selects the set of containers to mount (ts, fs, ra2, yr, auto)
	Engine string `mapstructure:"engine"`

	// InstallDir is the game directory to scan
	// If empty, it is looked up in InstallDirs, then in the platform registry
	InstallDir string `mapstructure:"install_dir"`

	// InstallDirs maps a product (ra2, ts) to its install directory
	InstallDirs map[string]string `mapstructure:"install_dirs"`

	// Mounts are mounted before the engine containers, so their files take precedence
	Mounts []string `mapstructure:"mounts"`

	// Wildcards places discovered containers "after-core" (default) or "first"
	Wildcards string `mapstructure:"wildcards"`

	Output       string `mapstructure:"output"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// EngineVariant parses Engine.
func (c *Config) EngineVariant() (vfs.Engine, error) {
	return vfs.ParseEngine(c.Engine)
}

// PlanOptions parses the sequencing settings.
func (c *Config) PlanOptions() (vfs.PlanOptions, error) {
	w, err := vfs.ParseWildcardPlacement(c.Wildcards)
	if err != nil {
		return vfs.PlanOptions{}, err
	}
	return vfs.PlanOptions{Wildcards: w}, nil
}

// Locator returns the install directory lookup: InstallDirs first, then the platform.
func (c *Config) Locator() (locator.Locator, error) {
	static := make(locator.Static, len(c.InstallDirs))
	for name, dir := range c.InstallDirs {
		p, err := locator.ParseProduct(name)
		if err != nil {
			return nil, fmt.Errorf("install_dirs: %w", err)
		}
		static[p] = dir
	}
	return locator.Chain{static, locator.Platform()}, nil
}

// ResolveInstallDir returns InstallDir, or the located directory for engine.
// An empty result means no directory is known.
func (c *Config) ResolveInstallDir(engine vfs.Engine) (string, error) {
	if c.InstallDir != "" {
		return c.InstallDir, nil
	}

	l, err := c.Locator()
	if err != nil {
		return "", err
	}
	dir, _ := l.Locate(locator.ForEngine(engine))
	return dir, nil
}
