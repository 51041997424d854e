// Package config loads the gox configuration: a YAML file, then GOX_*
// environment overrides. Command-line flags are applied by the CLI.
package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/btouchard/gox/internal/compiler/generator"
)

// Config holds every setting the CLI and the native runner read.
type Config struct {
	// CacheDir holds build workspaces, artifacts and the cache index.
	CacheDir string `yaml:"cache_dir"`
	// Go is the go executable used for native builds.
	Go string `yaml:"go"`
	// RuntimeDir is a local checkout of the gox module that workspaces
	// replace the runtime with.
	RuntimeDir string `yaml:"runtime_dir"`
	// RuntimeVersion is the released runtime required when RuntimeDir is
	// empty.
	RuntimeVersion string   `yaml:"runtime_version"`
	BuildFlags     []string `yaml:"build_flags"`
	// Offline resolves modules from the local module cache only.
	Offline  bool   `yaml:"offline"`
	LogLevel string `yaml:"log_level"`
	NoCache  bool   `yaml:"no_cache"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := defaults()
	cfg.locateRuntime()
	return cfg
}

func defaults() *Config {
	cacheDir := filepath.Join(os.TempDir(), "gox")
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "gox")
	}
	return &Config{
		CacheDir:       cacheDir,
		Go:             "go",
		RuntimeVersion: buildVersion(),
		LogLevel:       "warn",
	}
}

// buildVersion is the version of the runtime module this binary was built
// from, or "" for development builds.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path != generator.RuntimeModule {
		return ""
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return ""
}

// locateRuntime points development builds, which carry no runtime
// version, at the checkout they were built from.
func (c *Config) locateRuntime() {
	if c.RuntimeDir != "" || c.RuntimeVersion != "" {
		return
	}
	if _, file, _, ok := runtime.Caller(0); ok && filepath.IsAbs(file) {
		if dir := findCheckout(filepath.Dir(file)); dir != "" {
			c.RuntimeDir = dir
			return
		}
	}
	if wd, err := os.Getwd(); err == nil {
		c.RuntimeDir = findCheckout(wd)
	}
}

// findCheckout returns the nearest directory at or above dir whose go.mod
// declares the runtime module, or "" when the nearest go.mod is another
// module's.
func findCheckout(dir string) string {
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			if modfile.ModulePath(data) == generator.RuntimeModule {
				return dir
			}
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadEnv(os.Getenv)
}

// LoadEnv reads the configuration using getenv for environment lookups.
// The file is $GOX_CONFIG when set, otherwise config.yaml in the user
// config directory; only an explicitly named file must exist.
func LoadEnv(getenv func(string) string) (*Config, error) {
	cfg := defaults()

	path, explicit := getenv("GOX_CONFIG"), true
	if path == "" {
		explicit = false
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "gox", "config.yaml")
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !os.IsNotExist(errors.Cause(err)) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.locateRuntime()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrapf(err, "config: parse %s", path)
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"GOX_CACHE_DIR":       &c.CacheDir,
		"GOX_GO":              &c.Go,
		"GOX_RUNTIME_DIR":     &c.RuntimeDir,
		"GOX_RUNTIME_VERSION": &c.RuntimeVersion,
		"GOX_LOG_LEVEL":       &c.LogLevel,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"GOX_NO_CACHE": &c.NoCache,
		"GOX_OFFLINE":  &c.Offline,
	}
	for name, dst := range bools {
		v := getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("config: %s: %q is not a boolean", name, v)
		}
		*dst = b
	}
	return nil
}

// Validate checks the settings that cannot be fixed up later.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config: log_level")
	}
	if c.CacheDir == "" {
		return errors.New("config: cache_dir is empty")
	}
	if c.RuntimeDir != "" {
		abs, err := filepath.Abs(c.RuntimeDir)
		if err != nil {
			return errors.Wrap(err, "config: runtime_dir")
		}
		c.RuntimeDir = abs
	}
	return nil
}

// CacheIndex is the sqlite database indexing built artifacts.
func (c *Config) CacheIndex() string {
	return filepath.Join(c.CacheDir, "index.db")
}

// Level is the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}
