// Package config loads the settings shared by the hsl commands. Values come
// from defaults, then an optional TOML or YAML file, then HSL_* environment
// variables, then command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown configuration format")

type Configuration struct {
	Version   string `toml:"-" yaml:"-"`
	BuildDate string `toml:"-" yaml:"-"`
	Commit    string `toml:"-" yaml:"-"`
	Home      string `toml:"home" yaml:"home"`

	Log    Log    `toml:"log" yaml:"log"`
	Engine Engine `toml:"engine" yaml:"engine"`
	Store  Store  `toml:"store" yaml:"store"`
	Repl   Repl   `toml:"repl" yaml:"repl"`
}

type Log struct {
	Level   string `toml:"level" yaml:"level"`
	File    string `toml:"file" yaml:"file"`
	Format  string `toml:"format" yaml:"format"`
	NoColor bool   `toml:"no_color" yaml:"no_color"`
}

type Engine struct {
	CacheSize     int           `toml:"cache_size" yaml:"cache_size"`
	MaxDepth      int           `toml:"max_depth" yaml:"max_depth"`
	Timeout       time.Duration `toml:"timeout" yaml:"timeout"`
	Jobs          int           `toml:"jobs" yaml:"jobs"`
	StrictNatives bool          `toml:"strict_natives" yaml:"strict_natives"`
	// Modules names the standard native modules to register. Empty means all.
	Modules []string `toml:"modules" yaml:"modules"`
}

type Store struct {
	Driver string `toml:"driver" yaml:"driver"`
	DSN    string `toml:"dsn" yaml:"dsn"`
}

type Repl struct {
	History string `toml:"history" yaml:"history"`
}

func Default() Configuration {
	return Configuration{
		Version:   "dev",
		BuildDate: "unknown",
		Commit:    "unknown",
		Log: Log{
			Level:  "error",
			Format: "text",
		},
		Engine: Engine{
			CacheSize: 128,
			MaxDepth:  1024,
			Jobs:      4,
		},
		Store: Store{
			Driver: "sqlite3",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the HSL_* variables found by lookup.
func (cfg *Configuration) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HSL_HOME":         &cfg.Home,
		"HSL_LOG_LEVEL":    &cfg.Log.Level,
		"HSL_LOG_FILE":     &cfg.Log.File,
		"HSL_LOG_FORMAT":   &cfg.Log.Format,
		"HSL_STORE_DRIVER": &cfg.Store.Driver,
		"HSL_STORE_DSN":    &cfg.Store.DSN,
		"HSL_HISTORY":      &cfg.Repl.History,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"HSL_CACHE_SIZE": &cfg.Engine.CacheSize,
		"HSL_MAX_DEPTH":  &cfg.Engine.MaxDepth,
		"HSL_JOBS":       &cfg.Engine.Jobs,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"HSL_NO_COLOR":       &cfg.Log.NoColor,
		"HSL_STRICT_NATIVES": &cfg.Engine.StrictNatives,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := lookup("HSL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HSL_TIMEOUT: %w", err)
		}
		cfg.Engine.Timeout = d
	}
	if v, ok := lookup("HSL_MODULES"); ok {
		cfg.Engine.Modules = splitList(v)
	}
	return nil
}

// HistoryFile is the REPL history path, defaulting to a file in Home or the
// user's home directory.
func (cfg *Configuration) HistoryFile() string {
	if cfg.Repl.History != "" {
		return cfg.Repl.History
	}
	dir := cfg.Home
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = home
	}
	return filepath.Join(dir, ".hsl_history")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
