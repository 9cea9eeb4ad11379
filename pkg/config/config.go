package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neurodesk/vltemplate/pkg/ctxfile"
	"github.com/neurodesk/vltemplate/pkg/validator"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "vlc.config.yaml"

var LogLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	Listen       string `yaml:"listen"`
	LogLevel     string `yaml:"log_level"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	ContextFile  string `yaml:"context_file,omitempty"`
	CacheDir     string `yaml:"cache_dir,omitempty"`
}

var _ validator.Validatable = Config{}

func Default() Config {
	return Config{
		Listen:       ":8080",
		LogLevel:     "info",
		MaxBodyBytes: 1 << 20,
	}
}

func (c Config) Validate() error {
	return validator.All(
		validator.ListenAddress(c.Listen, "listen"),
		validator.MatchesAllowed(c.LogLevel, LogLevels, "log_level"),
		validator.Positive(c.MaxBodyBytes, "max_body_bytes"),
		validator.OneOfExtensions(c.ContextFile, ctxfile.Extensions, "context_file"),
	)
}

// Level maps LogLevel to a slog level. Unknown values map to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CachePath returns the directory for remote templates and contexts.
func (c Config) CachePath() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vlc")
}

// Decode reads a YAML document on top of the defaults. Unknown keys are an
// error.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. When required is false a missing file
// yields the defaults.
func Load(path string, required bool) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
