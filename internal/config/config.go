package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/tarmac-project/crossdb"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

type Database struct {
	Path           string `toml:"path"`
	Library        string `toml:"library"`
	StatementCache int    `toml:"statement_cache"`
}

type LoggerConfigs struct {
	ConsoleLevel string `toml:"console_level"`
	FileLevel    string `toml:"file_level"`
	FileOutput   string `toml:"file_output"`
}

type Config struct {
	Database Database      `toml:"database"`
	Logging  LoggerConfigs `toml:"logger"`
}

// NewConfig returns the configuration used when no file is given.
func NewConfig() *Config {
	return &Config{
		Database: Database{
			Path:           crossdb.MemoryPath,
			StatementCache: crossdb.DefaultStatementCacheCapacity,
		},
		Logging: LoggerConfigs{
			ConsoleLevel: "info",
			FileLevel:    "info",
		},
	}
}

// FromFile reads a TOML file over the defaults. A .env file next to it is
// loaded first when present, and ${VAR} references in paths are expanded.
func FromFile(path string) (*Config, error) {
	conf := NewConfig()

	err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("error loading config TOML: %w", err)
	}

	conf.Database.Path = os.ExpandEnv(conf.Database.Path)
	conf.Database.Library = os.ExpandEnv(conf.Database.Library)
	conf.Logging.FileOutput = os.ExpandEnv(conf.Logging.FileOutput)

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("%w: database.path is empty", ErrInvalid))
	}
	if c.Database.StatementCache < 1 {
		errs = append(errs, fmt.Errorf("%w: database.statement_cache must be at least 1, got %d",
			ErrInvalid, c.Database.StatementCache))
	}
	if _, err := ParseLevel(c.Logging.ConsoleLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: logger.console_level: %w", ErrInvalid, err))
	}
	if _, err := ParseLevel(c.Logging.FileLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: logger.file_level: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", name)
}
