// Package config handles loading and resolving timetools configuration.
// Resolution order (later layers win):
//  1. Built-in defaults
//  2. config.json or config.toml in the current working directory
//  3. Environment variables TIMETOOLS_FORMAT, TIMETOOLS_DB_PATH,
//     TIMETOOLS_COMPACT and TIMETOOLS_ORDER
//  4. CLI flags
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/afero"

	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/timeval"
)

const (
	DefaultConfigFile = "config.json"
	TOMLConfigFile    = "config.toml"
	DefaultFormat     = "table"
	DefaultOrder      = "auto"
	DefaultBenchLoops = 10000
	EnvFormat         = "TIMETOOLS_FORMAT"
	EnvDBPath         = "TIMETOOLS_DB_PATH"
	EnvCompact        = "TIMETOOLS_COMPACT"
	EnvOrder          = "TIMETOOLS_ORDER"
)

// Formats lists every output format the renderers accept.
var Formats = []string{"table", "json", "jsonl", "csv", "tsv", "md", "yaml"}

// Keys lists the settable config keys in display order.
var Keys = []string{"default_format", "compact", "default_order", "db_path", "bench_loops"}

// File is the on-disk representation of config.json / config.toml.
type File struct {
	DefaultFormat string `json:"default_format" toml:"default_format"`
	Compact       bool   `json:"compact" toml:"compact"`
	DefaultOrder  string `json:"default_order" toml:"default_order"`
	DBPath        string `json:"db_path" toml:"db_path"`
	BenchLoops    int    `json:"bench_loops" toml:"bench_loops"`
}

// env is the environment layer. Empty values leave lower layers alone.
type env struct {
	Format  string `env:"TIMETOOLS_FORMAT"`
	DBPath  string `env:"TIMETOOLS_DB_PATH"`
	Compact string `env:"TIMETOOLS_COMPACT"`
	Order   string `env:"TIMETOOLS_ORDER"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Format     string
	Compact    bool
	Order      string // auto | iso | american | european
	DBPath     string
	BenchLoops int
	ConfigPath string // path of the config file that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from all sources.
// flagFormat is the value of --format (empty string if not set).
func Load(fs afero.Fs, flagFormat string) (*Config, error) {
	cfg := &Config{
		Format:     DefaultFormat,
		Order:      DefaultOrder,
		BenchLoops: DefaultBenchLoops,
	}

	// Layer 1: config file (lowest priority)
	f, path, err := ReadFile(fs)
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment
	var e env
	if err := cleanenv.ReadEnv(&e); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if err := applyEnv(cfg, e); err != nil {
		return nil, err
	}

	// Layer 3: CLI flag (highest priority)
	if flagFormat != "" {
		cfg.Format = flagFormat
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".timetools", "timetools.db")
		}
	}
	return cfg, nil
}

// Validate returns an error if a resolved value is unusable.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", "))
	}
	if c.Order != DefaultOrder {
		if _, ok := detect.ParseOrder(c.Order); !ok {
			return fmt.Errorf("unknown date order %q (want auto, iso, american or european)", c.Order)
		}
	}
	if c.BenchLoops < 1 {
		return fmt.Errorf("bench_loops must be positive, got %d", c.BenchLoops)
	}
	return nil
}

// ParseOptions returns the timestamp parser options implied by the config.
func (c *Config) ParseOptions() []timeval.Option {
	if o, ok := detect.ParseOrder(c.Order); ok {
		return []timeval.Option{timeval.WithOrder(o)}
	}
	return nil
}

// ReadFile looks for config.json, then config.toml, in the working
// directory of fs. It returns an error wrapping os.ErrNotExist when neither
// exists.
func ReadFile(fs afero.Fs) (*File, string, error) {
	for _, name := range []string{DefaultConfigFile, TOMLConfigFile} {
		data, err := afero.ReadFile(fs, name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, "", fmt.Errorf("reading %s: %w", name, err)
		}
		var f File
		if err := decode(name, data, &f); err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", name, err)
		}
		path, err := filepath.Abs(name)
		if err != nil {
			path = name
		}
		return &f, path, nil
	}
	return nil, "", fmt.Errorf("no %s or %s: %w", DefaultConfigFile, TOMLConfigFile, os.ErrNotExist)
}

func decode(name string, data []byte, f *File) error {
	if strings.HasSuffix(name, ".toml") {
		_, err := toml.Decode(string(data), f)
		return err
	}
	return json.Unmarshal(data, f)
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Compact {
		cfg.Compact = true
	}
	if f.DefaultOrder != "" {
		cfg.Order = f.DefaultOrder
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.BenchLoops > 0 {
		cfg.BenchLoops = f.BenchLoops
	}
}

func applyEnv(cfg *Config, e env) error {
	if e.Format != "" {
		cfg.Format = e.Format
	}
	if e.DBPath != "" {
		cfg.DBPath = e.DBPath
	}
	if e.Order != "" {
		cfg.Order = e.Order
	}
	if e.Compact != "" {
		b, err := strconv.ParseBool(e.Compact)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCompact, err)
		}
		cfg.Compact = b
	}
	return nil
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config file via `timetools config init`.
func Template() File {
	return File{
		DefaultFormat: DefaultFormat,
		DefaultOrder:  DefaultOrder,
		BenchLoops:    DefaultBenchLoops,
	}
}

// WriteFile serialises a File to path. A .toml extension selects TOML,
// anything else JSON.
func WriteFile(fs afero.Fs, path string, f File) error {
	var buf bytes.Buffer
	if strings.HasSuffix(path, ".toml") {
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	} else {
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		buf.Write(append(data, '\n'))
	}
	return afero.WriteFile(fs, path, buf.Bytes(), 0600)
}

// Get returns the value of key in f as a string.
func Get(f File, key string) (string, error) {
	switch strings.ToLower(key) {
	case "default_format", "format":
		return f.DefaultFormat, nil
	case "compact":
		return strconv.FormatBool(f.Compact), nil
	case "default_order", "order":
		return f.DefaultOrder, nil
	case "db_path":
		return f.DBPath, nil
	case "bench_loops":
		return strconv.Itoa(f.BenchLoops), nil
	}
	return "", unknownKey(key)
}

// Set parses val and stores it under key in f.
func Set(f *File, key, val string) error {
	switch strings.ToLower(key) {
	case "default_format", "format":
		if !slices.Contains(Formats, val) {
			return fmt.Errorf("unknown format %q (want one of %s)", val, strings.Join(Formats, ", "))
		}
		f.DefaultFormat = val
	case "compact":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("compact must be true or false")
		}
		f.Compact = b
	case "default_order", "order":
		if _, ok := detect.ParseOrder(val); !ok && val != DefaultOrder {
			return fmt.Errorf("unknown date order %q (want auto, iso, american or european)", val)
		}
		f.DefaultOrder = val
	case "db_path":
		f.DBPath = val
	case "bench_loops":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return fmt.Errorf("bench_loops must be a positive integer")
		}
		f.BenchLoops = n
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(Keys, ", "))
}
