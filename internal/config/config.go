// Package config builds the run configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults
//  2. a YAML file named by -config
//  3. .env in the working directory and TSASCII_* environment variables
//  4. command line flags
//
// The result is one Config value threaded through the pipeline.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/tsascii/errs"
	"github.com/arloliu/tsascii/format"
	"github.com/arloliu/tsascii/internal/upload"
)

// Defaults of the run configuration.
const (
	DefaultLayout        = "1"
	DefaultColumns       = 1
	DefaultUnits         = "Counts"
	DefaultArchiveMethod = "store"
	DefaultReadAhead     = 4
	MaxColumns           = 100
)

// Config is the complete configuration of one conversion run.
type Config struct {
	Verbosity int `yaml:"verbosity"`

	// Trace handling.
	DeriveRate    bool    `yaml:"derive_rate"`
	PerFile       bool    `yaml:"per_file"`
	TimeTolerance float64 `yaml:"time_tolerance"`
	RateTolerance float64 `yaml:"rate_tolerance"`

	// Rendering.
	Layout  string `yaml:"layout"`
	GeoCSV  bool   `yaml:"geocsv"`
	Columns int    `yaml:"columns"`
	Units   string `yaml:"units"`

	// Metadata.
	MetadataFile  string   `yaml:"metadata_file"`
	MetadataLines []string `yaml:"metadata"`
	Scale         bool     `yaml:"scale"`

	// Outputs.
	OutputFile        string `yaml:"output_file"`
	OutputCompression string `yaml:"output_compression"`
	ArchiveFile       string `yaml:"archive_file"`
	ArchiveMethod     string `yaml:"archive_method"`
	OutputDir         string `yaml:"output_dir"`
	MetricsFile       string `yaml:"metrics_file"`
	ManifestFile      string `yaml:"manifest_file"`

	ReadAhead int           `yaml:"read_ahead"`
	Upload    upload.Config `yaml:"upload"`

	Inputs []string `yaml:"inputs"`

	// Set by flags only.
	ConfigFile  string `yaml:"-"`
	ShowVersion bool   `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TimeTolerance: -1,
		RateTolerance: -1,
		Layout:        DefaultLayout,
		Columns:       DefaultColumns,
		Units:         DefaultUnits,
		ArchiveMethod: DefaultArchiveMethod,
		OutputDir:     ".",
		ReadAhead:     DefaultReadAhead,
	}
}

// LoadYAML overlays the YAML file at path onto c.
func (c *Config) LoadYAML(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config %s: %w", errs.ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("%w: parse config %s: %w", errs.ErrInvalidConfig, path, err)
	}

	return nil
}

// Getenv looks up one environment variable.
type Getenv func(key string) string

// DotEnv returns a lookup that consults the given .env files before the
// process environment. Missing files are ignored; with no files, ".env" is
// tried. Real environment variables win over file entries.
func DotEnv(files ...string) (Getenv, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	merged := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, fmt.Errorf("%w: read %s: %w", errs.ErrInvalidConfig, f, err)
		}
		for k, v := range vals {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}

	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}

		return merged[key]
	}, nil
}

// ApplyEnv overlays TSASCII_* variables onto c.
func (c *Config) ApplyEnv(getenv Getenv) error {
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	boolean := func(dst *bool, key string) error {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", errs.ErrInvalidConfig, key, raw)
		}
		*dst = v

		return nil
	}
	integer := func(dst *int, key string) error {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", errs.ErrInvalidConfig, key, raw)
		}
		*dst = v

		return nil
	}
	float := func(dst *float64, key string) error {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", errs.ErrInvalidConfig, key, raw)
		}
		*dst = v

		return nil
	}

	str(&c.Layout, "TSASCII_LAYOUT")
	str(&c.Units, "TSASCII_UNITS")
	str(&c.MetadataFile, "TSASCII_METADATA_FILE")
	str(&c.OutputFile, "TSASCII_OUTPUT_FILE")
	str(&c.OutputCompression, "TSASCII_OUTPUT_COMPRESSION")
	str(&c.ArchiveFile, "TSASCII_ARCHIVE_FILE")
	str(&c.ArchiveMethod, "TSASCII_ARCHIVE_METHOD")
	str(&c.OutputDir, "TSASCII_OUTPUT_DIR")
	str(&c.MetricsFile, "TSASCII_METRICS_FILE")
	str(&c.ManifestFile, "TSASCII_MANIFEST_FILE")

	for _, err := range []error{
		integer(&c.Verbosity, "TSASCII_VERBOSITY"),
		integer(&c.Columns, "TSASCII_COLUMNS"),
		integer(&c.ReadAhead, "TSASCII_READ_AHEAD"),
		boolean(&c.DeriveRate, "TSASCII_DERIVE_RATE"),
		boolean(&c.PerFile, "TSASCII_PER_FILE"),
		boolean(&c.GeoCSV, "TSASCII_GEOCSV"),
		boolean(&c.Scale, "TSASCII_SCALE"),
		float(&c.TimeTolerance, "TSASCII_TIME_TOLERANCE"),
		float(&c.RateTolerance, "TSASCII_RATE_TOLERANCE"),
	} {
		if err != nil {
			return err
		}
	}

	return c.Upload.ApplyEnv(getenv)
}

// Validate checks ranges and selectors. Errors wrap errs.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Columns < 1 || c.Columns > MaxColumns {
		return fmt.Errorf("%w: column count %d outside 1..%d", errs.ErrInvalidConfig, c.Columns, MaxColumns)
	}
	if _, err := c.LayoutValue(); err != nil {
		return err
	}
	if _, err := c.CompressionValue(); err != nil {
		return err
	}
	if _, err := c.ArchiveMethodValue(); err != nil {
		return err
	}
	if c.ReadAhead < 0 {
		return fmt.Errorf("%w: negative read-ahead %d", errs.ErrInvalidConfig, c.ReadAhead)
	}
	if c.OutputFile == "-" && c.ArchiveFile == "-" {
		return fmt.Errorf("%w: output file and archive cannot both be standard output", errs.ErrInvalidConfig)
	}
	if c.OutputCompression != "" && c.OutputFile == "" {
		ct, _ := c.CompressionValue()
		if ct != format.CompressionNone {
			return fmt.Errorf("%w: output compression requires an output file", errs.ErrInvalidConfig)
		}
	}

	return c.Upload.Validate()
}

// LayoutValue returns the selected body layout.
func (c *Config) LayoutValue() (format.Layout, error) {
	l, err := format.ParseLayout(c.Layout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	return l, nil
}

// Dialect returns the selected header dialect.
func (c *Config) Dialect() format.HeaderDialect {
	if c.GeoCSV {
		return format.DialectGeoCSV
	}

	return format.DialectSimple
}

// CompressionValue returns the shared-file compression.
func (c *Config) CompressionValue() (format.CompressionType, error) {
	ct, err := format.ParseCompression(c.OutputCompression)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	return ct, nil
}

// ArchiveMethodValue returns the archive entry method.
func (c *Config) ArchiveMethodValue() (format.ArchiveMethod, error) {
	m, err := format.ParseArchiveMethod(c.ArchiveMethod)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	return m, nil
}

// LevelNotice sits between Info and Warn. Per-trace progress is logged at
// this level so that it shows without -v.
const LevelNotice = slog.Level(2)

// LogLevel maps the verbosity count to a log level.
func (c *Config) LogLevel() slog.Level {
	switch {
	case c.Verbosity <= 0:
		return LevelNotice
	case c.Verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewLogger returns a text logger writing to w, standard error when nil, at
// the configured level. From verbosity 3 on, records carry their source.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       c.LogLevel(),
		AddSource:   c.Verbosity >= 3,
		ReplaceAttr: replaceLevel,
	}))
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelNotice {
			a.Value = slog.StringValue("NOTICE")
		}
	}

	return a
}
