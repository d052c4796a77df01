package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arloliu/tsascii/errs"
)

// Usage is printed above the flag defaults.
const Usage = `Usage: tsascii [options] file1 [file2 ...]

Inputs are JSON-lines trace files, optionally .zst, .s2 or .lz4 compressed.
An argument @list names a file listing further inputs, one per line.
"-" reads standard input.

Options:
`

// Parse builds a configuration from args with environment lookups through
// getenv. Usage text goes to output.
//
// When -h is given the returned error is flag.ErrHelp. Other flag errors
// wrap errs.ErrInvalidConfig. Parse does not call Validate.
func Parse(args []string, getenv Getenv, output io.Writer) (*Config, error) {
	if output == nil {
		output = os.Stderr
	}

	args = expandVerbose(args)

	cfg := Default()
	if path := scanConfigFlag(args); path != "" {
		cfg.ConfigFile = path
		if err := cfg.LoadYAML(path); err != nil {
			return nil, err
		}
	}
	if getenv != nil {
		if err := cfg.ApplyEnv(getenv); err != nil {
			return nil, err
		}
	}

	fs := newFlagSet(cfg, output)
	inputs, err := parseInterleaved(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}
	if len(inputs) > 0 {
		cfg.Inputs = inputs
	}

	return cfg, nil
}

func newFlagSet(cfg *Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tsascii", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		_, _ = fmt.Fprint(output, Usage)
		fs.PrintDefaults()
	}

	var configFile string
	fs.StringVar(&configFile, "config", cfg.ConfigFile, "YAML configuration file")
	fs.BoolVar(&cfg.ShowVersion, "V", false, "Report program version and exit")
	fs.Var((*countFlag)(&cfg.Verbosity), "v", "Be more verbose, repeat or use -vv for more")

	fs.BoolVar(&cfg.DeriveRate, "dr", cfg.DeriveRate, "Derive the sample rate from start and end times")
	fs.BoolVar(&cfg.PerFile, "i", cfg.PerFile, "Process each input file separately instead of merging")
	fs.Float64Var(&cfg.TimeTolerance, "tt", cfg.TimeTolerance, "Merge time tolerance in seconds, negative for half a sample period")
	fs.Float64Var(&cfg.RateTolerance, "rt", cfg.RateTolerance, "Merge sample rate tolerance, negative for the default relative check")

	fs.StringVar(&cfg.Layout, "f", cfg.Layout, "Output layout: 1 or slist, 2 or tspair")
	fs.BoolVar(&cfg.GeoCSV, "G", cfg.GeoCSV, "Write GeoCSV headers instead of the simple TIMESERIES header")
	fs.IntVar(&cfg.Columns, "c", cfg.Columns, "Sample columns per line for the sample list layout")
	fs.StringVar(&cfg.Units, "u", cfg.Units, "Sample units for GeoCSV headers")

	fs.StringVar(&cfg.MetadataFile, "m", cfg.MetadataFile, "Metadata file of '|' separated lines")
	fs.Var((*stringSlice)(&cfg.MetadataLines), "M", "Inline metadata line, repeatable")
	fs.BoolVar(&cfg.Scale, "s", cfg.Scale, "Apply the metadata scale factor to samples")

	fs.StringVar(&cfg.OutputFile, "o", cfg.OutputFile, "Write all traces to one file, '-' for standard output")
	fs.StringVar(&cfg.OutputCompression, "oc", cfg.OutputCompression, "Output file compression: none, zstd, s2, lz4")
	fs.StringVar(&cfg.ArchiveFile, "a", cfg.ArchiveFile, "Write every trace as an entry of a ZIP archive, '-' for standard output")
	fs.StringVar(&cfg.ArchiveMethod, "A", cfg.ArchiveMethod, "Archive entry method: store, deflate")
	fs.StringVar(&cfg.OutputDir, "d", cfg.OutputDir, "Directory of per-trace output files")

	fs.StringVar(&cfg.MetricsFile, "metrics", cfg.MetricsFile, "Write run metrics in Prometheus text format to this file")
	fs.StringVar(&cfg.ManifestFile, "manifest", cfg.ManifestFile, "Write a manifest of rendered outputs to this file")
	fs.IntVar(&cfg.ReadAhead, "readahead", cfg.ReadAhead, "Input files decoded ahead of rendering")

	return fs
}

// parseInterleaved lets options follow input names, as in the classic tool.
// Everything after "--" is an input.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var inputs []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return inputs, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(inputs, rest...), nil
		}
		inputs = append(inputs, rest[0])
		args = rest[1:]
	}
}

// expandVerbose rewrites -vv.. into repeated -v.
func expandVerbose(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if len(a) > 2 && a[0] == '-' && strings.Trim(a[1:], "v") == "" {
			for range len(a) - 1 {
				out = append(out, "-v")
			}

			continue
		}
		out = append(out, a)
	}

	return out
}

// scanConfigFlag finds the -config value ahead of full parsing, so that the
// YAML file can sit below environment and flags.
func scanConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a || len(a)-len(name) > 2 {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

// countFlag counts occurrences of a boolean flag.
type countFlag int

func (c *countFlag) String() string {
	if c == nil {
		return "0"
	}

	return strconv.Itoa(int(*c))
}

func (c *countFlag) Set(s string) error {
	switch s {
	case "true":
		*c++
		return nil
	case "false":
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid count %q", s)
	}
	*c = countFlag(n)

	return nil
}

func (c *countFlag) IsBoolFlag() bool { return true }

// stringSlice collects repeated string flags.
type stringSlice []string

func (s *stringSlice) String() string {
	if s == nil {
		return ""
	}

	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}
