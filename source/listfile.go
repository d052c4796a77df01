package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/arloliu/tsascii/errs"
)

// ListFilePrefix marks an input argument naming a list file.
const ListFilePrefix = "@"

// ExpandArgs replaces every "@path" argument with the file names listed in
// path, keeping the argument order.
//
// A list file that does not exist is logged and skipped. Any other open or
// read error wraps errs.ErrListFile.
func ExpandArgs(args []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, ListFilePrefix) {
			out = append(out, arg)
			continue
		}

		names, err := ReadListFile(strings.TrimPrefix(arg, ListFilePrefix), logger)
		if err != nil {
			if errors.Is(err, errs.ErrListFileNotFound) {
				logger.Warn("list file not found", slog.String("path", arg[1:]))
				continue
			}

			return nil, err
		}
		out = append(out, names...)
	}

	return out, nil
}

// ReadListFile returns the file names listed in path.
func ReadListFile(path string, logger *slog.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrListFileNotFound, path)
		}

		return nil, fmt.Errorf("%w: %s: %w", errs.ErrListFile, path, err)
	}
	defer f.Close()

	if logger != nil {
		logger.Info("reading list of input files", slog.String("path", path))
	}

	names, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrListFile, path, err)
	}

	return names, nil
}

// ParseList reads one entry per line. The file name is the last of one to
// three space-separated fields, which admits the output of common listing
// tools that prefix a size or date. Blank lines and lines with more than
// three fields are ignored.
func ParseList(r io.Reader) ([]string, error) {
	var names []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 1 || len(fields) > 3 {
			continue
		}
		names = append(names, fields[len(fields)-1])
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return names, nil
}
