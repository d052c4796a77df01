package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteManifest writes one "name,samples,bytes,digest" line per successful
// entry. The digest is the xxHash64 of the entry's text in hex.
func WriteManifest(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 128)
	for _, e := range entries {
		if e.Failed {
			continue
		}
		buf = buf[:0]
		buf = append(buf, e.Name...)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, e.Samples, 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, e.Bytes, 10)
		buf = append(buf, ',')
		buf = fmt.Appendf(buf, "%016x", e.Digest)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteManifestFile writes the manifest of entries to path.
func WriteManifestFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	if err := WriteManifest(f, entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest %s: %w", path, err)
	}

	return f.Close()
}
