package fetcher

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrListNotFound is returned by ReadZIPList when the list file does not exist.
var ErrListNotFound = eris.New("fetcher: zip list file not found")

// ReadZIPList reads ZIP codes from path. Files ending in .xlsx are read from
// the first column of the first sheet; anything else is newline-delimited.
// Entries are trimmed and blank entries skipped. Entries are not validated;
// malformed codes fail later in the pipeline.
func ReadZIPList(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrListNotFound, "fetcher: %s", path)
		}
		return nil, eris.Wrapf(err, "fetcher: stat %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSXZIPs(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseZIPLines(f)
}

// ParseZIPLines reads one ZIP code per line, skipping blank lines.
func ParseZIPLines(r io.Reader) ([]string, error) {
	var zips []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if z := strings.TrimSpace(sc.Text()); z != "" {
			zips = append(zips, z)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "fetcher: read zip list")
	}
	return zips, nil
}

// IsListNotFound reports whether err is a missing ZIP list file.
func IsListNotFound(err error) bool {
	return eris.Is(err, ErrListNotFound)
}
