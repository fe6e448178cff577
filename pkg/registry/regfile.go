package registry

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Headers that `reg export` and regedit write as the first line of an
// export.
const (
	HeaderV5       = "Windows Registry Editor Version 5.00"
	HeaderRegedit4 = "REGEDIT4"
)

// ErrNotExport is returned for files that don't start with a registry export
// header.
var ErrNotExport = errors.New("not a registry export")

// ExportFile summarizes a registry export.
type ExportFile struct {
	Header string

	// Keys are the key paths in the order they appear, without brackets.
	// Deletions (`[-KEY]`) are included with their leading dash.
	Keys []string
}

// ReadExport parses the header and key lines of an export. `reg export`
// writes UTF-16LE with a byte order mark; UTF-8 files, with or without a
// BOM, are also accepted. Values can be arbitrarily long lines, so lines
// aren't length limited. Only a failure to read the header is an error: read
// errors after it just cut the key listing short.
func ReadExport(r io.Reader) (ExportFile, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := bufio.NewReader(transform.NewReader(r, decoder))

	var export ExportFile
	for {
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		switch {
		case line == "":
		case export.Header == "":
			if line != HeaderV5 && line != HeaderRegedit4 {
				return ExportFile{}, ErrNotExport
			}
			export.Header = line
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			export.Keys = append(export.Keys, line[1:len(line)-1])
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if export.Header == "" {
				return ExportFile{}, errors.WithContext(readErr, "read")
			}
			break
		}
	}

	if export.Header == "" {
		return ExportFile{}, ErrNotExport
	}
	return export, nil
}

// ReadExportFile is ReadExport for a file on `fs`.
func ReadExportFile(fs afero.Fs, path string) (ExportFile, error) {
	f, err := fs.Open(path)
	if err != nil {
		return ExportFile{}, errors.WithContext(err, "open")
	}
	defer f.Close()
	return ReadExport(f)
}
