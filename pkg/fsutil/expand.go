package fsutil

import (
	"os"
	"path/filepath"
	"regexp"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Mocked out for unit testing.
var lookupEnv = os.LookupEnv

var windowsVarPattern = regexp.MustCompile(`%([^%]+)%`)

// Expand resolves environment variable references in path. Both the Windows
// `%VAR%` form and the `$VAR` / `${VAR}` forms are supported. References to
// unset variables are left unexpanded. A leading `~` is expanded to the
// user's home directory.
func Expand(path string) (string, error) {
	expanded := windowsVarPattern.ReplaceAllStringFunc(path, func(ref string) string {
		if val, ok := lookupEnv(ref[1 : len(ref)-1]); ok {
			return val
		}
		return ref
	})

	expanded = os.Expand(expanded, func(name string) string {
		if val, ok := lookupEnv(name); ok {
			return val
		}
		return "${" + name + "}"
	})

	expanded, err := homedir.Expand(expanded)
	if err != nil {
		return "", errors.WithContext(err, "expand homedir")
	}
	return filepath.Clean(expanded), nil
}
