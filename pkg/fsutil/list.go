package fsutil

import (
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Predicate selects directory entries by base name.
type Predicate func(name string) bool

// HasExt matches names ending in ext, ignoring case.
func HasExt(ext string) Predicate {
	ext = strings.ToLower(ext)
	return func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), ext)
	}
}

// Matching returns the regular files directly inside dir whose names match
// pred, in lexical order. The directory is read when the sequence is iterated,
// so the same sequence can be ranged over again to see the current contents.
// A missing directory yields nothing. Subdirectories are never descended into.
func Matching(fs afero.Fs, dir string, pred Predicate) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		infos, err := afero.ReadDir(fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield("", errors.WithContext(err, "read dir"))
			return
		}

		for _, info := range infos {
			if info.IsDir() || !pred(info.Name()) {
				continue
			}
			if !yield(filepath.Join(dir, info.Name()), nil) {
				return
			}
		}
	}
}
