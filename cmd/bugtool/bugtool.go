package bugtool

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/fsutil"
	"github.com/sidkik/portable-launcher/pkg/version"
)

var fs = afero.NewOsFs()

// New creates a new `bug-tool` command.
func New() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "bug-tool",
		Short: "Generate an archive for debugging the launcher",
		Run:   func(cmd *cobra.Command, _ []string) { main(cmd, out) },
	}
	cmd.Flags().StringVar(&out, "out", "", "path for archive")
	return cmd
}

func main(cmd *cobra.Command, out string) {
	root, err := util.GetRoot(cmd)
	if err != nil {
		util.HandleFatalError(errors.WithContext(err, "get portable root"))
	}

	tmpdir, err := afero.TempDir(fs, "", "launcher-bug-tool")
	if err != nil {
		err = errors.NewFriendlyError("Failed to create out directory:\n%s", err)
		util.HandleFatalError(err)
	}

	// Wrap defer in a function to handle errors from fs.RemoveAll().
	defer func() {
		err := fs.RemoveAll(tmpdir)
		if err != nil {
			util.HandleFatalError(err)
		}
	}()

	setupInfo(tmpdir, config.Paths{Root: root})

	if out == "" {
		out = fmt.Sprintf("launcher-bug-info-%s.tar.gz",
			time.Now().Format("Jan_02_2006-15-04-05"))
	}
	if err := tarDirectory(tmpdir, out); err != nil {
		err = errors.NewFriendlyError("Failed to tar:\n%s", err)
		util.HandleFatalError(err)
	}

	msg := `Created bug information archive at '%s'.
You may want to edit the archive before sharing it, since registry exports can
contain sensitive information.
The archive contains:
 * The launcher config.
 * The launcher debug logs, including archived ones.
 * The current and previous registry exports.
 * A listing of the portable data files, without their contents.
 * The version of the launcher.
`
	fmt.Printf(msg, out)
}

func setupInfo(dst string, paths config.Paths) {
	if err := fsutil.CopyFile(fs, paths.ConfigFile(), filepath.Join(dst, "launcher.yaml")); err != nil {
		log.WithError(err).Warn("Failed to setup launcher config")
	}

	isLog := func(name string) bool {
		return strings.HasPrefix(name, "launcher_debug") && fsutil.HasExt(".log")(name)
	}
	if err := copyMatching(paths.Root, filepath.Join(dst, "logs"), isLog); err != nil {
		log.WithError(err).Warn("Failed to setup debug logs")
	}

	isReg := fsutil.HasExt(config.RegExt)
	if err := copyMatching(paths.RegistryDir(), filepath.Join(dst, "registry"), isReg); err != nil {
		log.WithError(err).Warn("Failed to setup registry exports")
	}
	err := copyMatching(paths.RegistryBackupDir(),
		filepath.Join(dst, "registry", config.PreviousDataDirName), isReg)
	if err != nil {
		log.WithError(err).Warn("Failed to setup previous registry exports")
	}

	if err := setupFileListing(filepath.Join(dst, "files.txt"), paths.FilesDir()); err != nil {
		log.WithError(err).Warn("Failed to setup file listing")
	}

	if err := setupVersion(filepath.Join(dst, "version.txt")); err != nil {
		log.WithError(err).Warn("Failed to setup version info")
	}
}

func copyMatching(src, dst string, pred fsutil.Predicate) error {
	for path, err := range fsutil.Matching(fs, src, pred) {
		if err != nil {
			return errors.WithContext(err, "list")
		}

		if err := fsutil.CopyFile(fs, path, filepath.Join(dst, filepath.Base(path))); err != nil {
			return errors.WithContext(err, fmt.Sprintf("copy %s", path))
		}
	}
	return nil
}

func setupFileListing(outPath, dir string) error {
	out, err := fs.Create(outPath)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer out.Close()

	exists, err := afero.DirExists(fs, dir)
	if err != nil || !exists {
		return err
	}

	return afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s to %s", path, dir))
		}

		_, err = fmt.Fprintf(out, "%s\t%d\t%s\n", filepath.ToSlash(relPath), fi.Size(),
			fi.ModTime().UTC().Format(time.RFC3339))
		return err
	})
}

func setupVersion(outPath string) error {
	contents := fmt.Sprintf("launcher version: %s\nplatform: %s/%s\n",
		version.Version, runtime.GOOS, runtime.GOARCH)
	return afero.WriteFile(fs, outPath, []byte(contents), 0644)
}

func tarDirectory(src, outPath string) error {
	out, err := fs.Create(outPath)
	if err != nil {
		return errors.WithContext(err, "open destination")
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)
	defer gzw.Close()

	tw := tar.NewWriter(gzw)
	defer tw.Close()

	return afero.Walk(fs, src, func(file string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(fi, fi.Name())
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("make header %s", file))
		}

		relPath, err := filepath.Rel(src, file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("get relative path of %s to %s", file, src))
		}

		header.Name = filepath.ToSlash(filepath.Join("launcher-bug-info", relPath))
		if err := tw.WriteHeader(header); err != nil {
			return errors.WithContext(err, fmt.Sprintf("write %s header", file))
		}

		// Only write contents if it's a file (i.e. not a directory).
		if !fi.Mode().IsRegular() {
			return nil
		}

		f, err := fs.Open(file)
		if err != nil {
			return errors.WithContext(err, fmt.Sprintf("open %s", file))
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return errors.WithContext(err, fmt.Sprintf("copy %s", file))
		}
		return nil
	})
}
