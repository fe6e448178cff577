// Package launch starts the wrapped program and waits for it to exit.
package launch

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Mocked out for unit testing.
var runCommand = (*exec.Cmd).Run

// Launcher runs programs in the foreground.
type Launcher struct {
	log logrus.FieldLogger
}

// New creates a new Launcher.
func New(log logrus.FieldLogger) Launcher {
	return Launcher{log: log}
}

// LaunchAndWait runs `exe` with the launcher's standard streams and blocks
// until it exits. The program runs from `workDir`, or from its own directory
// if `workDir` is empty. A program that starts and exits with a non-zero
// status is not an error: its exit code is returned instead.
func (l Launcher) LaunchAndWait(exe, workDir string, args ...string) (int, error) {
	if workDir == "" {
		workDir = filepath.Dir(exe)
	}

	cmd := exec.Command(exe, args...)
	cmd.Dir = workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	log := l.log.WithFields(logrus.Fields{"program": exe, "dir": workDir})
	log.Info("Launching program")
	err := runCommand(cmd)

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		log.WithField("exitCode", code).Warn("Program exited with an error")
		return code, nil
	case err != nil:
		return -1, errors.WithContext(err, "start program")
	}

	log.Info("Program exited")
	return 0, nil
}

// CheckExecutable returns FileNotFound if there's no regular file at `path`.
func CheckExecutable(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "stat")
	}

	if info.IsDir() {
		return errors.FileNotFound{Path: path}
	}
	return nil
}
