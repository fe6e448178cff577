// Package logging configures logrus for the launcher. In debug mode every log
// entry is also appended to a log file in the portable root, which is archived
// with a timestamp once it grows past MaxLogSize.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// VerboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const VerboseLogKey = "LAUNCHER_LOG_VERBOSE"

// MaxLogSize is the size after which the debug log is archived.
const MaxLogSize = 1 * 1024 * 1024

// archiveTimeFormat is appended to the name of archived logs.
const archiveTimeFormat = "20060102_150405"

// Mocked out for unit testing.
var getenv = os.Getenv

// ConfigureFromEnv enables debug logging if VerboseLogKey is set. It's
// applied before the launcher config is loaded.
func ConfigureFromEnv(logger *logrus.Logger) {
	if getenv(VerboseLogKey) == "true" {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// Configure sets the level of `logger`, and attaches a FileHook writing to
// `path` when debug mode is enabled.
func Configure(logger *logrus.Logger, fs afero.Fs, clock clockwork.Clock, path string, debug bool) {
	ConfigureFromEnv(logger)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.AddHook(NewFileHook(fs, clock, path))
	}
}

// FileHook appends formatted log entries to a file.
type FileHook struct {
	fs        afero.Fs
	clock     clockwork.Clock
	path      string
	maxSize   int64
	formatter logrus.Formatter
	lock      sync.Mutex
}

// NewFileHook creates a hook that writes to path, archiving the file when it
// exceeds MaxLogSize.
func NewFileHook(fs afero.Fs, clock clockwork.Clock, path string) *FileHook {
	return &FileHook{
		fs:      fs,
		clock:   clock,
		path:    path,
		maxSize: MaxLogSize,
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		},
	}
}

func (h *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FileHook) Fire(entry *logrus.Entry) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	line, err := h.formatter.Format(entry)
	if err != nil {
		return nil
	}

	// A failed archive shouldn't lose the entry, so keep appending to the
	// current file.
	_ = h.archiveIfFull()

	f, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// Never return an error because doing so causes the error to be
		// printed directly to `stderr` for every entry.
		return nil
	}
	defer f.Close()

	_, _ = f.Write(line)
	return nil
}

func (h *FileHook) archiveIfFull() error {
	fi, err := h.fs.Stat(h.path)
	if err != nil || fi.Size() <= h.maxSize {
		return nil
	}
	return h.fs.Rename(h.path, ArchiveName(h.path, h.clock))
}

// ArchiveName returns the path that a full log at `path` is moved to, for
// example `launcher_debug_20240102_150405.log`.
func ArchiveName(path string, clock clockwork.Clock) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s", base, clock.Now().Format(archiveTimeFormat), ext)
}
