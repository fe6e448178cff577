package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/logging"
	"github.com/sidkik/portable-launcher/pkg/orchestrator"
	"github.com/sidkik/portable-launcher/pkg/registry"
	"github.com/sidkik/portable-launcher/pkg/report"
	"github.com/sidkik/portable-launcher/pkg/version"
)

// RootFlag is the name of the persistent flag that overrides the portable
// root.
const RootFlag = "root"

// Mocked out for unit testing.
var (
	stderr     io.Writer = os.Stderr
	exit                 = os.Exit
	executable           = os.Executable
	parseConfig          = config.ParseLauncher
)

// HandleFatalError handles errors that are severe enough to terminate the
// program.
func HandleFatalError(err error) {
	if friendlyMsg, ok := errors.GetFriendlyMessage(err); ok {
		log.WithError(err).Debug("Fatal error")
		fmt.Fprintln(stderr, friendlyMsg)
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs the stack of a panic before crashing, so that it makes it
// into the debug log.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("The launcher crashed")
		panic(r)
	}
}

// GetRoot returns the portable root. It defaults to the directory containing
// the launcher executable.
func GetRoot(cmd *cobra.Command) (string, error) {
	if root, err := cmd.Flags().GetString(RootFlag); err == nil && root != "" {
		return filepath.Abs(root)
	}

	exe, err := executable()
	if err != nil {
		return "", errors.WithContext(err, "get executable path")
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Context is the state shared by the commands that operate on a portable
// root.
type Context struct {
	Fs     afero.Fs
	Clock  clockwork.Clock
	Paths  config.Paths
	Config config.Launcher
}

// Setup loads the launcher config of the portable root and configures
// logging according to it.
func Setup(cmd *cobra.Command) (Context, error) {
	root, err := GetRoot(cmd)
	if err != nil {
		return Context{}, errors.WithContext(err, "get portable root")
	}

	paths := config.Paths{Root: root}
	cfg, err := parseConfig(paths.ConfigFile(), version.Version)
	if err != nil {
		return Context{}, err
	}

	ctx := Context{
		Fs:     afero.NewOsFs(),
		Clock:  clockwork.NewRealClock(),
		Paths:  paths,
		Config: cfg,
	}
	logging.Configure(log.StandardLogger(), ctx.Fs, ctx.Clock, paths.LogFile(), cfg.Debug)
	log.WithFields(log.Fields{
		"root":    root,
		"version": version.Version,
	}).Debug("Loaded launcher config")
	return ctx, nil
}

// NewOrchestrator creates an orchestrator that uses the system registry.
func NewOrchestrator(ctx Context) *orchestrator.Orchestrator {
	return orchestrator.New(ctx.Fs, ctx.Clock, registry.NewCommandRegistry(),
		ctx.Config, ctx.Paths, log.StandardLogger())
}

// CheckReports returns a friendly error if any of the reports contain
// failures. The failures themselves have already been logged.
func CheckReports(reports ...report.Report) error {
	var failed int
	for _, r := range reports {
		failed += len(r.Failed())
	}

	if failed > 0 {
		return errors.NewFriendlyError(
			"%d entries failed to sync. See the log for details.", failed)
	}
	return nil
}
