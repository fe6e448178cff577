// Package orchestrator sequences the sync phases around a run of the wrapped
// program.
package orchestrator

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/backup"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/registry"
	"github.com/sidkik/portable-launcher/pkg/report"
	"github.com/sidkik/portable-launcher/pkg/sync"
)

// Orchestrator runs the phases of one launcher invocation. Every log entry it
// produces is tagged with the same run ID.
type Orchestrator struct {
	cfg      config.Launcher
	paths    config.Paths
	files    *sync.Engine
	registry *registry.Manager
	runID    string
	log      logrus.FieldLogger
}

// New creates an Orchestrator for a single run.
func New(fs afero.Fs, clock clockwork.Clock, reg registry.Registry,
	cfg config.Launcher, paths config.Paths, log logrus.FieldLogger) *Orchestrator {
	runID := uuid.NewString()
	log = log.WithField("run", runID)

	rotator := backup.NewRotator(fs, clock, log)
	return &Orchestrator{
		cfg:      cfg,
		paths:    paths,
		files:    sync.NewEngine(fs, paths, rotator, log),
		registry: registry.NewManager(fs, reg, rotator, log),
		runID:    runID,
		log:      log,
	}
}

// RunID returns the ID attached to this run's log entries.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// ImportRegistry restores the registry exports from the portable registry
// area.
func (o *Orchestrator) ImportRegistry() report.Report {
	return o.registry.ImportAll(o.paths.RegistryDir())
}

// MergeFiles copies the portable data files onto the system.
func (o *Orchestrator) MergeFiles() report.Report {
	return o.files.Merge(o.cfg.Mappings())
}

// ExportAndDeleteRegistry saves the configured registry keys to the portable
// registry area and removes them from the system.
func (o *Orchestrator) ExportAndDeleteRegistry() report.Report {
	return o.registry.ExportAndDelete(o.cfg.RegCleanup, o.paths.RegistryDir())
}

// SaveFiles copies the system data files back into the portable area.
func (o *Orchestrator) SaveFiles() report.Report {
	return o.files.Save(o.cfg.Mappings())
}

// CleanupFiles deletes the configured leftover paths from the system.
func (o *Orchestrator) CleanupFiles() report.Report {
	return o.files.Cleanup(o.cfg.DataCleanup)
}

// Summary is the outcome of a full run.
type Summary struct {
	RunID   string
	Reports []report.Report

	// TargetErr is set if the target couldn't be run.
	TargetErr error
}

// Failed returns every failed result across all phases.
func (s Summary) Failed() (failed []report.Result) {
	for _, r := range s.Reports {
		failed = append(failed, r.Failed()...)
	}
	return failed
}

// Report returns the report for `phase`.
func (s Summary) Report(phase string) (report.Report, bool) {
	for _, r := range s.Reports {
		if r.Phase == phase {
			return r, true
		}
	}
	return report.Report{}, false
}

// Run restores the portable data, calls `target`, and then saves the data
// back and cleans up the system. The phases run strictly one after the other.
// Nothing is rolled back, and the post-run phases run even if `target`
// fails.
func (o *Orchestrator) Run(target func() error) Summary {
	summary := Summary{RunID: o.runID}
	o.log.Info("Preparing portable data")
	summary.Reports = append(summary.Reports,
		o.ImportRegistry(),
		o.MergeFiles(),
	)

	if err := target(); err != nil {
		o.log.WithError(err).Error("Program failed to run")
		summary.TargetErr = err
	}

	o.log.Info("Saving portable data")
	summary.Reports = append(summary.Reports,
		o.ExportAndDeleteRegistry(),
		o.SaveFiles(),
		o.CleanupFiles(),
	)

	if failed := summary.Failed(); len(failed) > 0 {
		o.log.WithField("failed", len(failed)).Warn("Finished with errors. See the log for details.")
	} else {
		o.log.Info("Finished")
	}
	return summary
}
