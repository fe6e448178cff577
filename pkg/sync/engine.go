package sync

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/backup"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/fsutil"
	"github.com/sidkik/portable-launcher/pkg/report"
)

// Engine applies file mappings in either direction.
type Engine struct {
	fs      afero.Fs
	paths   config.Paths
	rotator *backup.Rotator
	log     logrus.FieldLogger
}

// NewEngine creates a new Engine for the portable root described by `paths`.
func NewEngine(fs afero.Fs, paths config.Paths, rotator *backup.Rotator,
	log logrus.FieldLogger) *Engine {
	return &Engine{fs: fs, paths: paths, rotator: rotator, log: log}
}

// resolved is a mapping with both sides turned into usable paths.
type resolved struct {
	portable, system string
}

func (e *Engine) resolve(m config.Mapping) (resolved, error) {
	if m.Err != nil {
		return resolved{}, m.Err
	}

	system, err := fsutil.Expand(m.Destination)
	if err != nil {
		return resolved{}, errors.WithContext(err, "expand destination")
	}
	return resolved{portable: e.paths.Portable(m.Source), system: system}, nil
}

// Merge copies each mapping's portable file to its system destination.
func (e *Engine) Merge(mappings []config.Mapping) report.Report {
	results := report.New("merge")
	for _, m := range mappings {
		results.Add(e.mergeOne(m))
	}
	results.Log(e.log)
	return results
}

func (e *Engine) mergeOne(m config.Mapping) report.Result {
	log := e.log.WithField("entry", m.Name)
	paths, err := e.resolve(m)
	if err != nil {
		return e.malformed(log, m, err)
	}
	log = log.WithFields(logrus.Fields{"src": paths.portable, "dst": paths.system})

	// Never install files out of a backup area, even if a mapping points
	// there.
	if config.InPreviousData(paths.portable) {
		log.Debug("Skipping source inside PreviousData")
		return report.Result{Entry: m.Name, Path: paths.portable, Status: report.StatusSkipped}
	}

	if res, ok := e.checkSource(log, m.Name, paths.portable, "Skipping missing source file"); !ok {
		return res
	}

	if err := fsutil.CopyFile(e.fs, paths.portable, paths.system); err != nil {
		log.WithError(err).Error("Failed to copy file")
		return report.Fail(m.Name, paths.system, errors.KindIOFailure, err)
	}

	log.Debug("Copied file")
	return report.Result{Entry: m.Name, Path: paths.system, Status: report.StatusOK}
}

// Save copies each mapping's system file back into the portable root,
// backing up the portable copy it replaces.
func (e *Engine) Save(mappings []config.Mapping) report.Report {
	results := report.New("save")
	for _, m := range mappings {
		results.Add(e.saveOne(m))
	}
	results.Log(e.log)
	return results
}

func (e *Engine) saveOne(m config.Mapping) report.Result {
	log := e.log.WithField("entry", m.Name)
	paths, err := e.resolve(m)
	if err != nil {
		return e.malformed(log, m, err)
	}
	log = log.WithFields(logrus.Fields{"src": paths.system, "dst": paths.portable})

	if config.InPreviousData(paths.portable) {
		log.Debug("Skipping destination inside PreviousData")
		return report.Result{Entry: m.Name, Path: paths.portable, Status: report.StatusSkipped}
	}

	if res, ok := e.checkSource(log, m.Name, paths.system, "Skipping missing system file"); !ok {
		return res
	}

	// Rotate logs its own failures. The copy goes ahead either way.
	e.rotator.Rotate(paths.portable, e.paths.FilesBackupDir())

	if err := fsutil.CopyFile(e.fs, paths.system, paths.portable); err != nil {
		log.WithError(err).Error("Failed to save file")
		return report.Fail(m.Name, paths.portable, errors.KindIOFailure, err)
	}

	log.Debug("Saved file")
	return report.Result{Entry: m.Name, Path: paths.portable, Status: report.StatusOK}
}

// checkSource returns false, along with the result to report, if `path`
// can't be read from.
func (e *Engine) checkSource(log logrus.FieldLogger, entry, path, missingMsg string) (
	report.Result, bool) {

	exists, err := afero.Exists(e.fs, path)
	if err != nil {
		log.WithError(err).Error("Failed to check source file")
		return report.Fail(entry, path, errors.KindIOFailure, errors.WithContext(err, "stat")), false
	}

	if !exists {
		log.Warn(missingMsg)
		return report.Result{
			Entry:  entry,
			Path:   path,
			Status: report.StatusMissing,
			Err: errors.EntryError{
				Kind:  errors.KindMissingSource,
				Entry: entry,
				Err:   errors.FileNotFound{Path: path},
			},
		}, false
	}
	return report.Result{}, true
}

func (e *Engine) malformed(log logrus.FieldLogger, m config.Mapping, err error) report.Result {
	log.WithError(err).Error("Invalid data file mapping. Expected 'source|destination'.")
	return report.Fail(m.Name, "", errors.KindMalformedMapping, err)
}
