// Package registry restores registry exports before the wrapped program runs,
// and exports and removes its keys afterwards so that nothing is left behind
// on the host.
package registry

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/backup"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/fsutil"
	"github.com/sidkik/portable-launcher/pkg/report"
)

// Manager runs the registry phases.
type Manager struct {
	fs      afero.Fs
	reg     Registry
	rotator *backup.Rotator
	log     logrus.FieldLogger
}

// NewManager creates a new Manager.
func NewManager(fs afero.Fs, reg Registry, rotator *backup.Rotator, log logrus.FieldLogger) *Manager {
	return &Manager{fs: fs, reg: reg, rotator: rotator, log: log}
}

// ImportAll imports every .reg file directly inside `dir`, in lexical order.
// Files in subdirectories, including the PreviousData area, are ignored. A
// missing directory imports nothing.
func (m *Manager) ImportAll(dir string) report.Report {
	results := report.New("registry import")
	for path, err := range fsutil.Matching(m.fs, dir, fsutil.HasExt(config.RegExt)) {
		if err != nil {
			m.log.WithError(err).WithField("dir", dir).Error("Failed to list registry exports")
			results.Add(report.Fail(filepath.Base(dir), dir, errors.KindIOFailure, err))
			break
		}
		results.Add(m.importFile(path))
	}

	if len(results.Results) == 0 {
		m.log.WithField("dir", dir).Debug("No registry exports to import")
	}
	results.Log(m.log)
	return results
}

func (m *Manager) importFile(path string) report.Result {
	entry := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log := m.log.WithFields(logrus.Fields{"entry": entry, "path": path})

	export, err := ReadExportFile(m.fs, path)
	switch {
	case errors.Is(err, ErrNotExport):
		log.Warn("Skipping file that isn't a registry export")
		return report.Result{
			Entry:  entry,
			Path:   path,
			Status: report.StatusSkipped,
			Err:    errors.EntryError{Kind: errors.KindMalformedMapping, Entry: entry, Err: err},
		}
	case err != nil:
		log.WithError(err).Error("Failed to read registry export")
		return report.Fail(entry, path, errors.KindIOFailure, err)
	}

	if err := m.reg.Import(path); err != nil {
		log.WithError(err).Error("Failed to import registry export")
		return report.Fail(entry, path, errors.KindPlatformCommand, err)
	}

	log.WithField("keys", len(export.Keys)).Debug("Imported registry export")
	return report.Result{Entry: entry, Path: path, Status: report.StatusOK}
}

// ExportAndDelete exports each key to `dir/<name>.reg` and then deletes it
// from the registry. The exports from the previous run are first moved into
// the PreviousData area, replacing whatever was there. Nothing is touched
// when no entries are configured.
//
// Exporting and deleting are independent: a failed export doesn't prevent the
// delete, and neither stops the remaining entries.
func (m *Manager) ExportAndDelete(entries []config.RegCleanup, dir string) report.Report {
	results := report.New("registry cleanup")
	if len(entries) == 0 {
		m.log.Debug("No registry keys to clean up")
		return results
	}

	area := filepath.Join(dir, config.PreviousDataDirName)
	prepared := m.rotator.PurgeAndMove(dir, area, config.RegExt)
	for _, failed := range prepared.Failed() {
		results.Add(failed)
	}

	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		m.log.WithError(err).WithField("dir", dir).Error("Failed to create registry export directory")
	}

	for _, entry := range entries {
		results.Add(m.exportAndDelete(entry, dir))
	}
	results.Log(m.log)
	return results
}

func (m *Manager) exportAndDelete(entry config.RegCleanup, dir string) report.Result {
	file := filepath.Join(dir, entry.Name+config.RegExt)
	log := m.log.WithFields(logrus.Fields{"entry": entry.Name, "key": entry.Key})

	exists, err := m.reg.Exists(entry.Key)
	if err != nil {
		// Fall through and let export and delete report the real problem.
		log.WithError(err).Debug("Failed to query registry key")
		exists = true
	}
	if !exists {
		log.Warn("Skipping missing registry key")
		return report.Result{
			Entry:  entry.Name,
			Path:   file,
			Status: report.StatusMissing,
			Err: errors.EntryError{
				Kind:  errors.KindMissingSource,
				Entry: entry.Name,
				Err:   errors.New("registry key does not exist"),
			},
		}
	}

	exportErr := m.reg.Export(entry.Key, file)
	if exportErr != nil {
		log.WithError(exportErr).Error("Failed to export registry key")
		exportErr = errors.WithContext(exportErr, "export")
	}

	deleteErr := m.reg.Delete(entry.Key)
	if deleteErr != nil {
		log.WithError(deleteErr).Error("Failed to delete registry key")
		deleteErr = errors.WithContext(deleteErr, "delete")
	}

	if exportErr != nil || deleteErr != nil {
		return report.Fail(entry.Name, file, errors.KindPlatformCommand, errors.Join(exportErr, deleteErr))
	}

	log.Debug("Exported and deleted registry key")
	return report.Result{Entry: entry.Name, Path: file, Status: report.StatusOK}
}
