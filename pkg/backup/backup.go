// Package backup moves files that are about to be overwritten into a
// PreviousData area, so that the previous generation of synced data can
// always be recovered by hand.
package backup

import (
	"fmt"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/fsutil"
	"github.com/sidkik/portable-launcher/pkg/report"
)

// timestampFormat disambiguates backups that would otherwise collide.
const timestampFormat = "20060102_150405"

// Rotator relocates files into backup areas.
type Rotator struct {
	fs    afero.Fs
	clock clockwork.Clock
	log   logrus.FieldLogger
}

// NewRotator creates a new Rotator.
func NewRotator(fs afero.Fs, clock clockwork.Clock, log logrus.FieldLogger) *Rotator {
	return &Rotator{fs: fs, clock: clock, log: log}
}

// Rotate moves `dest` into `area` under its base name. If the area already
// holds a file of that name, a timestamp is appended instead of overwriting
// it. A missing `dest` is a no-op that reports StatusMissing.
//
// Failures are logged and reported, but the caller is expected to carry on
// with its copy regardless. In that case the old contents of `dest` are lost.
func (r *Rotator) Rotate(dest, area string) report.Result {
	entry := filepath.Base(dest)
	exists, err := afero.Exists(r.fs, dest)
	if err != nil {
		return r.fail(entry, dest, errors.WithContext(err, "stat"))
	}
	if !exists {
		return report.Result{Entry: entry, Path: dest, Status: report.StatusMissing}
	}

	if err := r.fs.MkdirAll(area, 0755); err != nil {
		return r.fail(entry, dest, errors.WithContext(err, "create backup area"))
	}

	backupPath, err := r.freePath(filepath.Join(area, entry))
	if err != nil {
		return r.fail(entry, dest, err)
	}

	if err := r.fs.Rename(dest, backupPath); err != nil {
		return r.fail(entry, dest, errors.WithContext(err, "move"))
	}

	r.log.WithFields(logrus.Fields{
		"path":   dest,
		"backup": backupPath,
	}).Debug("Backed up old file")
	return report.Result{Entry: entry, Path: backupPath, Status: report.StatusOK}
}

// freePath returns `path` if nothing exists there. Otherwise it appends the
// current time, and then a counter if two backups are made within the same
// second.
func (r *Rotator) freePath(path string) (string, error) {
	candidate := path
	for i := 0; ; i++ {
		switch i {
		case 0:
		case 1:
			candidate = fmt.Sprintf("%s_%s", path, r.clock.Now().Format(timestampFormat))
		default:
			candidate = fmt.Sprintf("%s_%s_%d", path, r.clock.Now().Format(timestampFormat), i-1)
		}

		exists, err := afero.Exists(r.fs, candidate)
		if err != nil {
			return "", errors.WithContext(err, "stat backup")
		}
		if !exists {
			return candidate, nil
		}
	}
}

func (r *Rotator) fail(entry, path string, err error) report.Result {
	r.log.WithError(err).WithField("path", path).Error(
		"Failed to back up file. It will be overwritten.")
	return report.Fail(entry, path, errors.KindIOFailure, err)
}

// PurgeAndMove replaces the contents of `area` with the current generation
// of files in `dir`. Files in `area` with extension `ext` are deleted
// outright, and then every file in `dir` with that extension is moved into
// the area. Only files matching `ext` are touched in either directory.
func (r *Rotator) PurgeAndMove(dir, area, ext string) report.Report {
	results := report.New("prepare previous data")
	if err := r.fs.MkdirAll(area, 0755); err != nil {
		err = errors.WithContext(err, "create backup area")
		r.log.WithError(err).WithField("path", area).Error("Failed to prepare previous data")
		results.Add(report.Fail(filepath.Base(area), area, errors.KindIOFailure, err))
		return results
	}

	for path, err := range fsutil.Matching(r.fs, area, fsutil.HasExt(ext)) {
		if err != nil {
			r.log.WithError(err).WithField("path", area).Error("Failed to list old backups")
			results.Add(report.Fail(filepath.Base(area), area, errors.KindIOFailure, err))
			break
		}

		if err := r.fs.Remove(path); err != nil {
			r.log.WithError(err).WithField("path", path).Error("Failed to delete old backup")
			results.Add(report.Fail(filepath.Base(path), path, errors.KindIOFailure,
				errors.WithContext(err, "remove")))
			continue
		}
		r.log.WithField("path", path).Debug("Deleted old backup")
	}

	for path, err := range fsutil.Matching(r.fs, dir, fsutil.HasExt(ext)) {
		if err != nil {
			r.log.WithError(err).WithField("path", dir).Error("Failed to list current files")
			results.Add(report.Fail(filepath.Base(dir), dir, errors.KindIOFailure, err))
			break
		}

		entry := filepath.Base(path)
		backupPath := filepath.Join(area, entry)
		if err := r.fs.Rename(path, backupPath); err != nil {
			r.log.WithError(err).WithField("path", path).Error("Failed to move file to previous data")
			results.Add(report.Fail(entry, path, errors.KindIOFailure, errors.WithContext(err, "move")))
			continue
		}
		r.log.WithField("path", path).Debug("Moved file to previous data")
		results.Add(report.Result{Entry: entry, Path: backupPath, Status: report.StatusOK})
	}
	return results
}
