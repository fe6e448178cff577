package sync

import (
	"os"

	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/fsutil"
	"github.com/sidkik/portable-launcher/pkg/report"
)

// Cleanup deletes the given system paths, which may contain environment
// variable references. Files are removed, and directories are removed along
// with their contents. Missing paths are logged and skipped.
func (e *Engine) Cleanup(paths []string) report.Report {
	results := report.New("cleanup")
	for _, raw := range paths {
		results.Add(e.cleanupOne(raw))
	}
	results.Log(e.log)
	return results
}

func (e *Engine) cleanupOne(raw string) report.Result {
	log := e.log.WithField("entry", raw)
	path, err := fsutil.Expand(raw)
	if err != nil {
		log.WithError(err).Error("Invalid cleanup path")
		return report.Fail(raw, "", errors.KindMalformedMapping, err)
	}
	log = log.WithField("path", path)

	fi, err := e.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Path does not exist")
			return report.Result{Entry: raw, Path: path, Status: report.StatusMissing}
		}
		log.WithError(err).Error("Failed to stat path")
		return report.Fail(raw, path, errors.KindIOFailure, errors.WithContext(err, "stat"))
	}

	if fi.IsDir() {
		err = e.fs.RemoveAll(path)
	} else {
		err = e.fs.Remove(path)
	}
	if err != nil {
		log.WithError(err).Error("Failed to delete path")
		return report.Fail(raw, path, errors.KindIOFailure, errors.WithContext(err, "remove"))
	}

	log.Debug("Deleted path")
	return report.Result{Entry: raw, Path: path, Status: report.StatusOK}
}
