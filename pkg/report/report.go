// Package report records the outcome of each entry processed by a sync
// phase. Phases never fail as a whole; instead every mapping, registry key or
// file they touch gets a Result, and the caller decides what to do with them.
package report

import (
	"github.com/sirupsen/logrus"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

// Status is the outcome of a single entry.
type Status string

const (
	// StatusOK means the entry was fully processed.
	StatusOK Status = "ok"

	// StatusMissing means there was nothing to process, such as a source
	// file that doesn't exist.
	StatusMissing Status = "missing"

	// StatusSkipped means the entry was deliberately ignored.
	StatusSkipped Status = "skipped"

	// StatusFailed means processing was attempted and failed. Err is set.
	StatusFailed Status = "failed"
)

// Result is the outcome of a single entry.
type Result struct {
	// Entry is the configured identifier, or the file name for entries that
	// come from a directory listing.
	Entry  string
	Path   string
	Status Status
	Err    error
}

// Kind returns the failure classification of the result's error.
func (r Result) Kind() errors.Kind {
	return errors.KindOf(r.Err)
}

// Report collects the results of one phase, in processing order.
type Report struct {
	Phase   string
	Results []Result
}

// New creates an empty report for `phase`.
func New(phase string) Report {
	return Report{Phase: phase}
}

// Add appends a result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Count returns the number of results with the given status.
func (r Report) Count(status Status) int {
	var n int
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the failed results.
func (r Report) Failed() (failed []Result) {
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Get returns the first result for `entry`.
func (r Report) Get(entry string) (Result, bool) {
	for _, res := range r.Results {
		if res.Entry == entry {
			return res, true
		}
	}
	return Result{}, false
}

// Log prints a one line summary of the report.
func (r Report) Log(log logrus.FieldLogger) {
	fields := logrus.Fields{
		"ok":      r.Count(StatusOK),
		"missing": r.Count(StatusMissing),
		"skipped": r.Count(StatusSkipped),
		"failed":  r.Count(StatusFailed),
	}
	entry := log.WithFields(fields)
	if len(r.Failed()) > 0 {
		entry.Warnf("Finished %s with errors.", r.Phase)
		return
	}
	entry.Infof("Finished %s.", r.Phase)
}

// Fail builds a failed result, tagging err with `kind`.
func Fail(entry, path string, kind errors.Kind, err error) Result {
	return Result{
		Entry:  entry,
		Path:   path,
		Status: StatusFailed,
		Err:    errors.EntryError{Kind: kind, Entry: entry, Err: err},
	}
}
