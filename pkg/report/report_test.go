package report

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/portable-launcher/pkg/errors"
)

func TestReport(t *testing.T) {
	r := New("merge")
	r.Add(Result{Entry: "a", Status: StatusOK})
	r.Add(Result{Entry: "b", Status: StatusMissing})
	r.Add(Fail("c", "/c", errors.KindIOFailure, errors.New("denied")))
	r.Add(Result{Entry: "d", Status: StatusSkipped})

	assert.Equal(t, 1, r.Count(StatusOK))
	assert.Equal(t, 1, r.Count(StatusMissing))
	assert.Equal(t, 1, r.Count(StatusSkipped))
	assert.Equal(t, 1, r.Count(StatusFailed))

	failed := r.Failed()
	assert.Len(t, failed, 1)
	assert.Equal(t, errors.KindIOFailure, failed[0].Kind())
	assert.EqualError(t, failed[0].Err, "c (IO_FAILURE): denied")

	res, ok := r.Get("d")
	assert.True(t, ok)
	assert.Equal(t, StatusSkipped, res.Status)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestReportLog(t *testing.T) {
	logger, hook := logrusTest.NewNullLogger()

	clean := New("merge")
	clean.Add(Result{Entry: "a", Status: StatusOK})
	clean.Log(logger)

	failed := New("save")
	failed.Add(Fail("b", "/b", errors.KindIOFailure, errors.New("denied")))
	failed.Log(logger)

	entries := hook.AllEntries()
	assert.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "Finished merge.", entries[0].Message)
	assert.Equal(t, logrus.Fields{"ok": 1, "missing": 0, "skipped": 0, "failed": 0}, entries[0].Data)
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "Finished save with errors.", entries[1].Message)
}
