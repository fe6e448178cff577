package sync

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/portable-launcher/pkg/backup"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/report"
)

var (
	mockTime = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	paths    = config.Paths{Root: "/portable"}
)

func newTestEngine(fs afero.Fs) (*Engine, *logrusTest.Hook) {
	logger, hook := logrusTest.NewNullLogger()
	rotator := backup.NewRotator(fs, clockwork.NewFakeClockAt(mockTime), logger)
	return NewEngine(fs, paths, rotator, logger), hook
}

func mapping(name, mapping string) config.Mapping {
	return config.ParseMapping(config.DataFile{Name: name, Mapping: mapping})
}

func writeFile(t *testing.T, fs afero.Fs, path, contents string) {
	require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	contents, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(contents)
}

func assertNotExists(t *testing.T, fs afero.Fs, path string) {
	exists, err := afero.Exists(fs, path)
	assert.NoError(t, err)
	assert.False(t, exists, path)
}

func TestMerge(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/portable/Data/Files/a.ini", "a")
	writeFile(t, fs, "/portable/Data/Files/b.ini", "b")
	writeFile(t, fs, "/system/b.ini", "stale")
	modTime := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	require.NoError(t, fs.Chtimes("/portable/Data/Files/a.ini", modTime, modTime))

	engine, _ := newTestEngine(fs)
	results := engine.Merge([]config.Mapping{
		mapping("a", "Data/Files/a.ini|/system/nested/dir/a.ini"),
		mapping("b", "Data/Files/b.ini|/system/b.ini"),
	})

	assert.Empty(t, results.Failed())
	assert.Equal(t, 2, results.Count(report.StatusOK))
	assert.Equal(t, "a", readFile(t, fs, "/system/nested/dir/a.ini"))
	assert.Equal(t, "b", readFile(t, fs, "/system/b.ini"))

	fi, err := fs.Stat("/system/nested/dir/a.ini")
	require.NoError(t, err)
	assert.True(t, modTime.Equal(fi.ModTime()))

	// The overwritten system file isn't backed up.
	assertNotExists(t, fs, paths.FilesBackupDir())
}

func TestMergeIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/portable/Data/Files/a.ini", "a")
	engine, _ := newTestEngine(fs)
	mappings := []config.Mapping{mapping("a", "Data/Files/a.ini|/system/a.ini")}

	first := engine.Merge(mappings)
	second := engine.Merge(mappings)
	assert.Equal(t, first, second)
	assert.Equal(t, "a", readFile(t, fs, "/system/a.ini"))

	infos, err := afero.ReadDir(fs, "/system")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	assertNotExists(t, fs, paths.FilesBackupDir())
}

func TestMergeMissingSourceTolerance(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/portable/Data/Files/present.ini", "present")
	writeFile(t, fs, "/portable/Data/Files/PreviousData/backup.ini", "backup")
	require.NoError(t, fs.MkdirAll("/portable/Data/Files/dir.ini", 0755))

	engine, hook := newTestEngine(fs)
	results := engine.Merge([]config.Mapping{
		mapping("missing", "Data/Files/missing.ini|/system/missing.ini"),
		mapping("malformed", "Data/Files/present.ini"),
		mapping("previous", "Data/Files/PreviousData/backup.ini|/system/backup.ini"),
		mapping("directory", "Data/Files/dir.ini|/system/dir.ini"),
		mapping("present", "Data/Files/present.ini|/system/present.ini"),
	})

	expStatuses := map[string]report.Status{
		"missing":   report.StatusMissing,
		"malformed": report.StatusFailed,
		"previous":  report.StatusSkipped,
		"directory": report.StatusFailed,
		"present":   report.StatusOK,
	}
	for entry, exp := range expStatuses {
		res, ok := results.Get(entry)
		require.True(t, ok, entry)
		assert.Equal(t, exp, res.Status, entry)
	}

	missing, _ := results.Get("missing")
	assert.Equal(t, errors.KindMissingSource, missing.Kind())
	malformed, _ := results.Get("malformed")
	assert.Equal(t, errors.KindMalformedMapping, malformed.Kind())
	directory, _ := results.Get("directory")
	assert.Equal(t, errors.KindIOFailure, directory.Kind())

	assert.Equal(t, "present", readFile(t, fs, "/system/present.ini"))
	assertNotExists(t, fs, "/system/missing.ini")
	assertNotExists(t, fs, "/system/backup.ini")

	var warnings []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings = append(warnings, entry.Message)
		}
	}
	assert.Equal(t, []string{
		"Skipping missing source file",
		"Finished merge with errors.",
	}, warnings)
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/system/a.ini", "new")
	writeFile(t, fs, "/portable/Data/Files/a.ini", "old")

	engine, _ := newTestEngine(fs)
	results := engine.Save([]config.Mapping{
		mapping("a", "Data/Files/a.ini|/system/a.ini"),
		mapping("fresh", "Data/Files/sub/fresh.ini|/system/a.ini"),
		mapping("missing", "Data/Files/missing.ini|/system/missing.ini"),
	})

	assert.Empty(t, results.Failed())
	assert.Equal(t, 2, results.Count(report.StatusOK))
	assert.Equal(t, 1, results.Count(report.StatusMissing))

	assert.Equal(t, "new", readFile(t, fs, "/portable/Data/Files/a.ini"))
	assert.Equal(t, "new", readFile(t, fs, "/portable/Data/Files/sub/fresh.ini"))
	assert.Equal(t, "old", readFile(t, fs, "/portable/Data/Files/PreviousData/a.ini"))
	assertNotExists(t, fs, "/portable/Data/Files/missing.ini")

	// The system file is never archived.
	assert.Equal(t, "new", readFile(t, fs, "/system/a.ini"))
}

func TestSaveTwiceKeepsBothGenerations(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/portable/Data/Files/a.ini", "gen1")
	engine, _ := newTestEngine(fs)
	mappings := []config.Mapping{mapping("a", "Data/Files/a.ini|/system/a.ini")}

	writeFile(t, fs, "/system/a.ini", "gen2")
	engine.Save(mappings)
	writeFile(t, fs, "/system/a.ini", "gen3")
	engine.Save(mappings)

	assert.Equal(t, "gen3", readFile(t, fs, "/portable/Data/Files/a.ini"))
	assert.Equal(t, "gen1", readFile(t, fs, "/portable/Data/Files/PreviousData/a.ini"))
	assert.Equal(t, "gen2", readFile(t, fs,
		"/portable/Data/Files/PreviousData/a.ini_20240102_150405"))
}

func TestSaveThenMergeRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/portable/Data/Files/a.ini", "portable-before")
	writeFile(t, fs, "/system/a.ini", "X")

	engine, _ := newTestEngine(fs)
	mappings := []config.Mapping{mapping("a", "Data/Files/a.ini|/system/a.ini")}

	assert.Empty(t, engine.Save(mappings).Failed())

	// Simulate the system copy being lost between runs.
	require.NoError(t, fs.Remove("/system/a.ini"))

	assert.Empty(t, engine.Merge(mappings).Failed())
	assert.Equal(t, "X", readFile(t, fs, "/system/a.ini"))
	assert.Equal(t, "portable-before", readFile(t, fs, "/portable/Data/Files/PreviousData/a.ini"))
}

func TestCleanup(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/system/cache/a.tmp", "a")
	writeFile(t, fs, "/system/cache/nested/b.tmp", "b")
	writeFile(t, fs, "/system/lock", "lock")
	writeFile(t, fs, "/system/keep", "keep")

	engine, _ := newTestEngine(fs)
	results := engine.Cleanup([]string{"/system/cache", "/system/missing", "/system/lock"})

	assert.Equal(t, 2, results.Count(report.StatusOK))
	assert.Equal(t, 1, results.Count(report.StatusMissing))
	assertNotExists(t, fs, "/system/cache")
	assertNotExists(t, fs, "/system/lock")
	assert.Equal(t, "keep", readFile(t, fs, "/system/keep"))
}
