package fsutil

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	srcPath := "/src/hello/world"
	srcContents := []byte("srcContents")
	dstPath := "/dst/hello/world"
	modTime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, srcPath, srcContents, 0644))
	require.NoError(t, fs.Chtimes(srcPath, modTime, modTime))
	require.NoError(t, CopyFile(fs, srcPath, dstPath))

	dstContents, err := afero.ReadFile(fs, dstPath)
	assert.NoError(t, err)
	assert.Equal(t, srcContents, dstContents)

	dstFileInfo, err := fs.Stat(dstPath)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), dstFileInfo.Mode().Perm())
	assert.True(t, modTime.Equal(dstFileInfo.ModTime()))
}

func TestCopyExecutableFile(t *testing.T) {
	srcPath := "/src/hello/world"
	srcContents := []byte("srcContents")
	dstPath := "/dst/hello/world"

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, srcPath, srcContents, 0755))
	require.NoError(t, CopyFile(fs, srcPath, dstPath))

	dstFileInfo, err := fs.Stat(dstPath)
	assert.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), dstFileInfo.Mode().Perm())
}

func TestCopyFileOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src", []byte("new"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/dst", []byte("old and longer"), 0644))
	require.NoError(t, CopyFile(fs, "/src", "/dst"))

	dstContents, err := afero.ReadFile(fs, "/dst")
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), dstContents)
}

func TestCopyFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := CopyFile(fs, "/missing", "/dst")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open source")

	require.NoError(t, fs.MkdirAll("/dir", 0755))
	assert.EqualError(t, CopyFile(fs, "/dir", "/dst"), "source is a directory")
}

func TestMatching(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, path := range []string{"/reg/b.reg", "/reg/a.REG", "/reg/notes.txt", "/reg/sub/c.reg"} {
		require.NoError(t, afero.WriteFile(fs, path, nil, 0644))
	}

	collect := func() (paths []string) {
		for path, err := range Matching(fs, "/reg", HasExt(".reg")) {
			require.NoError(t, err)
			paths = append(paths, path)
		}
		return paths
	}

	assert.Equal(t, []string{"/reg/a.REG", "/reg/b.reg"}, collect())

	// The sequence re-reads the directory each time it's iterated.
	require.NoError(t, afero.WriteFile(fs, "/reg/c.reg", nil, 0644))
	assert.Equal(t, []string{"/reg/a.REG", "/reg/b.reg", "/reg/c.reg"}, collect())

	// Stopping early is respected.
	var first []string
	for path := range Matching(fs, "/reg", HasExt(".reg")) {
		first = append(first, path)
		break
	}
	assert.Equal(t, []string{"/reg/a.REG"}, first)
}

func TestMatchingMissingDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	count := 0
	for range Matching(fs, "/missing", HasExt(".reg")) {
		count++
	}
	assert.Zero(t, count)
}

func TestExpand(t *testing.T) {
	env := map[string]string{
		"APPDATA": "/home/user/appdata",
		"NAME":    "foo",
	}
	lookupEnv = func(key string) (string, bool) {
		val, ok := env[key]
		return val, ok
	}
	defer func() { lookupEnv = os.LookupEnv }()

	tests := []struct {
		name, path, exp string
	}{
		{
			name: "WindowsStyle",
			path: "%APPDATA%/Foo/settings.ini",
			exp:  "/home/user/appdata/Foo/settings.ini",
		},
		{
			name: "UnixStyle",
			path: "$APPDATA/${NAME}.ini",
			exp:  "/home/user/appdata/foo.ini",
		},
		{
			name: "UnsetWindowsVariable",
			path: "%UNSET%/file",
			exp:  "%UNSET%/file",
		},
		{
			name: "UnsetUnixVariable",
			path: "$UNSET/file",
			exp:  "${UNSET}/file",
		},
		{
			name: "NoVariables",
			path: "/plain/./path",
			exp:  "/plain/path",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			actual, err := Expand(test.path)
			assert.NoError(t, err)
			assert.Equal(t, test.exp, actual)
		})
	}
}
