package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/report"
)

func TestHandleFatalError(t *testing.T) {
	defer func() {
		stderr = os.Stderr
		exit = os.Exit
	}()

	tests := []struct {
		name      string
		err       error
		expStderr string
	}{
		{
			name:      "Friendly",
			err:       errors.WithContext(errors.NewFriendlyError("Config is missing."), "load"),
			expStderr: "Config is missing.\n",
		},
		{
			name:      "Unfriendly",
			err:       errors.New("boom"),
			expStderr: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			var exitCode int
			stderr = &out
			exit = func(code int) { exitCode = code }

			HandleFatalError(test.err)
			assert.Equal(t, 1, exitCode)
			assert.Equal(t, test.expStderr, out.String())
		})
	}
}

func TestGetRoot(t *testing.T) {
	defer func() { executable = os.Executable }()
	executable = func() (string, error) {
		return filepath.Join(os.TempDir(), "nonexistent", "launcher.exe"), nil
	}

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Run: func(*cobra.Command, []string) {}}
		cmd.PersistentFlags().String(RootFlag, "", "")
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	root, err := GetRoot(newCmd())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.TempDir(), "nonexistent"), root)

	abs, err := filepath.Abs("portable")
	require.NoError(t, err)
	root, err = GetRoot(newCmd("--root", "portable"))
	require.NoError(t, err)
	assert.Equal(t, abs, root)
}

func TestSetupConfigError(t *testing.T) {
	defer func() { parseConfig = config.ParseLauncher }()

	var parsedPath string
	parseConfig = func(path, _ string) (config.Launcher, error) {
		parsedPath = path
		return config.Launcher{}, errors.NewFriendlyError("The launcher config doesn't exist.")
	}

	cmd := &cobra.Command{}
	cmd.PersistentFlags().String(RootFlag, "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--root", "/portable"}))

	_, err := Setup(cmd)
	msg, ok := errors.GetFriendlyMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "The launcher config doesn't exist.", msg)
	assert.Equal(t, config.Paths{Root: mustAbs(t, "/portable")}.ConfigFile(), parsedPath)
}

func mustAbs(t *testing.T, path string) string {
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

func TestCheckReports(t *testing.T) {
	ok := report.New("merge")
	ok.Add(report.Result{Entry: "a", Status: report.StatusOK})
	ok.Add(report.Result{Entry: "b", Status: report.StatusMissing})
	assert.NoError(t, CheckReports(ok))

	failed := report.New("save")
	failed.Add(report.Fail("c", "/c", errors.KindIOFailure, errors.New("denied")))
	err := CheckReports(ok, failed)
	msg, isFriendly := errors.GetFriendlyMessage(err)
	assert.True(t, isFriendly)
	assert.Equal(t, "1 entries failed to sync. See the log for details.", msg)
}
