package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/bugtool"
	configCmd "github.com/sidkik/portable-launcher/cmd/config"
	"github.com/sidkik/portable-launcher/cmd/phase"
	"github.com/sidkik/portable-launcher/cmd/run"
	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/cmd/version"
	"github.com/sidkik/portable-launcher/pkg/logging"
)

// Execute runs the main CLI process.
func Execute() {
	if err := New().Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

// New creates the root `launcher` command. Running it without a subcommand
// is the same as `launcher run`.
func New() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "launcher",
		Short: "Run a portable app, keeping its settings in the portable root",
		Args:  cobra.NoArgs,
		Run:   run.Run,

		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(util.RootFlag, "",
		"Path to the portable root. Defaults to the directory containing the launcher.")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		logging.ConfigureFromEnv(log.StandardLogger())
	}

	rootCmd.AddCommand(
		bugtool.New(),
		configCmd.New(),
		run.New(),
		version.New(),
	)
	rootCmd.AddCommand(phase.New()...)
	return rootCmd
}
