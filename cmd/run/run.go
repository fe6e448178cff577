package run

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/launch"
)

// New creates a new `run` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Sync the portable data, run the program, and save the data back",
		Long: "Restore the portable registry exports and data files onto the system,\n" +
			"run the program and wait for it to exit, and then move the data back\n" +
			"into the portable root. This is what the launcher does when run without\n" +
			"a command.",
		Args: cobra.NoArgs,
		Run:  Run,
	}
}

// Run is the handler for the `run` command. It's also the default action of
// the root command.
func Run(cmd *cobra.Command, _ []string) {
	if err := main(cmd); err != nil {
		util.HandleFatalError(err)
	}
}

func main(cmd *cobra.Command) error {
	ctx, err := util.Setup(cmd)
	if err != nil {
		return err
	}

	exe := ctx.Paths.Program(ctx.Config)
	if err := launch.CheckExecutable(ctx.Fs, exe); err != nil {
		log.WithError(err).Debug("Failed to find program")
		return errors.NewFriendlyError("The program %q doesn't exist.\n"+
			"Check launch.programExecutable in %s.", exe, ctx.Paths.ConfigFile())
	}

	if ctx.Config.Launch.RunAsAdmin == config.RunAsAdminForce {
		log.Info("runAsAdmin is set to force, but the launcher doesn't elevate. " +
			"Running with the current privileges.")
	}

	orch := util.NewOrchestrator(ctx)
	launcher := launch.New(log.StandardLogger().WithField("run", orch.RunID()))
	summary := orch.Run(func() error {
		_, err := launcher.LaunchAndWait(exe, "")
		return err
	})

	if summary.TargetErr != nil {
		return errors.NewFriendlyError("Failed to run %s:\n%s", exe, summary.TargetErr)
	}
	return nil
}
