package phase

import (
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/pkg/orchestrator"
	"github.com/sidkik/portable-launcher/pkg/report"
)

type phaseSpec struct {
	use, short string
	fn         func(*orchestrator.Orchestrator) report.Report
}

var phases = []phaseSpec{
	{
		use:   "import-registry",
		short: "Import the portable registry exports",
		fn:    (*orchestrator.Orchestrator).ImportRegistry,
	},
	{
		use:   "merge",
		short: "Copy the portable data files onto the system",
		fn:    (*orchestrator.Orchestrator).MergeFiles,
	},
	{
		use:   "export-registry",
		short: "Export the configured registry keys and delete them from the system",
		fn:    (*orchestrator.Orchestrator).ExportAndDeleteRegistry,
	},
	{
		use:   "save",
		short: "Copy the system data files back into the portable root",
		fn:    (*orchestrator.Orchestrator).SaveFiles,
	},
	{
		use:   "cleanup",
		short: "Delete the configured leftover paths from the system",
		fn:    (*orchestrator.Orchestrator).CleanupFiles,
	},
}

// New creates a command for each sync phase, so that the phases can be run
// by hand without launching the program.
func New() []*cobra.Command {
	var cmds []*cobra.Command
	for _, phase := range phases {
		phase := phase
		cmds = append(cmds, &cobra.Command{
			Use:   phase.use,
			Short: phase.short,
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				ctx, err := util.Setup(cmd)
				if err != nil {
					util.HandleFatalError(err)
				}

				results := phase.fn(util.NewOrchestrator(ctx))
				if err := util.CheckReports(results); err != nil {
					util.HandleFatalError(err)
				}
			},
		})
	}
	return cmds
}
