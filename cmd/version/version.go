package version

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/version"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseConfigFile           = config.ParseLauncher
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the launcher.",
		Long: "Print the version of the launcher, and the launcher version\n" +
			"required by the portable app's config, if any.",
		Run: func(cmd *cobra.Command, _ []string) {
			run(cmd)
		},
	}
}

func run(cmd *cobra.Command) {
	fmt.Fprintf(stdout, "launcher version: %s\n", version.Version)

	root, err := util.GetRoot(cmd)
	if err != nil {
		log.WithError(err).Debug("Failed to get portable root")
		return
	}

	cfg, err := parseConfigFile(config.Paths{Root: root}.ConfigFile(), version.Version)
	if err != nil {
		log.WithError(err).Debug("Failed to parse launcher config")
		return
	}

	if cfg.RequiredLauncherVersion != "" {
		fmt.Fprintf(stdout, "required version: %s\n", cfg.RequiredLauncherVersion)
	}
}
