package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidkik/portable-launcher/cmd/util"
	"github.com/sidkik/portable-launcher/pkg/config"
	"github.com/sidkik/portable-launcher/pkg/errors"
	"github.com/sidkik/portable-launcher/pkg/version"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseConfigFile           = config.ParseLauncher
)

// New creates a new `config` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate the launcher config of the portable app",
		Run: func(cmd *cobra.Command, _ []string) {
			paths, cfg, err := load(cmd)
			if err != nil {
				util.HandleFatalError(err)
			}
			fmt.Fprintf(stdout, "%s is valid.\n", cfg.GetPath())
			fmt.Fprintf(stdout, "Portable root: %s\n", paths.Root)
		},
	}

	// Setup the commands for querying the contents of the launcher config.
	type getterSpec struct {
		use, short string
		fn         func(config.Paths, config.Launcher) string
	}

	getters := []getterSpec{
		{
			use:   "get-executable",
			short: "Get the path of the program that's launched",
			fn: func(paths config.Paths, cfg config.Launcher) string {
				return paths.Program(cfg)
			},
		},
		{
			use:   "list-mappings",
			short: "List the data file mappings",
			fn:    listMappings,
		},
		{
			use:   "list-registry-keys",
			short: "List the registry keys that are exported after each run",
			fn:    listRegistryKeys,
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(cmd *cobra.Command, _ []string) {
				paths, cfg, err := load(cmd)
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(paths, cfg))
			},
		})
	}

	return cmd
}

func load(cmd *cobra.Command) (config.Paths, config.Launcher, error) {
	root, err := util.GetRoot(cmd)
	if err != nil {
		return config.Paths{}, config.Launcher{}, errors.WithContext(err, "get portable root")
	}

	paths := config.Paths{Root: root}
	cfg, err := parseConfigFile(paths.ConfigFile(), version.Version)
	return paths, cfg, err
}

func listMappings(paths config.Paths, cfg config.Launcher) string {
	var lines []string
	for _, m := range cfg.Mappings() {
		if m.Err != nil {
			lines = append(lines, fmt.Sprintf("%s: invalid (%s)", m.Name, m.Err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", m.Name, paths.Portable(m.Source), m.Destination))
	}
	return strings.Join(lines, "\n")
}

func listRegistryKeys(paths config.Paths, cfg config.Launcher) string {
	var lines []string
	for _, entry := range cfg.RegCleanup {
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", entry.Name, entry.Key, paths.RegistryExport(entry)))
	}
	return strings.Join(lines, "\n")
}
