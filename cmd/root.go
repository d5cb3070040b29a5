// Package cmd assembles the filetools command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/filetools/cmd/configfile"
	"github.com/tphakala/filetools/cmd/convert"
	"github.com/tphakala/filetools/cmd/generate"
	"github.com/tphakala/filetools/cmd/serve"
	"github.com/tphakala/filetools/cmd/volumes"
	"github.com/tphakala/filetools/internal/config"
)

type globalFlags struct {
	configFile string
	debug      bool
	logLevel   string
}

// RootCommand creates and returns the root command
func RootCommand(ctx *config.Context) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "filetools",
		Short:         "Create zero-filled test files and inspect mounted volumes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.Load(flags.configFile, flags.debug, flags.logLevel)
		},
	}

	setupFlags(rootCmd, &flags)

	rootCmd.AddCommand(
		generate.Command(ctx),
		volumes.Command(ctx),
		convert.Command(ctx),
		serve.Command(ctx),
		configfile.Command(ctx),
	)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, flags *globalFlags) {
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to config.yaml (default: search standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error")
}
