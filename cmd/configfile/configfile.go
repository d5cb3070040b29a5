package configfile

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/filetools/internal/conf"
	"github.com/tphakala/filetools/internal/config"
	"github.com/tphakala/filetools/internal/errors"
)

// Command creates the config command group
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}
	cmd.AddCommand(initCommand(ctx), showCommand(ctx))
	return cmd
}

func initCommand(ctx *config.Context) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration as YAML",
		Long:  "Write the effective configuration to path, by default the user config directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := conf.DefaultConfigFile()
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("%s already exists, use --force to overwrite", path).
					Component("cli").
					Category(errors.CategoryConflict).
					Build()
			}

			if err := ctx.Settings.WriteYAML(path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(ctx.Out, "Configuration written to %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func showCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ctx.Settings.ConfigFile != "" {
				if _, err := fmt.Fprintf(ctx.Out, "# loaded from %s\n", ctx.Settings.ConfigFile); err != nil {
					return err
				}
			}
			data, err := ctx.Settings.YAML()
			if err != nil {
				return err
			}
			_, err = ctx.Out.Write(data)
			return err
		},
	}
}
