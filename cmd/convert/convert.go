package convert

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/filetools/internal/config"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/units"
)

// Command creates the convert command
func Command(ctx *config.Context) *cobra.Command {
	var fromBytes bool

	cmd := &cobra.Command{
		Use:   "convert <value> [unit]",
		Short: "Convert between bytes and KB, MB, GB or TB",
		Long: `Convert a value in the given unit to bytes, or with --from-bytes render a byte
count in the unit with two decimals. The unit defaults to generator.default_unit.`,
		Example: `  filetools convert 5 GB
  filetools convert 1572864 MB --from-bytes`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := ctx.Settings.DefaultUnit()
			if len(args) == 2 {
				u, err := units.ParseUnit(args[1])
				if err != nil {
					return err
				}
				unit = u
			}

			value, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Newf("invalid value %q: must be an integer", args[0]).
					Component("cli").
					Category(errors.CategoryValidation).
					Build()
			}

			out, err := Convert(value, unit, fromBytes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(ctx.Out, out)
			return err
		},
	}

	cmd.Flags().BoolVar(&fromBytes, "from-bytes", false, "Treat the value as bytes and render it in the unit")
	return cmd
}

// Convert returns the byte count of value in unit, or with fromBytes the display
// form of value bytes in unit
func Convert(value int64, unit units.Unit, fromBytes bool) (string, error) {
	if fromBytes {
		return units.Format(value, unit)
	}
	b, err := units.ToBytes(value, unit)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(b, 10), nil
}
