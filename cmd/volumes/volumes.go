package volumes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/moby/term"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/filetools/internal/config"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

type options struct {
	unit     string
	format   string
	watch    bool
	interval time.Duration
}

// Command creates the volumes command
func Command(ctx *config.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "volumes",
		Aliases: []string{"df"},
		Short:   "List mounted volumes with capacity and usage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), ctx, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "Display unit: KB, MB, GB or TB (default volumes.display_unit)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", FormatTable, "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Refresh the list until interrupted")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Refresh interval for --watch (default volumes.poll_interval)")

	return cmd
}

func run(cmdCtx context.Context, ctx *config.Context, opts *options) error {
	unit := ctx.Settings.DisplayUnit()
	if opts.unit != "" {
		u, err := units.ParseUnit(opts.unit)
		if err != nil {
			return err
		}
		unit = u
	}

	format := strings.ToLower(opts.format)
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return errors.Newf("unsupported format %q, use table, json or yaml", opts.format).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}

	enum, err := ctx.Enumerator()
	if err != nil {
		return err
	}

	if !opts.watch {
		vols, err := enum.Enumerate()
		if err != nil {
			return err
		}
		return Render(ctx.Out, vols, format, unit)
	}

	if opts.interval > 0 {
		ctx.Settings.Volumes.PollInterval = opts.interval
	}
	poller := ctx.Poller(enum)
	snaps, unsubscribe := poller.Subscribe()
	defer unsubscribe()

	if err := poller.Start(cmdCtx); err != nil {
		return err
	}
	defer poller.Stop()

	_, tty := term.GetFdInfo(ctx.Out)
	for {
		select {
		case <-cmdCtx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if snap.Err != nil {
				_, _ = fmt.Fprintln(ctx.ErrOut, "Failed to read mounted volumes:", snap.Err)
				continue
			}
			if tty && format == FormatTable {
				// clear screen, cursor home
				_, _ = fmt.Fprint(ctx.Out, "\x1b[H\x1b[2J")
			}
			if err := Render(ctx.Out, snap.Volumes, format, unit); err != nil {
				return err
			}
		}
	}
}

// Render writes vols in format. Table sizes use unit; json and yaml carry raw bytes.
func Render(w io.Writer, vols []volumes.VolumeInfo, format string, unit units.Unit) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nonNil(vols))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nonNil(vols)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderTable(w, vols, unit)
	}
}

func renderTable(w io.Writer, vols []volumes.VolumeInfo, unit units.Unit) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "NAME\tMOUNT POINT\tFSTYPE\tTOTAL\tUSED\tAVAILABLE\tUSE%%\n")
	for i := range vols {
		v := &vols[i]
		total, _ := units.FormatUint(v.TotalBytes, unit)
		used, _ := units.FormatUint(v.UsedBytes, unit)
		avail, _ := units.FormatUint(v.AvailableBytes(), unit)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.1f%%\n",
			v.Name, v.MountPoint, v.Fstype, total, used, avail, v.PercentUsed)
	}
	return tw.Flush()
}

func nonNil(vols []volumes.VolumeInfo) []volumes.VolumeInfo {
	if vols == nil {
		return []volumes.VolumeInfo{}
	}
	return vols
}
