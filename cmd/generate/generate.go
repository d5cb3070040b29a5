package generate

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/filetools/internal/config"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/filegen"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/monitor"
	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

type options struct {
	size         string
	unit         string
	chunkSize    string
	watch        bool
	noSpaceCheck bool
}

// Command creates the generate command
func Command(ctx *config.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "generate <dir> <name>",
		Short: "Create a zero-filled file of a given size",
		Long: `Create dir/name filled with zero bytes, written in chunks with progress.
The target must not exist and dir must be an existing directory.`,
		Example: `  filetools generate /tmp test.bin --size 5 --unit GB
  filetools generate /mnt/usb fill.bin --size 250MB --watch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), ctx, args[0], args[1], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.size, "size", "s", "", "Size as an integer, optionally with a unit suffix (e.g. 5 or 5GB)")
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "Unit of --size: KB, MB, GB or TB (default generator.default_unit)")
	cmd.Flags().StringVar(&opts.chunkSize, "chunk-size", "", "Write granularity, e.g. 64MB (default generator.chunk_size)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Show the free space of the target volume while writing")
	cmd.Flags().BoolVar(&opts.noSpaceCheck, "no-space-check", false, "Skip the free-space check before writing")
	_ = cmd.MarkFlagRequired("size")

	return cmd
}

// parseSizeFlag splits "5GB" into 5 and "GB". A bare number uses defaultUnit.
func parseSizeFlag(raw, defaultUnit string) (int64, string, error) {
	trimmed := strings.TrimSpace(raw)
	end := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	digits, suffix := trimmed, ""
	if end >= 0 {
		digits, suffix = trimmed[:end], strings.TrimSpace(trimmed[end:])
	}

	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || strings.ContainsFunc(suffix, func(r rune) bool { return !unicode.IsLetter(r) }) {
		return 0, "", errors.Newf("invalid size %q: must be an integer with an optional unit", raw).
			Component("cli").
			Category(errors.CategoryValidation).
			Build()
	}
	if suffix == "" {
		suffix = defaultUnit
	}
	return value, suffix, nil
}

func run(cmdCtx context.Context, ctx *config.Context, dir, name string, opts *options) error {
	unit := opts.unit
	if unit == "" {
		unit = ctx.Settings.DefaultUnit().String()
	}
	size, unit, err := parseSizeFlag(opts.size, unit)
	if err != nil {
		return err
	}

	var chunk int64
	if opts.chunkSize != "" {
		if chunk, err = units.ParseSize(opts.chunkSize); err != nil {
			return err
		}
		if chunk <= 0 {
			return errors.ValidationError("chunk size must be greater than zero")
		}
	}

	enum, err := ctx.Enumerator()
	if err != nil {
		return err
	}
	if opts.noSpaceCheck {
		ctx.Settings.Generator.CheckFreeSpace = false
	}
	gen := ctx.Generator(ctx.Allocator(chunk), enum)

	task, err := gen.Prepare(filegen.Request{Dir: dir, Name: name, Size: size, Unit: unit})
	if err != nil {
		return report(ctx, err)
	}

	printer := newProgressPrinter(ctx.ErrOut, task.SizeBytes())
	g, gctx := errgroup.WithContext(cmdCtx)
	watchCtx, stopWatch := context.WithCancel(gctx)

	var result filegen.Result
	g.Go(func() error {
		defer stopWatch()
		var runErr error
		result, runErr = task.Run(gctx, printer.Update)
		printer.Done()
		return runErr
	})
	if opts.watch {
		g.Go(func() error {
			return watchVolume(watchCtx, ctx.Poller(enum), filepath.Dir(task.Path()), printer)
		})
	}

	if err := g.Wait(); err != nil {
		stopWatch()
		return report(ctx, err)
	}
	stopWatch()

	_, err = fmt.Fprintf(ctx.Out, "%s: %s (%s in %s)\n", filegen.UserMessage(nil), result.Path,
		units.FormatSize(result.Bytes), result.Duration.Round(time.Millisecond))
	return err
}

// watchVolume prints the free space of the volume holding dir on every poll until ctx is done
func watchVolume(ctx context.Context, poller *monitor.Poller, dir string, printer *progressPrinter) error {
	snaps, unsubscribe := poller.Subscribe()
	defer unsubscribe()

	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if snap.Err != nil {
				continue
			}
			vol, err := volumes.Resolve(dir, snap.Volumes)
			if err != nil {
				continue
			}
			printer.Note(fmt.Sprintf("%s: %s free of %s (%.1f%% used)",
				vol.Name, units.HumanSize(vol.AvailableBytes()), units.HumanSize(vol.TotalBytes), vol.PercentUsed))
		}
	}
}

// report prints the user message for err and marks it as reported
func report(ctx *config.Context, err error) error {
	logger.Global().Module("cli").Debug("Generate failed", logger.Error(err))
	_, _ = fmt.Fprintln(ctx.ErrOut, filegen.UserMessage(err))
	return &config.ReportedError{Err: err}
}
