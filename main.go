package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tphakala/filetools/cmd"
	"github.com/tphakala/filetools/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := config.NewContext()
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Error closing log file:", err)
		}
	}()

	if err := cmd.RootCommand(app).ExecuteContext(ctx); err != nil {
		var reported *config.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
