package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/neculai-stanciu/jvc/internal/cli"
	"github.com/neculai-stanciu/jvc/pkg/errs"
)

var appVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Stdout, os.Stderr, appVersion)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		stop()
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, color.RedString("error: %s", errs.UserMessage(err)))
		os.Exit(1)
	}
}
