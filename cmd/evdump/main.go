package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.llib.dev/frameless/pkg/cli"
	"go.llib.dev/frameless/pkg/logging"

	"go.llib.dev/materialize/internal/config"
	"go.llib.dev/materialize/internal/evdump"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(cli.ExitCodeBadRequest)
	}

	cli.Main(ctx, evdump.Command{
		DefaultFormat: c.Format,
		Logger:        &logging.Logger{Out: os.Stderr, Level: c.Level()},
	})
}
