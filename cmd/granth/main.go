package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRoot().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRoot() *cli.Command {
	return &cli.Command{
		Name:  "granth",
		Usage: "Ask questions of your document library and see where each answer comes from",
		Description: `
   __ _ _ _ __ _ _ _| |_| |_
  / _' | '_/ _' | ' \  _| ' \
  \__, |_| \__,_|_||_\__|_||_|
  |___/

 A chat front-end for a retrieval-augmented answer service. Every answer
 comes with the book, page, and passage it was drawn from.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "error",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
				Sources: cli.EnvVars("GRANTH_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "URL of the answer service",
				Sources: cli.EnvVars("GRANTH_BACKEND_URL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-question timeout for the answer service (0 waits forever)",
				Sources: cli.EnvVars("GRANTH_TIMEOUT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			slog.SetDefault(slog.New(log.Default()))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			askCmd(),
			chatCmd(),
		},
	}
}
