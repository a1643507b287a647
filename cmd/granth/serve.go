package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sonnes/granth/server"
	"github.com/urfave/cli/v3"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chat UI in the browser",
		Description: `Starts a web server with the Knowledge Assistant page. Each browser
gets its own conversation, kept in memory until it has been idle for the
session TTL. Nothing is written to disk.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Address to listen on",
				Sources: cli.EnvVars("GRANTH_ADDR"),
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "Discard conversations idle for longer than this",
			},
			&cli.DurationFlag{
				Name:  "pacing",
				Usage: "Pause between progress steps while a question is answered",
			},
			&cli.StringSliceFlag{
				Name:  "redact",
				Usage: "Rule sets applied to exported conversations. Example: --redact=secrets,pii",
			},
			&cli.BoolFlag{
				Name:  "no-redact",
				Usage: "Export conversations without redaction",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			export, err := exportTransformers(cfg)
			if err != nil {
				return err
			}

			srv := server.New(newClient(cfg), server.Options{
				Addr:          cfg.Server.Addr,
				Title:         cfg.UI.Title,
				SessionTTL:    cfg.Server.SessionTTL.Duration,
				SweepInterval: cfg.Server.SweepInterval.Duration,
				Settings:      cfg.Settings(),
				Pacing:        cfg.UI.Pacing.Duration,
				Export:        export,
			})

			slog.Info("answer service", "url", cfg.Backend.URL)
			if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
