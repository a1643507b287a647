package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

func askCmd() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question and print the answer with its source",
		ArgsUsage: "QUESTION...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "o",
				Usage: "Output format: terminal, json",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("a question is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rnd, err := renderer(cmd.String("o"), cfg)
			if err != nil {
				return err
			}

			conv, err := newConversation(cfg, newClient(cfg))
			if err != nil {
				return err
			}

			_, askErr := conv.Submit(ctx, question)

			if err := rnd.Render(stdout(cmd), conv.Snapshot().Session); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			return askErr
		},
	}
}
