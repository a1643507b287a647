package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/peterh/liner"
	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/core"
	jsonrender "github.com/sonnes/granth/render/json"
	"github.com/sonnes/granth/render/terminal"
	"github.com/urfave/cli/v3"
)

func chatCmd() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Hold a conversation in the terminal",
		Description: `Reads one question per line and prints each answer with its source.

Commands:
  /export   print the conversation as JSON (redacted per configuration)
  /reset    start over with an empty conversation
  /quit     exit`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "pacing",
				Usage: "Pause between progress steps while a question is answered",
			},
			&cli.StringSliceFlag{
				Name:  "redact",
				Usage: "Rule sets applied to /export. Example: --redact=secrets,pii",
			},
			&cli.BoolFlag{
				Name:  "no-redact",
				Usage: "Export without redaction",
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

			conv, err := newConversation(cfg, newClient(cfg))
			if err != nil {
				return err
			}

			repl := &chatREPL{
				conv:   conv,
				out:    stdout(cmd),
				render: &terminal.Renderer{Title: cfg.UI.Title},
				export: export,
			}
			lines := openLines(stdin(cmd))
			defer lines.Close()
			return repl.run(ctx, lines)
		},
	}
}

// chatREPL reads questions line by line and prints the resulting turns.
type chatREPL struct {
	conv   *chat.Conversation
	out    io.Writer
	render *terminal.Renderer
	export []core.Transformer
}

func (c *chatREPL) run(ctx context.Context, lines lineSource) error {
	c.conv.OnStatus = func(step string) { c.render.RenderStatus(c.out, step) }

	c.render.RenderHeader(c.out, c.conv.Snapshot().Session)
	fmt.Fprintln(c.out, "Ask a question... (/quit to exit)")

	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := lines.Prompt("> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		line := strings.TrimSpace(raw)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := c.conv.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Started a new conversation.")
			continue
		case "/export":
			if err := c.exportJSON(); err != nil {
				return err
			}
			continue
		}

		ex, err := c.conv.Submit(ctx, line)
		if errors.Is(err, chat.ErrBusy) {
			return err
		}
		if err != nil {
			log.Warn("answer service failed", "error", err)
		}

		snap := c.conv.Snapshot()
		c.render.RenderTurn(c.out, snap.Session, ex.AnswerIndex)
		fmt.Fprintln(c.out)
	}
}

func (c *chatREPL) exportJSON() error {
	s := c.conv.Snapshot().Session
	if err := core.Chain(s, c.export...); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return jsonrender.New().Render(c.out, s)
}

// lineSource yields one line of input per prompt and io.EOF when input ends.
type lineSource interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// openLines uses liner for line editing and history when reading from an
// interactive terminal, and plain line scanning otherwise.
func openLines(in io.Reader) lineSource {
	if f, ok := in.(*os.File); ok && f == os.Stdin && term.IsTerminal(f.Fd()) {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		return &linerLines{state: state}
	}
	return &scanLines{scanner: bufio.NewScanner(in)}
}

type linerLines struct {
	state *liner.State
}

func (l *linerLines) Prompt(prompt string) (string, error) {
	line, err := l.state.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		l.state.AppendHistory(line)
	}
	return line, nil
}

func (l *linerLines) Close() error {
	return l.state.Close()
}

type scanLines struct {
	scanner *bufio.Scanner
}

func (s *scanLines) Prompt(string) (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

func (s *scanLines) Close() error {
	return nil
}
