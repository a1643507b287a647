package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sonnes/granth/answer"
	"github.com/sonnes/granth/chat"
	"github.com/sonnes/granth/config"
	"github.com/sonnes/granth/core"
	"github.com/sonnes/granth/redact"
	"github.com/sonnes/granth/render"
	jsonrender "github.com/sonnes/granth/render/json"
	"github.com/sonnes/granth/render/terminal"
	"github.com/urfave/cli/v3"
)

// renderers lists the output formats of the terminal commands.
var renderers = map[string]func(cfg *config.Config) render.Renderer{
	"terminal": func(cfg *config.Config) render.Renderer { return &terminal.Renderer{Title: cfg.UI.Title} },
	"json":     func(cfg *config.Config) render.Renderer { return jsonrender.New() },
}

func renderer(name string, cfg *config.Config) (render.Renderer, error) {
	fn, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(cfg), nil
}

// loadConfig reads the config file and applies flag and environment
// overrides on top of it.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("backend") {
		cfg.Backend.URL = cmd.String("backend")
	}
	if cmd.IsSet("timeout") {
		cfg.Backend.Timeout.Duration = cmd.Duration("timeout")
	}
	if cmd.IsSet("addr") {
		cfg.Server.Addr = cmd.String("addr")
	}
	if cmd.IsSet("redact") {
		cfg.Server.Redact = cmd.StringSlice("redact")
	}
	if cmd.Bool("no-redact") {
		cfg.Server.Redact = nil
		cfg.Server.RedactPatterns = nil
	}
	if cmd.IsSet("pacing") {
		cfg.UI.Pacing.Duration = cmd.Duration("pacing")
	}
	if cmd.IsSet("session-ttl") {
		cfg.Server.SessionTTL.Duration = cmd.Duration("session-ttl")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *answer.Client {
	return answer.New(cfg.Backend.URL,
		answer.WithTimeout(cfg.Backend.Timeout.Duration),
		answer.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.Burst),
	)
}

func newConversation(cfg *config.Config, asker chat.Asker) (*chat.Conversation, error) {
	conv := chat.New(asker)
	conv.Pacing = cfg.UI.Pacing.Duration
	if err := conv.UpdateSettings(cfg.Settings()); err != nil {
		return nil, err
	}
	return conv, nil
}

// exportTransformers returns the transforms applied to exported sessions.
func exportTransformers(cfg *config.Config) ([]core.Transformer, error) {
	rc, err := redact.ParseRuleSets(cfg.Server.Redact)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Server.RedactPatterns))
	for name := range cfg.Server.RedactPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rule, err := redact.Pattern(name, cfg.Server.RedactPatterns[name])
		if err != nil {
			return nil, err
		}
		rc.ExtraRules = append(rc.ExtraRules, rule)
	}
	rc.Allowlist = cfg.Server.RedactAllowlist

	r := redact.New(rc)
	if r.Empty() {
		return nil, nil
	}
	return []core.Transformer{r}, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
