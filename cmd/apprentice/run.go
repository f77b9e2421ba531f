package main

import (
	"context"
	"log/slog"

	"github.com/harunnryd/apprentice/internal/agent"
	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/executor"
	"github.com/harunnryd/apprentice/internal/model"
	"github.com/harunnryd/apprentice/internal/prompt"
	"github.com/harunnryd/apprentice/internal/term"
	"github.com/harunnryd/apprentice/internal/tool"
	_ "github.com/harunnryd/apprentice/internal/tool/builtin"
	"github.com/harunnryd/apprentice/internal/transport"

	"charm.land/lipgloss/v2"
)

// runDialogue wires the terminal, tools and chat for cfg and runs one session.
func runDialogue(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	terminal := term.NewStd(palette(cfg.Colors))

	shell, err := executor.NewShell()
	if err != nil {
		return err
	}

	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{
		Goal:     cfg.GoalValue(),
		Prompter: terminal,
		Executor: shell,
	})
	if err != nil {
		return err
	}
	runner := tool.NewRunner(registry)

	chat, err := model.NewChat(cfg.ToParams(), transport.NewHTTP(), runner.Specs())
	if err != nil {
		return err
	}

	slog.Debug("Starting dialogue", "goal", cfg.Goal, "provider", cfg.ModelProvider, "model", cfg.Model)

	return agent.New(agent.Options{
		Chat:           chat,
		Terminal:       terminal,
		Tools:          runner,
		SystemPrompt:   prompt.System(cfg.GoalValue(), cfg.Prompt),
		InitialMessage: cfg.Message,
		Version:        version,
	}).Run(ctx)
}

// palette overlays the configured colors on the default ones.
func palette(c config.Colors) term.Palette {
	p := term.DefaultPalette()
	overlay(&p.User, c.User)
	overlay(&p.Apprentice, c.Apprentice)
	overlay(&p.Tool, c.Tool)
	return p
}

func overlay(pair *term.ColorPair, spec config.ColorSpec) {
	if spec.Fg != nil {
		pair.Fg = rgb(*spec.Fg)
	}
	if spec.Bg != nil {
		pair.Bg = rgb(*spec.Bg)
	}
}

func rgb(c config.RGB) lipgloss.RGBColor {
	return lipgloss.RGBColor{R: c[0], G: c[1], B: c[2]}
}
