package builtin

import (
	"context"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/executor"
)

type fakePrompter struct {
	answers  []string
	messages []string
	prompts  []string
	begins   int
	ends     int
}

func (p *fakePrompter) PrintToolMessage(tool, message string) {
	p.messages = append(p.messages, tool+": "+message)
}

func (p *fakePrompter) ToolInput(_ context.Context, tool, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.answers) == 0 {
		return "", apperrors.ErrInterrupted
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	return next, nil
}

func (p *fakePrompter) BeginToolOutput(string) { p.begins++ }
func (p *fakePrompter) EndToolOutput(string)   { p.ends++ }

type fakeExecutor struct {
	commands []string
	output   executor.Output
	err      error
}

func (e *fakeExecutor) Execute(_ context.Context, command string) (executor.Output, error) {
	e.commands = append(e.commands, command)
	return e.output, e.err
}
