package builtin

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/harunnryd/apprentice/internal/executor"
	"github.com/harunnryd/apprentice/internal/model/contract"
	toolcore "github.com/harunnryd/apprentice/internal/tool"
)

const ShellToolName = "SHELL"

func init() {
	toolcore.RegisterBuiltin(ShellToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewShellTool(options.Prompter, options.Executor), nil
	})
}

// ShellTool runs a command after the user confirms it.
type ShellTool struct {
	prompter toolcore.Prompter
	executor executor.Executor
}

func NewShellTool(prompter toolcore.Prompter, exec executor.Executor) *ShellTool {
	return &ShellTool{prompter: prompter, executor: exec}
}

func (t *ShellTool) Spec() contract.ToolSpec {
	return contract.ToolSpec{
		Name:        ShellToolName,
		Description: "Executes an arbitrary command in a Unix/Linux shell (sh) environment and returns its stdout and stderr. User may cancel execution of the command and will provide reason.",
		Params: []contract.ParamSpec{
			{Name: "command", Description: "command to execute", Type: contract.ParamString, Required: true},
		},
	}
}

func (t *ShellTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source:       "builtin",
		Risk:         toolcore.RiskHigh,
		Confirmation: true,
	}
}

func (t *ShellTool) Call(ctx context.Context, params []contract.ToolParam) (string, error) {
	if diag := toolcore.CheckParams(t.Spec().Params, params); diag != "" {
		return diag, nil
	}
	command := params[0].Value.(string)

	t.prompter.PrintToolMessage(ShellToolName, command)

	for {
		answer, err := t.prompter.ToolInput(ctx, ShellToolName, "Execute command? (y - yes / n - no): ")
		if err != nil {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if utf8.RuneCountInString(answer) != 1 {
			continue
		}

		switch answer {
		case "y":
			t.prompter.BeginToolOutput(ShellToolName)
			out, err := t.executor.Execute(ctx, command)
			t.prompter.EndToolOutput(ShellToolName)
			if err != nil {
				return "", err
			}
			return out.String(), nil
		case "n":
			reason, err := t.prompter.ToolInput(ctx, ShellToolName, "reason: ")
			if err != nil {
				return "", err
			}
			return "User cancelled the operation with the reason: " + reason, nil
		}
	}
}
