package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/executor"
	"github.com/harunnryd/apprentice/internal/model/contract"
	toolcore "github.com/harunnryd/apprentice/internal/tool"
)

const HelpToolName = "HELP"

const operatorRejection = "command must be a single help invocation without shell operators."

func init() {
	toolcore.RegisterBuiltin(HelpToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewHelpTool(options.Goal, options.Executor)
	})
}

type helpRule struct {
	prefixes  []string
	suffix    string
	rejection string
}

var helpRules = map[config.Goal]helpRule{
	config.GoalGCP: {
		prefixes:  []string{"gcloud ", "bq ", "gsutil "},
		suffix:    " --help",
		rejection: `command must start with "gcloud ",  "bq  ", or  "gsutil  ".`,
	},
	config.GoalAWS: {
		prefixes:  []string{"aws "},
		suffix:    " help",
		rejection: `command must start with "aws ".`,
	},
	config.GoalAzure: {
		prefixes:  []string{"az "},
		suffix:    " --help",
		rejection: `command must start with "az ".`,
	},
}

// HelpTool prints the help page of a goal CLI subcommand. It runs without
// confirmation, so only plain help invocations are let through.
type HelpTool struct {
	rule     helpRule
	executor executor.Executor
}

func NewHelpTool(goal config.Goal, exec executor.Executor) (*HelpTool, error) {
	rule, ok := helpRules[goal]
	if !ok {
		return nil, fmt.Errorf("no help rule for goal %q", goal)
	}
	return &HelpTool{rule: rule, executor: exec}, nil
}

func (t *HelpTool) Spec() contract.ToolSpec {
	return contract.ToolSpec{
		Name:        HelpToolName,
		Description: "Returns a help page for a specific CLI tool subcommand.",
		Params: []contract.ParamSpec{
			{Name: "command", Description: "command for which the help is required", Type: contract.ParamString, Required: true},
		},
	}
}

func (t *HelpTool) ToolMetadata() toolcore.ToolMetadata {
	return toolcore.ToolMetadata{
		Source: "builtin",
		Risk:   toolcore.RiskLow,
	}
}

func (t *HelpTool) Call(ctx context.Context, params []contract.ToolParam) (string, error) {
	if diag := toolcore.CheckParams(t.Spec().Params, params); diag != "" {
		return diag, nil
	}
	command := params[0].Value.(string)

	if !t.hasPrefix(command) {
		return t.rule.rejection, nil
	}
	if !isPlainInvocation(command) {
		return operatorRejection, nil
	}

	out, err := t.executor.Execute(ctx, command+t.rule.suffix)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func (t *HelpTool) hasPrefix(command string) bool {
	for _, p := range t.rule.prefixes {
		if strings.HasPrefix(command, p) {
			return true
		}
	}
	return false
}

func isPlainInvocation(command string) bool {
	if strings.ContainsAny(command, ";&|<>`\n") || strings.Contains(command, "$(") {
		return false
	}
	_, err := shlex.Split(command)
	return err == nil
}
