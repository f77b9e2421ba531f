package builtin

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/executor"
	"github.com/harunnryd/apprentice/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func command(v any) []contract.ToolParam {
	return []contract.ToolParam{{Name: "command", Value: v}}
}

func TestShellTool_DeclinedCommandNeverRuns(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"n", "not safe"}}
	exec := &fakeExecutor{}
	tool := NewShellTool(prompter, exec)

	result, err := tool.Call(context.Background(), command("rm -rf /tmp/x"))
	require.NoError(t, err)

	assert.Equal(t, "User cancelled the operation with the reason: not safe", result)
	assert.Empty(t, exec.commands)
	assert.Equal(t, []string{"SHELL: rm -rf /tmp/x"}, prompter.messages)
	assert.Equal(t, []string{"Execute command? (y - yes / n - no): ", "reason: "}, prompter.prompts)
}

func TestShellTool_ConfirmedCommandRuns(t *testing.T) {
	prompter := &fakePrompter{answers: []string{" y "}}
	exec := &fakeExecutor{output: executor.Output{Stdout: "file\n"}}
	tool := NewShellTool(prompter, exec)

	result, err := tool.Call(context.Background(), command("ls"))
	require.NoError(t, err)

	assert.Equal(t, "STDOUT:\nfile\n\nSTDERR:\n", result)
	assert.Equal(t, []string{"ls"}, exec.commands)
	assert.Equal(t, 1, prompter.begins)
	assert.Equal(t, 1, prompter.ends)
}

func TestShellTool_RepromptsUntilSingleCharacterAnswer(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"yes", "", "x", "y"}}
	exec := &fakeExecutor{}
	tool := NewShellTool(prompter, exec)

	_, err := tool.Call(context.Background(), command("ls"))
	require.NoError(t, err)

	assert.Len(t, prompter.prompts, 4)
	assert.Len(t, exec.commands, 1)
}

func TestShellTool_InterruptedPromptPropagates(t *testing.T) {
	prompter := &fakePrompter{}
	exec := &fakeExecutor{}
	tool := NewShellTool(prompter, exec)

	_, err := tool.Call(context.Background(), command("ls"))
	assert.True(t, apperrors.IsInterrupted(err))
	assert.Empty(t, exec.commands)
}

func TestShellTool_ExecutorFailure(t *testing.T) {
	prompter := &fakePrompter{answers: []string{"y"}}
	exec := &fakeExecutor{err: errors.New("fork failed")}
	tool := NewShellTool(prompter, exec)

	_, err := tool.Call(context.Background(), command("ls"))
	require.Error(t, err)
	assert.Equal(t, 1, prompter.ends)
}

func TestShellTool_ParameterDiagnostics(t *testing.T) {
	tool := NewShellTool(&fakePrompter{}, &fakeExecutor{})

	cases := []struct {
		name   string
		params []contract.ToolParam
		want   string
	}{
		{"none", nil, `wrong number of input parameters, expect 1 parameter called "command" of type string.`},
		{"two", []contract.ToolParam{{Name: "command", Value: "ls"}, {Name: "x", Value: "y"}}, `wrong number of input parameters, expect 1 parameter called "command" of type string.`},
		{"name", []contract.ToolParam{{Name: "cmd", Value: "ls"}}, `wrong parameter name, expect 1 parameter called "command" of type string.`},
		{"type", command(float64(1)), `wrong parameter value type, expect 1 parameter called "command" of type string.`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := tool.Call(context.Background(), tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result)
		})
	}
}
