package term

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	apperrors "github.com/harunnryd/apprentice/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumbTerminal_PlainPrompts(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("list buckets\ny\n"), &out, DefaultPalette(), true)

	line, err := term.UserInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "list buckets", line)

	term.ApprenticePrint("sure")
	term.PrintToolMessage("SHELL", "gsutil ls")
	answer, err := term.ToolInput(context.Background(), "SHELL", "Execute command? ")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)

	assert.Equal(t, "USER> APPRENTICE> sure\nSHELL> gsutil ls\nSHELL> Execute command? ", out.String())
}

func TestTerminal_EOFIsInterrupt(t *testing.T) {
	term := New(strings.NewReader(""), io.Discard, DefaultPalette(), true)

	_, err := term.UserInput(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsInterrupted(err))
}

func TestTerminal_LastLineWithoutNewline(t *testing.T) {
	term := New(strings.NewReader("first\nlast"), io.Discard, DefaultPalette(), true)

	line, err := term.UserInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = term.UserInput(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = term.UserInput(context.Background())
	assert.True(t, apperrors.IsInterrupted(err))
}

func TestTerminal_CancelUnblocksRead(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := New(r, io.Discard, DefaultPalette(), true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := term.UserInput(ctx)
	assert.True(t, apperrors.IsInterrupted(err))
}

func TestTerminal_ReadErrorIsInputError(t *testing.T) {
	r, w := io.Pipe()
	_ = w.CloseWithError(io.ErrUnexpectedEOF)
	term := New(r, io.Discard, DefaultPalette(), true)

	_, err := term.UserInput(context.Background())
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrInput))
}

func TestStyledTerminal_WritesLabels(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out, DefaultPalette(), false)

	term.PrintIntro("0.1.0")
	term.PrintHelp()
	term.ApprenticePrint("hello")

	text := out.String()
	assert.Contains(t, text, "(ver. 0.1.0)")
	assert.Contains(t, text, Instructions)
	assert.Contains(t, text, "It is not recommended to trust the application blindly.")
	assert.Contains(t, text, " APPRENTICE ")
	assert.Contains(t, text, "hello")
}

func TestStyledTerminal_ToolRuleMatchesLabelWidth(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out, DefaultPalette(), false)

	term.EndToolOutput("ツール")

	text := out.String()
	assert.Contains(t, text, strings.Repeat("─", 8))
	assert.NotContains(t, text, strings.Repeat("─", 9))
}
