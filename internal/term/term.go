// Package term is the line-oriented dialogue terminal.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"

	"github.com/harunnryd/apprentice/internal/concurrency"
	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

const Logo = `
    ___    ___   ___   ___   ____ _  __ ______ ____ _____ ____
   / _ |  / _ \ / _ \ / _ \ / __// |/ //_  __//  _// ___// __/
  / __ | / ___// ___// , _// _/ /    /  / /  _/ / / /__ / _/  
 /_/ |_|/_/   /_/   /_/|_|/___//_/|_/  /_/  /___/ \___//___/`

const Instructions = "For help use ?, to exit use Ctrl+C"

const Help = "You are in a dialogue with Apprentice, please enter your request. \n" +
	"Apprentice can ask clarifying questions, use tools, for example, \n" +
	"execute a shell command (each time it will ask for user confirmation), etc.\n" +
	"It is not recommended to trust the application blindly."

type lineResult struct {
	line string
	err  error
}

// Terminal reads user lines and prints the dialogue. With dumb set it emits
// plain prompts and no styling.
type Terminal struct {
	reader *bufio.Reader
	out    io.Writer
	styles Styles
	dumb   bool

	mu      sync.Mutex
	pending chan lineResult
}

// New builds a terminal over the given streams.
func New(in io.Reader, out io.Writer, palette Palette, dumb bool) *Terminal {
	return &Terminal{
		reader: bufio.NewReader(in),
		out:    out,
		styles: NewStyles(palette),
		dumb:   dumb,
	}
}

// NewStd builds a terminal over the process streams; TERM=dumb selects plain mode.
func NewStd(palette Palette) *Terminal {
	return New(os.Stdin, os.Stdout, palette, IsDumb())
}

// IsDumb reports whether the environment asks for a plain terminal.
func IsDumb() bool {
	return os.Getenv("TERM") == "dumb"
}

// UserInput prompts the user and returns one line without its terminator.
func (t *Terminal) UserInput(ctx context.Context) (string, error) {
	if t.dumb {
		t.print("USER> ")
	} else {
		t.print(t.styles.user.prompt("USER"))
	}
	return t.readLine(ctx)
}

// ApprenticePrint prints a model message.
func (t *Terminal) ApprenticePrint(s string) {
	if t.dumb {
		t.println("APPRENTICE> " + s)
		return
	}
	t.println(t.styles.apprentice.prompt("APPRENTICE") + t.styles.apprentice.text.Render(s))
}

// PrintIntro prints the logo, version and usage line.
func (t *Terminal) PrintIntro(version string) {
	intro := fmt.Sprintf("%s\n (ver. %s)\n\n%s", Logo, version, Instructions)
	if t.dumb {
		t.println(intro)
		return
	}
	t.println(t.styles.apprentice.text.Render(intro))
}

// PrintHelp prints the dialogue help.
func (t *Terminal) PrintHelp() {
	if t.dumb {
		t.println(Help)
		return
	}
	t.println(t.styles.apprentice.text.Render(Help))
}

// PrintToolMessage shows what a tool is about to do.
func (t *Terminal) PrintToolMessage(tool, message string) {
	if t.dumb {
		t.println(tool + "> " + message)
		return
	}
	t.println(t.styles.tool.prompt(tool) + t.styles.tool.text.Render(message))
}

// ToolInput asks the user a question on behalf of a tool.
func (t *Terminal) ToolInput(ctx context.Context, tool, prompt string) (string, error) {
	if t.dumb {
		t.print(tool + "> " + prompt)
	} else {
		t.print(t.styles.tool.prompt(tool) + t.styles.tool.text.Render(prompt))
	}
	return t.readLine(ctx)
}

// BeginToolOutput marks the start of raw tool output.
func (t *Terminal) BeginToolOutput(tool string) {
	if t.dumb {
		return
	}
	t.println(t.styles.tool.prompt(tool) + t.styles.tool.text.Render("output:"))
}

// EndToolOutput marks the end of raw tool output.
func (t *Terminal) EndToolOutput(tool string) {
	if t.dumb {
		return
	}
	t.println(t.styles.tool.arrow.Render(strings.Repeat("─", lipgloss.Width(" "+tool+" "))))
}

func (t *Terminal) print(s string) {
	_, _ = lipgloss.Fprint(t.out, s)
}

func (t *Terminal) println(s string) {
	_, _ = lipgloss.Fprintln(t.out, s)
}

// readLine waits for a line or for ctx to end. A read abandoned by
// cancellation is picked up by the next call.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.pending == nil {
		ch := make(chan lineResult, 1)
		t.pending = ch
		concurrency.Go("terminal read", func() {
			line, err := t.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}, func(err error) {
			ch <- lineResult{err: err}
		})
	}
	pending := t.pending
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", apperrors.WrapWithCategory(ctx.Err(), "input cancelled", apperrors.ErrInterrupted)
	case res := <-pending:
		t.mu.Lock()
		t.pending = nil
		t.mu.Unlock()

		line := strings.TrimRight(res.line, "\r\n")
		if res.err == nil {
			return line, nil
		}
		if res.err == io.EOF {
			if line != "" {
				return line, nil
			}
			return "", apperrors.WrapWithCategory(res.err, "end of input", apperrors.ErrInterrupted)
		}
		return "", apperrors.WrapWithCategory(res.err, "failed to read input", apperrors.ErrInput)
	}
}
