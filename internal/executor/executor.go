// Package executor runs shell commands while mirroring their output to the terminal.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/harunnryd/apprentice/internal/concurrency"
	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

// Executor runs a command line.
type Executor interface {
	Execute(ctx context.Context, command string) (Output, error)
}

// Output is what a command printed and how it ended.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// String renders the output in the form fed back to the model.
func (o Output) String() string {
	return fmt.Sprintf("STDOUT:\n%s\nSTDERR:\n%s", o.Stdout, o.Stderr)
}

// Shell runs commands with sh -c.
type Shell struct {
	shellPath string
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// NewShell locates sh and wires it to the process streams.
func NewShell() (*Shell, error) {
	return NewShellWithStreams(os.Stdin, os.Stdout, os.Stderr)
}

// NewShellWithStreams locates sh and wires it to the given streams.
func NewShellWithStreams(stdin io.Reader, stdout, stderr io.Writer) (*Shell, error) {
	path, err := exec.LookPath("sh")
	if err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("shell not found: %v", err))
	}
	return &Shell{
		shellPath: path,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
	}, nil
}

func (s *Shell) Execute(ctx context.Context, command string) (Output, error) {
	cmd := exec.CommandContext(ctx, s.shellPath, "-c", command)
	cmd.Stdin = s.stdin

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Output{}, apperrors.Internal(fmt.Sprintf("failed to open stdout: %v", err))
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Output{}, apperrors.Internal(fmt.Sprintf("failed to open stderr: %v", err))
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Output{}, apperrors.Internal(fmt.Sprintf("failed to start command: %v", err))
	}

	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	var copyErr error
	var mu sync.Mutex

	tee := func(dst io.Writer, buf *bytes.Buffer, src io.Reader) {
		wg.Add(1)
		concurrency.Go("output copy", func() {
			defer wg.Done()
			if _, err := io.Copy(io.MultiWriter(dst, buf), src); err != nil {
				mu.Lock()
				copyErr = errors.Join(copyErr, err)
				mu.Unlock()
			}
		}, func(err error) {
			mu.Lock()
			copyErr = errors.Join(copyErr, err)
			mu.Unlock()
		})
	}
	tee(s.stdout, &stdout, stdoutPipe)
	tee(s.stderr, &stderr, stderrPipe)

	wg.Wait()
	waitErr := cmd.Wait()

	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, apperrors.Internal(fmt.Sprintf("command failed: %v", waitErr))
	}

	if copyErr != nil {
		return out, apperrors.WrapWithCategory(copyErr, "failed to capture command output", apperrors.ErrInternal)
	}

	slog.Info("Command finished", "exit_code", out.ExitCode, "duration", time.Since(start))
	return out, nil
}
