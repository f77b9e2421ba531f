// Package agent drives the dialogue between the user, the model and the tools.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/logger"
	"github.com/harunnryd/apprentice/internal/model"
	"github.com/harunnryd/apprentice/internal/model/contract"
)

const helpCommand = "?"

// Terminal is the part of the dialogue terminal the agent talks to.
type Terminal interface {
	UserInput(ctx context.Context) (string, error)
	ApprenticePrint(s string)
	PrintIntro(version string)
	PrintHelp()
}

// Dispatcher runs a tool call and returns its result.
type Dispatcher interface {
	Dispatch(ctx context.Context, call contract.ToolCall) (contract.ToolResult, error)
}

type Options struct {
	Chat           model.Chat
	Terminal       Terminal
	Tools          Dispatcher
	SystemPrompt   string
	InitialMessage string
	Version        string
}

// Agent runs one dialogue session. It is not safe for concurrent use.
type Agent struct {
	chat    model.Chat
	term    Terminal
	tools   Dispatcher
	system  string
	initial string
	version string
}

func New(opts Options) *Agent {
	return &Agent{
		chat:    opts.Chat,
		term:    opts.Terminal,
		tools:   opts.Tools,
		system:  opts.SystemPrompt,
		initial: strings.TrimSpace(opts.InitialMessage),
		version: opts.Version,
	}
}

// Run drives the dialogue until the user ends it or a fatal error occurs.
// A clean end returns nil.
func (a *Agent) Run(ctx context.Context) error {
	if logger.GetSessionID(ctx) == "" {
		ctx = logger.WithSessionID(ctx, logger.NewSessionID())
	}
	sessionID := logger.GetSessionID(ctx)
	slog.Info("Session started", "session_id", sessionID)

	a.term.PrintIntro(a.version)
	a.chat.SetSystemPrompt(a.system)

	var next contract.Message
	if a.initial != "" {
		next = contract.Text{Role: contract.RoleUser, Content: a.initial}
	} else {
		msg, err := a.userMessage(ctx)
		if err != nil {
			return a.finish(sessionID, err)
		}
		next = msg
	}

	for {
		msg, err := a.turn(ctx, next)
		if err != nil {
			return a.finish(sessionID, err)
		}
		next = msg
	}
}

func (a *Agent) finish(sessionID string, err error) error {
	if apperrors.IsInterrupted(err) {
		slog.Info("Session ended", "session_id", sessionID)
		return nil
	}
	slog.Error("Session failed", "session_id", sessionID, "category", apperrors.Category(err), "error", err)
	return err
}

// turn sends one message and returns the next message to send.
func (a *Agent) turn(ctx context.Context, msg contract.Message) (contract.Message, error) {
	start := time.Now()
	reply, err := a.chat.Inference(ctx, []contract.Message{msg}, contract.Auto)
	if err != nil {
		var providerErr *apperrors.ProviderError
		if errors.As(err, &providerErr) {
			slog.Warn("Model returned an error", "error", providerErr.Message, "session_id", logger.GetSessionID(ctx))
			a.term.ApprenticePrint(providerErr.Message)
			return a.userMessage(ctx)
		}
		return nil, err
	}
	slog.Debug("Model replied", "messages", len(reply), "duration", time.Since(start), "session_id", logger.GetSessionID(ctx))

	call, err := a.classify(reply)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return a.userMessage(ctx)
	}

	result, err := a.tools.Dispatch(ctx, *call)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// classify prints the text of a reply and returns the tool call it carries,
// if any. More than one tool call in a reply is rejected before anything runs.
func (a *Agent) classify(reply []contract.Message) (*contract.ToolCall, error) {
	if len(reply) == 1 {
		switch m := reply[0].(type) {
		case contract.Text:
			a.term.ApprenticePrint(m.Content)
			return nil, nil
		case contract.ToolCall:
			return &m, nil
		default:
			return nil, apperrors.ProtocolViolation(`Unexpected "tool result" message from LLM.`)
		}
	}

	var call *contract.ToolCall
	for _, msg := range reply {
		switch m := msg.(type) {
		case contract.Text:
			a.term.ApprenticePrint(m.Content)
		case contract.ToolCall:
			if call != nil {
				return nil, apperrors.ProtocolViolation("Unexpected LLM response: parallel tool call is requested.")
			}
			call = &m
		default:
			return nil, apperrors.ProtocolViolation(`Unexpected "tool result" message from LLM.`)
		}
	}
	return call, nil
}

// userMessage reads until the user enters a request. "?" prints help.
func (a *Agent) userMessage(ctx context.Context) (contract.Message, error) {
	for {
		line, err := a.term.UserInput(ctx)
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case helpCommand:
			a.term.PrintHelp()
		default:
			return contract.Text{Role: contract.RoleUser, Content: line}, nil
		}
	}
}
