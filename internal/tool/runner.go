package tool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/logger"
	"github.com/harunnryd/apprentice/internal/model/contract"
)

type Runner struct {
	registry *Registry
}

func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// Specs returns the declarations of every registered tool.
func (r *Runner) Specs() []contract.ToolSpec {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Specs()
}

// Dispatch runs the requested tool and wraps its output as a result for the
// same call. Unknown tools produce a diagnostic result, not an error.
func (r *Runner) Dispatch(ctx context.Context, call contract.ToolCall) (contract.ToolResult, error) {
	result := contract.ToolResult{CallID: call.CallID, Name: call.Name}
	sessionID := logger.GetSessionID(ctx)

	t, ok := r.registry.Get(call.Name)
	if !ok {
		slog.Warn("Unknown tool requested", "tool", call.Name, "session_id", sessionID)
		result.Result = fmt.Sprintf("Unknown tool %q was requested.", call.Name)
		return result, nil
	}

	meta := metadataOf(t)
	start := time.Now()
	slog.Info("Executing tool", "tool", call.Name, "call_id", call.CallID, "risk", meta.Risk, "confirmation", meta.Confirmation, "session_id", sessionID)

	output, err := t.Call(ctx, call.Params)

	duration := time.Since(start)
	if err != nil {
		slog.Error("Tool execution failed", "tool", call.Name, "error", err, "duration", duration, "session_id", sessionID)
		if apperrors.IsInterrupted(err) {
			return result, err
		}
		return result, apperrors.WrapWithCategory(err, fmt.Sprintf("tool %s failed", call.Name), apperrors.ErrInternal)
	}

	slog.Info("Tool execution success", "tool", call.Name, "duration", duration, "session_id", sessionID)
	result.Result = output
	return result, nil
}
