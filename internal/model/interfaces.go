package model

import (
	"context"

	"github.com/harunnryd/apprentice/internal/model/contract"
)

// Chat is one conversation with a model vendor. Implementations own their
// history and only append to it after a fully parsed reply.
type Chat interface {
	Inference(ctx context.Context, messages []contract.Message, choice contract.ToolChoice) ([]contract.Message, error)
	SetSystemPrompt(prompt string)
	ClearHistory()
}
