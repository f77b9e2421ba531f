// Package anthropic adapts the messages protocol.
package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model/contract"
	"github.com/harunnryd/apprentice/internal/transport"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

const DefaultURL = "https://api.anthropic.com/v1/messages"

// Roles has no system entry; the system prompt travels in its own field.
var Roles = contract.RoleTable{"", "assistant", "user"}

// Chat keeps one Anthropic-shaped conversation.
type Chat struct {
	transport    transport.Transport
	params       contract.Params
	url          string
	maxTokens    int64
	tools        []tool
	systemPrompt string
	history      []json.RawMessage
}

type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type toolResultMessage struct {
	Role    string            `json:"role"`
	Content []toolResultBlock `json:"content"`
}

type blockMessage struct {
	Role    string            `json:"role"`
	Content []json.RawMessage `json:"content"`
}

type tool struct {
	Description string          `json:"description"`
	Name        string          `json:"name"`
	InputSchema contract.Schema `json:"input_schema"`
}

type request struct {
	Model         string                          `json:"model"`
	System        string                          `json:"system,omitempty"`
	Messages      []json.RawMessage               `json:"messages"`
	MaxTokens     int64                           `json:"max_tokens"`
	TopP          *float64                        `json:"top_p,omitempty"`
	TopK          *int64                          `json:"top_k,omitempty"`
	Temperature   *float64                        `json:"temperature,omitempty"`
	StopSequences []string                        `json:"stop_sequences,omitempty"`
	Tools         []tool                          `json:"tools,omitempty"`
	ToolChoice    *anthropic.ToolChoiceUnionParam `json:"tool_choice,omitempty"`
}

type errorEnvelope struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type response struct {
	Role    string            `json:"role"`
	Content []json.RawMessage `json:"content"`
}

// New validates the mandatory settings and builds a chat bound to the given tools.
func New(params contract.Params, t transport.Transport, specs []contract.ToolSpec) (*Chat, error) {
	if params.APIVersion == "" {
		return nil, apperrors.MissingArgument("api-version is mandatory for anthropic.")
	}
	if params.MaxTokens == nil {
		return nil, apperrors.MissingArgument("max-tokens is mandatory for anthropic.")
	}

	url := params.APIURL
	if url == "" {
		url = DefaultURL
	}

	tools := make([]tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, tool{
			Description: s.Description,
			Name:        s.Name,
			InputSchema: contract.BuildSchema(s.Params, true),
		})
	}

	return &Chat{
		transport: t,
		params:    params,
		url:       url,
		maxTokens: *params.MaxTokens,
		tools:     tools,
	}, nil
}

func (c *Chat) SetSystemPrompt(prompt string) {
	c.systemPrompt = prompt
}

func (c *Chat) ClearHistory() {
	c.history = nil
}

// History returns a copy of the replayed conversation.
func (c *Chat) History() []json.RawMessage {
	return slices.Clone(c.history)
}

func (c *Chat) Inference(ctx context.Context, messages []contract.Message, choice contract.ToolChoice) ([]contract.Message, error) {
	pending, err := encodeMessages(messages)
	if err != nil {
		return nil, err
	}

	history := append(slices.Clip(c.history), pending...)

	headers := map[string]string{
		"x-api-key":         c.params.APIKey,
		"anthropic-version": c.params.APIVersion,
	}
	body, err := c.transport.Send(ctx, c.url, c.buildRequest(history, choice), headers, nil)
	if err != nil {
		return nil, err
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.WrapWithCategory(err, "malformed response", apperrors.ErrResponseFormat)
	}
	if envelope.Error != nil {
		slog.Warn("Model returned an error", "provider", "anthropic", "type", envelope.Error.Type, "message", envelope.Error.Message)
		return nil, apperrors.Provider(envelope.Error.Message)
	}

	out, fragments, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	c.history = append(history, fragments...)
	slog.Debug("Inference completed", "provider", "anthropic", "messages", len(out), "history", len(c.history))
	return out, nil
}

func (c *Chat) buildRequest(history []json.RawMessage, choice contract.ToolChoice) request {
	req := request{
		Model:       c.params.Name,
		System:      c.systemPrompt,
		Messages:    history,
		MaxTokens:   c.maxTokens,
		TopP:        c.params.TopP,
		TopK:        c.params.TopK,
		Temperature: c.params.Temperature,
	}
	if c.params.StopSequence != "" {
		req.StopSequences = []string{c.params.StopSequence}
	}

	if choice.Mode == contract.ToolChoiceNone {
		return req
	}

	req.Tools = c.tools
	req.ToolChoice = toolChoice(choice)
	return req
}

func toolChoice(choice contract.ToolChoice) *anthropic.ToolChoiceUnionParam {
	disable := anthropic.Bool(true)
	switch choice.Mode {
	case contract.ToolChoiceCallOne:
		return &anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{DisableParallelToolUse: disable}}
	case contract.ToolChoiceForce:
		return &anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: choice.Name, DisableParallelToolUse: disable}}
	default:
		return &anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{DisableParallelToolUse: disable}}
	}
}

func encodeMessages(messages []contract.Message) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		var v any
		switch msg := m.(type) {
		case contract.Text:
			role := Roles.Name(msg.Role)
			if role == "" {
				return nil, apperrors.ProtocolViolation("system text must be set as the system prompt.")
			}
			v = textMessage{Role: role, Content: msg.Content}
		case contract.ToolResult:
			v = toolResultMessage{
				Role: Roles.Name(contract.RoleUser),
				Content: []toolResultBlock{{
					Type:      "tool_result",
					ToolUseID: msg.CallID,
					Content:   msg.Result,
				}},
			}
		default:
			return nil, apperrors.ProtocolViolation("only text and tool result messages can be sent to the model.")
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return nil, apperrors.WrapWithCategory(err, "failed to encode message", apperrors.ErrInternal)
		}
		out = append(out, raw)
	}
	return out, nil
}

func parseResponse(body json.RawMessage) ([]contract.Message, []json.RawMessage, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, apperrors.WrapWithCategory(err, "malformed response", apperrors.ErrResponseFormat)
	}
	role, err := Roles.Role(resp.Role)
	if err != nil {
		return nil, nil, err
	}
	if resp.Content == nil {
		return nil, nil, apperrors.ResponseFormat("response has no content.")
	}

	var out []contract.Message
	fragments := make([]json.RawMessage, 0, len(resp.Content))
	for _, raw := range resp.Content {
		var block anthropic.ContentBlockUnion
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, nil, apperrors.WrapWithCategory(err, "malformed content block", apperrors.ErrResponseFormat)
		}

		switch block.Type {
		case "text":
			out = append(out, contract.Text{Role: role, Content: block.Text})
		case "tool_use":
			params, err := contract.DecodeParams(block.Input)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, contract.ToolCall{CallID: block.ID, Name: block.Name, Params: params})
		default:
			return nil, nil, apperrors.ResponseFormat("unexpected message type.")
		}

		fragment, err := json.Marshal(blockMessage{Role: resp.Role, Content: []json.RawMessage{raw}})
		if err != nil {
			return nil, nil, apperrors.WrapWithCategory(err, "failed to encode fragment", apperrors.ErrInternal)
		}
		fragments = append(fragments, fragment)
	}
	return out, fragments, nil
}
