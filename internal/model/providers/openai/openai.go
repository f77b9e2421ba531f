// Package openai adapts the chat completions protocol.
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model/contract"
	"github.com/harunnryd/apprentice/internal/transport"

	"github.com/sashabaranov/go-openai"
)

const DefaultURL = "https://api.openai.com/v1/chat/completions"

var Roles = contract.RoleTable{"system", "assistant", "user"}

// Chat keeps one OpenAI-shaped conversation.
type Chat struct {
	transport    transport.Transport
	params       contract.Params
	url          string
	tools        []tool
	systemPrompt string
	history      []json.RawMessage
}

type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolMessage struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id"`
}

type function struct {
	Description string          `json:"description"`
	Name        string          `json:"name"`
	Parameters  contract.Schema `json:"parameters"`
	Strict      bool            `json:"strict"`
}

type tool struct {
	Type     openai.ToolType `json:"type"`
	Function function        `json:"function"`
}

type namedFunction struct {
	Type     openai.ToolType `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type request struct {
	Model               string            `json:"model"`
	Messages            []json.RawMessage `json:"messages"`
	FrequencyPenalty    *float64          `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64          `json:"presence_penalty,omitempty"`
	N                   *int64            `json:"n,omitempty"`
	TopP                *float64          `json:"top_p,omitempty"`
	Temperature         *float64          `json:"temperature,omitempty"`
	MaxCompletionTokens *int64            `json:"max_completion_tokens,omitempty"`
	Stop                string            `json:"stop,omitempty"`
	Tools               []tool            `json:"tools,omitempty"`
	ToolChoice          any               `json:"tool_choice,omitempty"`
	ParallelToolCalls   *bool             `json:"parallel_tool_calls,omitempty"`
}

type response struct {
	Choices []struct {
		Message json.RawMessage `json:"message"`
	} `json:"choices"`
}

type responseMessage struct {
	Role      string            `json:"role"`
	Content   *string           `json:"content"`
	Refusal   *string           `json:"refusal"`
	ToolCalls []openai.ToolCall `json:"tool_calls"`
}

// New builds a chat bound to the given tools.
func New(params contract.Params, t transport.Transport, specs []contract.ToolSpec) *Chat {
	url := params.APIURL
	if url == "" {
		url = DefaultURL
	}

	tools := make([]tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, tool{
			Type: openai.ToolTypeFunction,
			Function: function{
				Description: s.Description,
				Name:        s.Name,
				Parameters:  contract.BuildSchema(s.Params, true),
				Strict:      true,
			},
		})
	}

	return &Chat{
		transport: t,
		params:    params,
		url:       url,
		tools:     tools,
	}
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

	req := c.buildRequest(history, choice)
	body, err := c.transport.Send(ctx, c.url, req, map[string]string{"Authorization": "Bearer " + c.params.APIKey}, nil)
	if err != nil {
		return nil, err
	}

	var envelope openai.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.WrapWithCategory(err, "malformed error envelope", apperrors.ErrResponseFormat)
	}
	if envelope.Error != nil {
		slog.Warn("Model returned an error", "provider", "openai", "type", envelope.Error.Type, "message", envelope.Error.Message)
		return nil, apperrors.Provider(envelope.Error.Message)
	}

	out, fragments, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	c.history = append(history, fragments...)
	slog.Debug("Inference completed", "provider", "openai", "messages", len(out), "history", len(c.history))
	return out, nil
}

func (c *Chat) buildRequest(history []json.RawMessage, choice contract.ToolChoice) request {
	messages := history
	if c.systemPrompt != "" {
		system, _ := json.Marshal(textMessage{Role: Roles.Name(contract.RoleSystem), Content: c.systemPrompt})
		messages = append([]json.RawMessage{system}, history...)
	}

	req := request{
		Model:               c.params.Name,
		Messages:            messages,
		FrequencyPenalty:    c.params.FrequencyPenalty,
		PresencePenalty:     c.params.PresencePenalty,
		N:                   c.params.N,
		TopP:                c.params.TopP,
		Temperature:         c.params.Temperature,
		MaxCompletionTokens: c.params.MaxTokens,
		Stop:                c.params.StopSequence,
	}

	if choice.Mode == contract.ToolChoiceNone {
		return req
	}

	parallel := false
	req.Tools = c.tools
	req.ParallelToolCalls = &parallel
	switch choice.Mode {
	case contract.ToolChoiceAuto:
		req.ToolChoice = "auto"
	case contract.ToolChoiceCallOne:
		req.ToolChoice = "required"
	case contract.ToolChoiceForce:
		forced := namedFunction{Type: openai.ToolTypeFunction}
		forced.Function.Name = choice.Name
		req.ToolChoice = forced
	}
	return req
}

func encodeMessages(messages []contract.Message) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		var v any
		switch msg := m.(type) {
		case contract.Text:
			v = textMessage{Role: Roles.Name(msg.Role), Content: msg.Content}
		case contract.ToolResult:
			v = toolMessage{Role: openai.ChatMessageRoleTool, Content: msg.Result, ToolCallID: msg.CallID}
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
	if resp.Choices == nil {
		return nil, nil, apperrors.ResponseFormat("response has no choices.")
	}

	var out []contract.Message
	fragments := make([]json.RawMessage, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		if len(choice.Message) == 0 {
			return nil, nil, apperrors.ResponseFormat("choice has no message.")
		}

		var msg responseMessage
		if err := json.Unmarshal(choice.Message, &msg); err != nil {
			return nil, nil, apperrors.WrapWithCategory(err, "malformed message", apperrors.ErrResponseFormat)
		}
		role, err := Roles.Role(msg.Role)
		if err != nil {
			return nil, nil, err
		}
		fragments = append(fragments, choice.Message)

		if msg.Content != nil {
			out = append(out, contract.Text{Role: role, Content: *msg.Content})
		}
		if msg.Refusal != nil {
			out = append(out, contract.Text{Role: role, Content: *msg.Refusal})
		}
		for _, call := range msg.ToolCalls {
			params, err := contract.DecodeParams([]byte(call.Function.Arguments))
			if err != nil {
				return nil, nil, err
			}
			out = append(out, contract.ToolCall{CallID: call.ID, Name: call.Function.Name, Params: params})
		}
	}
	return out, fragments, nil
}
