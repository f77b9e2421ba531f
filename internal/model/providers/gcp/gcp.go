// Package gcp adapts the Gemini generateContent protocol.
package gcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model/contract"
	"github.com/harunnryd/apprentice/internal/transport"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// DefaultURL is the generateContent endpoint template; {model} is replaced with the model name.
const DefaultURL = "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent"

var Roles = contract.RoleTable{"system", "model", "user"}

// Chat keeps one Gemini-shaped conversation.
//
// The protocol has no switch for parallel function calls, so the payload
// cannot forbid them; callers must reject multi-call batches themselves.
type Chat struct {
	transport    transport.Transport
	params       contract.Params
	url          string
	tools        []tool
	systemPrompt string
	history      []json.RawMessage
}

type functionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  contract.Schema `json:"parameters"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type generationConfig struct {
	MaxOutputTokens  *int64   `json:"maxOutputTokens,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             *int64   `json:"topK,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
}

type request struct {
	SystemInstruction *genai.Content    `json:"systemInstruction,omitempty"`
	Contents          []json.RawMessage `json:"contents"`
	GenerationConfig  generationConfig  `json:"generationConfig"`
	Tools             []tool            `json:"tools,omitempty"`
	ToolConfig        *genai.ToolConfig `json:"toolConfig,omitempty"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type response struct {
	Candidates []struct {
		Content json.RawMessage `json:"content"`
	} `json:"candidates"`
}

type content struct {
	Role  string            `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

// URL expands the endpoint template for a model.
func URL(template, model string) string {
	if template == "" {
		template = DefaultURL
	}
	return strings.ReplaceAll(template, "{model}", model)
}

// New builds a chat bound to the given tools.
func New(params contract.Params, t transport.Transport, specs []contract.ToolSpec) *Chat {
	var tools []tool
	if len(specs) > 0 {
		decls := make([]functionDeclaration, 0, len(specs))
		for _, s := range specs {
			decls = append(decls, functionDeclaration{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  contract.BuildSchema(s.Params, false),
			})
		}
		tools = []tool{{FunctionDeclarations: decls}}
	}

	return &Chat{
		transport: t,
		params:    params,
		url:       URL(params.APIURL, params.Name),
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

	body, err := c.transport.Send(ctx, c.url, c.buildRequest(history, choice), nil, map[string]string{"key": c.params.APIKey})
	if err != nil {
		return nil, err
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.WrapWithCategory(err, "malformed response", apperrors.ErrResponseFormat)
	}
	if envelope.Error != nil {
		slog.Warn("Model returned an error", "provider", "gcp", "status", envelope.Error.Status, "message", envelope.Error.Message)
		return nil, apperrors.Provider(envelope.Error.Message)
	}

	out, fragments, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	c.history = append(history, fragments...)
	slog.Debug("Inference completed", "provider", "gcp", "messages", len(out), "history", len(c.history))
	return out, nil
}

func (c *Chat) buildRequest(history []json.RawMessage, choice contract.ToolChoice) request {
	req := request{
		Contents: history,
		GenerationConfig: generationConfig{
			MaxOutputTokens:  c.params.MaxTokens,
			TopP:             c.params.TopP,
			TopK:             c.params.TopK,
			Temperature:      c.params.Temperature,
			PresencePenalty:  c.params.PresencePenalty,
			FrequencyPenalty: c.params.FrequencyPenalty,
		},
	}
	if c.params.StopSequence != "" {
		req.GenerationConfig.StopSequences = []string{c.params.StopSequence}
	}
	if c.systemPrompt != "" {
		req.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: c.systemPrompt}}}
	}

	if choice.Mode == contract.ToolChoiceNone {
		return req
	}

	req.Tools = c.tools
	cfg := &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto}
	switch choice.Mode {
	case contract.ToolChoiceCallOne:
		cfg.Mode = genai.FunctionCallingConfigModeAny
	case contract.ToolChoiceForce:
		cfg.Mode = genai.FunctionCallingConfigModeAny
		cfg.AllowedFunctionNames = []string{choice.Name}
	}
	req.ToolConfig = &genai.ToolConfig{FunctionCallingConfig: cfg}
	return req
}

func encodeMessages(messages []contract.Message) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		var v *genai.Content
		switch msg := m.(type) {
		case contract.Text:
			v = &genai.Content{
				Role:  Roles.Name(msg.Role),
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case contract.ToolResult:
			v = &genai.Content{
				Role: Roles.Name(contract.RoleUser),
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     msg.Name,
						Response: map[string]any{"name": msg.Name, "content": msg.Result},
					},
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
	if resp.Candidates == nil {
		return nil, nil, apperrors.ResponseFormat("response has no candidates.")
	}

	var out []contract.Message
	fragments := make([]json.RawMessage, 0, len(resp.Candidates))
	for _, candidate := range resp.Candidates {
		if len(candidate.Content) == 0 {
			return nil, nil, apperrors.ResponseFormat("candidate has no content.")
		}

		var c content
		if err := json.Unmarshal(candidate.Content, &c); err != nil {
			return nil, nil, apperrors.WrapWithCategory(err, "malformed content", apperrors.ErrResponseFormat)
		}
		role, err := Roles.Role(c.Role)
		if err != nil {
			return nil, nil, err
		}
		fragments = append(fragments, candidate.Content)

		for _, raw := range c.Parts {
			msg, err := parsePart(role, raw)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, msg)
		}
	}
	return out, fragments, nil
}

func parsePart(role contract.Role, raw json.RawMessage) (contract.Message, error) {
	var part genai.Part
	if err := json.Unmarshal(raw, &part); err != nil {
		return nil, apperrors.WrapWithCategory(err, "malformed part", apperrors.ErrResponseFormat)
	}

	switch {
	case part.FunctionCall != nil:
		params := []contract.ToolParam{}
		if args := gjson.GetBytes(raw, "functionCall.args"); args.Exists() {
			decoded, err := contract.DecodeParams([]byte(args.Raw))
			if err != nil {
				return nil, err
			}
			params = decoded
		}
		// CallID stays empty.
		return contract.ToolCall{Name: part.FunctionCall.Name, Params: params}, nil
	case gjson.GetBytes(raw, "text").Exists():
		return contract.Text{Role: role, Content: part.Text}, nil
	default:
		return nil, apperrors.ResponseFormat("unexpected message type.")
	}
}
