package gcp

import (
	"context"
	"testing"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model/contract"
	"github.com/harunnryd/apprentice/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var shellSpec = contract.ToolSpec{
	Name:        "SHELL",
	Description: "run a command",
	Params: []contract.ParamSpec{
		{Name: "command", Description: "command to execute", Type: contract.ParamString, Required: true},
	},
}

const textReply = `{"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]},"finishReason":"STOP"}]}`

func ptr[T any](v T) *T { return &v }

func newChat(t *testing.T, params contract.Params, bodies ...string) (*Chat, *transport.Stub) {
	t.Helper()
	if params.Name == "" {
		params.Name = "gemini-2.0-flash"
	}
	if params.APIKey == "" {
		params.APIKey = "gk"
	}
	stub := transport.NewStub(bodies...)
	return New(params, stub, []contract.ToolSpec{shellSpec}), stub
}

func userText(s string) []contract.Message {
	return []contract.Message{contract.Text{Role: contract.RoleUser, Content: s}}
}

func TestURL(t *testing.T) {
	assert.Equal(t,
		"https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		URL("", "gemini-pro"))
	assert.Equal(t, "http://localhost/x", URL("http://localhost/x", "gemini-pro"))
}

func TestInference_MinimalPayload(t *testing.T) {
	chat, stub := newChat(t, contract.Params{}, textReply)

	out, err := chat.Inference(context.Background(), userText("hi"), contract.NoTools)
	require.NoError(t, err)
	assert.Equal(t, []contract.Message{contract.Text{Role: contract.RoleModel, Content: "hello"}}, out)

	req := stub.Last()
	assert.Equal(t, "gk", req.Query["key"])
	assert.Contains(t, req.URL, "/models/gemini-2.0-flash:generateContent")
	assert.JSONEq(t, `{"contents":[{"role":"user","parts":[{"text":"hi"}]}],"generationConfig":{}}`, string(req.Payload))
}

func TestInference_GenerationConfigOnlyWhenConfigured(t *testing.T) {
	chat, stub := newChat(t, contract.Params{
		MaxTokens:        ptr(int64(0)),
		TopP:             ptr(0.95),
		TopK:             ptr(int64(3)),
		Temperature:      ptr(0.2),
		PresencePenalty:  ptr(0.1),
		FrequencyPenalty: ptr(0.3),
		StopSequence:     "END",
		N:                ptr(int64(1)),
	}, textReply)
	chat.SetSystemPrompt("be brief")

	_, err := chat.Inference(context.Background(), userText("hi"), contract.NoTools)
	require.NoError(t, err)

	payload := stub.Last().Payload
	assert.JSONEq(t,
		`{"maxOutputTokens":0,"topP":0.95,"topK":3,"temperature":0.2,"presencePenalty":0.1,"frequencyPenalty":0.3,"stopSequences":["END"]}`,
		gjson.GetBytes(payload, "generationConfig").Raw)
	assert.Equal(t, "be brief", gjson.GetBytes(payload, "systemInstruction.parts.0.text").String())
}

func TestInference_ToolConfig(t *testing.T) {
	cases := []struct {
		name   string
		choice contract.ToolChoice
		want   string
	}{
		{"auto", contract.Auto, `{"mode":"AUTO"}`},
		{"call one", contract.CallOne, `{"mode":"ANY"}`},
		{"force", contract.Force("SHELL"), `{"mode":"ANY","allowedFunctionNames":["SHELL"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chat, stub := newChat(t, contract.Params{}, textReply)
			_, err := chat.Inference(context.Background(), userText("hi"), tc.choice)
			require.NoError(t, err)

			payload := stub.Last().Payload
			assert.JSONEq(t, tc.want, gjson.GetBytes(payload, "toolConfig.functionCallingConfig").Raw)
			assert.JSONEq(t,
				`[{"functionDeclarations":[{"name":"SHELL","description":"run a command","parameters":{"type":"object","properties":{"command":{"type":"string","description":"command to execute"}},"required":["command"]}}]}]`,
				gjson.GetBytes(payload, "tools").Raw)
		})
	}
}

func TestInference_FunctionCallHasEmptyCallID(t *testing.T) {
	reply := `{"candidates":[{"content":{"role":"model","parts":[{"text":"running"},{"functionCall":{"name":"SHELL","args":{"command":"gcloud info","zone":"eu"}}}]}}]}`
	chat, _ := newChat(t, contract.Params{}, reply)

	out, err := chat.Inference(context.Background(), userText("info"), contract.Auto)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, contract.Text{Role: contract.RoleModel, Content: "running"}, out[0])
	assert.Equal(t, contract.ToolCall{
		CallID: "",
		Name:   "SHELL",
		Params: []contract.ToolParam{{Name: "command", Value: "gcloud info"}, {Name: "zone", Value: "eu"}},
	}, out[1])
	assert.Len(t, chat.History(), 2)
}

func TestInference_ToolResultEncoding(t *testing.T) {
	chat, stub := newChat(t, contract.Params{}, textReply)

	_, err := chat.Inference(context.Background(), []contract.Message{contract.ToolResult{Name: "SHELL", Result: "ok"}}, contract.Auto)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"role":"user","parts":[{"functionResponse":{"name":"SHELL","response":{"name":"SHELL","content":"ok"}}}]}`,
		gjson.GetBytes(stub.Last().Payload, "contents.0").Raw)
}

func TestInference_ErrorEnvelopeLeavesHistoryUnchanged(t *testing.T) {
	chat, _ := newChat(t, contract.Params{}, textReply, `{"error":{"code":429,"message":"rate limited","status":"RESOURCE_EXHAUSTED"}}`)

	_, err := chat.Inference(context.Background(), userText("one"), contract.Auto)
	require.NoError(t, err)
	before := chat.History()

	_, err = chat.Inference(context.Background(), userText("two"), contract.Auto)
	var perr *apperrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "rate limited", perr.Message)
	assert.Equal(t, before, chat.History())
}

func TestInference_RejectsUnknownParts(t *testing.T) {
	reply := `{"candidates":[{"content":{"role":"model","parts":[{"executableCode":{"language":"PYTHON","code":"print(1)"}}]}}]}`
	chat, _ := newChat(t, contract.Params{}, reply)

	_, err := chat.Inference(context.Background(), userText("hi"), contract.Auto)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrResponseFormat))
	assert.Empty(t, chat.History())
}

func TestInference_RejectsMissingCandidates(t *testing.T) {
	chat, _ := newChat(t, contract.Params{}, `{"promptFeedback":{"blockReason":"SAFETY"}}`)

	_, err := chat.Inference(context.Background(), userText("hi"), contract.Auto)
	assert.True(t, apperrors.IsCategory(err, apperrors.ErrResponseFormat))
}
