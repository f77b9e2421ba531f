package contract

import "fmt"

// Role is the author of a text message. The ordinal indexes vendor role tables.
type Role int

const (
	RoleSystem Role = iota
	RoleModel
	RoleUser
)

func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleModel:
		return "model"
	case RoleUser:
		return "user"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Message is one of Text, ToolCall or ToolResult.
type Message interface {
	isMessage()
}

// Text is plain conversation text.
type Text struct {
	Role    Role
	Content string
}

// ToolCall is a model request to invoke a named tool.
type ToolCall struct {
	CallID string
	Name   string
	Params []ToolParam
}

// ToolResult is the output of a tool invocation fed back to the model.
type ToolResult struct {
	CallID string
	Name   string
	Result string
}

func (Text) isMessage()       {}
func (ToolCall) isMessage()   {}
func (ToolResult) isMessage() {}

// ToolParam is one call-site argument. Value holds any decoded JSON value.
type ToolParam struct {
	Name  string
	Value any
}

// ParamType is the JSON schema type of a tool parameter.
type ParamType int

const (
	ParamString ParamType = iota
	ParamInteger
	ParamNumber
	ParamBoolean
)

func (t ParamType) String() string {
	switch t {
	case ParamInteger:
		return "integer"
	case ParamNumber:
		return "number"
	case ParamBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// ParamSpec declares one tool parameter.
type ParamSpec struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
}

// ToolSpec declares a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// ToolChoiceMode selects how the model may use tools on a turn.
type ToolChoiceMode int

const (
	// ToolChoiceNone sends no tools at all.
	ToolChoiceNone ToolChoiceMode = iota
	// ToolChoiceAuto lets the model decide.
	ToolChoiceAuto
	// ToolChoiceCallOne requires the model to call some tool.
	ToolChoiceCallOne
	// ToolChoiceForce requires the model to call the named tool.
	ToolChoiceForce
)

// ToolChoice is the tool policy for a single inference call.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string
}

var (
	NoTools = ToolChoice{Mode: ToolChoiceNone}
	Auto    = ToolChoice{Mode: ToolChoiceAuto}
	CallOne = ToolChoice{Mode: ToolChoiceCallOne}
)

// Force returns a choice that requires a call to the named tool.
func Force(name string) ToolChoice {
	return ToolChoice{Mode: ToolChoiceForce, Name: name}
}

// Params is the model configuration a chat is built from.
// Nil pointers and empty strings mean "not configured" and are never sent.
type Params struct {
	Provider         string
	Name             string
	APIKey           string
	APIURL           string
	APIVersion       string
	MaxTokens        *int64
	N                *int64
	Temperature      *float64
	TopP             *float64
	TopK             *int64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequence     string
}
