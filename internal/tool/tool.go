package tool

import (
	"context"
	"strings"

	"github.com/harunnryd/apprentice/internal/model/contract"
)

// Tool is a capability the model may invoke. Call returns the text fed back
// to the model; an error ends the dialogue.
type Tool interface {
	Spec() contract.ToolSpec
	Call(ctx context.Context, params []contract.ToolParam) (string, error)
}

// Registry holds the tools bound to a chat, in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	name := NormalizeToolName(t.Spec().Name)
	if name == "" {
		panic("tool: empty tool name")
	}
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[NormalizeToolName(name)]
	return t, ok
}

// Specs returns the declarations sent to the model.
func (r *Registry) Specs() []contract.ToolSpec {
	specs := make([]contract.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

func NormalizeToolName(name string) string {
	return strings.TrimSpace(name)
}
