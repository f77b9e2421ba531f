package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harunnryd/apprentice/internal/config"
	"github.com/harunnryd/apprentice/internal/executor"
)

// Prompter is the slice of the terminal that tools talk through.
type Prompter interface {
	PrintToolMessage(tool, message string)
	ToolInput(ctx context.Context, tool, prompt string) (string, error)
	BeginToolOutput(tool string)
	EndToolOutput(tool string)
}

// BuiltinOptions carries runtime dependencies needed by built-in tool factories.
type BuiltinOptions struct {
	Goal     config.Goal
	Prompter Prompter
	Executor executor.Executor
}

// BuiltinFactory builds one built-in for a session.
type BuiltinFactory func(options BuiltinOptions) (Tool, error)

var (
	catalogMu sync.RWMutex
	catalog   = map[string]BuiltinFactory{}
)

// RegisterBuiltin adds a factory to the catalog. Built-in packages call it
// from init; a blank or repeated name panics.
func RegisterBuiltin(name string, factory BuiltinFactory) {
	key := NormalizeToolName(name)
	if key == "" || factory == nil {
		panic(fmt.Sprintf("tool: invalid built-in %q", name))
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, dup := catalog[key]; dup {
		panic("tool: duplicate built-in " + key)
	}
	catalog[key] = factory
}

// BuiltinNames lists the catalog in sorted order.
func BuiltinNames() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBuiltinRegistry builds every catalogued tool for the session described
// by options. Tools are registered in name order.
func NewBuiltinRegistry(options BuiltinOptions) (*Registry, error) {
	registry := NewRegistry()
	for _, name := range BuiltinNames() {
		catalogMu.RLock()
		factory := catalog[name]
		catalogMu.RUnlock()

		t, err := factory(options)
		if err != nil {
			return nil, fmt.Errorf("built-in %s: %w", name, err)
		}
		registry.Register(t)
	}
	return registry, nil
}
