package model

import (
	"fmt"
	"log/slog"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model/contract"
	anthropicProvider "github.com/harunnryd/apprentice/internal/model/providers/anthropic"
	gcpProvider "github.com/harunnryd/apprentice/internal/model/providers/gcp"
	openaiProvider "github.com/harunnryd/apprentice/internal/model/providers/openai"
	"github.com/harunnryd/apprentice/internal/transport"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGCP       = "gcp"
)

// Providers lists the supported provider tags.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGCP}

// NewChat selects the adapter for params.Provider.
func NewChat(params contract.Params, t transport.Transport, tools []contract.ToolSpec) (Chat, error) {
	slog.Debug("Creating chat", "provider", params.Provider, "model", params.Name, "tools", len(tools))

	switch params.Provider {
	case ProviderOpenAI:
		return openaiProvider.New(params, t, tools), nil
	case ProviderAnthropic:
		chat, err := anthropicProvider.New(params, t, tools)
		if err != nil {
			return nil, err
		}
		return chat, nil
	case ProviderGCP:
		return gcpProvider.New(params, t, tools), nil
	default:
		return nil, apperrors.InvalidConfig(fmt.Sprintf("unknown model provider %q", params.Provider))
	}
}

// DefaultAPIURL returns the endpoint used when no api-url is configured.
func DefaultAPIURL(provider, modelName string) string {
	switch provider {
	case ProviderOpenAI:
		return openaiProvider.DefaultURL
	case ProviderAnthropic:
		return anthropicProvider.DefaultURL
	case ProviderGCP:
		return gcpProvider.URL("", modelName)
	default:
		return ""
	}
}
