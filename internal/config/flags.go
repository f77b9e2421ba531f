package config

import (
	"strings"

	"github.com/spf13/pflag"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// binding ties a config key to its flag and environment variable.
// The variable is APPRENTICE_ plus the upper-cased flag name.
type binding struct {
	Key   string
	Flag  string
	Short string
	Kind  valueKind
	Usage string
}

func (b binding) Env() string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(b.Flag, "-", "_"))
}

var bindings = []binding{
	{Key: "goal", Flag: "goal", Short: "g", Usage: "One of: gcp, aws, azure"},
	{Key: "model", Flag: "model", Short: "m", Usage: "Inference model name"},
	{Key: "model_provider", Flag: "model-provider", Short: "p", Usage: "Model provider, one of: openai, anthropic, gcp"},
	{Key: "api_key", Flag: "api-key", Short: "k", Usage: "LLM model API key"},
	{Key: "api_url", Flag: "api-url", Short: "u", Usage: "Model API URL"},
	{Key: "api_version", Flag: "api-version", Usage: "Model API version"},
	{Key: "message", Flag: "message", Short: "e", Usage: "User's request"},
	{Key: "max_tokens", Flag: "max-tokens", Kind: kindInt, Usage: "Maximum number of tokens that will be generated"},
	{Key: "n", Flag: "n", Kind: kindInt, Usage: "Number of variants to generate per one LLM call"},
	{Key: "temperature", Flag: "temperature", Kind: kindFloat, Usage: "Level of randomization when LLM choose tokens"},
	{Key: "top_p", Flag: "top-p", Kind: kindFloat, Usage: "Only the tokens comprising the top_p probability mass will be considered"},
	{Key: "top_k", Flag: "top-k", Kind: kindInt, Usage: "Only k tokens with the most probability will be considered"},
	{Key: "frequency_penalty", Flag: "frequency-penalty", Kind: kindFloat, Usage: "Penalize new tokens based on their existing frequency"},
	{Key: "presence_penalty", Flag: "presence-penalty", Kind: kindFloat, Usage: "Penalize new tokens based on whether they appear in the text so far"},
	{Key: "stop_sequence", Flag: "stop-sequence", Usage: "Sequence at which model will stop generating"},
	{Key: "prompt", Flag: "prompt", Usage: "Custom instructions to use in the system prompt."},
	{Key: "settings.apprentice_color", Flag: "apprentice-color", Usage: "Apprentice messages and prompt background colors, rgb (e.g. 'fg(255,0,123);bg(0,123,255)')."},
	{Key: "settings.user_color", Flag: "user-color", Usage: "User messages and prompt background colors, rgb (e.g. 'fg(255,0,123);bg(0,123,255)')."},
	{Key: "settings.tool_color", Flag: "tool-color", Usage: "Tool stdout and stderr and prompt background colors, rgb (e.g. 'fg(255,0,123);bg(0,123,255)')."},
	{Key: "log_level", Flag: "log-level", Usage: "Log level: debug, info, warn, error"},
	{Key: "rag.path", Flag: "rag-path", Usage: "Directory of the local embedding index"},
	{Key: "rag.provider", Flag: "rag-provider", Usage: "Embedding provider, openai or gcp (defaults to the model provider)"},
	{Key: "rag.embedding_model", Flag: "embedding-model", Usage: "Embedding model name"},
}

var (
	bindingByFlag = make(map[string]binding, len(bindings))
	bindingByEnv  = make(map[string]binding, len(bindings))
)

func init() {
	for _, b := range bindings {
		bindingByFlag[b.Flag] = b
		bindingByEnv[b.Env()] = b
	}
}

// BindFlags registers every config flag, plus --config and --context, on fs.
// Defaults live in Load so that unset flags never override other sources.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "Config file path (yaml or toml)")
	fs.String(FlagContext, "", "Config file context to use instead of default_context")

	for _, b := range bindings {
		switch b.Kind {
		case kindInt:
			fs.Int64P(b.Flag, b.Short, 0, b.Usage)
		case kindFloat:
			fs.Float64P(b.Flag, b.Short, 0, b.Usage)
		default:
			fs.StringP(b.Flag, b.Short, "", b.Usage)
		}
	}
}
