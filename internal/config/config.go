package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
	"github.com/harunnryd/apprentice/internal/model"
	"github.com/harunnryd/apprentice/internal/model/contract"
	"github.com/harunnryd/apprentice/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	DefaultLogLevel = "warn"
	DefaultRAGPath  = "~/.apprentice/rag"

	// EnvPrefix prefixes every environment variable the config reads.
	EnvPrefix = "APPRENTICE_"

	FlagConfig  = "config"
	FlagContext = "context"
)

const colorFormatHint = "must have valid format, e.g. 'fg(255,0,123);bg(0,123,255)'."

type Config struct {
	Goal             string         `koanf:"goal" yaml:"goal,omitempty"`
	ModelProvider    string         `koanf:"model_provider" yaml:"model_provider,omitempty"`
	Model            string         `koanf:"model" yaml:"model,omitempty"`
	APIKey           string         `koanf:"api_key" yaml:"api_key,omitempty"`
	APIURL           string         `koanf:"api_url" yaml:"api_url,omitempty"`
	APIVersion       string         `koanf:"api_version" yaml:"api_version,omitempty"`
	MaxTokens        *int64         `koanf:"max_tokens" yaml:"max_tokens,omitempty"`
	N                *int64         `koanf:"n" yaml:"n,omitempty"`
	Temperature      *float64       `koanf:"temperature" yaml:"temperature,omitempty"`
	TopP             *float64       `koanf:"top_p" yaml:"top_p,omitempty"`
	TopK             *int64         `koanf:"top_k" yaml:"top_k,omitempty"`
	FrequencyPenalty *float64       `koanf:"frequency_penalty" yaml:"frequency_penalty,omitempty"`
	PresencePenalty  *float64       `koanf:"presence_penalty" yaml:"presence_penalty,omitempty"`
	StopSequence     string         `koanf:"stop_sequence" yaml:"stop_sequence,omitempty"`
	Prompt           string         `koanf:"prompt" yaml:"prompt,omitempty"`
	Message          string         `koanf:"message" yaml:"message,omitempty"`
	LogLevel         string         `koanf:"log_level" yaml:"log_level"`
	Settings         SettingsConfig `koanf:"settings" yaml:"settings"`
	RAG              RAGConfig      `koanf:"rag" yaml:"rag"`

	// Path is the config file that was loaded, if any.
	Path string `koanf:"-" yaml:"-"`
	// Context is the selected context name, if any.
	Context string `koanf:"-" yaml:"-"`
	// Colors holds the parsed Settings colors.
	Colors Colors `koanf:"-" yaml:"-"`
}

type SettingsConfig struct {
	UserColor       string `koanf:"user_color" yaml:"user_color,omitempty"`
	ApprenticeColor string `koanf:"apprentice_color" yaml:"apprentice_color,omitempty"`
	ToolColor       string `koanf:"tool_color" yaml:"tool_color,omitempty"`
}

// RAGConfig configures the optional local embedding index.
type RAGConfig struct {
	Path           string `koanf:"path" yaml:"path"`
	Provider       string `koanf:"provider" yaml:"provider,omitempty"`
	EmbeddingModel string `koanf:"embedding_model" yaml:"embedding_model,omitempty"`
}

// Colors are the parsed speaker colors. Unset halves keep the terminal defaults.
type Colors struct {
	User       ColorSpec
	Apprentice ColorSpec
	Tool       ColorSpec
}

// Load resolves the configuration from defaults, the config file and its
// selected context, APPRENTICE_* environment variables and the flags the
// user set, in increasing precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"log_level": DefaultLogLevel,
		"rag.path":  DefaultRAGPath,
	}
	for key, value := range defaults {
		_ = k.Set(key, value)
	}

	path, err := configPath(flags)
	if err != nil {
		return nil, err
	}

	var contextName string
	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, apperrors.WrapWithCategory(err, fmt.Sprintf("failed to load config file %s", path), apperrors.ErrInvalidConfig)
		}
		contextName = selectedContext(flags, fk)
		if err := mergeFile(k, fk, contextName); err != nil {
			return nil, err
		}
		slog.Debug("Config file loaded", "path", path, "context", contextName)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to read environment", apperrors.ErrInvalidConfig)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return nil, apperrors.WrapWithCategory(err, "failed to read flags", apperrors.ErrInvalidConfig)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to decode config", apperrors.ErrInvalidConfig)
	}
	cfg.Path = path
	cfg.Context = contextName

	cfg.Goal = strings.ToLower(strings.TrimSpace(cfg.Goal))
	cfg.ModelProvider = strings.ToLower(strings.TrimSpace(cfg.ModelProvider))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if cfg.Colors, err = parseSettings(cfg.Settings); err != nil {
		return nil, err
	}

	ragPath, err := pathutil.Expand(cfg.RAG.Path)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "invalid rag path", apperrors.ErrInvalidConfig)
	}
	cfg.RAG.Path = ragPath

	if cfg.APIKey == "" {
		cfg.APIKey = vendorKey(cfg.ModelProvider)
	}

	return &cfg, nil
}

// configPath picks the --config flag, APPRENTICE_CONFIG, or the first
// ~/.apprentice.{yaml,yml,toml} that exists. A file that is found must parse.
func configPath(flags *pflag.FlagSet) (string, error) {
	if flags != nil {
		if f := flags.Lookup(FlagConfig); f != nil && strings.TrimSpace(f.Value.String()) != "" {
			return pathutil.Expand(f.Value.String())
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG")); v != "" {
		return pathutil.Expand(v)
	}

	for _, name := range []string{".apprentice.yaml", ".apprentice.yml", ".apprentice.toml"} {
		p, err := pathutil.InHome(name)
		if err != nil {
			return "", nil
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlParser{}
	}
	return yaml.Parser()
}

// selectedContext is --context, then APPRENTICE_CONTEXT, then the file's
// default_context.
func selectedContext(flags *pflag.FlagSet, fk *koanf.Koanf) string {
	if flags != nil {
		if f := flags.Lookup(FlagContext); f != nil && f.Changed {
			return strings.TrimSpace(f.Value.String())
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "CONTEXT")); v != "" {
		return v
	}
	return strings.TrimSpace(fk.String("default_context"))
}

// mergeFile merges the file's top level, then the named context over it.
// A context lives under contexts.<name> or, in the TOML layout, in a
// top-level table called <name>.
func mergeFile(k, fk *koanf.Koanf, name string) error {
	if err := k.Merge(fk); err != nil {
		return apperrors.WrapWithCategory(err, "failed to merge config file", apperrors.ErrInvalidConfig)
	}
	if name == "" {
		return nil
	}

	section := "contexts." + name
	if !fk.Exists(section) {
		section = name
	}
	if _, ok := fk.Get(section).(map[string]any); !ok {
		return apperrors.InvalidConfig(fmt.Sprintf("configuration for the context %q is not specified", name))
	}
	if err := k.Merge(fk.Cut(section)); err != nil {
		return apperrors.WrapWithCategory(err, "failed to merge config context", apperrors.ErrInvalidConfig)
	}
	return nil
}

func envKey(name string) string {
	b, ok := bindingByEnv[name]
	if !ok {
		return ""
	}
	return b.Key
}

func flagKey(flags *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		b, ok := bindingByFlag[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return b.Key, posflag.FlagVal(flags, f)
	}
}

func parseSettings(s SettingsConfig) (Colors, error) {
	var colors Colors
	fields := []struct {
		flag   string
		value  string
		target *ColorSpec
	}{
		{"user-color", s.UserColor, &colors.User},
		{"apprentice-color", s.ApprenticeColor, &colors.Apprentice},
		{"tool-color", s.ToolColor, &colors.Tool},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		spec, err := ParseColors(f.value)
		if err != nil {
			return Colors{}, apperrors.InvalidConfig(f.flag + " " + colorFormatHint)
		}
		*f.target = spec
	}
	return colors, nil
}

func vendorKey(provider string) string {
	switch provider {
	case model.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case model.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case model.ProviderGCP:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// Validate checks everything a dialogue needs and fills in the default API URL.
func (c *Config) Validate() error {
	if c.Goal == "" {
		return apperrors.MissingArgument("goal is not specified.")
	}
	if err := c.ValidateModel(); err != nil {
		return err
	}
	if _, err := ParseGoal(c.Goal); err != nil {
		return err
	}

	if c.MaxTokens != nil && *c.MaxTokens < 0 {
		return apperrors.InvalidConfig("max-tokens must be non-negative")
	}
	if c.N != nil {
		if *c.N <= 0 {
			return apperrors.InvalidConfig("n must be greater than zero")
		}
		if *c.N != 1 {
			return apperrors.InvalidConfig("Currently only n=1 is supported.")
		}
	}
	if c.TopK != nil && *c.TopK <= 0 {
		return apperrors.InvalidConfig("top-k must be greater than zero")
	}
	return nil
}

// ValidateModel checks the model settings alone.
func (c *Config) ValidateModel() error {
	if c.Model == "" {
		return apperrors.MissingArgument("inference model is not specified.")
	}
	if c.ModelProvider == "" {
		return apperrors.MissingArgument("model provider is not specified.")
	}
	if c.APIKey == "" {
		return apperrors.MissingArgument("API key is not specified.")
	}

	known := false
	for _, p := range model.Providers {
		if p == c.ModelProvider {
			known = true
			break
		}
	}
	if !known {
		return apperrors.InvalidConfig(fmt.Sprintf("unknown model provider %q", c.ModelProvider))
	}

	if c.APIURL == "" {
		c.APIURL = model.DefaultAPIURL(c.ModelProvider, c.Model)
	}
	return nil
}

// GoalValue returns the parsed goal. Call after Validate.
func (c *Config) GoalValue() Goal {
	g, _ := ParseGoal(c.Goal)
	return g
}

// ToParams converts the model settings for the chat factory.
func (c *Config) ToParams() contract.Params {
	return contract.Params{
		Provider:         c.ModelProvider,
		Name:             c.Model,
		APIKey:           c.APIKey,
		APIURL:           c.APIURL,
		APIVersion:       c.APIVersion,
		MaxTokens:        c.MaxTokens,
		N:                c.N,
		Temperature:      c.Temperature,
		TopP:             c.TopP,
		TopK:             c.TopK,
		FrequencyPenalty: c.FrequencyPenalty,
		PresencePenalty:  c.PresencePenalty,
		StopSequence:     c.StopSequence,
	}
}

// EmbeddingProvider is rag.provider, or the model provider when unset.
func (c *Config) EmbeddingProvider() string {
	if c.RAG.Provider != "" {
		return strings.ToLower(c.RAG.Provider)
	}
	return c.ModelProvider
}

// EmbeddingAPIKey reuses api_key for the model provider and reads the
// vendor variable for any other.
func (c *Config) EmbeddingAPIKey() string {
	p := c.EmbeddingProvider()
	if p == c.ModelProvider && c.APIKey != "" {
		return c.APIKey
	}
	return vendorKey(p)
}

// Masked returns a copy safe to print.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = maskSecret(c.APIKey)
	}
	return c
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + strings.Repeat("*", 8) + s[len(s)-4:]
}
