package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort              = 5000
	defaultModel             = "gpt-4o-mini"
	defaultFallbackModel     = "gpt-3.5-turbo"
	defaultMaxTokens         = 400
	defaultCompletionTimeout = 15 * time.Second
)

// Config holds all startup configuration. It is loaded once in main and
// never mutated afterwards.
type Config struct {
	ChannelAccessToken string
	ChannelSecret      string
	OpenAIAPIKey       string

	Model         string
	FallbackModel string
	SystemPrompt  string

	Port                int
	MaxCompletionTokens int
	CompletionTimeout   time.Duration

	// ParamPrefix, when set, points at an SSM Parameter Store prefix that
	// supplies the three secrets instead of the environment.
	ParamPrefix string
}

// Load reads configuration from the environment. Secrets are allowed to be
// empty here when ParamPrefix is set; ValidateSecrets must be called after
// they have been resolved.
func Load() (Config, error) {
	cfg := Config{
		ChannelAccessToken:  strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")),
		ChannelSecret:       strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET")),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:               envDefault("OPENAI_MODEL", defaultModel),
		FallbackModel:       envDefault("OPENAI_FALLBACK_MODEL", defaultFallbackModel),
		SystemPrompt:        systemPromptFromEnv(os.Getenv),
		Port:                defaultPort,
		MaxCompletionTokens: defaultMaxTokens,
		CompletionTimeout:   defaultCompletionTimeout,
		ParamPrefix:         strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("MAX_COMPLETION_TOKENS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid MAX_COMPLETION_TOKENS %q", v)
		}
		cfg.MaxCompletionTokens = n
	}
	if v := strings.TrimSpace(os.Getenv("COMPLETION_TIMEOUT_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: invalid COMPLETION_TIMEOUT_SECONDS %q", v)
		}
		cfg.CompletionTimeout = time.Duration(n) * time.Second
	}

	if cfg.ParamPrefix == "" {
		if err := cfg.ValidateSecrets(); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// ValidateSecrets reports which required secrets are still missing. Called
// from Load when all secrets come from the environment, and again from main
// after an optional Parameter Store override.
func (c Config) ValidateSecrets() error {
	var missing []string
	if c.ChannelAccessToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if c.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return errors.New("config: missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

func envDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// systemPromptFromEnv assembles the system prompt from either SYSTEM_PROMPT
// or numbered SYSTEM_PROMPT_1..N segments. Segments are joined with newlines
// and collection stops at the first gap in the numbering.
func systemPromptFromEnv(lookup func(string) string) string {
	if v := strings.TrimSpace(lookup("SYSTEM_PROMPT")); v != "" {
		return v
	}
	var parts []string
	for i := 1; ; i++ {
		v := strings.TrimSpace(lookup(fmt.Sprintf("SYSTEM_PROMPT_%d", i)))
		if v == "" {
			break
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, "\n")
}
