package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for nekobot. It is loaded once at startup
// and injected into the components that need it; nothing reads the
// environment after Load returns.
type Config struct {
	LogLevel string        `yaml:"logLevel"`
	Server   ServerConfig  `yaml:"server"`
	Slack    SlackConfig   `yaml:"slack"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Context  ContextConfig `yaml:"context"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

type SlackConfig struct {
	BotToken      string `yaml:"botToken"`
	SigningSecret string `yaml:"signingSecret"` // empty disables request verification
	BotMemberID   string `yaml:"botMemberId"`   // the bot's own user id, e.g. U0123ABCDEF
}

type OpenAIConfig struct {
	APIKey      string  `yaml:"apiKey"`
	APIBase     string  `yaml:"apiBase,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// ContextConfig bounds how much history is pulled into one completion.
type ContextConfig struct {
	DefaultPast int `yaml:"defaultPast"` // past messages fetched when no directive is given
	MaxPast     int `yaml:"maxPast"`     // hard cap for the "pastN" directive
}

// Defaults returns a config with placeholder credentials referencing the
// conventional environment variables.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port: 8080,
			Path: "/slack/events",
		},
		Slack: SlackConfig{
			BotToken:      "${SLACK_BOT_TOKEN}",
			SigningSecret: "${SLACK_SIGNING_SECRET}",
			BotMemberID:   "${SLACK_BOT_MEMBER_ID}",
		},
		OpenAI: OpenAIConfig{
			APIKey:      "${OPENAI_API_KEY}",
			Model:       "gpt-4o",
			Temperature: 1.0,
		},
		Context: ContextConfig{
			DefaultPast: 5,
			MaxPast:     20,
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${NAME} tokens with the value of the
// corresponding environment variable. Unset variables expand to "".
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Load reads a YAML config file, expands ${ENV} references, and fills
// defaults for unset tuning values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Path == "" {
		cfg.Server.Path = def.Server.Path
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = def.OpenAI.Model
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = def.OpenAI.Temperature
	}
	if cfg.Context.DefaultPast == 0 {
		cfg.Context.DefaultPast = def.Context.DefaultPast
	}
	if cfg.Context.MaxPast == 0 {
		cfg.Context.MaxPast = def.Context.MaxPast
	}
}

// Validate checks the fields the bot cannot run without.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("slack.botToken is required")
	}
	if c.Slack.BotMemberID == "" {
		return fmt.Errorf("slack.botMemberId is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.apiKey is required")
	}
	if c.Context.MaxPast < c.Context.DefaultPast {
		return fmt.Errorf("context.maxPast (%d) must be >= context.defaultPast (%d)",
			c.Context.MaxPast, c.Context.DefaultPast)
	}
	return nil
}

// Save writes the config as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultConfigDir returns ~/.nekobot.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nekobot"
	}
	return filepath.Join(home, ".nekobot")
}

// DefaultConfigPath returns ~/.nekobot/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}
