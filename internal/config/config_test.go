package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "xoxb-secret")
	t.Setenv("TEST_SIGNING", "sig-secret")

	path := writeConfig(t, `
slack:
  botToken: ${TEST_BOT_TOKEN}
  signingSecret: ${TEST_SIGNING}
  botMemberId: UBOT
openai:
  apiKey: sk-test
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Slack.BotToken != "xoxb-secret" {
		t.Fatalf("botToken = %q", cfg.Slack.BotToken)
	}
	if cfg.Slack.SigningSecret != "sig-secret" {
		t.Fatalf("signingSecret = %q", cfg.Slack.SigningSecret)
	}
}

func TestLoad_UnsetEnvVarExpandsEmpty(t *testing.T) {
	path := writeConfig(t, `
slack:
  botToken: ${NEKOBOT_TEST_UNSET_VAR}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Slack.BotToken != "" {
		t.Fatalf("botToken = %q, want empty", cfg.Slack.BotToken)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
slack:
  botToken: xoxb-1
  botMemberId: UBOT
openai:
  apiKey: sk-test
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Path != "/slack/events" {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Temperature != 1.0 {
		t.Fatalf("temperature = %v", cfg.OpenAI.Temperature)
	}
	if cfg.Context.DefaultPast != 5 || cfg.Context.MaxPast != 20 {
		t.Fatalf("context defaults = %+v", cfg.Context)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("logLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_ExplicitValuesSurviveDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9999
openai:
  model: gpt-4o-mini
  temperature: 0.3
context:
  defaultPast: 3
  maxPast: 8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9999 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" || cfg.OpenAI.Temperature != 0.3 {
		t.Fatalf("openai = %+v", cfg.OpenAI)
	}
	if cfg.Context.DefaultPast != 3 || cfg.Context.MaxPast != 8 {
		t.Fatalf("context = %+v", cfg.Context)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "slack: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("want parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.Slack.BotToken = "xoxb-1"
		cfg.Slack.BotMemberID = "UBOT"
		cfg.OpenAI.APIKey = "sk-test"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Slack.BotToken = "" }, "botToken"},
		{"missing member id", func(c *Config) { c.Slack.BotMemberID = "" }, "botMemberId"},
		{"missing api key", func(c *Config) { c.OpenAI.APIKey = "" }, "apiKey"},
		{"maxPast below defaultPast", func(c *Config) { c.Context.MaxPast = 2 }, "maxPast"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	orig := Defaults()
	orig.Slack.BotMemberID = "UWXYZ"
	if err := Save(path, orig); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Slack.BotMemberID != "UWXYZ" {
		t.Fatalf("botMemberId = %q", loaded.Slack.BotMemberID)
	}
	if loaded.Server.Port != orig.Server.Port {
		t.Fatalf("port = %d", loaded.Server.Port)
	}
}
