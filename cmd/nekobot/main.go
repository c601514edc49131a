package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nekobot/internal/agent"
	"nekobot/internal/channel"
	"nekobot/internal/config"
	"nekobot/internal/provider"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "nekobot",
		Short: "nekobot: Slack assistant streaming OpenAI completions",
		Long:  "nekobot receives Slack events, resolves conversation context, and streams ChatGPT responses back as live-edited messages.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ~/.nekobot/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("nekobot " + version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack events server",
		RunE:  runServe,
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slackClient := channel.NewSlack(channel.SlackConfig{
		BotToken: cfg.Slack.BotToken,
		Logger:   logger,
	})

	completions := provider.NewClient(provider.ClientConfig{
		APIKey:      cfg.OpenAI.APIKey,
		APIBase:     cfg.OpenAI.APIBase,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Logger:      logger,
	})

	orch := agent.NewOrchestrator(agent.OrchestratorConfig{
		Messenger:   slackClient,
		Source:      slackClient,
		Files:       slackClient,
		Completions: completions,
		BotID:       cfg.Slack.BotMemberID,
		Limits: agent.Limits{
			DefaultPast: cfg.Context.DefaultPast,
			MaxPast:     cfg.Context.MaxPast,
		},
		Logger: logger,
	})

	webhook := channel.NewWebhook(channel.WebhookConfig{
		Port:          cfg.Server.Port,
		Path:          cfg.Server.Path,
		SigningSecret: cfg.Slack.SigningSecret,
		Handler:       orch,
		Logger:        logger,
	})

	logger.Info("nekobot starting", "version", version, "model", cfg.OpenAI.Model)
	return webhook.Start(ctx)
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
