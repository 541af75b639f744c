package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gszep/stagehand/internal/bridge"
	"github.com/gszep/stagehand/internal/config"
	"github.com/gszep/stagehand/internal/deploy"
	"github.com/gszep/stagehand/internal/engine"
	"github.com/gszep/stagehand/internal/prompt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack bridge",
	Long: `Run the Slack bridge over socket mode.
Listens for channel messages and slash commands, forwards relevant messages
to the resident Claude Code session, and handles /approve deployments.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetLogger()

		cfg, err := config.Load()
		if err != nil {
			logger.Error("invalid configuration", "error", err)
			return err
		}

		if _, err := os.Stat(cfg.RepoDir); err != nil {
			logger.Error("working repository not found", "dir", cfg.RepoDir)
			return fmt.Errorf("working repository %s not found, run 'stagehand clone' first: %w", cfg.RepoDir, err)
		}

		profilePath, _ := cmd.Flags().GetString("profile")
		if profilePath == "" {
			profilePath = cfg.PromptProfile
		}

		systemPrompt, err := prompt.Load(profilePath, cfg.StagingURL)
		if err != nil {
			logger.Error("failed to load prompt profile", "error", err)
			return err
		}

		runner := engine.NewCLIRunner(cfg.RepoDir, cfg.Model, systemPrompt, logger)
		session := engine.NewSession(runner, logger)

		var deployClient *deploy.Client
		if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
			deployClient, err = deploy.New(cfg.GitHubToken, cfg.GitHubRepo, cfg.SourceBranch, cfg.TargetBranch, logger)
			if err != nil {
				logger.Error("failed to create deploy client", "error", err)
				return err
			}
		} else {
			logger.Warn("github not configured, /approve will be disabled")
		}

		b := bridge.New(cfg, session, deployClient, logger)

		if err := b.Run(cmd.Context()); err != nil {
			logger.Error("bridge stopped", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("profile", "", "path to a Profile manifest overriding the built-in system prompt")
}
