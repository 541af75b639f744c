package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the bridge needs, sourced from the environment
// (or a viper config file). Env names match the deployment's .env contract.
type Config struct {
	// Slack
	SlackBotToken  string
	SlackAppToken  string
	SlackChannelID string

	// GitHub (single repo, the bot works on the staging branch)
	GitHubToken  string
	GitHubRepo   string
	SourceBranch string
	TargetBranch string

	// Paths
	RepoDir   string
	UploadDir string

	// Bot
	StagingURL      string
	ProductionURL   string
	ApprovedUserIDs []string
	Model           string
	PromptProfile   string
	IndexCapacity   int
}

// Load reads configuration from viper (environment plus any config file
// the root command wired up) and validates the required pieces.
func Load() (*Config, error) {
	viper.SetDefault("STAGING_URL", "https://staging.gszep.com")
	viper.SetDefault("PRODUCTION_URL", "https://gszep.com")
	viper.SetDefault("CLAUDE_MODEL", "sonnet")
	viper.SetDefault("SOURCE_BRANCH", "staging")
	viper.SetDefault("TARGET_BRANCH", "main")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MESSAGE_INDEX_CAPACITY", 4096)

	cfg := &Config{
		SlackBotToken:   viper.GetString("SLACK_BOT_TOKEN"),
		SlackAppToken:   viper.GetString("SLACK_APP_TOKEN"),
		SlackChannelID:  viper.GetString("SLACK_CHANNEL_ID"),
		GitHubToken:     viper.GetString("GITHUB_TOKEN"),
		GitHubRepo:      viper.GetString("GITHUB_REPO"),
		SourceBranch:    viper.GetString("SOURCE_BRANCH"),
		TargetBranch:    viper.GetString("TARGET_BRANCH"),
		RepoDir:         viper.GetString("REPO_DIR"),
		UploadDir:       viper.GetString("UPLOAD_DIR"),
		StagingURL:      viper.GetString("STAGING_URL"),
		ProductionURL:   viper.GetString("PRODUCTION_URL"),
		ApprovedUserIDs: splitList(viper.GetString("APPROVED_USER_IDS")),
		Model:           viper.GetString("CLAUDE_MODEL"),
		PromptProfile:   viper.GetString("PROMPT_PROFILE"),
		IndexCapacity:   viper.GetInt("MESSAGE_INDEX_CAPACITY"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.SlackAppToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN is required")
	}
	if c.RepoDir == "" {
		return fmt.Errorf("REPO_DIR is required")
	}
	return nil
}

// IsApprover reports whether a Slack user may run /approve. An empty
// allow-list permits everyone.
func (c *Config) IsApprover(userID string) bool {
	if len(c.ApprovedUserIDs) == 0 {
		return true
	}
	for _, id := range c.ApprovedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
