package bridge

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

func (b *Bridge) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	log := b.logger.With("command", cmd.Command, "user", cmd.UserID)
	log.Info("handling slash command")

	switch cmd.Command {
	case "/new":
		b.handleNew(cmd)
	case "/approve":
		b.handleApprove(ctx, cmd)
	case "/current":
		b.handleCurrent(cmd)
	default:
		log.Warn("unknown slash command")
	}
}

func (b *Bridge) handleNew(cmd slack.SlashCommand) {
	old := b.session.Reset()
	if old != "" {
		b.respond(cmd, fmt.Sprintf("Session ended (`%s...`). Starting fresh.", abbreviate(old, 8)))
	} else {
		b.respond(cmd, "No active session. Ready for a new conversation.")
	}
}

func (b *Bridge) handleCurrent(cmd slack.SlashCommand) {
	busy := "(idle)"
	if b.session.Busy() {
		busy = "(busy)"
	}

	if sid := b.session.Current(); sid != "" {
		b.respond(cmd, fmt.Sprintf("Active session: `%s...` %s\nStaging: %s",
			abbreviate(sid, 12), busy, b.cfg.StagingURL))
	} else {
		b.respond(cmd, fmt.Sprintf("No active session. Send a message to start one.\nStaging: %s",
			b.cfg.StagingURL))
	}
}

func (b *Bridge) handleApprove(ctx context.Context, cmd slack.SlashCommand) {
	// Authorization is checked before any external call is made.
	if !b.cfg.IsApprover(cmd.UserID) {
		b.respond(cmd, "You don't have permission to approve deployments. "+
			"Ask an admin to add your Slack user ID to APPROVED_USER_IDS.")
		return
	}

	if b.deploy == nil {
		b.respond(cmd, "GITHUB_TOKEN not configured. Cannot create PR.")
		return
	}

	b.respond(cmd, "Deploying staging to production (creating PR and merging)...")

	result := b.deploy.CreateAndMerge(ctx, "Content update from staging", "Approved via Slack bot.", true)

	switch {
	case result.Success && result.Merged:
		b.respond(cmd, fmt.Sprintf("Deployed to production: %s\nChanges will be live at %s in ~2 minutes.",
			result.PRURL, b.cfg.ProductionURL))
	case result.Success && result.MergeError != "":
		b.respond(cmd, fmt.Sprintf("PR created: %s\nAuto-merge failed: %s\nPlease merge manually.",
			result.PRURL, result.MergeError))
	case result.Success:
		b.respond(cmd, fmt.Sprintf("PR created: %s\nReview and merge to deploy to production.", result.PRURL))
	default:
		b.respond(cmd, fmt.Sprintf("Failed: %s", result.Err))
	}
}

// respond posts to the command's response URL (ephemeral to the invoker).
func (b *Bridge) respond(cmd slack.SlashCommand, text string) {
	err := slack.PostWebhook(cmd.ResponseURL, &slack.WebhookMessage{Text: text})
	if err != nil {
		b.logger.Error("failed to respond to slash command", "command", cmd.Command, "error", err)
	}
}

func abbreviate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
