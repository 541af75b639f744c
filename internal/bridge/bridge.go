// Package bridge relays one Slack channel to the engine session over
// socket mode and reports deployment outcomes back to the channel.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/gszep/stagehand/internal/config"
	"github.com/gszep/stagehand/internal/deploy"
	"github.com/gszep/stagehand/internal/engine"
)

type Bridge struct {
	api     *slack.Client
	sock    *socketmode.Client
	logger  *slog.Logger
	cfg     *config.Config
	session *engine.Session
	deploy  *deploy.Client // nil when no GitHub token is configured
	policy  *Policy
	index   *MessageIndex
}

func New(cfg *config.Config, session *engine.Session, deployClient *deploy.Client, logger *slog.Logger) *Bridge {
	api := slack.New(cfg.SlackBotToken, slack.OptionAppLevelToken(cfg.SlackAppToken))
	index := NewMessageIndex(cfg.IndexCapacity)

	return &Bridge{
		api:     api,
		sock:    socketmode.New(api),
		logger:  logger,
		cfg:     cfg,
		session: session,
		deploy:  deployClient,
		index:   index,
		policy: &Policy{
			ChannelID: cfg.SlackChannelID,
			Index:     index,
		},
	}
}

// Run resolves the bot identity, then consumes socket-mode events until
// the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	auth, err := b.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test failed: %w", err)
	}
	b.policy.BotUserID = auth.UserID
	b.logger.Info("bot identity resolved", "user_id", auth.UserID)

	go b.consumeEvents(ctx)

	b.logger.Info("bridge starting",
		"channel", orAny(b.cfg.SlackChannelID),
		"repo_dir", b.cfg.RepoDir,
		"model", b.cfg.Model)

	return b.sock.RunContext(ctx)
}

func (b *Bridge) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.sock.Events:
			if !ok {
				return
			}
			b.dispatch(ctx, evt)
		}
	}
}

func (b *Bridge) dispatch(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("connecting to slack")
	case socketmode.EventTypeConnectionError:
		b.logger.Error("slack connection error")
	case socketmode.EventTypeConnected:
		b.logger.Info("connected to slack")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.sock.Ack(*evt.Request)
		}
		if apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		if ev, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			// Handlers run concurrently; the session's own lock
			// serializes engine access.
			go b.handleMessage(ctx, ev)
		}
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.sock.Ack(*evt.Request)
		}
		go b.handleSlashCommand(ctx, cmd)
	}
}

func (b *Bridge) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	if !b.policy.Relevant(ev) {
		return
	}

	log := b.logger.With("request", uuid.New().String(), "channel", ev.Channel, "user", ev.User)
	log.Info("handling message", "ts", ev.TimeStamp, "thread_ts", ev.ThreadTimeStamp)

	text := b.policy.StripMention(ev.Text)

	// Thread replies are answered in the thread; top-level messages at the
	// channel top level.
	replyTS := ev.ThreadTimeStamp

	if b.session.Busy() {
		b.react(ev.Channel, ev.TimeStamp, "hourglass", "")
		b.post(ev.Channel, replyTS, "I'm working on another request right now. I'll get to yours next.")
		// The session lock queues this request behind the running one.
	}

	b.react(ev.Channel, ev.TimeStamp, "hourglass_flowing_sand", "")

	filePaths, err := b.collectFiles(log, ev.Files)
	if err != nil {
		log.Error("file intake failed", "error", err)
		b.post(ev.Channel, replyTS, "Something went wrong. Check the bot logs.")
		b.react(ev.Channel, ev.TimeStamp, "x", "hourglass_flowing_sand")
		return
	}

	message := b.composePrompt(ev.User, text, filePaths)

	result := b.session.Send(ctx, message)
	response := result.Result
	if response == "" {
		response = "_(no response)_"
	}

	formatted := Truncate(ToMrkdwn(response))
	ts, err := b.post(ev.Channel, replyTS, formatted)
	if err != nil {
		log.Error("failed to post response", "error", err)
		b.react(ev.Channel, ev.TimeStamp, "x", "hourglass_flowing_sand")
		return
	}

	// Track our own message so thread replies to it are recognized.
	b.index.Add(ts)

	b.react(ev.Channel, ev.TimeStamp, "white_check_mark", "hourglass_flowing_sand")
}

// composePrompt prefixes the sender's display name so the engine can tell
// team members apart, and appends the repo paths of any uploads.
func (b *Bridge) composePrompt(userID, text string, filePaths []string) string {
	display := b.displayName(userID)

	message := display + ":"
	if text != "" {
		message = display + ": " + text
	}

	if len(filePaths) > 0 {
		var sb strings.Builder
		sb.WriteString(message)
		sb.WriteString("\n\nUploaded files saved to repo:\n")
		for _, p := range filePaths {
			sb.WriteString("- " + p + "\n")
		}
		message = strings.TrimRight(sb.String(), "\n")
	}

	return message
}

// displayName degrades to the raw user ID when the profile lookup fails;
// a missing name is not worth failing the request over.
func (b *Bridge) displayName(userID string) string {
	if userID == "" {
		return "unknown"
	}

	info, err := b.api.GetUserInfo(userID)
	if err != nil {
		b.logger.Debug("users.info lookup failed", "user", userID, "error", err)
		return userID
	}

	if info.Profile.DisplayName != "" {
		return info.Profile.DisplayName
	}
	if info.Profile.RealName != "" {
		return info.Profile.RealName
	}
	return userID
}

// post sends a message, thread-scoped when replyTS is set, and returns the
// posted timestamp.
func (b *Bridge) post(channel, replyTS, text string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if replyTS != "" {
		opts = append(opts, slack.MsgOptionTS(replyTS))
	}

	_, ts, err := b.api.PostMessage(channel, opts...)
	return ts, err
}

// react adds a reaction, optionally removing another first. Reactions are
// cosmetic; failures are logged and swallowed.
func (b *Bridge) react(channel, ts, name, remove string) {
	ref := slack.NewRefToMessage(channel, ts)

	if remove != "" {
		if err := b.api.RemoveReaction(remove, ref); err != nil {
			b.logger.Debug("failed to remove reaction", "name", remove, "error", err)
		}
	}
	if err := b.api.AddReaction(name, ref); err != nil {
		b.logger.Debug("failed to add reaction", "name", name, "error", err)
	}
}

func orAny(s string) string {
	if s == "" {
		return "(any)"
	}
	return s
}
