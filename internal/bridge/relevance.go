package bridge

import (
	"strings"

	"github.com/slack-go/slack/slackevents"
)

// Policy decides which channel events the bridge forwards to the engine.
type Policy struct {
	BotUserID string
	ChannelID string
	Index     *MessageIndex
}

// Relevant grants an event iff it is a plain message or file share from a
// human, in the configured channel (any channel when unset), and it either
// mentions the bot or replies into a thread the bot posted in.
func (p *Policy) Relevant(ev *slackevents.MessageEvent) bool {
	if ev.SubType != "" && ev.SubType != "file_share" {
		return false
	}
	if ev.BotID != "" {
		return false
	}
	if p.ChannelID != "" && ev.Channel != p.ChannelID {
		return false
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" && len(ev.Files) == 0 {
		return false
	}

	if p.mentioned(text) {
		return true
	}
	return ev.ThreadTimeStamp != "" && p.Index.Contains(ev.ThreadTimeStamp)
}

// StripMention removes the bot's @-mention before the text goes to the
// engine.
func (p *Policy) StripMention(text string) string {
	if p.BotUserID == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(text, p.mention(), ""))
}

func (p *Policy) mentioned(text string) bool {
	return p.BotUserID != "" && strings.Contains(text, p.mention())
}

func (p *Policy) mention() string {
	return "<@" + p.BotUserID + ">"
}
