package bridge

import "regexp"

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	linkRe   = regexp.MustCompile(`\[(.+?)\]\((.+?)\)`)
)

// ToMrkdwn rewrites the engine's markdown into Slack mrkdwn: **bold**
// becomes *bold*, headers become bold lines (Slack renders # literally),
// [text](url) becomes <url|text>.
func ToMrkdwn(text string) string {
	text = boldRe.ReplaceAllString(text, "*$1*")
	text = headerRe.ReplaceAllString(text, "*$1*")
	text = linkRe.ReplaceAllString(text, "<$2|$1>")
	return text
}

// messageLimit stays under Slack's message size cap.
const messageLimit = 3000

// Truncate cuts text to Slack's message limit, marking the cut.
func Truncate(text string) string {
	if len(text) <= messageLimit {
		return text
	}
	return text[:messageLimit] + "\n_... (truncated)_"
}
