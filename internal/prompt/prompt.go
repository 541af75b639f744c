package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// The built-in persona. {staging_url} is replaced at load time.
const defaultSystemPrompt = `You are operating through a Slack channel. Multiple team members may send messages -- each message is prefixed with the sender's name.

Repo context is in CLAUDE.md (loaded automatically). Follow its workflow.

After pushing changes, tell the team they'll be live at {staging_url} in ~60 seconds. Remind them to hard-refresh to clear cache: Ctrl+Shift+R (Windows/Linux), Cmd+Shift+R (Mac Chrome/Firefox/Edge), Option+Cmd+E then Cmd+R (Mac Safari), or clear browsing data on mobile.

If the user uploaded files, they are saved in the repo at the paths shown.

Audience and communication style:
- Your team members are non-technical (no-code). They don't know HTML, CSS, React, git, or programming concepts.
- Behind the scenes you may use as many tools and steps as needed to complete the work, but your final Slack response MUST be concise and in plain language.
- Never mention file paths, component names, git commands, or technical implementation details unless the user specifically asks.
- Summarise what you did in terms of the visible result (e.g. 'I updated the About page headline and swapped in the new photo').
- If a request is vague or you need assets (images, text, links), ask a specific follow-up question before starting work. It is better to clarify than to guess wrong.

Formatting rules (Slack, not terminal):
- Be concise. Short paragraphs, not walls of text.
- No markdown headers (# not rendered). Use *bold* for emphasis.
- Code blocks with triple backticks work fine.`

// Default returns the built-in system prompt with the staging URL filled in.
func Default(stagingURL string) string {
	return strings.ReplaceAll(defaultSystemPrompt, "{staging_url}", stagingURL)
}

// Load resolves the system prompt: a Profile manifest at path if given,
// the built-in default otherwise. Either way {staging_url} is interpolated.
func Load(path, stagingURL string) (string, error) {
	if path == "" {
		return Default(stagingURL), nil
	}

	p, err := LoadFromFile(path)
	if err != nil {
		return "", err
	}

	return strings.ReplaceAll(p.Spec.SystemPrompt, "{staging_url}", stagingURL), nil
}

// LoadFromFile reads and validates a Profile manifest.
func LoadFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := validate(&p); err != nil {
		return nil, fmt.Errorf("invalid profile definition: %w", err)
	}

	return &p, nil
}

func validate(p *Profile) error {
	if p.Kind != "Profile" {
		return fmt.Errorf("kind must be 'Profile', got '%s'", p.Kind)
	}

	if p.Spec.SystemPrompt == "" {
		return fmt.Errorf("spec.systemPrompt is required")
	}

	return nil
}
