// Package gitutil bootstraps the working repository the engine operates in.
package gitutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

type Cloner struct {
	logger *slog.Logger
}

func NewCloner(logger *slog.Logger) *Cloner {
	return &Cloner{logger: logger}
}

// Clone checks the repo out at outputDir on the given branch, injecting
// GITHUB_TOKEN into HTTPS URLs so private repos work unattended.
func (c *Cloner) Clone(repoURL, outputDir, branch string) error {
	c.logger.Info("cloning repository", "url", repoURL, "output", outputDir, "branch", branch)

	if err := os.MkdirAll(filepath.Dir(outputDir), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authenticatedURL, err := c.injectToken(repoURL)
	if err != nil {
		return fmt.Errorf("failed to prepare repository URL: %w", err)
	}

	args := []string{"clone"}

	if branch != "" {
		args = append(args, "--branch", branch)
	}

	args = append(args, authenticatedURL, outputDir)

	cmd := exec.Command("git", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	c.logger.Info("clone completed successfully", "path", outputDir)
	return nil
}

// injectToken injects GITHUB_TOKEN into HTTPS URLs for authentication
func (c *Cloner) injectToken(repoURL string) (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		c.logger.Debug("no GITHUB_TOKEN found, cloning without authentication")
		return repoURL, nil
	}

	if !strings.HasPrefix(repoURL, "https://") {
		return repoURL, nil
	}

	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}

	// GitHub accepts the token as username with an empty password
	u.User = url.UserPassword(token, "")

	return u.String(), nil
}

// ExtractRepoName returns the bare repository name from a clone URL.
func ExtractRepoName(repoURL string) string {
	base := filepath.Base(repoURL)
	return strings.TrimSuffix(base, ".git")
}
