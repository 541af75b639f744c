// Package deploy creates and merges the staging -> main pull request that
// promotes the bot's work to production. In the single-repo model the bot
// commits to the staging branch of the upstream repo; /approve turns that
// into a PR against main and merges it. No worktrees or cross-fork
// mechanics needed.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"
)

// PullRequestResult is the outcome of one /approve attempt. Success=false
// means no PR handle was obtained; Merged and MergeError are only
// meaningful when Success is true.
type PullRequestResult struct {
	Success    bool
	PRURL      string
	PRNumber   int
	Merged     bool
	MergeError string
	Existing   bool
	Err        string
}

// Client performs the PR lifecycle against the GitHub API.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
	owner  string
	repo   string
	head   string
	base   string
}

// New builds a Client for "owner/repo" using a static token, the same way
// the rest of the system authenticates to GitHub.
func New(token, repo, head, base string, logger *slog.Logger) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token must be set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return newWithClient(github.NewClient(tc), repo, head, base, logger)
}

func newWithClient(gh *github.Client, repo, head, base string, logger *slog.Logger) (*Client, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid repo format, expected 'owner/repo'")
	}

	return &Client{
		gh:     gh,
		logger: logger,
		owner:  parts[0],
		repo:   parts[1],
		head:   head,
		base:   base,
	}, nil
}

// CreateAndMerge creates a PR from head to base, falling back to locating
// an existing open PR for the branch pair, and merges a newly created PR
// when autoMerge is set. A failed merge never rolls the PR back; the
// caller merges manually.
func (c *Client) CreateAndMerge(ctx context.Context, title, body string, autoMerge bool) *PullRequestResult {
	res := c.createOrFind(ctx, title, body)
	if !res.Success {
		return res
	}

	if autoMerge && !res.Existing {
		if err := c.merge(ctx, res.PRNumber); err != nil {
			c.logger.Warn("merge failed", "pr", res.PRNumber, "error", err)
			res.MergeError = err.Error()
		} else {
			res.Merged = true
		}
	}

	return res
}

// createOrFind always attempts creation first; searching is only a
// fallback once GitHub reports the PR already exists. Searching first
// would race two concurrent approvals into both finding nothing.
func (c *Client) createOrFind(ctx context.Context, title, body string) *PullRequestResult {
	if body == "" {
		body = "Content update from the staging site.\n\nReview at https://staging.gszep.com before merging."
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(c.head),
		Base:  github.String(c.base),
		Body:  github.String(body),
	})
	if err == nil {
		c.logger.Info("created pull request", "number", pr.GetNumber(), "url", pr.GetHTMLURL())
		return &PullRequestResult{
			Success:  true,
			PRURL:    pr.GetHTMLURL(),
			PRNumber: pr.GetNumber(),
		}
	}

	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		c.logger.Error("github request failed", "error", err)
		return &PullRequestResult{Err: fmt.Sprintf("GitHub API error: %v", err)}
	}

	if ghErr.Response.StatusCode != 422 {
		c.logger.Error("github api error", "status", ghErr.Response.StatusCode, "message", ghErr.Message)
		return &PullRequestResult{Err: fmt.Sprintf("GitHub API %d", ghErr.Response.StatusCode)}
	}

	msg := validationMessage(ghErr)
	switch classifyValidation(msg) {
	case validationAlreadyExists:
		return c.findExisting(ctx)
	case validationNoDiff:
		return &PullRequestResult{Err: fmt.Sprintf("No changes between %s and %s.", c.head, c.base)}
	default:
		c.logger.Warn("pull request creation failed", "message", msg)
		return &PullRequestResult{Err: msg}
	}
}

// findExisting locates the open PR for the branch pair after a 422
// "already exists" response.
func (c *Client) findExisting(ctx context.Context) *PullRequestResult {
	prs, _, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
		Head:  fmt.Sprintf("%s:%s", c.owner, c.head),
		State: "open",
	})
	if err != nil || len(prs) == 0 {
		c.logger.Error("existing pull request not found", "error", err)
		return &PullRequestResult{Err: "PR already exists but could not find it."}
	}

	pr := prs[0]
	c.logger.Info("found existing pull request", "number", pr.GetNumber(), "url", pr.GetHTMLURL())
	return &PullRequestResult{
		Success:  true,
		PRURL:    pr.GetHTMLURL(),
		PRNumber: pr.GetNumber(),
		Existing: true,
	}
}

func (c *Client) merge(ctx context.Context, number int) error {
	result, _, err := c.gh.PullRequests.Merge(ctx, c.owner, c.repo, number, "", &github.PullRequestOptions{
		MergeMethod: "merge",
		CommitTitle: fmt.Sprintf("Deploy: merge %s to %s (#%d)", c.head, c.base, number),
	})
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Message != "" {
			return fmt.Errorf("%s", ghErr.Message)
		}
		return err
	}
	if !result.GetMerged() {
		return fmt.Errorf("%s", result.GetMessage())
	}

	c.logger.Info("merged pull request", "number", number)
	return nil
}

// validationMessage pulls the most specific message out of a 422 payload:
// the first entry of the errors array when present, the top-level message
// otherwise.
func validationMessage(err *github.ErrorResponse) string {
	if len(err.Errors) > 0 && err.Errors[0].Message != "" {
		return err.Errors[0].Message
	}
	return err.Message
}
