package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

// Result is the structured envelope the claude CLI prints with
// --output-format json. CostUSD and NumTurns are telemetry only.
type Result struct {
	Result    string  `json:"result"`
	SessionID string  `json:"session_id"`
	IsError   bool    `json:"is_error"`
	CostUSD   float64 `json:"cost_usd"`
	NumTurns  int     `json:"num_turns"`
}

// Runner performs one engine invocation. Abstracting it keeps the session's
// locking and continuity logic independent of the transport (subprocess
// today, could be RPC).
type Runner interface {
	// StartNew opens a fresh conversation seeded with the system prompt.
	StartNew(ctx context.Context, prompt string) (*Result, error)

	// Resume continues the conversation identified by sessionID.
	Resume(ctx context.Context, sessionID string, prompt string) (*Result, error)
}

// excerptLimit caps how much raw CLI output ends up in error results.
const excerptLimit = 500

// CLIRunner invokes the claude CLI as a subprocess inside the working repo.
// A returned error means the process could not be spawned at all; CLI
// failures (non-zero exit, unparseable output) come back as error Results.
type CLIRunner struct {
	command      string
	workDir      string
	model        string
	systemPrompt string
	logger       *slog.Logger
}

func NewCLIRunner(workDir, model, systemPrompt string, logger *slog.Logger) *CLIRunner {
	return &CLIRunner{
		command:      "claude",
		workDir:      workDir,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

func (r *CLIRunner) StartNew(ctx context.Context, prompt string) (*Result, error) {
	args := append(r.baseArgs(prompt), "--append-system-prompt", r.systemPrompt)
	return r.invoke(ctx, args)
}

func (r *CLIRunner) Resume(ctx context.Context, sessionID string, prompt string) (*Result, error) {
	args := append(r.baseArgs(prompt), "--resume", sessionID)
	return r.invoke(ctx, args)
}

func (r *CLIRunner) baseArgs(prompt string) []string {
	return []string{
		"-p", prompt,
		"--output-format", "json",
		"--dangerously-skip-permissions",
		"--model", r.model,
	}
}

func (r *CLIRunner) invoke(ctx context.Context, args []string) (*Result, error) {
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return nil, fmt.Errorf("failed to run engine command: %w", err)
		}
		msg := excerpt(stderr.String())
		r.logger.Error("engine exited with error", "error", err, "stderr", msg)
		return &Result{Result: fmt.Sprintf("Claude error: %s", msg), IsError: true}, nil
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		raw := excerpt(stdout.String())
		r.logger.Error("engine produced unparseable output", "output", raw)
		return &Result{Result: fmt.Sprintf("Unexpected output: %s", raw), IsError: true}, nil
	}

	return &res, nil
}

func excerpt(s string) string {
	if len(s) > excerptLimit {
		return s[:excerptLimit]
	}
	return s
}
