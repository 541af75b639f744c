package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Session owns the single logical conversation with the engine. The engine
// is one stateful subprocess and cannot run two prompts at once, so every
// Send is serialized through an admission mutex; concurrent callers block
// and proceed in a runtime-fair but unspecified order.
//
// The session ID is an opaque continuation token taken verbatim from engine
// responses, never parsed.
type Session struct {
	runner Runner
	logger *slog.Logger

	mu   sync.Mutex // admission: at most one invocation in flight
	busy atomic.Bool

	idMu      sync.Mutex
	sessionID string
	gen       uint64 // bumped by Reset so stale write-backs are discarded
}

func NewSession(runner Runner, logger *slog.Logger) *Session {
	return &Session{
		runner: runner,
		logger: logger,
	}
}

// Send forwards one prompt to the engine, resuming the stored conversation
// when one exists. Errors never tear the session down: the lock releases
// and continuity is preserved for the next call.
func (s *Session) Send(ctx context.Context, prompt string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy.Store(true)
	defer s.busy.Store(false)

	sid, gen := s.snapshot()

	label := sid
	if label == "" {
		label = "new"
	}
	s.logger.Info("engine invocation", "session", label, "prompt", head(prompt, 120))

	var (
		res *Result
		err error
	)
	if sid != "" {
		res, err = s.runner.Resume(ctx, sid, prompt)
	} else {
		res, err = s.runner.StartNew(ctx, prompt)
	}
	if err != nil {
		s.logger.Error("engine invocation failed", "error", err)
		return &Result{Result: fmt.Sprintf("Claude error: %v", err), IsError: true}
	}

	// Engines may rotate tokens mid-conversation; adopt whatever came back.
	if res.SessionID != "" {
		s.adopt(res.SessionID, gen)
	}

	s.logger.Info("engine invocation done", "turns", res.NumTurns, "cost_usd", res.CostUSD)
	return res
}

// Reset ends the current conversation and returns the previous session ID
// ("" if none). It never waits for an in-flight Send: if one is running,
// its session write-back is discarded, so the reset always sticks.
func (s *Session) Reset() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	old := s.sessionID
	s.sessionID = ""
	s.gen++
	return old
}

// Busy is an advisory signal for user feedback. Send's own lock is the
// actual gate; callers may Send while Busy reports true and will queue.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Current returns the active session ID, "" if none.
func (s *Session) Current() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.sessionID
}

func (s *Session) snapshot() (string, uint64) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.sessionID, s.gen
}

func (s *Session) adopt(id string, gen uint64) {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	if s.gen != gen {
		// A Reset landed while the invocation ran; the reset wins.
		return
	}
	s.sessionID = id
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
