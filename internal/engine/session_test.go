package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gszep/stagehand/internal/engine"
)

type runnerCall struct {
	kind      string // "new" or "resume"
	sessionID string
	prompt    string
}

// stubRunner scripts engine responses and records every invocation. It
// also tracks how many invocations overlap, to check mutual exclusion.
type stubRunner struct {
	mu      sync.Mutex
	calls   []runnerCall
	results []*engine.Result
	errs    []error

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	block    chan struct{} // when non-nil, invocations wait on it
}

func (r *stubRunner) StartNew(ctx context.Context, prompt string) (*engine.Result, error) {
	return r.invoke("new", "", prompt)
}

func (r *stubRunner) Resume(ctx context.Context, sessionID string, prompt string) (*engine.Result, error) {
	return r.invoke("resume", sessionID, prompt)
}

func (r *stubRunner) invoke(kind, sessionID, prompt string) (*engine.Result, error) {
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		max := r.maxSeen.Load()
		if cur <= max || r.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}

	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	r.calls = append(r.calls, runnerCall{kind: kind, sessionID: sessionID, prompt: prompt})
	idx := len(r.calls) - 1
	r.mu.Unlock()

	var res *engine.Result
	var err error
	if idx < len(r.results) {
		res = r.results[idx]
	}
	if idx < len(r.errs) {
		err = r.errs[idx]
	}
	if res == nil && err == nil {
		res = &engine.Result{Result: "ok"}
	}
	return res, err
}

func (r *stubRunner) recorded() []runnerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runnerCall(nil), r.calls...)
}

var _ = Describe("Session", func() {
	var (
		ctx     context.Context
		runner  *stubRunner
		session *engine.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		runner = &stubRunner{}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		session = engine.NewSession(runner, logger)
	})

	Context("continuity", func() {
		It("starts a new conversation on the first send", func() {
			runner.results = []*engine.Result{{Result: "hi", SessionID: "sid-1"}}

			res := session.Send(ctx, "hello")

			Expect(res.IsError).To(BeFalse())
			Expect(res.Result).To(Equal("hi"))
			calls := runner.recorded()
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].kind).To(Equal("new"))
			Expect(session.Current()).To(Equal("sid-1"))
		})

		It("resumes with the stored continuation token", func() {
			runner.results = []*engine.Result{
				{Result: "hi", SessionID: "sid-1"},
				{Result: "again", SessionID: "sid-1"},
			}

			session.Send(ctx, "first")
			session.Send(ctx, "second")

			calls := runner.recorded()
			Expect(calls).To(HaveLen(2))
			Expect(calls[1].kind).To(Equal("resume"))
			Expect(calls[1].sessionID).To(Equal("sid-1"))
		})

		It("adopts rotated tokens unconditionally", func() {
			runner.results = []*engine.Result{
				{Result: "hi", SessionID: "sid-1"},
				{Result: "rotated", SessionID: "sid-2"},
			}

			session.Send(ctx, "first")
			session.Send(ctx, "second")

			Expect(session.Current()).To(Equal("sid-2"))
		})

		It("preserves continuity across error results", func() {
			runner.results = []*engine.Result{
				{Result: "hi", SessionID: "sid-1"},
				{Result: "Claude error: boom", IsError: true},
			}

			session.Send(ctx, "first")
			res := session.Send(ctx, "second")

			Expect(res.IsError).To(BeTrue())
			Expect(session.Current()).To(Equal("sid-1"))

			session.Send(ctx, "third")
			calls := runner.recorded()
			Expect(calls[2].kind).To(Equal("resume"))
			Expect(calls[2].sessionID).To(Equal("sid-1"))
		})

		It("converts runner failures into error results", func() {
			runner.errs = []error{errors.New("exec: claude: not found")}

			res := session.Send(ctx, "hello")

			Expect(res.IsError).To(BeTrue())
			Expect(res.Result).To(ContainSubstring("not found"))
			Expect(session.Current()).To(BeEmpty())
		})
	})

	Context("reset", func() {
		It("returns the previous session ID and clears it", func() {
			runner.results = []*engine.Result{{SessionID: "sid-1"}}
			session.Send(ctx, "hello")

			Expect(session.Reset()).To(Equal("sid-1"))
			Expect(session.Reset()).To(BeEmpty())
			Expect(session.Current()).To(BeEmpty())
		})

		It("forces the next send to start a new conversation", func() {
			runner.results = []*engine.Result{
				{SessionID: "sid-1"},
				{SessionID: "sid-2"},
			}

			session.Send(ctx, "first")
			session.Reset()
			session.Send(ctx, "second")

			calls := runner.recorded()
			Expect(calls[1].kind).To(Equal("new"))
		})

		It("wins over an in-flight invocation's write-back", func() {
			runner.results = []*engine.Result{{SessionID: "sid-1"}}
			runner.block = make(chan struct{})

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				session.Send(ctx, "slow")
			}()

			Eventually(session.Busy).Should(BeTrue())
			Expect(session.Reset()).To(BeEmpty())

			close(runner.block)
			Eventually(done).Should(BeClosed())

			Expect(session.Current()).To(BeEmpty())
		})
	})

	Context("admission", func() {
		It("never lets two invocations overlap", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					session.Send(ctx, "concurrent")
				}()
			}
			wg.Wait()

			Expect(runner.recorded()).To(HaveLen(8))
			Expect(runner.maxSeen.Load()).To(Equal(int32(1)))
		})

		It("reports busy only while an invocation is in flight", func() {
			runner.block = make(chan struct{})

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				session.Send(ctx, "slow")
			}()

			Eventually(session.Busy).Should(BeTrue())
			close(runner.block)
			Eventually(done).Should(BeClosed())
			Eventually(session.Busy).Should(BeFalse())
		})
	})
})
