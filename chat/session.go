package chat

import (
	"context"
	"errors"
	stdsync "sync"

	"github.com/davidbalbert/chatline/commands"
	"github.com/davidbalbert/chatline/sync"
	"github.com/google/uuid"
)

// ErrSuperseded is returned by Request.Wait when a newer request started
// before this one finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Applied is a completion that made it to the session: the newest request
// at the time it finished.
type Applied struct {
	Generation uint64
	Completion commands.Completion
}

// Session is one editor's view of the engine. Only the newest suggestion
// request can apply its result. Starting a request cancels the previous
// one, and a result that arrives after its request was cancelled or
// replaced is dropped.
type Session struct {
	ID     string
	engine *Engine
	sender commands.Sender

	mu      stdsync.Mutex
	gen     uint64
	current *Request

	applied *sync.Notifier[Applied]
}

func (e *Engine) NewSession(sender commands.Sender) *Session {
	return &Session{
		ID:      uuid.NewString(),
		engine:  e,
		sender:  sender,
		applied: sync.NewNotifier[Applied](),
	}
}

// Request is a single in-flight suggestion computation.
type Request struct {
	Generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	comp   commands.Completion
	err    error
}

// Done is closed once the request has finished, whether or not its result
// was applied.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until r finishes or ctx is done. It returns the completion
// only if it was applied.
func (r *Request) Wait(ctx context.Context) (commands.Completion, error) {
	select {
	case <-ctx.Done():
		return commands.Completion{}, ctx.Err()
	case <-r.done:
		return r.comp, r.err
	}
}

// Suggest cancels any in-flight request and starts computing completions
// for line. The work runs on its own goroutine; watch Applied or call Wait
// on the returned request for the result.
func (s *Session) Suggest(ctx context.Context, line string, cursor int) *Request {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.current != nil {
		s.current.cancel()
	}
	s.gen++
	r := &Request{
		Generation: s.gen,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.current = r
	s.mu.Unlock()

	go s.run(r, line, cursor)

	return r
}

func (s *Session) run(r *Request, line string, cursor int) {
	defer close(r.done)
	defer r.cancel()

	comp, err := s.engine.Complete(r.ctx, line, cursor, s.sender)
	if err != nil {
		r.err = err
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Checked under the lock so a Cancel or Suggest that has returned can
	// never be followed by this result being applied.
	if s.current != r || r.ctx.Err() != nil {
		r.err = ErrSuperseded
		if r.ctx.Err() != nil && s.current == r {
			r.err = r.ctx.Err()
		}
		return
	}

	r.comp = comp
	s.applied.NotifyChange(Applied{Generation: r.Generation, Completion: comp})
}

// Cancel stops the in-flight request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.cancel()
	}
}

// Generation returns the number of requests started so far.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// Applied returns the most recently applied completion and the number of
// completions applied so far.
func (s *Session) Applied() (Applied, int64) {
	return s.applied.LastChange()
}

// AwaitApplied blocks until more than seq completions have been applied,
// or ctx is done.
func (s *Session) AwaitApplied(ctx context.Context, seq int64) (Applied, int64) {
	return s.applied.AwaitChange(ctx, seq)
}

// Handle runs a line in this session.
func (s *Session) Handle(line string) Outcome {
	return s.engine.Handle(line, s.sender)
}
