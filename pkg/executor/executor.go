package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/logging"
)

// Flow is a pairing flow driven by the executor.
type Flow interface {
	Run(ctx context.Context) (*pairing.Result, error)
	State() string
}

// Factory builds the flow of a new session around its inbox.
type Factory func(inbox pairing.Inbox) (Flow, error)

// Outcome is the result of a finished session.
type Outcome struct {
	SessionID string
	Flow      FlowType
	Status    Status
	Result    *pairing.Result
	Err       error
}

type run struct {
	flowType FlowType
	flow     Flow
	mailbox  *pairing.Mailbox
	cancel   context.CancelFunc
	done     chan struct{}
	outcome  *Outcome
}

// Executor runs pairing sessions concurrently. Each session runs in its
// own goroutine and is only reachable through its mailbox.
type Executor struct {
	config Config
	log    logging.LeveledLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*run
	closed bool
}

// New creates an Executor.
func New(config Config) (*Executor, error) {
	config.applyDefaults()

	e := &Executor{
		config: config,
		runs:   make(map[string]*run),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	if config.LoggerFactory != nil {
		e.log = config.LoggerFactory.NewLogger("executor")
	}
	return e, nil
}

// Start creates a session and runs its flow in the background. The run is
// bound to the executor and its RunTimeout, not to ctx; ctx only guards
// the start itself.
func (e *Executor) Start(ctx context.Context, sessionID string, flowType FlowType, factory Factory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	if factory == nil {
		return ErrNoFactory
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if _, ok := e.runs[sessionID]; ok {
		return ErrSessionExists
	}

	mailbox := pairing.NewMailbox()
	flow, err := factory(mailbox)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(e.ctx, e.config.RunTimeout)
	r := &run{
		flowType: flowType,
		flow:     flow,
		mailbox:  mailbox,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	e.runs[sessionID] = r

	now := e.config.Now()
	e.save(Checkpoint{
		SessionID: sessionID,
		Flow:      flowType,
		State:     flow.State(),
		Status:    StatusRunning,
		Started:   now,
		Updated:   now,
	})

	if e.log != nil {
		e.log.Infof("started %s session %s", flowType, sessionID)
	}

	e.wg.Add(1)
	go e.execute(runCtx, sessionID, r, now)
	return nil
}

func (e *Executor) execute(ctx context.Context, sessionID string, r *run, started time.Time) {
	defer e.wg.Done()
	defer r.cancel()

	result, err := r.flow.Run(ctx)

	outcome := &Outcome{
		SessionID: sessionID,
		Flow:      r.flowType,
		Result:    result,
		Err:       err,
	}
	switch {
	case err == nil:
		outcome.Status = StatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome.Status = StatusCancelled
	default:
		outcome.Status = StatusFailed
	}

	r.mailbox.Close()

	cp := Checkpoint{
		SessionID: sessionID,
		Flow:      r.flowType,
		State:     r.flow.State(),
		Status:    outcome.Status,
		Started:   started,
		Updated:   e.config.Now(),
	}
	if result != nil {
		cp.Message = result.Message
	}
	if err != nil {
		cp.Error = err.Error()
	}
	e.save(cp)

	if e.log != nil {
		if err != nil {
			e.log.Warnf("%s session %s %s: %v", r.flowType, sessionID, outcome.Status, err)
		} else {
			e.log.Infof("%s session %s completed", r.flowType, sessionID)
		}
	}

	e.mu.Lock()
	r.outcome = outcome
	e.mu.Unlock()
	close(r.done)
}

// Signal delivers a signal to a running session.
func (e *Executor) Signal(sessionID string, sig pairing.Signal) error {
	r, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := r.mailbox.Push(sig); err != nil {
		if errors.Is(err, pairing.ErrMailboxClosed) {
			return ErrSessionDone
		}
		return err
	}
	if e.log != nil {
		e.log.Tracef("session %s queued %s", sessionID, sig.Kind)
	}
	return nil
}

// Wait blocks until the session finishes or ctx is done.
func (e *Executor) Wait(ctx context.Context, sessionID string) (*Outcome, error) {
	r, err := e.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	select {
	case <-r.done:
		e.mu.Lock()
		defer e.mu.Unlock()
		return r.outcome, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Has reports whether the session is known.
func (e *Executor) Has(sessionID string) bool {
	_, err := e.lookup(sessionID)
	return err == nil
}

// Checkpoint returns the progress of a session. A running session reports
// its live state.
func (e *Executor) Checkpoint(sessionID string) (Checkpoint, error) {
	cp, err := e.config.Storage.LoadCheckpoint(sessionID)
	if err != nil {
		return Checkpoint{}, err
	}
	if cp.Status.Terminal() {
		return cp, nil
	}
	if r, err := e.lookup(sessionID); err == nil {
		cp.State = r.flow.State()
	}
	return cp, nil
}

// Cancel stops a running session. Its flow wipes the session secrets.
func (e *Executor) Cancel(sessionID string) error {
	r, err := e.lookup(sessionID)
	if err != nil {
		return err
	}
	r.cancel()
	return nil
}

// Close cancels every running session and waits for them to finish.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	if e.log != nil {
		e.log.Info("executor closed")
	}
	return nil
}

func (e *Executor) lookup(sessionID string) (*run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.runs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r, nil
}

func (e *Executor) save(cp Checkpoint) {
	if err := e.config.Storage.SaveCheckpoint(cp); err != nil && e.log != nil {
		e.log.Errorf("save checkpoint for session %s: %v", cp.SessionID, err)
	}
}
