package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/backkem/dkpair/pkg/message"
	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/transport/v3/test"
)

// echoFlow consumes n signals and completes with the last payload.
type echoFlow struct {
	inbox pairing.Inbox
	n     int

	mu    sync.Mutex
	state string
}

func (f *echoFlow) Run(ctx context.Context) (*pairing.Result, error) {
	var last pairing.Signal
	for i := 0; i < f.n; i++ {
		f.setState("Await")
		sig, err := f.inbox.Next(ctx)
		if err != nil {
			f.setState("Failed")
			return nil, err
		}
		last = sig
	}
	f.setState("Done")
	return &pairing.Result{SessionID: last.SessionID, Message: last.Payload}, nil
}

func (f *echoFlow) State() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *echoFlow) setState(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func echoFactory(n int) Factory {
	return func(inbox pairing.Inbox) (Flow, error) {
		return &echoFlow{inbox: inbox, n: n, state: "Init"}, nil
	}
}

func newTestExecutor(t *testing.T, config Config) *Executor {
	t.Helper()
	e, err := New(config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestExecutor_RunToCompletion(t *testing.T) {
	defer test.CheckRoutines(t)()

	e := newTestExecutor(t, Config{})
	ctx := context.Background()

	if err := e.Start(ctx, "s1", FlowDevice, echoFactory(2)); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for _, p := range []string{"first", "second"} {
		if err := e.Signal("s1", pairing.Signal{SessionID: "s1", Kind: message.KindSelectCommand, Payload: p}); err != nil {
			t.Fatalf("Signal() error = %v", err)
		}
	}

	outcome, err := e.Wait(ctx, "s1")
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if outcome.Status != StatusCompleted || outcome.Err != nil {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Result.Message != "second" {
		t.Errorf("signals consumed out of order: %q", outcome.Result.Message)
	}

	cp, err := e.Checkpoint("s1")
	if err != nil {
		t.Fatal(err)
	}
	if cp.Status != StatusCompleted || cp.State != "Done" || cp.Message != "second" || cp.Flow != FlowDevice {
		t.Errorf("checkpoint = %+v", cp)
	}

	if err := e.Signal("s1", pairing.Signal{}); !errors.Is(err, ErrSessionDone) {
		t.Errorf("Signal() after completion error = %v", err)
	}
}

func TestExecutor_Errors(t *testing.T) {
	e := newTestExecutor(t, Config{})
	ctx := context.Background()

	if err := e.Start(ctx, "", FlowDevice, echoFactory(1)); !errors.Is(err, ErrInvalidSessionID) {
		t.Errorf("Start() empty id error = %v", err)
	}
	if err := e.Start(ctx, "s", FlowDevice, nil); !errors.Is(err, ErrNoFactory) {
		t.Errorf("Start() nil factory error = %v", err)
	}
	factoryErr := errors.New("boom")
	err := e.Start(ctx, "bad", FlowDevice, func(pairing.Inbox) (Flow, error) { return nil, factoryErr })
	if !errors.Is(err, factoryErr) {
		t.Errorf("Start() factory error = %v", err)
	}
	if e.Has("bad") {
		t.Error("failed start registered a session")
	}

	if err := e.Start(ctx, "s", FlowDevice, echoFactory(1)); err != nil {
		t.Fatal(err)
	}
	if err := e.Start(ctx, "s", FlowDevice, echoFactory(1)); !errors.Is(err, ErrSessionExists) {
		t.Errorf("Start() duplicate error = %v", err)
	}

	if err := e.Signal("missing", pairing.Signal{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Signal() unknown error = %v", err)
	}
	if _, err := e.Wait(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Wait() unknown error = %v", err)
	}
	if err := e.Cancel("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Cancel() unknown error = %v", err)
	}
	if _, err := e.Checkpoint("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Checkpoint() unknown error = %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := e.Start(cancelled, "late", FlowDevice, echoFactory(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() cancelled ctx error = %v", err)
	}
}

func TestExecutor_Cancel(t *testing.T) {
	defer test.CheckRoutines(t)()

	e := newTestExecutor(t, Config{})
	ctx := context.Background()

	if err := e.Start(ctx, "s", FlowVehicle, echoFactory(1)); err != nil {
		t.Fatal(err)
	}
	if err := e.Cancel("s"); err != nil {
		t.Fatal(err)
	}

	outcome, err := e.Wait(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != StatusCancelled || !errors.Is(outcome.Err, context.Canceled) {
		t.Errorf("outcome = %+v", outcome)
	}
	cp, _ := e.Checkpoint("s")
	if cp.Status != StatusCancelled || cp.State != "Failed" || cp.Error == "" {
		t.Errorf("checkpoint = %+v", cp)
	}
}

func TestExecutor_RunTimeout(t *testing.T) {
	defer test.CheckRoutines(t)()

	e := newTestExecutor(t, Config{RunTimeout: 20 * time.Millisecond})
	if err := e.Start(context.Background(), "s", FlowDevice, echoFactory(1)); err != nil {
		t.Fatal(err)
	}

	outcome, err := e.Wait(context.Background(), "s")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != StatusCancelled || !errors.Is(outcome.Err, context.DeadlineExceeded) {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestExecutor_Failure(t *testing.T) {
	e := newTestExecutor(t, Config{})
	flowErr := errors.New("evidence mismatch")

	err := e.Start(context.Background(), "s", FlowDevice, func(pairing.Inbox) (Flow, error) {
		return failingFlow{err: flowErr}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := e.Wait(context.Background(), "s")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != StatusFailed || !errors.Is(outcome.Err, flowErr) {
		t.Errorf("outcome = %+v", outcome)
	}
	cp, _ := e.Checkpoint("s")
	if cp.Error != flowErr.Error() {
		t.Errorf("checkpoint error = %q", cp.Error)
	}
}

type failingFlow struct{ err error }

func (f failingFlow) Run(context.Context) (*pairing.Result, error) { return nil, f.err }
func (f failingFlow) State() string { return "Failed" }

func TestExecutor_LiveCheckpoint(t *testing.T) {
	e := newTestExecutor(t, Config{})
	if err := e.Start(context.Background(), "s", FlowDevice, echoFactory(1)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		cp, err := e.Checkpoint("s")
		if err != nil {
			t.Fatal(err)
		}
		if cp.Status != StatusRunning {
			t.Fatalf("status = %s", cp.Status)
		}
		if cp.State == "Await" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want Await", cp.State)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestExecutor_Close(t *testing.T) {
	defer test.CheckRoutines(t)()

	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		if err := e.Start(context.Background(), id, FlowDevice, echoFactory(1)); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v", err)
	}
	if err := e.Start(context.Background(), "c", FlowDevice, echoFactory(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v", err)
	}

	for _, id := range []string{"a", "b"} {
		outcome, err := e.Wait(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Status != StatusCancelled {
			t.Errorf("%s status = %s", id, outcome.Status)
		}
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b || len(a) != 36 {
		t.Errorf("NewSessionID() = %q, %q", a, b)
	}
}
