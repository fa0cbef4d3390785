package pairing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backkem/dkpair/pkg/message"
)

func TestMailbox_FIFO(t *testing.T) {
	m := NewMailbox()
	kinds := []message.Kind{
		message.KindSelectCommand,
		message.KindSpake2PlusRequestCommand,
		message.KindSpake2PlusVerifyCommand,
	}
	for i, k := range kinds {
		if err := m.Push(Signal{SessionID: "s", Kind: k, Payload: string(rune('a' + i))}); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
	}
	if m.Len() != len(kinds) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(kinds))
	}

	for i, k := range kinds {
		sig, err := m.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if sig.Kind != k || sig.Payload != string(rune('a'+i)) {
			t.Errorf("Next() #%d = %+v", i, sig)
		}
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after drain", m.Len())
	}
}

func TestMailbox_WaitsForPush(t *testing.T) {
	m := NewMailbox()
	done := make(chan Signal, 1)
	go func() {
		sig, err := m.Next(context.Background())
		if err == nil {
			done <- sig
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := m.Push(Signal{Kind: message.KindSelectResponse}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	select {
	case sig, ok := <-done:
		if !ok || sig.Kind != message.KindSelectResponse {
			t.Fatalf("Next() = %+v, %v", sig, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("Next() did not wake up")
	}
}

func TestMailbox_ContextCancel(t *testing.T) {
	m := NewMailbox()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want DeadlineExceeded", err)
	}
}

func TestMailbox_Close(t *testing.T) {
	m := NewMailbox()
	if err := m.Push(Signal{Payload: "queued"}); err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()

	if err := m.Push(Signal{}); !errors.Is(err, ErrMailboxClosed) {
		t.Errorf("Push() after Close error = %v", err)
	}
	sig, err := m.Next(context.Background())
	if err != nil || sig.Payload != "queued" {
		t.Errorf("Next() = %+v, %v; want queued signal", sig, err)
	}
	if _, err := m.Next(context.Background()); !errors.Is(err, ErrMailboxClosed) {
		t.Errorf("Next() on drained closed mailbox error = %v", err)
	}
}
