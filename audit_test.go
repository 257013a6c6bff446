package authcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)
	t.Cleanup(d.Close)

	d.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now(),
		EventType: auditEventLoginSuccess,
		AccountID: "acct-1",
		Success:   true,
	})

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventLoginSuccess || event.AccountID != "acct-1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled config should produce a nil dispatcher")
	}
	// Nil dispatcher methods are no-ops.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher cannot drop")
	}
}

// blockingSink stalls the run loop so the buffer fills.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the run loop, second fills the buffer, the rest
	// must be dropped without blocking.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(64)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: true}, sink)

	const events = 20
	for i := 0; i < events; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventRefreshSuccess})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != events {
				t.Fatalf("drained %d of %d events", received, events)
			}
			return
		}
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: auditEventRefreshReuseDetected,
		AccountID: "acct-1",
		Success:   false,
		Error:     ErrRefreshReuse.Error(),
		Metadata:  map[string]string{"generation": "4"},
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not one JSON object per line: %v", err)
	}
	if decoded.EventType != auditEventRefreshReuseDetected || decoded.AccountID != "acct-1" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
	if decoded.Metadata["generation"] != "4" {
		t.Fatalf("metadata lost: %+v", decoded.Metadata)
	}
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64

	sink := NewChannelSink(64)
	store := newFakeStore()
	engine, err := New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	seedTestAccount(t, store, "acct-1", "alice@example.com", "correct-horse")

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if _, err := engine.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	engine.Close()

	select {
	case event := <-sink.Events():
		if event.EventType != auditEventLoginFailure {
			t.Fatalf("unexpected event type: %q", event.EventType)
		}
		if event.IP != "203.0.113.7" {
			t.Fatalf("client IP not propagated: %q", event.IP)
		}
		if event.Success {
			t.Fatal("failure event marked successful")
		}
	default:
		t.Fatal("no audit event emitted")
	}
}
