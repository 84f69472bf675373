package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

var idLine = regexp.MustCompile(`(?m)^id: [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeRollover, Data: map[string]any{"rolled_over": 2}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: tasks.rolled_over") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"rolled_over":2`) {
			t.Errorf("missing data in %q", s)
		}
		if !idLine.MatchString(s) {
			t.Errorf("missing uuid id line in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishKeepsExplicitID(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{ID: "42", Type: TypeTaskChanged, Data: map[string]string{}})

	select {
	case msg := <-ch:
		if !strings.HasPrefix(string(msg), "id: 42\n") {
			t.Errorf("unexpected message %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishNoteEvent_AgendaThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger agenda.updated.
	b.PublishNoteEvent(KindCreated, "a.md")
	// Second event immediately should NOT trigger another agenda.updated.
	b.PublishNoteEvent(KindDeleted, "b.md")
	b.PublishNoteEvent(KindRolledOver, "d.md")
	// Unknown kinds are ignored.
	b.PublishNoteEvent("moved", "c.md")

	time.Sleep(50 * time.Millisecond)
	counts := map[string]int{}
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			for _, typ := range []string{TypeTaskChanged, TypeNoteRemoved, TypeRollover, TypeAgendaUpdated} {
				if strings.Contains(s, "event: "+typ+"\n") {
					counts[typ]++
				}
			}
		default:
			break loop
		}
	}

	if counts[TypeTaskChanged] != 1 {
		t.Errorf("task.changed events = %d, want 1", counts[TypeTaskChanged])
	}
	if counts[TypeNoteRemoved] != 1 {
		t.Errorf("note.removed events = %d, want 1", counts[TypeNoteRemoved])
	}
	if counts[TypeRollover] != 1 {
		t.Errorf("tasks.rolled_over events = %d, want 1", counts[TypeRollover])
	}
	if counts[TypeAgendaUpdated] != 1 {
		t.Errorf("agenda events = %d, want 1 (throttled)", counts[TypeAgendaUpdated])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishNoteEvent(KindUpdated, "journal/2026-02-15.md")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: task.changed") {
		t.Errorf("handler output missing event: %q", body)
	}
	if !strings.Contains(body, `"path":"journal/2026-02-15.md"`) {
		t.Errorf("handler output missing path: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: TypeTaskChanged, Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeTaskChanged, Data: map[string]string{"path": "x.md"}})
	b.PublishNoteEvent(KindUpdated, "x.md")
}
