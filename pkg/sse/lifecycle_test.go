package sse

import (
	"context"
	"testing"
	"time"
)

func TestHeartbeatReachesEveryConnectionAndPrunesDead(t *testing.T) {
	store := newMemStore()
	r := NewRegistry(WithBufferSize(1))
	d := NewDispatcher(r, store)

	healthy := r.Register("user-a", "", "", RoleUser)
	stuck := r.Register("user-b", "", "", RoleUser)
	if err := stuck.Push(Event{Type: "filler"}); err != nil {
		t.Fatalf("pre-fill push: %v", err)
	}

	sent, pruned := d.Heartbeat(context.Background())
	if sent != 1 || pruned != 1 {
		t.Fatalf("Heartbeat = (sent=%d, pruned=%d), want (1, 1)", sent, pruned)
	}

	events := drain(healthy)
	if len(events) != 1 || events[0].Type != EventHeartbeat {
		t.Fatalf("healthy connection events = %v, want one heartbeat", events)
	}
	if stuck.State() != StateClosedError {
		t.Fatalf("stuck state = %s, want %s", stuck.State(), StateClosedError)
	}
	if r.IsOnline("user-b") {
		t.Fatal("pruned user with single dead handle should be offline")
	}
}

func TestCloseIdleOnlyExpiresIdleConnections(t *testing.T) {
	store := newMemStore()
	r := NewRegistry()
	d := NewDispatcher(r, store)

	idle := r.Register("user-a", "", "", RoleUser)
	fresh := r.Register("user-b", "", "", RoleUser)
	fresh.Touch()

	// Backdate the idle connection past the deadline.
	idle.mu.Lock()
	idle.lastEventAt = time.Now().Add(-31 * time.Minute)
	idle.mu.Unlock()

	closed := d.CloseIdle(context.Background(), 30*time.Minute)
	if closed != 1 {
		t.Fatalf("CloseIdle = %d, want 1", closed)
	}
	if idle.State() != StateClosedTimeout {
		t.Fatalf("idle state = %s, want %s", idle.State(), StateClosedTimeout)
	}
	if fresh.State() != StateOpen {
		t.Fatal("fresh connection must not be expired")
	}
	if r.IsOnline("user-a") {
		t.Fatal("expired connection must be unregistered")
	}
}

func TestDisconnectUserNotifiesAndClosesAllHandles(t *testing.T) {
	store := newMemStore()
	r := NewRegistry()
	d := NewDispatcher(r, store)

	c1 := r.Register("user-a", "apt-7", "Sunrise Tower", RoleUser)
	c2 := r.Register("user-a", "apt-7", "Sunrise Tower", RoleUser)
	bystander := r.Register("user-b", "apt-7", "Sunrise Tower", RoleUser)

	notified := d.DisconnectUser(context.Background(), "user-a")
	if notified != 2 {
		t.Fatalf("notified = %d, want both handles", notified)
	}
	for _, c := range []*Connection{c1, c2} {
		events := drain(c)
		if len(events) != 1 || events[0].Type != EventDisconnect {
			t.Fatalf("handle events = %v, want one disconnect notice", events)
		}
		if c.State() != StateClosedNormally {
			t.Fatalf("handle state = %s, want %s", c.State(), StateClosedNormally)
		}
	}
	if r.IsOnline("user-a") {
		t.Fatal("disconnected user should be offline")
	}
	if !r.IsOnline("user-b") || bystander.State() != StateOpen {
		t.Fatal("disconnect must not touch other users")
	}
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	r := NewRegistry()
	c := r.Register("user-a", "", "", RoleUser)

	if !c.closeWith(StateClosedTimeout) {
		t.Fatal("first close should win")
	}
	if c.closeWith(StateClosedNormally) {
		t.Fatal("second close must be a no-op")
	}
	if c.State() != StateClosedTimeout {
		t.Fatalf("state = %s, first close reason must stick", c.State())
	}
	if err := c.Push(Event{Type: EventHeartbeat}); err != ErrConnectionClosed {
		t.Fatalf("Push after close = %v, want ErrConnectionClosed", err)
	}
}
