package sse

import (
	"context"
	"time"

	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

// Heartbeat pushes a lightweight event to every live connection. Failures
// are treated exactly like dispatch failures: the handle is pruned and the
// user's error counter bumped. Returns how many handles accepted the event
// and how many were pruned.
func (d *Dispatcher) Heartbeat(ctx context.Context) (sent, pruned int) {
	ev := Event{Type: EventHeartbeat, Data: map[string]interface{}{
		"at": time.Now().UTC().Format(time.RFC3339),
	}}
	for _, conn := range d.registry.Snapshot() {
		if err := conn.Push(ev); err != nil {
			d.pruneConn(ctx, conn, err)
			pruned++
			continue
		}
		sent++
	}
	return sent, pruned
}

// CloseIdle closes connections whose last client-visible delivery is older
// than maxIdle. Expiry is a normal end of life for a quiet stream, so the
// terminal state is CLOSED_TIMEOUT and no error counter is touched.
func (d *Dispatcher) CloseIdle(ctx context.Context, maxIdle time.Duration) (closed int) {
	now := time.Now()
	for _, conn := range d.registry.Snapshot() {
		if conn.IdleFor(now) < maxIdle {
			continue
		}
		if conn.closeWith(StateClosedTimeout) {
			d.registry.Unregister(conn.UserID, conn.ID)
			closed++
			logger.WithContext(ctx).Infof(
				"sse: idle connection expired user_id=%s conn_id=%s idle=%s",
				conn.UserID, conn.ID, conn.IdleFor(now))
		}
	}
	return closed
}

// DisconnectUser pushes a disconnect notice to every handle of the user and
// then closes them server-side. The notice lets the client tear down its
// stream cleanly; closing our end as well keeps terminal state consistent
// for clients that never act on it.
func (d *Dispatcher) DisconnectUser(ctx context.Context, userID string) (notified int) {
	ev := Event{Type: EventDisconnect, Data: map[string]interface{}{
		"reason": "server_requested",
	}}
	for _, conn := range d.registry.Connections(userID) {
		if err := conn.Push(ev); err == nil {
			notified++
		}
		if conn.closeWith(StateClosedNormally) {
			d.registry.Unregister(conn.UserID, conn.ID)
		}
	}
	return notified
}
