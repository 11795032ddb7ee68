package sse

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a connection. The three closed states are
// terminal; a connection never reopens.
type State string

const (
	StateOpen           State = "OPEN"
	StateClosedNormally State = "CLOSED_NORMALLY"
	StateClosedTimeout  State = "CLOSED_TIMEOUT"
	StateClosedError    State = "CLOSED_ERROR"
)

var (
	// ErrConnectionClosed is returned by Push after the connection reached a
	// terminal state.
	ErrConnectionClosed = errors.New("sse: connection closed")
	// ErrSlowConsumer is returned by Push when the event buffer is full; the
	// caller treats it like any other transport failure and prunes the handle.
	ErrSlowConsumer = errors.New("sse: subscriber buffer full")
)

// Connection is one open push stream belonging to a user. A user may hold
// several concurrently (multiple tabs or devices). All state transitions go
// through closeWith so cleanup behaves the same for every close cause.
type Connection struct {
	ID            string
	UserID        string
	ApartmentID   string
	ApartmentName string
	Role          Role
	CreatedAt     time.Time

	mu          sync.Mutex
	state       State
	events      chan Event
	lastEventAt time.Time
}

func newConnection(userID, apartmentID, apartmentName string, role Role, bufferSize int) *Connection {
	now := time.Now()
	return &Connection{
		ID:            uuid.NewString(),
		UserID:        userID,
		ApartmentID:   apartmentID,
		ApartmentName: apartmentName,
		Role:          role,
		CreatedAt:     now,
		state:         StateOpen,
		events:        make(chan Event, bufferSize),
		lastEventAt:   now,
	}
}

// Events returns the receive side of the connection's event channel. The
// channel is closed when the connection reaches a terminal state.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Push enqueues an event for the stream writer. A full buffer means the
// client stopped draining the stream and is reported as a transport failure.
func (c *Connection) Push(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return ErrConnectionClosed
	}
	select {
	case c.events <- ev:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Touch records client-visible delivery; the stream writer calls it after
// each successful write so the idle deadline tracks a live peer rather than
// enqueue attempts.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastEventAt = time.Now()
	c.mu.Unlock()
}

// IdleFor returns how long ago the last event reached the client.
func (c *Connection) IdleFor(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastEventAt)
}

// Close ends the connection normally (client disconnect or handler exit).
func (c *Connection) Close() {
	c.closeWith(StateClosedNormally)
}

// closeWith transitions the connection to a terminal state and closes the
// event channel. It is idempotent; only the first close wins.
func (c *Connection) closeWith(state State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		return false
	}
	c.state = state
	close(c.events)
	return true
}
