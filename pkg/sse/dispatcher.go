package sse

import (
	"context"
	"fmt"

	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

// Store persists one notification row per resolved recipient. Durability is
// independent of connectivity; offline recipients read the row back later.
type Store interface {
	SaveForRecipient(ctx context.Context, userID string, msg Message) error
}

// Selector is the targeting mode of a dispatch.
type Selector struct {
	kind        selectorKind
	userID      string
	apartmentID string
}

type selectorKind int

const (
	selectUser selectorKind = iota
	selectApartmentAdmins
	selectApartmentAll
	selectBroadcast
)

// User targets a single user, online or not.
func User(userID string) Selector {
	return Selector{kind: selectUser, userID: userID}
}

// ApartmentAdmins targets the connected ADMIN/MANAGER users of an apartment.
func ApartmentAdmins(apartmentID string) Selector {
	return Selector{kind: selectApartmentAdmins, apartmentID: apartmentID}
}

// ApartmentAll targets every connected user of an apartment.
func ApartmentAll(apartmentID string) Selector {
	return Selector{kind: selectApartmentAll, apartmentID: apartmentID}
}

// Broadcast targets every connected user.
func Broadcast() Selector {
	return Selector{kind: selectBroadcast}
}

// String names the selector for logs.
func (s Selector) String() string {
	switch s.kind {
	case selectUser:
		return "user:" + s.userID
	case selectApartmentAdmins:
		return "apartment_admins:" + s.apartmentID
	case selectApartmentAll:
		return "apartment_all:" + s.apartmentID
	default:
		return "broadcast"
	}
}

// DeliveryResult reports best-effort counts from one dispatch. Persisted is
// the durable outcome; Pushed counts handles that accepted the event live.
type DeliveryResult struct {
	Recipients    int `json:"recipients"`
	Persisted     int `json:"persisted"`
	Pushed        int `json:"pushed"`
	PrunedHandles int `json:"prunedHandles"`
}

// Dispatcher fans one logical event out to a recipient set: persist a row
// per recipient, then best-effort push to each recipient's live handles.
// Per-recipient and per-handle failures are isolated and logged here; they
// never abort sibling deliveries.
type Dispatcher struct {
	registry *Registry
	store    Store
}

// NewDispatcher wires a Dispatcher to a registry and a store.
func NewDispatcher(registry *Registry, store Store) *Dispatcher {
	return &Dispatcher{registry: registry, store: store}
}

// Registry returns the registry this dispatcher resolves recipients from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves the selector, persists one row per recipient, and pushes
// the event to every live handle of online recipients. The returned error is
// non-nil only when a non-empty recipient set had zero successful persists;
// partial store failures are reflected in the counts alone.
func (d *Dispatcher) Dispatch(ctx context.Context, sel Selector, eventName string, msg Message) (DeliveryResult, error) {
	recipients := d.resolve(sel)
	result := DeliveryResult{Recipients: len(recipients)}

	for _, userID := range recipients {
		if err := d.store.SaveForRecipient(ctx, userID, msg); err != nil {
			logger.WithContext(ctx).Errorf(
				"dispatch: persist failed selector=%s user_id=%s error=%v", sel, userID, err)
			continue
		}
		result.Persisted++
	}
	if result.Persisted == 0 && result.Recipients > 0 {
		return result, fmt.Errorf("dispatch %s: no recipient persisted", sel)
	}

	ev := Event{Type: eventName, Data: msg}
	for _, userID := range recipients {
		if !d.registry.IsOnline(userID) {
			continue
		}
		pushed, pruned := d.pushToUser(ctx, userID, ev)
		result.Pushed += pushed
		result.PrunedHandles += pruned
	}
	return result, nil
}

// pushToUser pushes to a snapshot of the user's handles. A failing handle is
// closed with an error state and unregistered; siblings are unaffected.
func (d *Dispatcher) pushToUser(ctx context.Context, userID string, ev Event) (pushed, pruned int) {
	for _, conn := range d.registry.Connections(userID) {
		if err := conn.Push(ev); err != nil {
			d.pruneConn(ctx, conn, err)
			pruned++
			continue
		}
		pushed++
	}
	return pushed, pruned
}

func (d *Dispatcher) pruneConn(ctx context.Context, conn *Connection, cause error) {
	conn.closeWith(StateClosedError)
	d.registry.Unregister(conn.UserID, conn.ID)
	count, ceiling := d.registry.RecordPushError(conn.UserID)
	logger.WithContext(ctx).Debugf(
		"dispatch: pruned dead handle user_id=%s conn_id=%s errors=%d error=%v",
		conn.UserID, conn.ID, count, cause)
	if ceiling {
		logger.WithContext(ctx).Warnf(
			"dispatch: reconnect bookkeeping abandoned user_id=%s errors=%d", conn.UserID, count)
	}
}

func (d *Dispatcher) resolve(sel Selector) []string {
	switch sel.kind {
	case selectUser:
		if sel.userID == "" {
			return nil
		}
		return []string{sel.userID}
	case selectApartmentAdmins:
		return d.registry.AdminsOf(sel.apartmentID)
	case selectApartmentAll:
		return d.registry.MembersOf(sel.apartmentID)
	default:
		return d.registry.AllOnlineUsers()
	}
}
