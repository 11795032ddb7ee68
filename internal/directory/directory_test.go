package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

type countingDirectory struct {
	inner Directory
	calls int64
}

func (d *countingDirectory) Resolve(ctx context.Context, userID string) (Identity, error) {
	atomic.AddInt64(&d.calls, 1)
	return d.inner.Resolve(ctx, userID)
}

func TestStaticDirectoryResolve(t *testing.T) {
	d := NewStaticDirectory()
	d.Put(Identity{UserID: "user-a", ApartmentID: "apt-7", ApartmentName: "Sunrise Tower", Role: sse.RoleAdmin})

	identity, err := d.Resolve(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.ApartmentID != "apt-7" || identity.Role != sse.RoleAdmin {
		t.Fatalf("identity = %+v", identity)
	}

	if _, err := d.Resolve(context.Background(), "user-z"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("unknown user error = %v, want ErrUnknownUser", err)
	}
}

func TestStaticDirectoryAllowUnknown(t *testing.T) {
	d := NewStaticDirectory().AllowUnknown()

	identity, err := d.Resolve(context.Background(), "anyone")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if identity.UserID != "anyone" || identity.Role != sse.RoleUser {
		t.Fatalf("identity = %+v, want bare USER identity", identity)
	}
}

func TestCachedDirectoryHitsInnerOnce(t *testing.T) {
	static := NewStaticDirectory()
	static.Put(Identity{UserID: "user-a", Role: sse.RoleUser})
	counting := &countingDirectory{inner: static}
	cached := NewCachedDirectory(counting, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := cached.Resolve(context.Background(), "user-a"); err != nil {
			t.Fatalf("Resolve attempt %d: %v", i+1, err)
		}
	}
	if got := atomic.LoadInt64(&counting.calls); got != 1 {
		t.Fatalf("inner resolves = %d, want 1 (cached afterwards)", got)
	}
}

func TestCachedDirectoryDoesNotCacheErrors(t *testing.T) {
	static := NewStaticDirectory()
	counting := &countingDirectory{inner: static}
	cached := NewCachedDirectory(counting, time.Minute)

	if _, err := cached.Resolve(context.Background(), "late-user"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("error = %v, want ErrUnknownUser", err)
	}

	// The user shows up in the directory; the next resolve must see it.
	static.Put(Identity{UserID: "late-user", Role: sse.RoleUser})
	if _, err := cached.Resolve(context.Background(), "late-user"); err != nil {
		t.Fatalf("Resolve after user created: %v", err)
	}
	if got := atomic.LoadInt64(&counting.calls); got != 2 {
		t.Fatalf("inner resolves = %d, want 2", got)
	}
}
