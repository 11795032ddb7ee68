package sse

import (
	"sync"
	"testing"
)

func TestRegistryMultiConnectionOnline(t *testing.T) {
	r := NewRegistry()

	c1 := r.Register("user-a", "apt-7", "Sunrise Tower", RoleUser)
	c2 := r.Register("user-a", "apt-7", "Sunrise Tower", RoleUser)

	if !r.IsOnline("user-a") {
		t.Fatal("user should be online with two connections")
	}
	if got := r.ConnectionCount(); got != 2 {
		t.Fatalf("ConnectionCount = %d, want 2", got)
	}

	r.Unregister("user-a", c1.ID)
	if !r.IsOnline("user-a") {
		t.Fatal("user should remain online after closing one of two connections")
	}

	r.Unregister("user-a", c2.ID)
	if r.IsOnline("user-a") {
		t.Fatal("user should be offline after closing both connections")
	}
	if members := r.MembersOf("apt-7"); len(members) != 0 {
		t.Fatalf("apartment members after full unregister = %v, want empty", members)
	}
	if _, ok := r.MetaOf("user-a"); ok {
		t.Fatal("meta should be removed with the last connection")
	}
}

func TestRegistryApartmentIndexes(t *testing.T) {
	r := NewRegistry()

	r.Register("admin-1", "apt-7", "Sunrise Tower", RoleAdmin)
	r.Register("manager-1", "apt-7", "Sunrise Tower", RoleManager)
	r.Register("resident-1", "apt-7", "Sunrise Tower", RoleUser)
	r.Register("resident-2", "apt-9", "Lakeside", RoleUser)

	members := r.MembersOf("apt-7")
	if len(members) != 3 {
		t.Fatalf("MembersOf(apt-7) = %v, want 3 members", members)
	}

	admins := r.AdminsOf("apt-7")
	if len(admins) != 2 {
		t.Fatalf("AdminsOf(apt-7) = %v, want ADMIN and MANAGER only", admins)
	}
	for _, id := range admins {
		if id == "resident-1" {
			t.Fatal("AdminsOf must not include plain residents")
		}
	}

	if got := len(r.AllOnlineUsers()); got != 4 {
		t.Fatalf("AllOnlineUsers = %d users, want 4", got)
	}
}

func TestRegistryUnregisterUnknownHandle(t *testing.T) {
	r := NewRegistry()
	c := r.Register("user-a", "", "", RoleUser)

	r.Unregister("user-a", "no-such-handle")
	if !r.IsOnline("user-a") {
		t.Fatal("unknown handle must not unregister the user")
	}
	r.Unregister("user-b", c.ID)
	if !r.IsOnline("user-a") {
		t.Fatal("unregister for another user must not touch this user")
	}
}

func TestRegistryPushErrorCeiling(t *testing.T) {
	r := NewRegistry(WithReconnectCeiling(3))

	for i := 1; i <= 2; i++ {
		if _, reached := r.RecordPushError("user-a"); reached {
			t.Fatalf("ceiling reported after %d errors, ceiling is 3", i)
		}
	}
	if _, reached := r.RecordPushError("user-a"); !reached {
		t.Fatal("ceiling should be reported on the third consecutive error")
	}
	// Past the ceiling the count freezes.
	count, reached := r.RecordPushError("user-a")
	if !reached || count != 3 {
		t.Fatalf("post-ceiling RecordPushError = (%d, %v), want (3, true)", count, reached)
	}

	// A fresh register resets the counter.
	r.Register("user-a", "", "", RoleUser)
	if got := r.PushErrorCount("user-a"); got != 0 {
		t.Fatalf("PushErrorCount after Register = %d, want 0", got)
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := r.Register("user-a", "apt-7", "Sunrise Tower", RoleUser)
				r.IsOnline("user-a")
				r.MembersOf("apt-7")
				r.Unregister("user-a", c.ID)
			}
		}()
	}
	wg.Wait()

	if r.IsOnline("user-a") {
		t.Fatal("user should be offline after all churn goroutines drained")
	}
	if got := r.ConnectionCount(); got != 0 {
		t.Fatalf("ConnectionCount after churn = %d, want 0", got)
	}
}
