package websocket

import (
	"sync"
	"testing"
)

// fakeHandle is a minimal Handle for registry tests
type fakeHandle struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
	fail   bool
}

func (h *fakeHandle) Send(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return ErrClientClosed
	}
	h.sent = append(h.sent, data)
	return nil
}

func (h *fakeHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
}

func (h *fakeHandle) sentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("user1", h)

	if r.Count() != 1 {
		t.Errorf("Expected 1 handle, got %d", r.Count())
	}
	if len(r.HandlesFor("user1")) != 1 {
		t.Errorf("Expected 1 handle for user1, got %d", len(r.HandlesFor("user1")))
	}

	r.Unregister(h)

	if r.Count() != 0 {
		t.Errorf("Expected 0 handles after unregister, got %d", r.Count())
	}
	if len(r.HandlesFor("user1")) != 0 {
		t.Error("Expected user1 bucket to be empty after unregister")
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("user1", h)
	r.Unregister(h)
	// duplicate unregister must be a no-op
	r.Unregister(h)

	if r.Count() != 0 {
		t.Errorf("Expected 0 handles, got %d", r.Count())
	}

	// unregistering a handle that was never registered is also a no-op
	r.Unregister(&fakeHandle{})
}

func TestRegistry_MultiDevice(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}
	h2 := &fakeHandle{}
	h3 := &fakeHandle{}

	r.Register("user1", h1)
	r.Register("user1", h2)
	r.Register("user2", h3)

	if got := len(r.HandlesFor("user1")); got != 2 {
		t.Errorf("Expected 2 handles for user1, got %d", got)
	}
	if r.UserCount() != 2 {
		t.Errorf("Expected 2 users, got %d", r.UserCount())
	}

	// removing one device leaves the other untouched
	r.Unregister(h1)
	handles := r.HandlesFor("user1")
	if len(handles) != 1 {
		t.Fatalf("Expected 1 handle for user1, got %d", len(handles))
	}
	if handles[0] != Handle(h2) {
		t.Error("Wrong handle survived the unregister")
	}
}

func TestRegistry_ReRegisterSameUser(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("user1", h)
	// re-identify with the same user is idempotent
	r.Register("user1", h)

	if got := len(r.HandlesFor("user1")); got != 1 {
		t.Errorf("Expected 1 handle after duplicate register, got %d", got)
	}
	if r.Count() != 1 {
		t.Errorf("Expected 1 handle total, got %d", r.Count())
	}
}

func TestRegistry_ReRegisterMovesHandle(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("user1", h)
	// last identify wins for this handle
	r.Register("user2", h)

	if got := len(r.HandlesFor("user1")); got != 0 {
		t.Errorf("Expected user1 bucket empty, got %d handles", got)
	}
	if got := len(r.HandlesFor("user2")); got != 1 {
		t.Errorf("Expected 1 handle for user2, got %d", got)
	}
	if r.Count() != 1 {
		t.Errorf("Expected 1 handle total, got %d", r.Count())
	}
}

func TestRegistry_HandlesForUnknownUser(t *testing.T) {
	r := NewRegistry()

	if handles := r.HandlesFor("ghost"); len(handles) != 0 {
		t.Errorf("Expected empty set for unknown user, got %d", len(handles))
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := &fakeHandle{}
			r.Register("user1", h)
			r.HandlesFor("user1")
			r.Unregister(h)
		}()
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("Expected empty registry after concurrent churn, got %d", r.Count())
	}
}
