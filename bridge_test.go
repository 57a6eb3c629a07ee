package vipsock

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/earlvking/vipsock/internal/proto"
)

// bridgeSocket builds just enough Socket to exercise deliver.
func bridgeSocket() *Socket {
	return &Socket{reg: newRegistry(), l: l}
}

// countingConn counts Close calls so tests can prove a descriptor is
// released exactly once.
type countingConn struct {
	net.Conn
	closes int64
}

func (c *countingConn) Close() error {
	atomic.AddInt64(&c.closes, 1)
	return c.Conn.Close()
}

func TestDeliverFiltersMismatchedEvents(t *testing.T) {
	s := bridgeSocket()
	lease := testLease(t, "10.3.0.1", "203.0.113.5", "alice@example.com", "rw")

	// a write would block forever on an unread net.Pipe; the filter must
	// return before any write happens
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	up := &subscriber{id: "up", kind: kindNotifyUp, conn: local, owner: s.reg}
	if !s.deliver(up, EventDown, lease) {
		t.Fatal("suppressed event must keep the subscription")
	}

	down := &subscriber{id: "down", kind: kindNotifyDown, conn: local, owner: s.reg}
	if !s.deliver(down, EventUp, lease) {
		t.Fatal("suppressed event must keep the subscription")
	}
}

func TestDeliverWritesMatchingEvent(t *testing.T) {
	s := bridgeSocket()
	lease := testLease(t, "10.3.0.1", "203.0.113.5", "alice@example.com", "rw")

	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	got := make(chan *proto.Response, 1)
	go func() {
		buf := make([]byte, proto.ResponseSize)
		n, err := remote.Read(buf)
		if err != nil || n != proto.ResponseSize {
			got <- nil
			return
		}
		resp, _ := proto.DecodeResponse(buf[:n])
		got <- resp
	}()

	e := &subscriber{id: "down", kind: kindNotifyDown, conn: local, owner: s.reg}
	s.reg.insert(e)
	if !s.deliver(e, EventDown, lease) {
		t.Fatal("successful delivery must keep the subscription")
	}

	resp := <-got
	if resp == nil {
		t.Fatal("expected a full response record")
	}
	if resp.Type != proto.ResponseNotifyDown {
		t.Fatalf("expected notify-down, got type %d", resp.Type)
	}
	if resp.VIP != "10.3.0.1" || resp.IP != "203.0.113.5" ||
		resp.ID != "alice@example.com" || resp.Name != "rw" {
		t.Fatalf("unexpected response fields: %+v", resp)
	}
	if n := s.reg.len(); n != 1 {
		t.Fatalf("subscriber should remain registered, registry has %d", n)
	}
}

// TestDeliverDropsDeadClientOnce simulates a client whose descriptor is
// already gone: concurrent deliveries must unregister and close exactly
// once between them.
func TestDeliverDropsDeadClientOnce(t *testing.T) {
	s := bridgeSocket()
	lease := testLease(t, "10.3.0.1", "203.0.113.5", "alice@example.com", "rw")

	local, remote := net.Pipe()
	remote.Close()
	cc := &countingConn{Conn: local}

	e := &subscriber{id: "dead", kind: kindNotifyUp, conn: cc, owner: s.reg}
	s.reg.insert(e)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.deliver(e, EventUp, lease) {
				t.Error("delivery to a dead client must report stop")
			}
		}()
	}
	wg.Wait()

	if n := s.reg.len(); n != 0 {
		t.Fatalf("dead subscriber should be unregistered, registry has %d", n)
	}
	if closes := atomic.LoadInt64(&cc.closes); closes != 1 {
		t.Fatalf("descriptor should be closed exactly once, got %d", closes)
	}
}

// TestDeliverTransientEntryNoUnregister checks that a failed write to a
// transient lookup target reports stop without touching the registry.
func TestDeliverTransientEntryNoUnregister(t *testing.T) {
	s := bridgeSocket()
	lease := testLease(t, "10.3.0.1", "203.0.113.5", "alice@example.com", "rw")

	local, remote := net.Pipe()
	remote.Close()
	cc := &countingConn{Conn: local}

	e := &subscriber{kind: kindLookupResult, conn: cc}
	if s.deliver(e, EventUp, lease) {
		t.Fatal("failed delivery must report stop")
	}
	if closes := atomic.LoadInt64(&cc.closes); closes != 0 {
		t.Fatalf("transient entries must not close the handler's descriptor, got %d closes", closes)
	}
}

// TestRegistrySizeAfterFailures: after N subscriptions and M dead clients,
// the registry holds exactly N-M entries.
func TestRegistrySizeAfterFailures(t *testing.T) {
	s := bridgeSocket()
	lease := testLease(t, "10.3.0.1", "203.0.113.5", "alice@example.com", "rw")

	const n, m = 5, 3
	for i := 0; i < n; i++ {
		local, remote := net.Pipe()
		if i < m {
			remote.Close()
		} else {
			// drain matching deliveries so writes don't block
			go func() {
				buf := make([]byte, proto.ResponseSize)
				for {
					if _, err := remote.Read(buf); err != nil {
						return
					}
				}
			}()
			defer remote.Close()
		}
		e := &subscriber{kind: kindNotifyUp, conn: local, owner: s.reg}
		s.reg.insert(e)
		s.deliver(e, EventUp, lease)
	}

	if got := s.reg.len(); got != n-m {
		t.Fatalf("expected %d entries after %d failures, got %d", n-m, m, got)
	}
}
