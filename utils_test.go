package vipsock

import (
	"context"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inconshreveable/log15"
)

var l = log15.New()

// tmpSockPath returns a socket path inside a fresh temp dir, keeping it
// comfortably under the sun_path length limit.
func tmpSockPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "vipsock_test")
	if err != nil {
		panic(err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return filepath.Join(dir, "ctl.sock")
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// waitFor polls cond until it holds or the test deadline budget runs out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func addr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("bad address %q: %v", s, err)
	}
	return a
}

func testLease(t *testing.T, vip, peer, id, name string) Lease {
	t.Helper()
	return Lease{VIP: addr(t, vip), Peer: addr(t, peer), ID: id, Name: name}
}
