package vipsock

import "net/netip"

// Event is the kind of lease change a Directory reports.
type Event int

const (
	// EventUp means a virtual IP was assigned to a peer.
	EventUp Event = iota
	// EventDown means a virtual IP assignment went away.
	EventDown
)

func (e Event) String() string {
	switch e {
	case EventUp:
		return "up"
	case EventDown:
		return "down"
	default:
		return "unknown"
	}
}

// Lease is one virtual IP assignment as reported by a Directory.
type Lease struct {
	// VIP is the assigned virtual IP.
	VIP netip.Addr
	// Peer is the remote peer's outer address.
	Peer netip.Addr
	// ID is the remote peer's identity.
	ID string
	// Name is the configuration name the lease belongs to.
	Name string
}

// ListenerFunc receives lease events. Returning false tells the Directory
// the listener is no longer valid and must not be called again; the
// Directory is expected to drop its reference immediately rather than on
// the next event.
type ListenerFunc func(ev Event, lease Lease) bool

// Directory is the external component owning the live table of virtual IP
// leases. The socket server only consumes it; it never mutates the table.
type Directory interface {
	// Lookup invokes fn once per lease matching vip, with a synthetic
	// EventUp. A zero (invalid) vip matches every lease. Iteration stops
	// early if fn returns false.
	Lookup(vip netip.Addr, fn ListenerFunc)
	// AddListener registers fn for all future lease events. It stays
	// registered until it returns false.
	AddListener(fn ListenerFunc)
}
