package vipsock

import (
	"net/netip"
	"sync"
)

// MemDirectory is an in-memory Directory. Embedders that track leases
// themselves can implement Directory directly; MemDirectory is for everyone
// else, and for tests.
//
// Events fire synchronously on the goroutine calling Assign or Release.
type MemDirectory struct {
	mu        sync.Mutex
	leases    map[netip.Addr]Lease
	listeners []*memListener
}

// memListener wraps a registered ListenerFunc so removal has an identity to
// key on. removed guards against a listener being dropped twice when two
// concurrent events both see it fail.
type memListener struct {
	fn      ListenerFunc
	removed bool
}

// NewMemDirectory returns an empty directory.
func NewMemDirectory() *MemDirectory {
	return &MemDirectory{leases: make(map[netip.Addr]Lease)}
}

// Assign records a lease and fires an EventUp for it. Re-assigning a virtual
// IP overwrites the previous lease and fires again.
func (d *MemDirectory) Assign(lease Lease) {
	d.mu.Lock()
	d.leases[lease.VIP] = lease
	d.mu.Unlock()
	d.fire(EventUp, lease)
}

// Release removes the lease for vip, firing an EventDown if one existed.
func (d *MemDirectory) Release(vip netip.Addr) bool {
	d.mu.Lock()
	lease, ok := d.leases[vip]
	if ok {
		delete(d.leases, vip)
	}
	d.mu.Unlock()
	if ok {
		d.fire(EventDown, lease)
	}
	return ok
}

// Len returns the number of current leases.
func (d *MemDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.leases)
}

// Lookup implements Directory.
func (d *MemDirectory) Lookup(vip netip.Addr, fn ListenerFunc) {
	d.mu.Lock()
	matches := make([]Lease, 0, len(d.leases))
	if vip.IsValid() {
		if lease, ok := d.leases[vip]; ok {
			matches = append(matches, lease)
		}
	} else {
		for _, lease := range d.leases {
			matches = append(matches, lease)
		}
	}
	d.mu.Unlock()

	for _, lease := range matches {
		if !fn(EventUp, lease) {
			return
		}
	}
}

// AddListener implements Directory.
func (d *MemDirectory) AddListener(fn ListenerFunc) {
	d.mu.Lock()
	d.listeners = append(d.listeners, &memListener{fn: fn})
	d.mu.Unlock()
}

// fire delivers ev to a snapshot of the listeners. The snapshot is taken
// under the lock, but listeners run outside it so a slow subscriber write
// cannot block Assign/Release on another goroutine.
func (d *MemDirectory) fire(ev Event, lease Lease) {
	d.mu.Lock()
	snapshot := make([]*memListener, len(d.listeners))
	copy(snapshot, d.listeners)
	d.mu.Unlock()

	for _, ml := range snapshot {
		if !ml.fn(ev, lease) {
			d.removeListener(ml)
		}
	}
}

func (d *MemDirectory) removeListener(ml *memListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ml.removed {
		return
	}
	ml.removed = true
	for i, cur := range d.listeners {
		if cur == ml {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}
