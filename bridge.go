package vipsock

import (
	"net"

	"github.com/earlvking/vipsock/internal/proto"
)

// entryKind is the tagged variant distinguishing the three client entry
// shapes: transient lookup targets and the two persistent subscriptions.
type entryKind int

const (
	kindLookupResult entryKind = iota
	kindNotifyUp
	kindNotifyDown
)

func (k entryKind) String() string {
	switch k {
	case kindNotifyUp:
		return "notify-up"
	case kindNotifyDown:
		return "notify-down"
	default:
		return "lookup-result"
	}
}

// wants reports whether an entry of this kind should see ev. Lookup-result
// entries see everything; the synthetic EventUp used for queries is never
// filtered for them.
func (k entryKind) wants(ev Event) bool {
	switch k {
	case kindNotifyUp:
		return ev == EventUp
	case kindNotifyDown:
		return ev == EventDown
	default:
		return true
	}
}

func (k entryKind) responseType() int32 {
	switch k {
	case kindNotifyUp:
		return proto.ResponseNotifyUp
	case kindNotifyDown:
		return proto.ResponseNotifyDown
	default:
		return proto.ResponseEntry
	}
}

// subscriber is one client entry. A transient entry (owner == nil) borrows
// the connection handler's descriptor for the duration of a single query. A
// persistent entry owns its descriptor from the moment it is inserted into
// the registry until it is removed, and is the one that closes it.
type subscriber struct {
	// id correlates log lines about this subscription.
	id    string
	kind  entryKind
	conn  net.Conn
	owner *registry
}

// deliver is the bridge between a directory event and one client entry. The
// return value tells the directory whether to keep the callback registered.
//
// A write of anything less than the full record drops the client; partial
// writes are not retried.
func (s *Socket) deliver(e *subscriber, ev Event, lease Lease) bool {
	if !e.kind.wants(ev) {
		return true
	}

	rec := proto.EncodeResponse(&proto.Response{
		Type: e.kind.responseType(),
		VIP:  lease.VIP.String(),
		IP:   lease.Peer.String(),
		ID:   lease.ID,
		Name: lease.Name,
	})

	n, err := e.conn.Write(rec)
	switch {
	case err == nil && n == len(rec):
		return true
	case err == nil && n == 0:
		// client disconnected
	default:
		s.l.Debug("sending response failed", "subscriber", e.id, "kind", e.kind, "err", err)
	}

	if e.owner != nil {
		// unregister; whoever wins the removal closes the descriptor
		if e.owner.remove(e) {
			e.conn.Close()
			s.l.Debug("dropped subscriber", "subscriber", e.id, "kind", e.kind)
		}
	}
	return false
}
