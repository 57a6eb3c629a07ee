// Package vipsock exposes a daemon's live table of peer-to-virtual-IP leases
// over a local control socket.
//
// The socket is a sequenced-packet unix socket at a well-known path. Clients
// send fixed-size binary requests to look up the holder of one virtual IP,
// dump the whole table, or subscribe to lease up/down notifications. The
// lease table itself belongs to an external Directory; vipsock only bridges
// between it and connected clients.
//
// Subscriptions are best-effort. A subscriber that fails a write is dropped
// immediately, not retried, and a client subscribing while an event is
// already in flight may miss that event. There is no authentication beyond
// filesystem permissions on the socket path, and nothing is persisted: the
// registry is gone when the process is.
//
// The accept loop runs as a recurring job, either on an internally owned
// Pool or on a scheduler supplied by the embedding daemon. Event delivery
// happens synchronously on whatever goroutine the Directory fires from.
package vipsock
