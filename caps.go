package vipsock

import "os"

// Capabilities supplies the identity that should own the socket path. The
// daemon's capability manager typically knows the uid/gid it will drop to;
// the socket must be chowned to that identity before privileges go away.
type Capabilities interface {
	UID() int
	GID() int
}

// processCaps is the default Capabilities: the current process identity.
type processCaps struct{}

func (processCaps) UID() int { return os.Getuid() }

func (processCaps) GID() int { return os.Getgid() }
