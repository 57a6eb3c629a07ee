// Package proto defines the fixed-layout binary messages exchanged over the
// vipsock control socket, and the functions for encoding and decoding them.
//
// The transport is a sequenced-packet unix socket, so message boundaries are
// preserved by the kernel and no length prefix is needed. Every request is
// exactly RequestSize bytes and every response exactly ResponseSize bytes; a
// received record of any other length is a protocol error, not a partial
// read.
//
// String fields occupy fixed-width buffers. Encoding truncates values to the
// buffer width minus one and NUL-terminates them; decoding stops at the first
// NUL. Integers are big-endian. The protocol is closed: the only intended
// peers are this package's server and client.
package proto
