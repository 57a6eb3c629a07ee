package vipsock

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"

	"github.com/google/uuid"

	"github.com/earlvking/vipsock/internal/proto"
)

// receive is the recurring accept job: accept at most one connection,
// service its requests, hand control back to the scheduler.
func (s *Socket) receive(ctx context.Context) Requeue {
	conn, err := s.ln.Accept()
	if err != nil {
		if ctx.Err() != nil || isClosed(err) {
			return RequeueNone
		}
		s.l.Debug("accepting connection failed", "err", err)
		// back off so a persistent accept failure cannot spin the worker
		select {
		case <-s.clock.After(acceptBackoff):
		case <-ctx.Done():
			return RequeueNone
		}
		return RequeueFair
	}
	s.serveConn(ctx, conn)
	return RequeueFair
}

// serveConn drives the per-connection request loop. The descriptor belongs
// to this function until a subscription claims it; after that, closing it is
// the subscriber entry's job.
func (s *Socket) serveConn(ctx context.Context, conn net.Conn) {
	// unblock the read below on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	subscribed := false
	defer func() {
		if !subscribed {
			conn.Close()
		}
	}()

	// one byte larger than a request so oversized packets show up as a
	// length mismatch instead of silent truncation
	buf := make([]byte, proto.RequestSize+1)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil && !isClosed(err) {
				s.l.Debug("receiving request failed", "err", err)
			}
			return
		}
		if n != proto.RequestSize {
			if n != 0 {
				s.l.Debug("discarding malformed request", "len", n)
			}
			return
		}
		req, err := proto.DecodeRequest(buf[:n])
		if err != nil {
			s.l.Debug("decoding request failed", "err", err)
			return
		}

		switch req.Type {
		case proto.RequestLookup:
			vip, err := netip.ParseAddr(req.VIP)
			if err != nil {
				s.l.Debug("ignoring lookup for unparseable address", "vip", req.VIP)
				continue
			}
			s.query(conn, vip)
		case proto.RequestDump:
			s.query(conn, netip.Addr{})
		case proto.RequestRegisterUp:
			s.subscribe(conn, kindNotifyUp)
			subscribed = true
		case proto.RequestRegisterDown:
			s.subscribe(conn, kindNotifyDown)
			subscribed = true
		case proto.RequestEnd:
			return
		default:
			s.l.Debug("received unknown command", "type", req.Type)
			return
		}
	}
}

// query runs a single-address or full-table lookup against the directory,
// using a transient entry as the per-result target. A zero vip dumps the
// whole table.
func (s *Socket) query(conn net.Conn, vip netip.Addr) {
	e := &subscriber{kind: kindLookupResult, conn: conn}
	s.dir.Lookup(vip, func(ev Event, lease Lease) bool {
		return s.deliver(e, ev, lease)
	})
}

// subscribe moves ownership of conn into a persistent entry, registers it
// and signs it up for future directory events.
func (s *Socket) subscribe(conn net.Conn, kind entryKind) {
	e := &subscriber{
		id:    uuid.NewString(),
		kind:  kind,
		conn:  conn,
		owner: s.reg,
	}
	s.reg.insert(e)
	s.dir.AddListener(func(ev Event, lease Lease) bool {
		return s.deliver(e, ev, lease)
	})
	s.l.Debug("registered subscriber", "subscriber", e.id, "kind", kind)
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
