// Package client speaks the vipsock control protocol. It is the programmatic
// face of the cmd/vipsock tool and the reference peer for the socket server.
package client

import (
	"context"
	"io"
	"net"

	"github.com/pkg/errors"

	"github.com/earlvking/vipsock/internal/proto"
)

// Kind tells apart the record types a server sends.
type Kind int

const (
	// KindEntry answers a lookup or dump.
	KindEntry Kind = iota
	// KindUp is a lease-up notification.
	KindUp
	// KindDown is a lease-down notification.
	KindDown
)

func (k Kind) String() string {
	switch k {
	case KindUp:
		return "up"
	case KindDown:
		return "down"
	default:
		return "entry"
	}
}

// Entry is one decoded server record.
type Entry struct {
	Kind Kind
	// VIP is the virtual IP the record is about.
	VIP string
	// Peer is the remote peer's outer address.
	Peer string
	// ID is the remote peer's identity.
	ID string
	// Name is the configuration name the lease belongs to.
	Name string
}

// Client is one connection to a vipsock control socket.
type Client struct {
	conn *net.UnixConn
}

// Dial connects to the control socket at path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialUnix("unixpacket", nil, &net.UnixAddr{Name: path, Net: "unixpacket"})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to control socket %s", path)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection. Watch calls return once Close runs.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Lookup asks who holds vip. Zero entries means no current lease. The
// session is consumed: reconnect before issuing another call.
func (c *Client) Lookup(vip string) ([]Entry, error) {
	if err := c.send(proto.RequestLookup, vip); err != nil {
		return nil, err
	}
	return c.collect()
}

// Dump fetches one entry per current lease. The session is consumed.
func (c *Client) Dump() ([]Entry, error) {
	if err := c.send(proto.RequestDump, ""); err != nil {
		return nil, err
	}
	return c.collect()
}

// Watch subscribes to lease events and invokes fn for each one until ctx is
// done or the server goes away. With both up and down false it subscribes to
// both directions.
func (c *Client) Watch(ctx context.Context, up, down bool, fn func(Entry)) error {
	if !up && !down {
		up, down = true, true
	}
	if up {
		if err := c.send(proto.RequestRegisterUp, ""); err != nil {
			return err
		}
	}
	if down {
		if err := c.send(proto.RequestRegisterDown, ""); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		entry, err := c.recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		fn(*entry)
	}
}

func (c *Client) send(typ int32, vip string) error {
	rec := proto.EncodeRequest(&proto.Request{Type: typ, VIP: vip})
	if _, err := c.conn.Write(rec); err != nil {
		return errors.Wrap(err, "sending request")
	}
	return nil
}

// collect signals the end of the session and reads entries until the server
// closes. Records queued before the close stay readable on a seqpacket
// socket, so nothing is lost.
func (c *Client) collect() ([]Entry, error) {
	if err := c.send(proto.RequestEnd, ""); err != nil {
		return nil, err
	}
	var entries []Entry
	for {
		entry, err := c.recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, err
		}
		entries = append(entries, *entry)
	}
}

func (c *Client) recv() (*Entry, error) {
	buf := make([]byte, proto.ResponseSize+1)
	n, err := c.conn.Read(buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	resp, err := proto.DecodeResponse(buf[:n])
	if err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	entry := &Entry{
		VIP:  resp.VIP,
		Peer: resp.IP,
		ID:   resp.ID,
		Name: resp.Name,
	}
	switch resp.Type {
	case proto.ResponseNotifyUp:
		entry.Kind = KindUp
	case proto.ResponseNotifyDown:
		entry.Kind = KindDown
	case proto.ResponseEntry:
		entry.Kind = KindEntry
	default:
		return nil, errors.Errorf("unknown response type %d", resp.Type)
	}
	return entry, nil
}
