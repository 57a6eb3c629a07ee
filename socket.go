package vipsock

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"k8s.io/utils/clock"
)

// defaultBacklog bounds the listen queue of the control socket.
const defaultBacklog = 10

// acceptBackoff is how long the accept job sleeps after a failed accept
// before asking to be requeued.
const acceptBackoff = 100 * time.Millisecond

// Socket is the control-socket service. It owns the listening socket, the
// accept job and the subscription registry; the lease table itself stays
// with the Directory.
type Socket struct {
	path    string
	backlog int

	dir   Directory
	reg   *registry
	caps  Capabilities
	sched Scheduler
	clock clock.Clock

	ln   net.Listener
	lock *flock.Flock

	// pool is set only when no external Scheduler was supplied.
	pool *Pool

	cancel    context.CancelFunc
	closeOnce sync.Once

	l log15.Logger
}

// Option configures a Socket.
// See Rob Pike's post on the topic for more information on this pattern:
// https://commandcenter.blogspot.com/2014/01/self-referential-functions-and-design.html
type Option func(s *Socket)

// WithLogger configures the logger to use for socket operations.
// By default, nothing will be logged.
func WithLogger(l log15.Logger) Option {
	return func(s *Socket) {
		s.l = l
	}
}

// WithCapabilities configures the provider of the uid/gid that should own
// the socket path. The default is the current process identity.
func WithCapabilities(caps Capabilities) Option {
	return func(s *Socket) {
		s.caps = caps
	}
}

// WithScheduler runs the accept loop on an external scheduler instead of an
// internally owned Pool. The scheduler must pass a context that it cancels
// at shutdown.
func WithScheduler(sched Scheduler) Option {
	return func(s *Socket) {
		s.sched = sched
	}
}

// WithBacklog overrides the listen backlog. Values below 1 keep the default.
func WithBacklog(n int) Option {
	return func(s *Socket) {
		if n > 0 {
			s.backlog = n
		}
	}
}

// New binds the control socket at path and starts accepting clients. The
// directory supplies lease data and events. Canceling ctx stops the service
// from accepting, but callers must still Close the returned Socket to
// release the path and the subscribers.
//
// A failure anywhere during startup returns an error with nothing left
// half-started.
func New(ctx context.Context, path string, dir Directory, opts ...Option) (*Socket, error) {
	if dir == nil {
		return nil, errors.New("vipsock requires a lease directory")
	}

	noopLogger := log15.New()
	noopLogger.SetHandler(log15.DiscardHandler())
	s := &Socket{
		path:    path,
		backlog: defaultBacklog,
		dir:     dir,
		reg:     newRegistry(),
		caps:    processCaps{},
		clock:   clock.RealClock{},
		l:       noopLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	// a lock beside the socket path keeps a second instance from unlinking
	// a live socket out from under us
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "can't lock %s", lock.Path())
	}
	if !locked {
		return nil, errors.Errorf("control socket %s is held by another process", path)
	}
	s.lock = lock

	if err := s.open(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	s.l.Info("control socket listening", "path", path)

	ctx, s.cancel = context.WithCancel(ctx)
	// unblock an accept already in flight on shutdown
	context.AfterFunc(ctx, func() { s.ln.Close() })
	if s.sched == nil {
		s.pool = NewPool(ctx, s.l)
		s.sched = s.pool
	}
	s.sched.ScheduleRecurring(s.receive, PriorityCritical)

	return s, nil
}

// open creates, binds and starts listening on the sequenced-packet socket.
// The raw syscalls are deliberate: the umask dance and the bounded backlog
// around bind/listen aren't reachable through net.ListenUnix.
func (s *Socket) open() error {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return errors.Wrap(err, "creating control socket")
	}

	if err := unlinkUnixSocket(s.path); err != nil {
		unix.Close(fd)
		return errors.Wrapf(err, "removing stale socket %s", s.path)
	}

	// restrict the path to owner and group before it becomes visible
	old := unix.Umask(^(unix.S_IRWXU | unix.S_IRWXG) & 0777)
	err = unix.Bind(fd, &unix.SockaddrUnix{Name: s.path})
	unix.Umask(old)
	if err != nil {
		unix.Close(fd)
		return errors.Wrapf(err, "binding control socket to %s", s.path)
	}

	if err := os.Chown(s.path, s.caps.UID(), s.caps.GID()); err != nil {
		s.l.Warn("changing control socket ownership failed", "path", s.path, "err", err)
	}

	if err := unix.Listen(fd, s.backlog); err != nil {
		unix.Close(fd)
		os.Remove(s.path)
		return errors.Wrapf(err, "listening on control socket %s", s.path)
	}

	f := os.NewFile(uintptr(fd), s.path)
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		os.Remove(s.path)
		return errors.Wrap(err, "adopting control socket fd")
	}
	s.ln = ln
	return nil
}

// Close tears the service down: it stops the accept job, releases the
// listening socket and its path, and closes every remaining subscriber
// descriptor. Safe to call more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		if cErr := s.ln.Close(); cErr != nil && !errors.Is(cErr, net.ErrClosed) {
			err = cErr
		}
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.l.Warn("removing control socket path failed", "path", s.path, "err", rmErr)
		}
		for _, sub := range s.reg.drain() {
			sub.conn.Close()
		}
		if s.pool != nil {
			s.pool.Shutdown()
		}
		if unlockErr := s.lock.Unlock(); unlockErr != nil {
			s.l.Warn("releasing control socket lock failed", "path", s.lock.Path(), "err", unlockErr)
		}
		s.l.Info("control socket closed", "path", s.path)
	})
	return err
}

// unlinkUnixSocket removes path if it currently is a unix socket. A missing
// path is fine; anything else at the path is left alone so bind can fail
// loudly instead of clobbering a foreign file.
func unlinkUnixSocket(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return nil
	}
	return os.Remove(path)
}
