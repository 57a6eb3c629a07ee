package vipsock

import (
	"context"
	"runtime"

	"github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"
)

// Requeue is a job's verdict on whether it should run again.
type Requeue int

const (
	// RequeueNone retires the job.
	RequeueNone Requeue = iota
	// RequeueFair asks to run again after yielding to other work.
	RequeueFair
)

// Priority orders jobs when the scheduler is contended.
type Priority int

const (
	// PriorityDefault is for background work.
	PriorityDefault Priority = iota
	// PriorityCritical is for jobs that service external clients; the
	// accept loop runs at this priority.
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	default:
		return "default"
	}
}

// Job is one cooperative unit of work. It must return promptly once ctx is
// done; long blocking calls inside a job need their own unblocking path.
type Job func(ctx context.Context) Requeue

// Scheduler runs recurring jobs. The socket server registers its accept loop
// exactly once; everything else about worker threads is the scheduler's
// business.
type Scheduler interface {
	ScheduleRecurring(job Job, prio Priority)
}

// Pool is a goroutine-backed Scheduler. Each recurring job gets a worker
// goroutine that re-invokes it while it keeps answering RequeueFair.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	grp    *errgroup.Group
	l      log15.Logger
}

// NewPool returns a Pool whose jobs stop when ctx is canceled or Shutdown is
// called.
func NewPool(ctx context.Context, l log15.Logger) *Pool {
	ctx, cancel := context.WithCancel(ctx)
	grp, ctx := errgroup.WithContext(ctx)
	return &Pool{ctx: ctx, cancel: cancel, grp: grp, l: l}
}

// ScheduleRecurring implements Scheduler.
func (p *Pool) ScheduleRecurring(job Job, prio Priority) {
	p.l.Debug("scheduling recurring job", "priority", prio)
	p.grp.Go(func() error {
		for {
			select {
			case <-p.ctx.Done():
				return nil
			default:
			}
			if job(p.ctx) != RequeueFair {
				return nil
			}
			// fair requeue: let other goroutines run between cycles
			runtime.Gosched()
		}
	})
}

// Shutdown cancels all jobs and waits for their current cycle to finish.
func (p *Pool) Shutdown() {
	p.cancel()
	_ = p.grp.Wait()
}
