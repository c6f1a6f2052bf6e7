package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProcessInfo is a snapshot of a process table entry.
type ProcessInfo struct {
	ID      uuid.UUID
	Name    string
	Started time.Time
	Threads int
}

// Process is one entry of the process table.
type Process struct {
	ID      uuid.UUID
	Name    string
	Started time.Time

	kernel  *Kernel
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	threads atomic.Int32
	exit    sync.Once
}

// Context is cancelled when the process exits, when one of its threads fails
// and once Wait has returned.
func (p *Process) Context() context.Context {
	return p.ctx
}

// Go runs fn on a new thread of the process, blocking while the process
// already runs max-threads-per-process threads. The first error cancels
// Context.
func (p *Process) Go(fn func(ctx context.Context) error) {
	p.group.Go(func() error {
		p.threads.Add(1)
		defer p.threads.Add(-1)
		return fn(p.ctx)
	})
}

// TryGo is Go without blocking. It reports whether a thread was started.
func (p *Process) TryGo(fn func(ctx context.Context) error) bool {
	return p.group.TryGo(func() error {
		p.threads.Add(1)
		defer p.threads.Add(-1)
		return fn(p.ctx)
	})
}

// Wait blocks until every thread has returned and reports the first error.
func (p *Process) Wait() error {
	return p.group.Wait()
}

// Exit cancels the process, waits for its threads and frees its slot.
// Exit is idempotent.
func (p *Process) Exit() {
	p.exit.Do(func() {
		p.cancel()
		_ = p.group.Wait()
		p.kernel.remove(p)
	})
}

// Info returns a snapshot of the process.
func (p *Process) Info() ProcessInfo {
	return ProcessInfo{
		ID:      p.ID,
		Name:    p.Name,
		Started: p.Started,
		Threads: int(p.threads.Load()),
	}
}
