// Package kernel implements the Neptune OS boot sequence and its process
// table. Every process holds one slot of the table for its lifetime and runs
// its work on a bounded pool of goroutines.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"neptune/internal/config"
	"neptune/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrProcessLimit is returned when the process table is full.
var ErrProcessLimit = errors.New("process limit reached")

// Kernel owns the process table.
type Kernel struct {
	limits config.KernelLimits
	slots  *semaphore.Weighted

	mu    sync.RWMutex
	procs map[uuid.UUID]*Process
}

// New creates a Kernel enforcing limits. Limits below one are raised to one.
func New(limits config.KernelLimits) *Kernel {
	if limits.MaxProcesses < 1 {
		limits.MaxProcesses = 1
	}
	if limits.MaxThreadsPerProcess < 1 {
		limits.MaxThreadsPerProcess = 1
	}
	return &Kernel{
		limits: limits,
		slots:  semaphore.NewWeighted(int64(limits.MaxProcesses)),
		procs:  make(map[uuid.UUID]*Process),
	}
}

// Limits returns the limits the kernel enforces.
func (k *Kernel) Limits() config.KernelLimits {
	return k.limits
}

// Start registers a new process. The caller must call Exit on it.
func (k *Kernel) Start(ctx context.Context, name string) (*Process, error) {
	if !k.slots.TryAcquire(1) {
		logging.Get(logging.CategoryKernel).Warn("process table full",
			zap.String("name", name),
			zap.Int("max_processes", k.limits.MaxProcesses))
		return nil, fmt.Errorf("cannot start %s: %w", name, ErrProcessLimit)
	}

	pctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(pctx)
	g.SetLimit(k.limits.MaxThreadsPerProcess)

	p := &Process{
		ID:      uuid.New(),
		Name:    name,
		Started: time.Now(),
		kernel:  k,
		group:   g,
		ctx:     gctx,
		cancel:  cancel,
	}

	k.mu.Lock()
	k.procs[p.ID] = p
	k.mu.Unlock()

	logging.Get(logging.CategoryKernel).Debug("process started",
		zap.String("pid", p.ID.String()),
		zap.String("name", name))
	return p, nil
}

// Spawn starts a process, runs fn in it, waits for every goroutine fn
// started and exits the process.
func (k *Kernel) Spawn(ctx context.Context, name string, fn func(*Process) error) error {
	p, err := k.Start(ctx, name)
	if err != nil {
		return err
	}
	defer p.Exit()

	err = fn(p)
	if werr := p.Wait(); err == nil {
		err = werr
	}
	return err
}

// Processes lists running processes, oldest first.
func (k *Kernel) Processes() []ProcessInfo {
	k.mu.RLock()
	out := make([]ProcessInfo, 0, len(k.procs))
	for _, p := range k.procs {
		out = append(out, p.Info())
	}
	k.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// Count returns the number of running processes.
func (k *Kernel) Count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.procs)
}

func (k *Kernel) remove(p *Process) {
	k.mu.Lock()
	delete(k.procs, p.ID)
	k.mu.Unlock()
	k.slots.Release(1)

	logging.Get(logging.CategoryKernel).Debug("process exited",
		zap.String("pid", p.ID.String()),
		zap.String("name", p.Name))
}
