package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DeviceGate serializes use of the single shared accelerator. Waiters are
// admitted in FIFO order.
type DeviceGate struct {
	sem      *semaphore.Weighted
	maxWait  time.Duration
	inflight atomic.Int32
	waiting  atomic.Int32
}

// NewDeviceGate returns a gate of capacity one. A positive maxWait bounds how
// long Acquire blocks before giving up with a too-busy error.
func NewDeviceGate(maxWait time.Duration) *DeviceGate {
	return &DeviceGate{sem: semaphore.NewWeighted(1), maxWait: maxWait}
}

// Acquire blocks until the gate is free, ctx is done, or the wait limit
// elapses. The returned release func is idempotent.
func (g *DeviceGate) Acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	waitCtx := ctx
	if g.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.maxWait)
		defer cancel()
	}

	g.waiting.Add(1)
	gateWaiting.Inc()
	start := time.Now()
	err := g.sem.Acquire(waitCtx, 1)
	gateWaitSeconds.Observe(time.Since(start).Seconds())
	g.waiting.Add(-1)
	gateWaiting.Dec()
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return func() {}, cerr
		}
		return func() {}, tooBusyError{id: "accelerator"}
	}

	g.inflight.Add(1)
	gateHolders.Inc()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.inflight.Add(-1)
			gateHolders.Dec()
			g.sem.Release(1)
		})
	}, nil
}

// Inflight is the number of current holders (0 or 1).
func (g *DeviceGate) Inflight() int { return int(g.inflight.Load()) }

// Waiting is the number of callers blocked in Acquire.
func (g *DeviceGate) Waiting() int { return int(g.waiting.Load()) }
