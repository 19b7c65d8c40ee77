package queuestate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Poller runs fn immediately and then on every tick. A tick is skipped while
// the previous invocation is still running.
type Poller struct {
	interval time.Duration
	fn       func(context.Context)

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	inflight atomic.Bool
	runs     sync.WaitGroup
}

func NewPoller(interval time.Duration, fn func(context.Context)) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{interval: interval, fn: fn}
}

// Start is a no-op when the poller is already running.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(ctx, p.done)
}

// Stop cancels the loop and waits for it and any in-flight run to return.
// It is safe to call more than once and on a poller that never started.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.runs.Wait()
	p.cancel = nil
	p.done = nil
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.tick(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if !p.inflight.CompareAndSwap(false, true) {
		return
	}
	p.runs.Add(1)
	go func() {
		defer p.runs.Done()
		defer p.inflight.Store(false)
		p.fn(ctx)
	}()
}
