package service

import (
	"sync"
)

// Future holds the result of a query running off the simulation goroutine.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func (f *Future[T]) resolve(v T, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

// Ready reports whether the query finished. Never blocks.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the query finished. Only tests and shutdown should call it.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Executor runs a query body. The default starts a goroutine.
type Executor func(fn func())

func goExecutor(fn func()) { go fn() }

// SyncExecutor runs the query inline; the callback still waits for a drain.
func SyncExecutor(fn func()) { fn() }

type pending struct {
	ready func() bool
	run   func()
}

// QueryPump queues async query callbacks until an explicit drain point.
// Callbacks never run inside Submit.
type QueryPump struct {
	mu    sync.Mutex
	queue []pending
	exec  Executor
}

func NewQueryPump(exec Executor) *QueryPump {
	if exec == nil {
		exec = goExecutor
	}
	return &QueryPump{exec: exec}
}

// Submit starts query and schedules cb for the first drain after it finishes.
func Submit[T any](p *QueryPump, query func() (T, error), cb func(T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.mu.Lock()
	p.queue = append(p.queue, pending{
		ready: f.Ready,
		run: func() {
			v, err := f.Wait()
			cb(v, err)
		},
	})
	p.mu.Unlock()

	p.exec(func() {
		v, err := query()
		f.resolve(v, err)
	})
	return f
}

// ProcessReady runs the callbacks of finished queries in submit order and
// keeps the rest queued. Returns how many ran.
func (p *QueryPump) ProcessReady() int {
	p.mu.Lock()
	var ready []pending
	kept := p.queue[:0]
	for _, q := range p.queue {
		if q.ready() {
			ready = append(ready, q)
		} else {
			kept = append(kept, q)
		}
	}
	p.queue = kept
	p.mu.Unlock()

	for _, q := range ready {
		q.run()
	}
	return len(ready)
}

func (p *QueryPump) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
