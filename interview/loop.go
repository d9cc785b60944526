package interview

import (
	"context"
	"sync"
	"time"
)

// Executor runs controller work on a single logical thread.
type Executor interface {
	// Post queues fn to run on the controller thread.
	Post(fn func())
	// AfterFunc posts fn once d has elapsed. stop reports whether it
	// prevented fn from being queued.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
	// Go runs blocking work off the controller thread. fn delivers its
	// result with Post.
	Go(fn func())
}

// Loop is an unbounded FIFO drained by Run. Post never blocks, so event
// sources cannot stall on a busy controller.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

func NewLoop() *Loop {
	return &Loop{signal: make(chan struct{}, 1)}
}

func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return t.Stop
}

func (l *Loop) Go(fn func()) {
	go fn()
}

// Run executes queued work until ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
			if ctx.Err() != nil {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-l.signal:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}
