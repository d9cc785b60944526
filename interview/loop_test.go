package interview

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		l.Post(func() {
			got = append(got, i)
			if i == 99 {
				close(done)
			}
		})
	}

	go l.Run(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not drain")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, work ran out of order", i, v)
		}
	}
}

func TestLoopSerializesConcurrentPosts(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	counter := 0
	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		go l.Post(func() {
			counter++
			wg.Done()
		})
	}
	wg.Wait()

	done := make(chan int)
	l.Post(func() { done <- counter })
	if got := <-done; got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}
}

func TestLoopAfterFunc(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc never ran")
	}

	stop := l.AfterFunc(time.Hour, func() { t.Error("stopped timer ran") })
	if !stop() {
		t.Error("stop() = false for pending timer")
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	exited := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(exited)
	}()
	cancel()

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
