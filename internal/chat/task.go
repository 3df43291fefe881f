package chat

import (
	"context"
	"sync"
	"time"
)

// PeriodicTask runs fn on its own goroutine once per interval until stopped.
// Ticks never overlap: a tick that fires while fn is still running is dropped.
type PeriodicTask struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func StartPeriodicTask(parent context.Context, interval time.Duration, fn func(ctx context.Context)) *PeriodicTask {
	ctx, cancel := context.WithCancel(parent)
	t := &PeriodicTask{cancel: cancel, done: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer close(t.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return t
}

// Stop cancels the task and waits until fn has returned. It is idempotent and
// must not be called from inside fn.
func (t *PeriodicTask) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(t.cancel)
	<-t.done
}

// Done is closed once the task goroutine has exited.
func (t *PeriodicTask) Done() <-chan struct{} {
	return t.done
}
