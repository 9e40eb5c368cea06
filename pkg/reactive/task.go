package reactive

import (
	"context"
	"sync/atomic"
	"time"
)

// Task is a callback scheduled on an Owner.
// A task fires at most once. Stopping it, or disposing its owner before it
// fires, guarantees the callback never runs.
type Task struct {
	id      uint64
	due     time.Time
	timer   *time.Timer
	stopped atomic.Bool
	fired   atomic.Bool
}

// ID returns the unique identifier for this task.
func (t *Task) ID() uint64 {
	return t.id
}

// Due returns when the task is scheduled to fire.
func (t *Task) Due() time.Time {
	return t.due
}

// Stop cancels the task. It reports whether the call prevented the
// callback from running.
func (t *Task) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	return !t.fired.Load()
}

// Fired reports whether the callback has started running.
func (t *Task) Fired() bool {
	return t.fired.Load()
}

// After schedules fn to run once after d on a timer goroutine.
// The task is bound to the owner: disposing the owner stops it.
// On a disposed owner, After returns a stopped task and fn never runs.
func (o *Owner) After(d time.Duration, fn func()) *Task {
	t := &Task{
		id:  nextID(),
		due: time.Now().Add(d),
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed.Load() {
		t.stopped.Store(true)
		return t
	}

	o.tasks[t.id] = t
	t.timer = time.AfterFunc(d, func() {
		o.mu.Lock()
		delete(o.tasks, t.id)
		o.mu.Unlock()

		if t.stopped.Load() || o.disposed.Load() {
			return
		}
		t.fired.Store(true)
		fn()
	})
	return t
}

// PendingTasks returns the number of scheduled tasks that have not fired.
func (o *Owner) PendingTasks() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tasks)
}

// Sleep blocks for d, or until ctx is done or the owner is disposed.
// It returns ctx.Err() or ErrOwnerDisposed when interrupted.
func (o *Owner) Sleep(ctx context.Context, d time.Duration) error {
	if o.disposed.Load() {
		return ErrOwnerDisposed
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-o.ctx.Done():
		return ErrOwnerDisposed
	}
}
