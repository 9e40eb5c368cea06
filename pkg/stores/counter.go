package stores

import (
	"context"

	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

// DefaultMessage is the counter's initial message.
const DefaultMessage = "Hello from statekit!"

// CountStatus classifies the sign of the count.
type CountStatus string

// Count statuses.
const (
	StatusZero     CountStatus = "zero"
	StatusPositive CountStatus = "positive"
	StatusNegative CountStatus = "negative"
)

// CounterStore holds a count, a message and the history of counts.
type CounterStore struct {
	*store.Base

	count   *reactive.Signal[int]
	message *reactive.Signal[string]
	history *reactive.SliceSignal[int]

	doubleCount   *reactive.Memo[int]
	countStatus   *reactive.Memo[CountStatus]
	historyCount  *reactive.Memo[int]
	isGreaterThan *reactive.Memo[func(int) bool]
}

// Counter is the counter store definition.
var Counter = store.Define("counter", newCounter)

func newCounter(s *store.Scope) *CounterStore {
	c := &CounterStore{
		Base:    store.NewBase(s),
		count:   reactive.NewSignal(0),
		message: reactive.NewSignal(DefaultMessage),
		history: reactive.NewSliceSignal[int](nil),
	}

	c.doubleCount = reactive.NewMemo(func() int {
		return c.count.Get() * 2
	}, c.count)

	c.countStatus = reactive.NewMemo(func() CountStatus {
		n := c.count.Get()
		switch {
		case n == 0:
			return StatusZero
		case n > 0:
			return StatusPositive
		default:
			return StatusNegative
		}
	}, c.count)

	c.historyCount = reactive.NewMemo(func() int {
		return c.history.Len()
	}, c.history)

	c.isGreaterThan = reactive.NewMemo(func() func(int) bool {
		return func(threshold int) bool {
			return c.count.Get() > threshold
		}
	}, c.count)

	c.Handle("increment", store.NoPayload(c.Increment))
	c.Handle("decrement", store.NoPayload(c.Decrement))
	c.Handle("incrementBy", store.Payload(func(_ context.Context, p struct {
		Amount int `json:"amount"`
	}) error {
		c.IncrementBy(p.Amount)
		return nil
	}))
	c.Handle("reset", store.NoPayload(c.Reset))
	c.Handle("setMessage", store.Payload(func(_ context.Context, p struct {
		Message string `json:"message"`
	}) error {
		c.SetMessage(p.Message)
		return nil
	}))

	return c
}

// Count returns the current count.
func (c *CounterStore) Count() int { return c.count.Get() }

// CountSource is the count signal, for stores that derive from it.
func (c *CounterStore) CountSource() reactive.Source { return c.count }

// Message returns the message.
func (c *CounterStore) Message() string { return c.message.Get() }

// History returns every count reached since the last reset.
func (c *CounterStore) History() []int { return c.history.Items() }

// DoubleCount returns count * 2.
func (c *CounterStore) DoubleCount() int { return c.doubleCount.Get() }

// CountStatus returns the sign of the count.
func (c *CounterStore) CountStatus() CountStatus { return c.countStatus.Get() }

// HistoryCount returns the number of history entries.
func (c *CounterStore) HistoryCount() int { return c.historyCount.Get() }

// IsGreaterThan reports whether count > threshold. It is evaluated on
// every call.
func (c *CounterStore) IsGreaterThan(threshold int) bool {
	return c.isGreaterThan.Get()(threshold)
}

// Increment adds one.
func (c *CounterStore) Increment() {
	c.Do("increment", func() { c.add(1) })
}

// Decrement subtracts one.
func (c *CounterStore) Decrement() {
	c.Do("decrement", func() { c.add(-1) })
}

// IncrementBy adds amount, which may be negative.
func (c *CounterStore) IncrementBy(amount int) {
	c.Do("incrementBy", func() { c.add(amount) })
}

// Reset zeroes the count and clears the history.
func (c *CounterStore) Reset() {
	c.Do("reset", func() {
		c.count.Set(0)
		c.history.Clear()
	})
}

// SetMessage replaces the message.
func (c *CounterStore) SetMessage(message string) {
	c.Do("setMessage", func() { c.message.Set(message) })
}

func (c *CounterStore) add(delta int) {
	c.count.Update(func(n int) int { return n + delta })
	c.history.Append(c.count.Peek())
}

// CounterSnapshot is the counter state as reported by Snapshot.
type CounterSnapshot struct {
	Count        int         `json:"count"`
	Message      string      `json:"message"`
	History      []int       `json:"history"`
	DoubleCount  int         `json:"doubleCount"`
	CountStatus  CountStatus `json:"countStatus"`
	HistoryCount int         `json:"historyCount"`
}

// Snapshot implements store.Snapshotter.
func (c *CounterStore) Snapshot() any {
	var snap CounterSnapshot
	c.Read(func() {
		snap = CounterSnapshot{
			Count:        c.count.Get(),
			Message:      c.message.Get(),
			History:      c.history.Items(),
			DoubleCount:  c.doubleCount.Get(),
			CountStatus:  c.countStatus.Get(),
			HistoryCount: c.historyCount.Get(),
		}
	})
	return snap
}
