// Package reactive provides the observable state core used by statekit stores.
//
// Dependencies are declared explicitly: a Memo or Effect names the sources
// it reads when it is created, instead of discovering them at runtime.
//
// # Core Types
//
// Signal[T] is an observable value container:
//
//	count := reactive.NewSignal(0)
//	value := count.Get()
//	count.Set(5)
//	count.Update(func(n int) int { return n + 1 })
//
// Memo[T] is a cached derived value:
//
//	doubled := reactive.NewMemo(func() int { return count.Get() * 2 }, count)
//	value := doubled.Get() // recomputes only after count changed
//
// Effect runs a side effect after its sources change:
//
//	reactive.NewEffect(owner, func() reactive.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	}, count)
//
// Effect re-runs are queued on their Owner and executed by Owner.Flush, so
// a group of writes is observed as a whole.
//
// # Lifetimes
//
// An Owner scopes effects, cleanups and scheduled tasks. Disposing the owner
// cancels its context, stops pending tasks and disposes its effects.
//
// # Thread Safety
//
// All primitives are safe for concurrent use. Writes notify subscribers
// synchronously on the writing goroutine.
package reactive
