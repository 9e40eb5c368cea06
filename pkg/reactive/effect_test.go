package reactive

import (
	"testing"
)

func TestEffectRunsImmediately(t *testing.T) {
	count := NewSignal(0)
	runs := 0
	NewEffect(nil, func() Cleanup {
		runs++
		_ = count.Get()
		return nil
	}, count)

	if runs != 1 {
		t.Errorf("expected effect to run once on creation, got %d", runs)
	}
}

func TestEffectWithoutOwnerRunsSynchronously(t *testing.T) {
	count := NewSignal(0)
	var seen []int
	NewEffect(nil, func() Cleanup {
		seen = append(seen, count.Get())
		return nil
	}, count)

	count.Set(1)
	count.Set(2)

	if len(seen) != 3 || seen[2] != 2 {
		t.Errorf("expected [0 1 2], got %v", seen)
	}
}

func TestEffectDeferredUntilFlush(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	a := NewSignal(0)
	b := NewSignal(0)
	var seen [][2]int
	NewEffect(owner, func() Cleanup {
		seen = append(seen, [2]int{a.Get(), b.Get()})
		return nil
	}, a, b)

	a.Set(1)
	b.Set(1)
	if len(seen) != 1 {
		t.Fatalf("effect ran before flush: %v", seen)
	}
	if !owner.HasPendingEffects() {
		t.Fatal("expected pending effect")
	}

	owner.Flush()
	if len(seen) != 2 {
		t.Fatalf("expected exactly one re-run, got %v", seen)
	}
	if seen[1] != [2]int{1, 1} {
		t.Errorf("effect observed partial state: %v", seen[1])
	}
	if owner.HasPendingEffects() {
		t.Error("no effects should be pending after Flush")
	}
}

func TestEffectCleanup(t *testing.T) {
	owner := NewOwner(nil)
	count := NewSignal(0)
	cleanups := 0
	NewEffect(owner, func() Cleanup {
		_ = count.Get()
		return func() { cleanups++ }
	}, count)

	count.Set(1)
	owner.Flush()
	if cleanups != 1 {
		t.Errorf("expected cleanup before re-run, got %d", cleanups)
	}

	owner.Dispose()
	if cleanups != 2 {
		t.Errorf("expected cleanup on dispose, got %d", cleanups)
	}

	count.Set(2)
	owner.Flush()
	if cleanups != 2 {
		t.Errorf("disposed effect should not run, cleanups=%d", cleanups)
	}
}

func TestEffectOnDisposedOwnerNeverRuns(t *testing.T) {
	owner := NewOwner(nil)
	owner.Dispose()

	runs := 0
	e := NewEffect(owner, func() Cleanup {
		runs++
		return nil
	})
	if runs != 0 {
		t.Errorf("effect on disposed owner ran %d times", runs)
	}
	e.MarkDirty()
	if e.Pending() {
		t.Error("disposed effect should not be pending")
	}
}

func TestEffectCascadeSettlesInOneFlush(t *testing.T) {
	owner := NewOwner(nil)
	defer owner.Dispose()

	source := NewSignal(0)
	mirror := NewSignal(0)
	var last int

	NewEffect(owner, func() Cleanup {
		mirror.Set(source.Get() * 10)
		return nil
	}, source)
	NewEffect(owner, func() Cleanup {
		last = mirror.Get()
		return nil
	}, mirror)

	source.Set(3)
	owner.Flush()
	if last != 30 {
		t.Errorf("expected cascade to settle at 30, got %d", last)
	}
}
