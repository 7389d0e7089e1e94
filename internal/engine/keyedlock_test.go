package engine

import (
	"sync"
	"testing"
)

func TestKeyedLockSerializesSameKey(t *testing.T) {
	k := newKeyedLock()

	const workers = 50
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.lock(1)
			counter++ // data race here if the lock is broken
			k.unlock(1)
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("expected %d increments, got %d", workers, counter)
	}
	if len(k.entries) != 0 {
		t.Fatalf("expected entries to be reclaimed, %d left", len(k.entries))
	}
}

func TestKeyedLockIndependentKeys(t *testing.T) {
	k := newKeyedLock()
	k.lock(1)

	done := make(chan struct{})
	go func() {
		k.lock(2) // must not block on key 1
		k.unlock(2)
		close(done)
	}()

	<-done
	k.unlock(1)
}
