package locks

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	const workers = 16

	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "learner-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("critical section held by %d goroutines at once", maxInCritical)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()

	releaseA, err := m.Acquire(context.Background(), "learner-a")
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer releaseA()

	// A held lock on another key must not block this one.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := m.Acquire(ctx, "learner-b")
	if err != nil {
		t.Fatalf("acquire b blocked by unrelated key: %v", err)
	}
	releaseB()
}

func TestKeyedMutexAcquireHonorsContext(t *testing.T) {
	m := NewKeyedMutex()

	release, err := m.Acquire(context.Background(), "learner-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Acquire(ctx, "learner-1"); err == nil {
		t.Fatalf("expected context error while key is held")
	}

	release()

	// Key is free again after release.
	release2, err := m.Acquire(context.Background(), "learner-1")
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}

func TestKeyedMutexReleaseIsIdempotent(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Acquire(context.Background(), "learner-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release() // second call must be a no-op, not a double unlock

	release2, err := m.Acquire(context.Background(), "learner-1")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	release2()
}
