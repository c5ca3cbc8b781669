package broker

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeAndNotify(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("u1")
	defer cancel()

	b.Notify("u1")

	select {
	case <-ch:
		// success
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected signal on channel")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("u1")
	cancel()

	b.Notify("u1")

	select {
	case <-ch:
		t.Fatal("should not receive after cancel")
	case <-time.After(50 * time.Millisecond):
		// success
	}
}

func TestCrossUserIsolation(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe("u1")
	ch2, cancel2 := b.Subscribe("u2")
	defer cancel1()
	defer cancel2()

	b.Notify("u1")

	select {
	case <-ch1:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("u1 subscriber should have received signal")
	}

	select {
	case <-ch2:
		t.Fatal("u2 subscriber should not receive signal from u1 notify")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}

func TestNonBlockingCoalescing(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("u1")
	defer cancel()

	// Notify multiple times without reading — should not block
	for i := 0; i < 10; i++ {
		b.Notify("u1")
	}

	// Should receive exactly one signal (coalesced)
	select {
	case <-ch:
		// got the coalesced signal
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected at least one signal")
	}

	// Channel should now be empty
	select {
	case <-ch:
		t.Fatal("expected channel to be drained after one read")
	case <-time.After(50 * time.Millisecond):
		// success
	}
}

func TestCancelCleansUpEmptyUser(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe("u1")
	cancel()

	b.mu.Lock()
	_, exists := b.subs["u1"]
	b.mu.Unlock()

	if exists {
		t.Fatal("expected user entry to be removed after last cancel")
	}
}

func TestNotifyNonexistentUser(t *testing.T) {
	b := New()
	// Should not panic
	b.Notify("nonexistent")
}

func TestConcurrentAccess(t *testing.T) {
	b := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := b.Subscribe("u1")
			b.Notify("u1")
			<-ch
			cancel()
		}()
	}

	wg.Wait()
}
