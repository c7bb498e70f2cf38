package bus

import (
	"sync"
	"testing"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	b := New()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		b.Subscribe("sig", func(any) {
			got = append(got, i)
		})
	}

	b.Publish("sig", nil)

	if len(got) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("delivery %d: expected handler %d, got %d", i, i, v)
		}
	}
}

func TestPublishPassesPayload(t *testing.T) {
	b := New()

	var got any
	b.Subscribe("sig", func(payload any) {
		got = payload
	})

	b.Publish("sig", "hello")

	if got != "hello" {
		t.Errorf("expected payload %q, got %v", "hello", got)
	}
}

func TestPublishUnknownSignalIsNoop(t *testing.T) {
	b := New()
	// Must not panic or block.
	b.Publish("nobody-listens", 42)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	b := New()

	var after bool
	b.Subscribe("sig", func(any) {
		panic("boom")
	})
	b.Subscribe("sig", func(any) {
		after = true
	})

	b.Publish("sig", nil)

	if !after {
		t.Error("handler after the panicking one did not run")
	}
}

func TestPanicIsLogged(t *testing.T) {
	b := New()
	logger := &captureLogger{}
	b.SetLogger(logger)

	b.Subscribe("sig", func(any) {
		panic("boom")
	})
	b.Publish("sig", nil)

	if logger.count() != 1 {
		t.Errorf("expected 1 logged panic, got %d", logger.count())
	}
}

func TestReentrantPublish(t *testing.T) {
	b := New()

	var inner bool
	b.Subscribe("inner", func(any) {
		inner = true
	})
	b.Subscribe("outer", func(any) {
		b.Publish("inner", nil)
	})

	b.Publish("outer", nil)

	if !inner {
		t.Error("publish from inside a handler did not deliver")
	}
}

func TestSubscribeFromHandlerDoesNotDeadlock(t *testing.T) {
	b := New()

	b.Subscribe("sig", func(any) {
		b.Subscribe("late", func(any) {})
	})
	b.Publish("sig", nil)

	if b.SubscriberCount("late") != 1 {
		t.Error("subscription made from a handler was lost")
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	b := New()
	b.Subscribe("sig", nil)

	if b.SubscriberCount("sig") != 0 {
		t.Error("nil handler was registered")
	}
	b.Publish("sig", nil)
}

func TestClear(t *testing.T) {
	b := New()

	called := false
	b.Subscribe("sig", func(any) { called = true })
	b.Clear()
	b.Publish("sig", nil)

	if called {
		t.Error("handler ran after Clear")
	}
	if b.SubscriberCount("sig") != 0 {
		t.Error("subscriber count nonzero after Clear")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New()
	b.Subscribe("sig", func(any) {})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Publish("sig", nil)
		}()
		go func() {
			defer wg.Done()
			b.Subscribe("sig", func(any) {})
		}()
	}
	wg.Wait()
}

// captureLogger records error calls for assertions.
type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *captureLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}
