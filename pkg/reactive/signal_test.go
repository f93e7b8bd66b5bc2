package reactive

import (
	"sync"
	"testing"
)

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalNotifiesOnlyOnChange(t *testing.T) {
	s := NewSignal("a")

	var got []string
	s.Subscribe(func(v string) { got = append(got, v) })

	if !s.Set("b") {
		t.Error("Set to a new value should report a change")
	}
	if s.Set("b") {
		t.Error("Set to the same value should not report a change")
	}
	s.Set("c")

	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("expected [b c], got %v", got)
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	s := NewSignal(0)

	calls := 0
	stop := s.Subscribe(func(int) { calls++ })
	if s.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", s.Subscribers())
	}

	s.Set(1)
	stop()
	stop()
	s.Set(2)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", s.Subscribers())
	}
}

func TestSignalSubscribeNil(t *testing.T) {
	s := NewSignal(0)
	stop := s.Subscribe(nil)
	stop()
	if s.Subscribers() != 0 {
		t.Errorf("nil callback should not be registered")
	}
}

func TestSignalUnsubscribeDuringNotify(t *testing.T) {
	s := NewSignal(0)

	var stop func()
	calls := 0
	stop = s.Subscribe(func(int) {
		calls++
		stop()
	})

	s.Set(1)
	s.Set(2)

	if calls != 1 {
		t.Errorf("expected callback to run once, got %d", calls)
	}
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }

	s := NewSignal(point{1, 1}).WithEquals(func(a, b point) bool {
		return a.X == b.X
	})

	calls := 0
	s.Subscribe(func(point) { calls++ })

	s.Set(point{1, 2})
	if calls != 0 {
		t.Errorf("custom equality should suppress notification, got %d calls", calls)
	}
	s.Set(point{2, 2})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSignalStructDeepEqual(t *testing.T) {
	s := NewSignal([]int{1, 2})
	if s.Set([]int{1, 2}) {
		t.Error("equal slices should not count as a change")
	}
	if !s.Set([]int{1, 2, 3}) {
		t.Error("different slices should count as a change")
	}
}

func TestSignalConcurrentSet(t *testing.T) {
	s := NewSignal(0)

	var mu sync.Mutex
	seen := 0
	s.Subscribe(func(int) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if s.Get() != 50 {
		t.Errorf("expected 50, got %d", s.Get())
	}
	mu.Lock()
	defer mu.Unlock()
	if seen != 50 {
		t.Errorf("expected 50 notifications, got %d", seen)
	}
}

func TestSignalIDsUnique(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	if a.ID() == b.ID() {
		t.Error("signals should have distinct IDs")
	}
}
