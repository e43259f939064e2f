package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFIFO_Order(t *testing.T) {
	q := NewFIFO[int]()

	for i := range 100 {
		if err := q.Push(i); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	if got := q.Len(); got != 100 {
		t.Fatalf("expected len 100, got %d", got)
	}

	for want := range 100 {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue reported closed", want)
		}
		if got != want {
			t.Fatalf("FIFO order broken: expected %d, got %d", want, got)
		}
	}
}

func TestFIFO_PopBlocksUntilPush(t *testing.T) {
	q := NewFIFO[string]()
	got := make(chan string, 1)

	go func() {
		v, ok := q.Pop()
		if ok {
			got <- v
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("pop returned %q before any push", v)
	case <-time.After(50 * time.Millisecond):
	}

	if err := q.Push("hello"); err != nil {
		t.Fatalf("push: %v", err)
	}

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("expected hello, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up after push")
	}
}

func TestFIFO_Close(t *testing.T) {
	t.Run("push after close is rejected", func(t *testing.T) {
		q := NewFIFO[int]()
		if !q.Close() {
			t.Fatal("first close should report the transition")
		}
		if q.Close() {
			t.Error("second close should be a no-op")
		}

		if err := q.Push(1); !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
		if q.Len() != 0 {
			t.Errorf("rejected item must not be stored, len=%d", q.Len())
		}
	})

	t.Run("close drains before reporting exit", func(t *testing.T) {
		q := NewFIFO[int]()
		for i := range 3 {
			_ = q.Push(i)
		}
		q.Close()

		for want := range 3 {
			got, ok := q.Pop()
			if !ok || got != want {
				t.Fatalf("expected (%d, true), got (%d, %v)", want, got, ok)
			}
		}

		if _, ok := q.Pop(); ok {
			t.Error("expected closed and drained queue to report exit")
		}
	})

	t.Run("close wakes every waiting consumer", func(t *testing.T) {
		q := NewFIFO[int]()
		const consumers = 8

		var wg sync.WaitGroup
		wg.Add(consumers)
		for range consumers {
			go func() {
				defer wg.Done()
				_, _ = q.Pop()
			}()
		}

		time.Sleep(20 * time.Millisecond)
		q.Close()

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumers were not woken by close")
		}

		if !q.Closed() {
			t.Error("expected Closed to report true")
		}
	})
}

func TestFIFO_ConcurrentProducersConsumers(t *testing.T) {
	q := NewFIFO[int]()

	const (
		producers = 8
		perProd   = 500
		consumers = 4
	)

	var (
		mu   sync.Mutex
		seen = make(map[int]int, producers*perProd)
	)

	var cwg sync.WaitGroup
	cwg.Add(consumers)
	for range consumers {
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	pwg.Add(producers)
	for p := range producers {
		go func(base int) {
			defer pwg.Done()
			for i := range perProd {
				if err := q.Push(base*perProd + i); err != nil {
					t.Errorf("push: %v", err)
				}
			}
		}(p)
	}

	pwg.Wait()
	q.Close()
	cwg.Wait()

	if len(seen) != producers*perProd {
		t.Fatalf("expected %d distinct items, got %d", producers*perProd, len(seen))
	}
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("item %d consumed %d times", v, n)
		}
	}
}
