package gate

import (
	"sync"
	"testing"
)

type recorder struct {
	mu    sync.Mutex
	items []string
}

func (r *recorder) exec(item string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

func TestQueue_BuffersUntilReady(t *testing.T) {
	rec := &recorder{}
	q := New(rec.exec)

	q.Submit("A")
	q.Submit("B")
	q.Submit("C")

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("executed before ready: %v", got)
	}
	if q.Pending() != 3 {
		t.Errorf("Pending() = %d, want 3", q.Pending())
	}

	q.SignalReady()

	got := rec.snapshot()
	want := []string{"A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("executed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !q.IsReady() {
		t.Error("IsReady() = false after SignalReady")
	}
	if q.Pending() != 0 {
		t.Errorf("Pending() = %d after flush, want 0", q.Pending())
	}
}

func TestQueue_SubmitAfterReadyExecutesImmediately(t *testing.T) {
	rec := &recorder{}
	q := New(rec.exec)
	q.Submit("A")
	q.SignalReady()

	q.Submit("D")

	got := rec.snapshot()
	if len(got) != 2 || got[1] != "D" {
		t.Fatalf("executed %v, want [A D]", got)
	}
}

func TestQueue_SignalReadyIsOneShot(t *testing.T) {
	rec := &recorder{}
	q := New(rec.exec)
	q.Submit("A")

	q.SignalReady()
	q.SignalReady()

	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("executed %v, want exactly [A]", got)
	}
}

func TestQueue_ReentrantSubmitDuringDrain(t *testing.T) {
	var q *Queue[string]
	rec := &recorder{}
	q = New(func(item string) {
		rec.exec(item)
		if item == "A" {
			q.Submit("A2")
		}
	})

	q.Submit("A")
	q.Submit("B")
	q.SignalReady()

	got := rec.snapshot()
	want := []string{"A", "B", "A2"}
	if len(got) != len(want) {
		t.Fatalf("executed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQueue_ConcurrentSubmitAndSignal(t *testing.T) {
	const n = 200

	var mu sync.Mutex
	counts := make(map[int]int)
	q := New(func(item int) {
		mu.Lock()
		counts[item]++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Submit(i)
		}(i)
		if i == n/2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.SignalReady()
			}()
		}
	}
	wg.Wait()
	q.SignalReady()

	mu.Lock()
	defer mu.Unlock()
	if len(counts) != n {
		t.Fatalf("executed %d distinct items, want %d", len(counts), n)
	}
	for item, c := range counts {
		if c != 1 {
			t.Errorf("item %d executed %d times", item, c)
		}
	}
}

func TestQueue_PreSignalOrderPreserved(t *testing.T) {
	var mu sync.Mutex
	var order []int
	q := New(func(item int) {
		mu.Lock()
		order = append(order, item)
		mu.Unlock()
	})

	for i := 0; i < 50; i++ {
		q.Submit(i)
	}
	q.SignalReady()

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}
