package refs

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

func TestResolve_DedupesKeys(t *testing.T) {
	var mu sync.Mutex
	calls := map[int64]int{}
	fetch := func(_ context.Context, id int64) (string, error) {
		mu.Lock()
		calls[id]++
		mu.Unlock()
		return "entity-" + string(rune('0'+id)), nil
	}

	got, err := Resolve(context.Background(), []int64{3, 1, 3, 2, 1}, fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for id, n := range calls {
		if n != 1 {
			t.Errorf("key %d fetched %d times", id, n)
		}
	}
	if got[2] != "entity-2" {
		t.Errorf("unexpected value %q", got[2])
	}
}

func TestResolve_Empty(t *testing.T) {
	called := false
	got, err := Resolve(context.Background(), nil, func(context.Context, int64) (int, error) {
		called = true
		return 0, nil
	})
	if err != nil || len(got) != 0 || called {
		t.Errorf("expected empty result without fetches, got %v err=%v called=%v", got, err, called)
	}
}

func TestResolve_FirstErrorFailsAll(t *testing.T) {
	boom := errors.New("not found")
	var started int32
	fetch := func(ctx context.Context, id int64) (int64, error) {
		atomic.AddInt32(&started, 1)
		if id == 2 {
			return 0, boom
		}
		<-ctx.Done()
		return 0, ctx.Err()
	}

	got, err := Resolve(context.Background(), []int64{1, 2, 3}, fetch)
	if !errors.Is(err, boom) && !errors.Is(err, context.Canceled) {
		t.Fatalf("expected failure, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial result, got %v", got)
	}
}

func TestOne(t *testing.T) {
	v, err := One(context.Background(), 5, func(_ context.Context, k int) (int, error) { return k * 2, nil })
	if err != nil || v != 10 {
		t.Errorf("expected 10, got %d err=%v", v, err)
	}

	boom := errors.New("gone")
	if _, err := One(context.Background(), 5, func(context.Context, int) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestDistinct(t *testing.T) {
	got := Distinct([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: want %q got %q", i, want[i], got[i])
		}
	}
}

func TestCollect_SkipsZeroKeys(t *testing.T) {
	type appt struct{ PatientID int64 }
	items := []appt{{4}, {0}, {2}, {4}}
	got := Collect(items, func(a appt) int64 { return a.PatientID })
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("expected [2 4], got %v", got)
	}
}
