package cmap

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[int]()
	if m.ShardCount() != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", m.ShardCount(), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			if got := NewWithShards[int](tt.input).ShardCount(); got != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if !m.Has("b") {
		t.Error("Has(b) = false")
	}
	m.Set("a", 10)
	if v, _ := m.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d", v)
	}
	m.Delete("a")
	if m.Has("a") {
		t.Error("Has(a) after Delete = true")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()
	if !m.SetIfAbsent("k", "first") {
		t.Fatal("SetIfAbsent on empty map = false")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("SetIfAbsent on present key = true")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("value = %q, want first", v)
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("k", 7)

	v, ok := m.Pop("k")
	if !ok || v != 7 {
		t.Fatalf("Pop(k) = (%d, %v), want (7, true)", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Fatal("second Pop(k) = true")
	}
}

func TestPopIf(t *testing.T) {
	m := New[int]()
	m.Set("k", 7)

	if _, ok := m.PopIf("k", func(v int) bool { return v == 8 }); ok {
		t.Fatal("PopIf with false predicate removed the key")
	}
	if _, ok := m.PopIf("k", func(v int) bool { return v == 7 }); !ok {
		t.Fatal("PopIf with true predicate did not remove the key")
	}
	if _, ok := m.PopIf("missing", func(int) bool { return true }); ok {
		t.Fatal("PopIf on missing key = true")
	}
}

func TestPop_ConcurrentExactlyOnce(t *testing.T) {
	m := New[int]()
	m.Set("k", 1)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Pop("k"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("Pop succeeded %d times, want 1", wins.Load())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 800 {
		t.Errorf("Count() = %d, want 800", m.Count())
	}
}

func TestRangeAndSnapshot(t *testing.T) {
	m := NewWithShards[int](4)
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range visited %d entries after stop, want 3", visited)
	}

	items := m.Snapshot()
	if len(items) != 10 {
		t.Fatalf("Snapshot len = %d, want 10", len(items))
	}
	for _, it := range items {
		m.Delete(it.Key)
	}
	if m.Count() != 0 {
		t.Errorf("Count() after deleting snapshot = %d", m.Count())
	}
}

func TestKeysValuesStats(t *testing.T) {
	m := NewWithShards[int](2)
	m.Set("a", 1)
	m.Set("b", 2)

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v", keys)
	}
	sum := 0
	for _, v := range m.Values() {
		sum += v
	}
	if sum != 3 {
		t.Errorf("sum(Values()) = %d, want 3", sum)
	}

	total := 0
	for _, s := range m.Stats() {
		total += s.Count
	}
	if total != 2 || len(m.Stats()) != 2 {
		t.Errorf("Stats() total = %d over %d shards", total, len(m.Stats()))
	}
}
