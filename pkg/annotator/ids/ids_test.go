package ids

import (
	"sync"
	"testing"
	"time"
)

func TestNewIsMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.New()
	for i := 0; i < 1000; i++ {
		next := g.New()
		if next <= prev {
			t.Fatalf("Expected %s > %s", next, prev)
		}
		prev = next
	}
}

func TestNewConcurrent(t *testing.T) {
	g := NewGenerator()
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := g.New()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if len(seen) != 800 {
		t.Errorf("Expected 800 unique ids, got %d", len(seen))
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(New())
	if err != nil {
		t.Fatalf("Time failed: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("Unexpected timestamp %v", ts)
	}
	if _, err := Time("not-a-ulid"); err == nil {
		t.Error("Expected error for invalid ULID")
	}
}
