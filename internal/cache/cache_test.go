package cache

import (
	"sync"
	"testing"
)

func TestPutUpdatesExistingEntryWithoutGrowing(t *testing.T) {
	c := New[string, string](2)
	c.Put("alpha", "x")
	c.Put("beta", "value")
	c.Put("alpha", "y")

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if v, ok := c.Get("alpha"); !ok || v != "y" {
		t.Fatalf("expected updated value, got %q %v", v, ok)
	}
	if v, ok := c.Get("beta"); !ok || v != "value" {
		t.Fatalf("expected beta to remain, got %q %v", v, ok)
	}
}

type customKey struct {
	name string
	size int64
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[customKey, []byte](2)
	first := customKey{"first", 1}
	second := customKey{"second", 2}
	third := customKey{"third", 3}

	c.Put(first, []byte("a"))
	c.Put(second, []byte("b"))
	if _, ok := c.Get(first); !ok {
		t.Fatal("expected first entry")
	}
	c.Put(third, []byte("c"))

	if _, ok := c.Get(second); ok {
		t.Fatal("expected second entry to be evicted")
	}
	if _, ok := c.Get(first); !ok {
		t.Fatal("expected recently used entry to survive")
	}
}

func TestPurgeAndMinimumSize(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	if c.Len() != 1 {
		t.Fatalf("expected size floor of one, got %d", c.Len())
	}

	c.Purge()
	if _, ok := c.Get(2); ok || c.Len() != 0 {
		t.Fatal("expected empty cache after Purge")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Put(i*100+j, j)
				c.Get(j)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 16 {
		t.Fatalf("expected full cache, got %d", c.Len())
	}
}
