package cache_test

import (
	"errors"
	"testing"

	"github.com/sandrolain/goperon/pkg/cache"
	"github.com/sandrolain/goperon/pkg/types"
)

func program(src string) *types.Program {
	return types.NewProgram("", "", src)
}

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("expected capacity 10, got %d", got)
	}
	if got := cache.New(0).Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	prog := program("Select: 1")
	c.Set("k", prog)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != prog {
		t.Fatal("expected same program pointer")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, program(k))
	}
	// Touch "a" so "b" becomes the least recently used.
	c.Get("a")
	c.Set("d", program("d"))

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be present", k)
		}
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compile := func() (*types.Program, error) {
		calls++
		return program("Select: 1"), nil
	}

	p1, err := c.GetOrCompile("k", compile)
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := c.GetOrCompile("k", compile)
	if p1 != p2 || calls != 1 {
		t.Errorf("compile called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrCompile("bad", func() (*types.Program, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("errors must not be cached")
	}
}

func TestCacheInvalidateClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a", program("a"))
	c.Set("b", program("b"))

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be invalidated")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestKey(t *testing.T) {
	base := cache.Key("file:///a.gp", "Select: 1")
	tests := []struct {
		name string
		key  string
		same bool
	}{
		{"identical", cache.Key("file:///a.gp", "Select: 1"), true},
		{"other uri", cache.Key("file:///b.gp", "Select: 1"), false},
		{"other source", cache.Key("file:///a.gp", "Select: 2"), false},
		{"extra", cache.Key("file:///a.gp", "Select: 1", "expression"), false},
		{"boundary", cache.Key("file:///a.gpSelect: 1", ""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.key == base) != tt.same {
				t.Errorf("key equality = %v, want %v", tt.key == base, tt.same)
			}
		})
	}
}
