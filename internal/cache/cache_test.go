package cache

import (
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned a value")
	}

	c.Set("a", 1)
	value, ok := c.Get("a")
	if !ok || value != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", value, ok)
	}

	c.Set("a", 2)
	value, _ = c.Get("a")
	if value != 2 {
		t.Errorf("Get(a) after overwrite = %d, want 2", value)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("k", "v")

	// Still valid one second before expiry.
	current = current.Add(time.Minute - time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Error("entry expired before its TTL elapsed")
	}

	// The expiry instant itself counts as expired.
	current = current.Add(time.Second)
	if _, ok := c.Get("k"); ok {
		t.Error("entry still valid at its expiry instant")
	}

	// The expired entry was dropped lazily.
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy drop, want 0", c.Len())
	}
}

func TestCache_Purge(t *testing.T) {
	c := New[string, int](time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("old", 1)
	current = current.Add(30 * time.Second)
	c.Set("fresh", 2)
	current = current.Add(45 * time.Second)

	// "old" is past its TTL, "fresh" is not.
	if dropped := c.Purge(); dropped != 1 {
		t.Errorf("Purge() dropped %d entries, want 1", dropped)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Purge() dropped a live entry")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) after Delete returned a value")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
}
