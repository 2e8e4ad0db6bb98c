package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("a", 1)

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, bool](10 * time.Millisecond)
	c.Set("k", true)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected fresh entry present")
	}

	time.Sleep(15 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected entry expired")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy eviction on read, len = %d", c.Len())
	}
}

func TestCache_SetResetsTTL(t *testing.T) {
	c := New[string, int](30 * time.Millisecond)
	c.Set("k", 1)

	time.Sleep(20 * time.Millisecond)
	c.Set("k", 2)

	time.Sleep(20 * time.Millisecond)
	v, ok := c.Get("k")
	if !ok || v != 2 {
		t.Errorf("expected refreshed entry alive, got %d, %v", v, ok)
	}
}

func TestCache_Purge(t *testing.T) {
	c := New[int, string](10 * time.Millisecond)
	c.Set(1, "old")
	time.Sleep(15 * time.Millisecond)
	c.Set(2, "new")

	c.Purge()
	if c.Len() != 1 {
		t.Errorf("expected only the fresh entry retained, len = %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected deleted key gone")
	}
}
