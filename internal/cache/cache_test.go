package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New()
	defer c.Close()

	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if v.(int) != 1 {
		t.Errorf("Get() = %v, want 1", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New()
	defer c.Close()

	c.Set("a", 1, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("Get() hit after expiry")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New()
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Error("Get() hit after Delete()")
	}
}

func TestCacheSetAfterClose(t *testing.T) {
	c := New()
	c.Close()

	c.Set("a", 1, time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("Set() stored after Close()")
	}
}
