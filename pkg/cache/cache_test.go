package cache

import (
	"context"
	"testing"
	"time"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("hello", "en", "fr")
	b := Fingerprint("hello", "en", "fr")
	if a != b {
		t.Errorf("fingerprint not deterministic: %s != %s", a, b)
	}
}

func TestFingerprint_DistinguishesFields(t *testing.T) {
	base := Fingerprint("hello", "en", "fr")

	variants := map[string]string{
		"text": Fingerprint("hello!", "en", "fr"),
		"src":  Fingerprint("hello", "de", "fr"),
		"tgt":  Fingerprint("hello", "en", "es"),
		// Concatenation ambiguity: ("helloen", "", "fr") must not
		// collide with ("hello", "en", "fr").
		"shift": Fingerprint("helloen", "", "fr"),
	}
	for name, v := range variants {
		if v == base {
			t.Errorf("fingerprint collision on %s variant", name)
		}
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Set(ctx, "k", "v", time.Minute)

	got, ok := m.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit before ttl")
	}
	if got != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemory_MissOnAbsent(t *testing.T) {
	m := NewMemory()
	if _, ok := m.Get(context.Background(), "absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestMemory_ExpiryIsLazy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now()
	m.now = func() time.Time { return now }

	m.Set(ctx, "k", "v", time.Minute)

	// Still valid just before the deadline.
	now = now.Add(59 * time.Second)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	// Past the deadline the entry must never be returned and is evicted
	// on access.
	now = now.Add(2 * time.Second)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("expected miss after expiry")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", m.Len())
	}
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now()
	m.now = func() time.Time { return now }

	m.Set(ctx, "k", "v", 0)

	now = now.Add(1000 * time.Hour)
	if _, ok := m.Get(ctx, "k"); !ok {
		t.Error("zero-ttl entry expired")
	}
}

func TestDisabled_NoOp(t *testing.T) {
	ctx := context.Background()
	c := Disabled()

	c.Set(ctx, "k", "v", time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("disabled cache returned a hit")
	}
}
