package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindow_CeilingPerMinute(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(3, 100)

	for i := 0; i < 3; i++ {
		if !l.Admit(ctx, "u1") {
			t.Fatalf("call %d unexpectedly denied", i+1)
		}
	}
	if l.Admit(ctx, "u1") {
		t.Error("4th call within the minute window admitted")
	}
}

func TestSlidingWindow_DenyDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(2, 100)

	now := time.Now()
	l.now = func() time.Time { return now }

	l.Admit(ctx, "u1")
	l.Admit(ctx, "u1")

	// Hammer the denied path; none of these may consume window slots.
	for i := 0; i < 10; i++ {
		if l.Admit(ctx, "u1") {
			t.Fatal("over-ceiling call admitted")
		}
	}

	// Once the original two events age out, the window must be fully
	// open again: the denied attempts left no residue.
	now = now.Add(61 * time.Second)
	if !l.Admit(ctx, "u1") {
		t.Error("call denied after window elapsed")
	}
	if !l.Admit(ctx, "u1") {
		t.Error("second call denied after window elapsed")
	}
}

func TestSlidingWindow_WindowSlides(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1, 100)

	now := time.Now()
	l.now = func() time.Time { return now }

	if !l.Admit(ctx, "u1") {
		t.Fatal("first call denied")
	}
	if l.Admit(ctx, "u1") {
		t.Fatal("second call within window admitted")
	}

	now = now.Add(61 * time.Second)
	if !l.Admit(ctx, "u1") {
		t.Error("call denied after 60s of quiet")
	}
}

func TestSlidingWindow_HourlyCeiling(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1000, 5)

	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if !l.Admit(ctx, "u1") {
			t.Fatalf("call %d unexpectedly denied", i+1)
		}
		// Space calls out so the minute window never fills.
		now = now.Add(2 * time.Minute)
	}
	if l.Admit(ctx, "u1") {
		t.Error("6th call within the hour admitted")
	}
}

func TestSlidingWindow_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindow(1, 100)

	if !l.Admit(ctx, "u1") {
		t.Fatal("u1 denied")
	}
	if !l.Admit(ctx, "u2") {
		t.Error("u2 denied by u1's window")
	}
}

func TestDisabled_AlwaysAdmits(t *testing.T) {
	ctx := context.Background()
	l := Disabled()

	for i := 0; i < 1000; i++ {
		if !l.Admit(ctx, "u1") {
			t.Fatal("disabled limiter denied")
		}
	}
}
