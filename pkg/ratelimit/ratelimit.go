// Package ratelimit provides per-user sliding-window admission control.
// Two trailing windows (one minute, one hour) gate every inbound message.
// The limiter is soft: a shared backing store without an atomic
// evict-count-insert step may admit slightly over the ceiling under
// concurrent access, which is acceptable here.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Limiter decides whether a user's request is admitted.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Admit reports whether the request is allowed. A denied request
	// must not be recorded against either window.
	Admit(ctx context.Context, userID string) bool
}

// disabled admits everything.
type disabled struct{}

func (disabled) Admit(context.Context, string) bool { return true }

// Disabled returns a limiter that always admits.
func Disabled() Limiter {
	return disabled{}
}

type userWindows struct {
	minute []time.Time
	hour   []time.Time
}

// SlidingWindow is an in-process limiter keeping per-user timestamp
// windows. Each Admit evicts timestamps older than the window before
// counting; the attempt is recorded only when admitted.
type SlidingWindow struct {
	perMinute int
	perHour   int

	mu    sync.Mutex
	users map[string]*userWindows
	now   func() time.Time
}

// NewSlidingWindow creates an in-process limiter with the given
// per-minute and per-hour ceilings.
func NewSlidingWindow(perMinute, perHour int) *SlidingWindow {
	return &SlidingWindow{
		perMinute: perMinute,
		perHour:   perHour,
		users:     make(map[string]*userWindows),
		now:       time.Now,
	}
}

// Admit implements Limiter.
func (l *SlidingWindow) Admit(_ context.Context, userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.users[userID]
	if !ok {
		w = &userWindows{}
		l.users[userID] = w
	}

	now := l.now()
	w.minute = evict(w.minute, now.Add(-minuteWindow))
	w.hour = evict(w.hour, now.Add(-hourWindow))

	if len(w.minute) >= l.perMinute || len(w.hour) >= l.perHour {
		return false
	}

	w.minute = append(w.minute, now)
	w.hour = append(w.hour, now)
	return true
}

// evict drops timestamps at or before the cutoff. Timestamps are
// appended in order, so the first retained index bounds the rest.
func evict(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
