package server

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// admissionLimiter applies a global plus per-client token bucket to the
// API endpoints, in front of the engine's per-user sliding windows. It
// sheds request floods cheaply before any session work happens.
type admissionLimiter struct {
	global  *rate.Limiter
	clients map[string]*rate.Limiter
	mu      sync.RWMutex

	perSecond float64
	burst     int
}

func newAdmissionLimiter(perSecond float64, burst int) *admissionLimiter {
	return &admissionLimiter{
		global:    rate.NewLimiter(rate.Limit(perSecond*10), burst*10),
		clients:   make(map[string]*rate.Limiter),
		perSecond: perSecond,
		burst:     burst,
	}
}

func (a *admissionLimiter) allow(clientID string) bool {
	if !a.global.Allow() {
		return false
	}
	return a.clientLimiter(clientID).Allow()
}

func (a *admissionLimiter) clientLimiter(clientID string) *rate.Limiter {
	a.mu.RLock()
	limiter, ok := a.clients[clientID]
	a.mu.RUnlock()
	if ok {
		return limiter
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if limiter, ok := a.clients[clientID]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(a.perSecond), a.burst)
	a.clients[clientID] = limiter
	return limiter
}

// admit wraps a handler with the admission limiter, keyed by client IP.
func (s *Server) admit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.admission.allow(host) {
			s.writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}
