package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// VisitorStore hands out a limiter per client key.
type VisitorStore interface {
	Limiter(key string) *rate.Limiter
	Cleanup(idle time.Duration) int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryVisitors keeps limiters in process. Each instance limits on its own.
type MemoryVisitors struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func NewMemoryVisitors(rps float64, burst int) *MemoryVisitors {
	return &MemoryVisitors{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

func (m *MemoryVisitors) Limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = m.now()
	return v.limiter
}

// Cleanup forgets visitors idle for longer than idle and reports how many.
func (m *MemoryVisitors) Cleanup(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, v := range m.visitors {
		if m.now().Sub(v.lastSeen) > idle {
			delete(m.visitors, key)
			removed++
		}
	}
	return removed
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func RateLimitMiddleware(store VisitorStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.Limiter(clientIP(r)).Allow() {
				rateLimited.Inc()
				respondWithError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
