package server

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// sessionCookie carries the signed JWT identifying the caller.
const sessionCookie = "token"

var errNoSession = errors.New("missing session cookie")

// authenticate validates the session cookie and returns the owner ID
// (the JWT "sub" claim).
func authenticate(r *http.Request, secret string) (string, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", errNoSession
	}

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// ipLimiter rate-limits by client IP. Idle entries are pruned so the map
// does not grow unboundedly under address churn.
type ipLimiter struct {
	mu     sync.Mutex
	seen   map[string]*ipEntry
	limit  rate.Limit
	burst  int
	maxAge time.Duration
	now    func() time.Time
}

type ipEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(requests int, window time.Duration) *ipLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &ipLimiter{
		seen:   make(map[string]*ipEntry),
		limit:  rate.Limit(float64(requests) / window.Seconds()),
		burst:  requests,
		maxAge: 3 * window,
		now:    time.Now,
	}
}

func (l *ipLimiter) allow(remoteAddr string) bool {
	ip := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		ip = h
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.seen) > 1024 {
		for k, e := range l.seen {
			if now.Sub(e.lastSeen) > l.maxAge {
				delete(l.seen, k)
			}
		}
	}

	e, ok := l.seen[ip]
	if !ok {
		e = &ipEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.seen[ip] = e
	}
	e.lastSeen = now
	return e.lim.Allow()
}
