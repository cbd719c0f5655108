// Package ratelimit applies a per-client token bucket to the submission
// write endpoints. Client identity is the remote IP, with X-Forwarded-For
// honored only when the request arrives through a configured trusted proxy.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxClients bounds the bucket map; when full, the least recently seen
// client is evicted.
const maxClients = 10000

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	rate    rate.Limit
	burst   int
	maxIdle time.Duration

	trustedProxies []*net.IPNet
}

// NewIPRateLimiter builds a limiter allowing r requests per second with the
// given burst per client IP. Buckets idle longer than 2x maxIdle are swept
// periodically. trustedProxies lists CIDRs (or bare IPs) whose forwarded
// headers are believed; empty means every proxy is trusted.
func NewIPRateLimiter(r rate.Limit, burst int, maxIdle time.Duration, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
		maxIdle: maxIdle,
	}
	for _, entry := range trustedProxies {
		if ipnet := parseCIDROrIP(entry); ipnet != nil {
			l.trustedProxies = append(l.trustedProxies, ipnet)
		}
	}

	go l.sweep()
	return l
}

func parseCIDROrIP(s string) *net.IPNet {
	if _, ipnet, err := net.ParseCIDR(s); err == nil {
		return ipnet
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	bits := 128
	if ip.To4() != nil {
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
}

// Middleware rejects over-limit requests with 429.
func (l *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(l.clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= maxClients {
			l.evictOldestLocked()
		}
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

func (l *IPRateLimiter) evictOldestLocked() {
	var oldest string
	for ip, b := range l.buckets {
		if oldest == "" || b.lastSeen.Before(l.buckets[oldest].lastSeen) {
			oldest = ip
		}
	}
	if oldest != "" {
		delete(l.buckets, oldest)
	}
}

func (l *IPRateLimiter) sweep() {
	ticker := time.NewTicker(l.maxIdle)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * l.maxIdle)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the originating client address. Forwarded headers are
// only consulted when the direct peer is a trusted proxy (or when no
// trusted proxies are configured at all).
func (l *IPRateLimiter) clientIP(r *http.Request) string {
	remote := parseAddr(r.RemoteAddr)

	if len(l.trustedProxies) > 0 && !l.isTrusted(remote) {
		return remote.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return remote.String()
}

func (l *IPRateLimiter) isTrusted(ip net.IP) bool {
	for _, ipnet := range l.trustedProxies {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

func parseAddr(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
