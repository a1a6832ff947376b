// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "ratelimit:"

// RateLimiter is a fixed-window limiter shared by every server instance
// through Valkey. Each client gets one counter per window.
type RateLimiter struct {
	client *redis.Client
	name   string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter that allows limit requests per window.
// name namespaces the counters so several limiters can share one Valkey.
func NewRateLimiter(client *redis.Client, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		name:   name,
		limit:  limit,
		window: window,
	}
}

// allow increments the client's counter and reports whether it is still
// within the limit, along with the time left in the current window. When
// Valkey is unreachable the request is allowed.
func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	k := rateKeyPrefix + rl.name + ":" + key

	n, err := rl.client.Incr(ctx, k).Result()
	if err != nil {
		slog.Warn("rate limit check failed", "error", err, "limiter", rl.name)
		return true, 0
	}
	if n == 1 {
		rl.client.Expire(ctx, k, rl.window)
	}

	retry, err := rl.client.TTL(ctx, k).Result()
	if err != nil || retry < 0 {
		// A counter left without expiry would block the client forever.
		rl.client.Expire(ctx, k, rl.window)
		retry = rl.window
	}
	return n <= int64(rl.limit), retry
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(r.Context(), clientIP(r))
		if !ok {
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Too many attempts, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	// Leftmost X-Forwarded-For entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
