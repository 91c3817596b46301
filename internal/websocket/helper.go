package websocket

import (
	"net/http"
	"strings"
)

func (h *WebSocketHandler) authenticateConnection(r *http.Request) (*Actor, error) {
	if h.authenticator == nil {
		return nil, &AuthError{Message: "no authenticator configured"}
	}
	return h.authenticator(r)
}

func (h *WebSocketHandler) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}

func (h *WebSocketHandler) checkRateLimit(clientIP string) bool {
	if !h.RateLimit.Enabled {
		return true
	}

	h.rateLimiterMu.RLock()
	limiter, exists := h.rateLimiters[clientIP]
	h.rateLimiterMu.RUnlock()

	if !exists {
		h.rateLimiterMu.Lock()
		limiter, exists = h.rateLimiters[clientIP]
		if !exists {
			limiter = &RateLimiter{connections: make(map[string]int)}
			h.rateLimiters[clientIP] = limiter
		}
		h.rateLimiterMu.Unlock()
	}

	limiter.mu.RLock()
	connections := limiter.connections[clientIP]
	limiter.mu.RUnlock()

	return connections < h.RateLimit.ConnectionsPerIP
}

func (h *WebSocketHandler) updateConnectionCount(clientIP string, delta int) {
	h.rateLimiterMu.RLock()
	limiter, exists := h.rateLimiters[clientIP]
	h.rateLimiterMu.RUnlock()

	if !exists {
		return
	}

	limiter.mu.Lock()
	limiter.connections[clientIP] += delta
	if limiter.connections[clientIP] <= 0 {
		delete(limiter.connections, clientIP)
	}
	limiter.mu.Unlock()
}

func (h *WebSocketHandler) cleanupRateLimiters() {
	h.rateLimiterMu.Lock()
	defer h.rateLimiterMu.Unlock()

	for ip, limiter := range h.rateLimiters {
		limiter.mu.Lock()
		if len(limiter.connections) == 0 {
			delete(h.rateLimiters, ip)
		}
		limiter.mu.Unlock()
	}
}
