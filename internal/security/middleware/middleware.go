package middleware

import (
	"context"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yourorg/adminbase/internal/domain"
	"github.com/yourorg/adminbase/internal/security/auth"
)

type identityContextKey struct{}

// IdentityMiddleware resolves the caller's identity once per request and
// attaches it to the context. Requests without credentials pass through
// with no identity; the access policy decides per endpoint.
func IdentityMiddleware(resolver *auth.Resolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := resolver.Resolve(r); identity != nil {
				ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithIdentity attaches an identity to the context the same way
// IdentityMiddleware does.
func ContextWithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the resolved identity, or nil when the
// request carried no usable credentials.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	if identity, ok := ctx.Value(identityContextKey{}).(*domain.Identity); ok {
		return identity
	}
	return nil
}

// CORSMiddleware honors the configured origins and answers preflights.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowedOrigins, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

const (
	// maxTrackedClients bounds the limiter map; forged client addresses
	// must not grow it without limit.
	maxTrackedClients = 10000
	clientStaleAfter  = 10 * time.Minute
)

// LoginRateLimiter throttles credential-guessing per client address.
type LoginRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	perMin  int
	max     int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLoginRateLimiter(perMinute int) *LoginRateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &LoginRateLimiter{
		clients: make(map[string]*clientLimiter),
		perMin:  perMinute,
		max:     maxTrackedClients,
	}
}

func (l *LoginRateLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.clients[clientIP]
	if !ok {
		if len(l.clients) >= l.max {
			l.evictLocked(now)
		}
		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin),
		}
		l.clients[clientIP] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// evictLocked drops idle entries, then the oldest one if the map is still
// full. Callers hold the mutex.
func (l *LoginRateLimiter) evictLocked(now time.Time) {
	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > clientStaleAfter {
			delete(l.clients, ip)
		}
	}
	if len(l.clients) < l.max {
		return
	}
	var oldestIP string
	var oldest time.Time
	for ip, entry := range l.clients {
		if oldestIP == "" || entry.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = entry.lastSeen
		}
	}
	if oldestIP != "" {
		delete(l.clients, oldestIP)
	}
}

// Wrap applies the rate limit to a handler, keyed by remote address.
func (l *LoginRateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(ClientIP(r)) {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the caller address, preferring X-Forwarded-For. The
// header carries a comma-separated hop list; only the first entry names
// the client.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ValidateJSONContentType ensures POST/PUT requests with a body carry a
// JSON content type.
func ValidateJSONContentType(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !hasJSONContentType(contentType) {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
