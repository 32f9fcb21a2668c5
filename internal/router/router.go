package router

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/setting"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user"
)

const basePath = "/userdir-api"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates the caller's request id or assigns a new one.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			r.Header.Set(RequestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs requests at debug level, server errors at warn.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.Debugw
			if status >= http.StatusInternalServerError {
				log = logger.Warnw
			}
			log("http request",
				"request_id", r.Header.Get(RequestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// no MIME sniffing of JSON bodies
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// never framed
			w.Header().Set("X-Frame-Options", "DENY")

			// referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			// deny camera, microphone and geolocation
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// self-only CSP unless a handler set its own
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only over TLS
			if r.TLS != nil {
				// 30 days
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Users    *user.Handler
	Auth     *auth.Handler
	Settings *setting.Handler
	Sessions *auth.Service
	DB       Pinger
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()
	guard := auth.RequireSession(d.Sessions, logger)

	mux.HandleFunc("GET "+basePath+"/health", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.DB.PingContext(ctx); err != nil {
				logger.Warnw("health check failed", "err", err)
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// users
	mux.HandleFunc("GET "+basePath+"/users", d.Users.List)
	mux.HandleFunc("GET "+basePath+"/users/{id}", d.Users.Get)
	mux.Handle("POST "+basePath+"/users", guard(http.HandlerFunc(d.Users.Create)))
	mux.Handle("PUT "+basePath+"/users/{id}", guard(http.HandlerFunc(d.Users.Update)))
	mux.Handle("DELETE "+basePath+"/users/{id}", guard(http.HandlerFunc(d.Users.Delete)))

	// auth
	mux.HandleFunc("POST "+basePath+"/auth/signin", d.Auth.SignIn)
	mux.HandleFunc("POST "+basePath+"/auth/signup", d.Auth.SignUp)
	// the session is shared server-wide; only its holder may end it
	mux.Handle("POST "+basePath+"/auth/signout", guard(http.HandlerFunc(d.Auth.SignOut)))
	mux.HandleFunc("GET "+basePath+"/auth/session", d.Auth.Session)
	mux.HandleFunc("GET "+basePath+"/auth/email-taken", d.Auth.EmailTaken)

	// admin
	mux.Handle("GET "+basePath+"/settings", guard(http.HandlerFunc(d.Settings.List)))

	return RequestIDMiddleware()(LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux)))
}
