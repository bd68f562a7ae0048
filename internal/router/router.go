package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/surveillance"
	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/world"
)

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

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RecoveryMiddleware turns handler panics into a 500.
func RecoveryMiddleware(logger *zap.SugaredLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorw("http handler panicked", "path", r.URL.Path, "panic", rec)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
			}
			next.ServeHTTP(w, r)
		})
	}
}

type WorldStats interface {
	Stats() world.Stats
}

type DetectionStats interface {
	Counters() surveillance.Counters
}

type RevokeStats interface {
	Pending() int
}

// Deps are the live components the ops surface reports on.
type Deps struct {
	World        WorldStats
	Surveillance DetectionStats
	Donors       RevokeStats
	BootID       string
	StartedAt    time.Time
}

type statsResponse struct {
	BootID         string                `json:"boot_id"`
	UptimeSeconds  int64                 `json:"uptime_seconds"`
	World          world.Stats           `json:"world"`
	Surveillance   surveillance.Counters `json:"surveillance"`
	PendingRevokes int                   `json:"pending_revokes"`
}

// RegisterRoutes mounts the operational endpoints.
func RegisterRoutes(logger *zap.SugaredLogger, deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger), SecurityHeadersMiddleware())

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		resp := statsResponse{
			BootID:        deps.BootID,
			UptimeSeconds: int64(time.Since(deps.StartedAt).Seconds()),
		}
		if deps.World != nil {
			resp.World = deps.World.Stats()
		}
		if deps.Surveillance != nil {
			resp.Surveillance = deps.Surveillance.Counters()
		}
		if deps.Donors != nil {
			resp.PendingRevokes = deps.Donors.Pending()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warnw("encode stats", "error", err)
		}
	}).Methods(http.MethodGet)

	return r
}
