package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"eduhub/internal/user"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type Collector struct {
	pool *pgxpool.Pool

	mu           sync.RWMutex
	requestStats map[key]stat
	startedAt    time.Time
}

// NewCollector builds a Collector. pool may be nil when the service runs on
// the in-memory backend.
func NewCollector(pool *pgxpool.Pool) *Collector {
	return &Collector{
		pool:         pool,
		requestStats: make(map[key]stat),
		startedAt:    time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		requestID := middleware.GetReqID(r.Context())
		userID := ""
		if u, ok := user.CurrentUser(r.Context()); ok {
			userID = u.ID
		}

		entry := map[string]any{
			"request_id": requestID,
			"user_id":    userID,
			"method":     r.Method,
			"path":       path,
			"status":     rec.status,
			"latency_ms": latencyMS,
			"remote_ip":  strings.TrimSpace(r.RemoteAddr),
		}
		b, _ := json.Marshal(entry)
		log.Printf("%s", string(b))
	})
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var sb strings.Builder
	sb.WriteString("# eduhub observability metrics\n")
	sb.WriteString("# TYPE eduhub_uptime_seconds gauge\n")
	sb.WriteString(fmt.Sprintf("eduhub_uptime_seconds %.0f\n", time.Since(startedAt).Seconds()))

	sb.WriteString("# TYPE eduhub_http_requests_total counter\n")
	sb.WriteString("# TYPE eduhub_http_request_latency_ms_sum counter\n")
	sb.WriteString("# TYPE eduhub_http_request_latency_ms_avg gauge\n")
	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=\"%s\",path=\"%s\",status=\"%d\"", k.Method, k.Path, k.Status)
		sb.WriteString(fmt.Sprintf("eduhub_http_requests_total{%s} %d\n", labels, s.Count))
		sb.WriteString(fmt.Sprintf("eduhub_http_request_latency_ms_sum{%s} %.3f\n", labels, s.LatencyMS))
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		sb.WriteString(fmt.Sprintf("eduhub_http_request_latency_ms_avg{%s} %.3f\n", labels, avg))
	}

	if c.pool != nil {
		ps := c.pool.Stat()
		sb.WriteString("# TYPE eduhub_db_total_conns gauge\n")
		sb.WriteString(fmt.Sprintf("eduhub_db_total_conns %d\n", ps.TotalConns()))
		sb.WriteString("# TYPE eduhub_db_idle_conns gauge\n")
		sb.WriteString(fmt.Sprintf("eduhub_db_idle_conns %d\n", ps.IdleConns()))
		sb.WriteString("# TYPE eduhub_db_acquired_conns gauge\n")
		sb.WriteString(fmt.Sprintf("eduhub_db_acquired_conns %d\n", ps.AcquiredConns()))
		sb.WriteString("# TYPE eduhub_db_acquire_count counter\n")
		sb.WriteString(fmt.Sprintf("eduhub_db_acquire_count %d\n", ps.AcquireCount()))
		sb.WriteString("# TYPE eduhub_db_acquire_duration_ms counter\n")
		sb.WriteString(fmt.Sprintf("eduhub_db_acquire_duration_ms %.3f\n", float64(ps.AcquireDuration().Microseconds())/1000.0))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sb.String()))
}

// normalizedPath collapses UUID path segments so each route yields one
// metrics series.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
