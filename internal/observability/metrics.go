package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/envutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

// Metrics is an in-process registry rendered in the Prometheus text format.
// Every method is safe on a nil receiver so callers never check Enabled.
type Metrics struct {
	apiRequests *Vec
	apiLatency  *Histogram
	apiInflight *Vec

	chatConnections *Vec
	chatMessages    *Vec
	aiReplies       *Vec
	aiLatency       *Histogram
	idChecks        *Vec
	sseClients      *Vec
	busPublishes    *Vec

	redisUp *Vec
	dbConns *Vec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool { return envutil.Bool("METRICS_ENABLED", false) }

// Current returns the process registry, nil when metrics are disabled.
func Current() *Metrics { return instance }

// Init builds the process registry once when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

// New returns a standalone registry.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("apartment_http_requests_total", "HTTP requests by route and status.", "method", "route", "status"),
		apiLatency:  NewHistogram("apartment_http_request_seconds", "HTTP request latency.", nil, "method", "route"),
		apiInflight: NewGaugeVec("apartment_http_inflight", "HTTP requests in flight."),

		chatConnections: NewGaugeVec("apartment_chat_connections", "Open chat connections by role.", "role"),
		chatMessages:    NewCounterVec("apartment_chat_messages_total", "Persisted chat messages by sender role.", "sender_role"),
		aiReplies:       NewCounterVec("apartment_ai_replies_total", "AI reply attempts by outcome.", "status"),
		aiLatency:       NewHistogram("apartment_ai_reply_seconds", "AI backend latency.", nil, "status"),
		idChecks:        NewCounterVec("apartment_id_checks_total", "ID card checks by result.", "status"),
		sseClients:      NewGaugeVec("apartment_sse_clients", "Connected SSE clients."),
		busPublishes:    NewCounterVec("apartment_bus_publish_total", "Realtime bus publishes.", "kind", "status"),

		redisUp: NewGaugeVec("apartment_redis_up", "Redis reachability (1 up, 0 down)."),
		dbConns: NewGaugeVec("apartment_db_connections", "Database pool connections by state.", "state"),
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Add(1)
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Add(-1)
	}
}

func (m *Metrics) ChatConnectionOpened(role string) {
	if m != nil {
		m.chatConnections.Add(1, role)
	}
}

func (m *Metrics) ChatConnectionClosed(role string) {
	if m != nil {
		m.chatConnections.Add(-1, role)
	}
}

func (m *Metrics) IncChatMessage(senderRole string) {
	if m != nil {
		m.chatMessages.Inc(senderRole)
	}
}

// ObserveAIReply records one backend call; status is ok, empty or unavailable.
func (m *Metrics) ObserveAIReply(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aiReplies.Inc(status)
	m.aiLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncIDCheck(status string) {
	if m != nil {
		m.idChecks.Inc(status)
	}
}

func (m *Metrics) SSEClientConnected() {
	if m != nil {
		m.sseClients.Add(1)
	}
}

func (m *Metrics) SSEClientDisconnected() {
	if m != nil {
		m.sseClients.Add(-1)
	}
}

func (m *Metrics) IncBusPublish(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.busPublishes.Inc(kind, status)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	type writer interface{ WritePrometheus(io.Writer) error }
	for _, s := range []writer{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.chatConnections, m.chatMessages, m.aiReplies, m.aiLatency,
		m.idChecks, m.sseClients, m.busPublishes,
		m.redisUp, m.dbConns,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// StartRedisCollector pings addr on every scrape interval until ctx ends.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr, password string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		defer rdb.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("Metrics redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}

// StartDBCollector samples the connection pool of db until ctx ends.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("Metrics db collector disabled", "error", err)
		}
		return
	}
	go func() {
		ticker := time.NewTicker(scrapeInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := sqlDB.Stats()
				m.dbConns.Set(float64(stats.OpenConnections), "open")
				m.dbConns.Set(float64(stats.InUse), "in_use")
				m.dbConns.Set(float64(stats.Idle), "idle")
			}
		}
	}()
}
