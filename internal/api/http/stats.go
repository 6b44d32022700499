package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KexinAnswer/gitbook/internal/infrastructure/monitoring"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/resilience"
)

// StatsSnapshot is the body of GET /v1/stats.
type StatsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Metrics   *monitoring.MetricsSnapshot `json:"metrics,omitempty"`
	Breakers  map[string]string           `json:"breakers,omitempty"`
	Summary   StatsSummary                `json:"summary"`
}

// StatsSummary provides high-level figures.
type StatsSummary struct {
	ErrorRate        float64 `json:"error_rate"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	OpenBreakers     int     `json:"open_breakers"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

// Stats returns a JSON view of the service counters and of the probe
// circuit breakers.
func (h *Handlers) Stats(c *gin.Context) {
	snapshot := StatsSnapshot{Timestamp: time.Now()}

	if h.metrics != nil {
		m := h.metrics.GetSnapshot()
		snapshot.Metrics = &m
		snapshot.Summary = summarize(m)
	}

	if h.breakers != nil {
		states := h.breakers.BreakerStates()
		snapshot.Breakers = make(map[string]string, len(states))
		for host, state := range states {
			snapshot.Breakers[host] = state.String()
			if state == resilience.StateOpen {
				snapshot.Summary.OpenBreakers++
			}
		}
	}

	c.JSON(http.StatusOK, snapshot)
}

func summarize(m monitoring.MetricsSnapshot) StatsSummary {
	s := StatsSummary{
		AverageLatencyMs: m.AverageLatency * 1000,
		UptimeSeconds:    m.UptimeSeconds,
	}
	if m.TotalRequests > 0 {
		s.ErrorRate = float64(m.TotalErrors) / float64(m.TotalRequests)
	}
	if lookups := m.CacheHits + m.CacheMisses; lookups > 0 {
		s.CacheHitRate = float64(m.CacheHits) / float64(lookups)
	}
	return s
}
