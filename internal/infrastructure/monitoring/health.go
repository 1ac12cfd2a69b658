package monitoring

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"go.uber.org/zap"
)

// ComponentStatus is the state of one dependency
type ComponentStatus string

const (
	StatusUp       ComponentStatus = "up"
	StatusDegraded ComponentStatus = "degraded"
	StatusDown     ComponentStatus = "down"
)

// ComponentReport is the outcome of checking one dependency
type ComponentReport struct {
	Name      string                 `json:"name"`
	Status    ComponentStatus        `json:"status"`
	Error     string                 `json:"error,omitempty"`
	LatencyMs int64                  `json:"latencyMs"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthReport aggregates every component; the worst status wins
type HealthReport struct {
	Status     ComponentStatus   `json:"status"`
	Version    string            `json:"version"`
	CheckedAt  time.Time         `json:"checkedAt"`
	Components []ComponentReport `json:"components"`
}

// ComponentCheck inspects one dependency
type ComponentCheck func(ctx context.Context) (ComponentStatus, map[string]interface{}, error)

type component struct {
	name  string
	check ComponentCheck
}

// Health runs the dependency checks behind /health and /ready.
// A report is reused until cacheTTL has passed.
type Health struct {
	version    string
	timeout    time.Duration
	cacheTTL   time.Duration
	logger     *zap.Logger
	mu         sync.Mutex
	components []component
	last       *HealthReport
}

// NewHealth creates an empty set of checks
func NewHealth(version string, logger *zap.Logger) *Health {
	return &Health{
		version:  version,
		timeout:  5 * time.Second,
		cacheTTL: 5 * time.Second,
		logger:   logger.Named("health"),
	}
}

// Add registers a component; reports list components in registration order
func (h *Health) Add(name string, check ComponentCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components = append(h.components, component{name: name, check: check})
	h.last = nil
}

// SetCacheTTL changes how long a report is reused
func (h *Health) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
	h.last = nil
}

// Report checks every component concurrently
func (h *Health) Report(ctx context.Context) HealthReport {
	h.mu.Lock()
	if h.last != nil && time.Since(h.last.CheckedAt) < h.cacheTTL {
		report := *h.last
		h.mu.Unlock()
		return report
	}
	components := append([]component(nil), h.components...)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	report := HealthReport{
		Status:     StatusUp,
		Version:    h.version,
		CheckedAt:  time.Now(),
		Components: make([]ComponentReport, len(components)),
	}

	var wg sync.WaitGroup
	for i, c := range components {
		wg.Add(1)
		go func(i int, c component) {
			defer wg.Done()
			report.Components[i] = runCheck(ctx, c)
		}(i, c)
	}
	wg.Wait()

	for _, c := range report.Components {
		report.Status = worse(report.Status, c.Status)
	}

	h.mu.Lock()
	h.last = &report
	h.mu.Unlock()
	return report
}

func runCheck(ctx context.Context, c component) ComponentReport {
	start := time.Now()
	status, details, err := c.check(ctx)
	out := ComponentReport{
		Name:      c.name,
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Details:   details,
	}
	if err != nil {
		out.Error = err.Error()
		if status == StatusUp || status == "" {
			out.Status = StatusDown
		}
	}
	return out
}

func worse(a, b ComponentStatus) ComponentStatus {
	rank := map[ComponentStatus]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// HealthHandler serves the full report; 503 when any component is down
func (h *Health) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.Report(c.Request.Context())
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}

// ReadyHandler accepts traffic unless a component is down.
// A degraded cache or a missing AI key still leaves the local planner usable.
func (h *Health) ReadyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.Report(c.Request.Context())
		if report.Status == StatusDown {
			h.logger.Warn("Not ready", zap.Any("components", report.Components))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": report.Components})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checkedAt": report.CheckedAt})
	}
}

// LiveHandler only reports that the process is serving
func (h *Health) LiveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	}
}

// DatabaseCheck pings the pool behind the repositories. It reports degraded
// when nearly every allowed connection is in use.
func DatabaseCheck(db *sql.DB) ComponentCheck {
	return func(ctx context.Context) (ComponentStatus, map[string]interface{}, error) {
		if err := db.PingContext(ctx); err != nil {
			return StatusDown, nil, err
		}
		stats := db.Stats()
		details := map[string]interface{}{
			"open":     stats.OpenConnections,
			"inUse":    stats.InUse,
			"idle":     stats.Idle,
			"maxOpen":  stats.MaxOpenConnections,
			"waitedMs": stats.WaitDuration.Milliseconds(),
		}
		if stats.MaxOpenConnections > 0 && stats.InUse*10 >= stats.MaxOpenConnections*9 {
			return StatusDegraded, details, nil
		}
		return StatusUp, details, nil
	}
}

const cacheCheckKey = "health:search-cache"

// SearchCacheCheck writes and reads back a key through the search cache.
// Search keeps working without its cache, so failures only degrade.
func SearchCacheCheck(cache outbound.CacheRepository, driver string) ComponentCheck {
	return func(ctx context.Context) (ComponentStatus, map[string]interface{}, error) {
		details := map[string]interface{}{"driver": driver}
		value := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))

		if err := cache.Set(ctx, cacheCheckKey, value, time.Minute); err != nil {
			return StatusDegraded, details, fmt.Errorf("write: %w", err)
		}
		got, err := cache.Get(ctx, cacheCheckKey)
		if err != nil {
			return StatusDegraded, details, fmt.Errorf("read back: %w", err)
		}
		if !bytes.Equal(got, value) {
			return StatusDegraded, details, fmt.Errorf("read back a different value")
		}
		return StatusUp, details, nil
	}
}

// PlanProviderCheck reports whether the ai strategy has a text generator.
// Without one only the local strategy can serve plans.
func PlanProviderCheck(provider string, textGen outbound.TextGenerator) ComponentCheck {
	return func(ctx context.Context) (ComponentStatus, map[string]interface{}, error) {
		if textGen == nil {
			return StatusDegraded, map[string]interface{}{"provider": provider, "configured": false}, nil
		}
		return StatusUp, map[string]interface{}{"provider": textGen.Name(), "configured": true}, nil
	}
}
