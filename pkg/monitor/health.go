package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthChecker probes the MySQL store and the Redis session registry.
type HealthChecker struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// NewHealthChecker creates a HealthChecker.
func NewHealthChecker(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// HealthStatus is the aggregate health report.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Uptime     float64                    `json:"uptime_seconds"`
	Components map[string]ComponentStatus `json:"components"`
}

// ComponentStatus is one dependency's health.
type ComponentStatus struct {
	Status  string  `json:"status"` // healthy, unhealthy, degraded
	Message string  `json:"message,omitempty"`
	Latency float64 `json:"latency_ms,omitempty"`
}

// Check probes every dependency and aggregates the result. One
// unhealthy dependency degrades the service; losing both marks it
// unhealthy.
func (h *HealthChecker) Check(ctx context.Context, startTime time.Time) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().Format(time.RFC3339),
		Uptime:     time.Since(startTime).Seconds(),
		Components: make(map[string]ComponentStatus),
	}

	dbStatus := h.checkDatabase(ctx)
	status.Components["database"] = dbStatus
	if dbStatus.Status != "healthy" {
		status.Status = "degraded"
	}

	redisStatus := h.checkRedis(ctx)
	status.Components["redis"] = redisStatus
	if redisStatus.Status != "healthy" {
		status.Status = "degraded"
	}

	if dbStatus.Status == "unhealthy" && redisStatus.Status == "unhealthy" {
		status.Status = "unhealthy"
	}

	return status
}

func (h *HealthChecker) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()

	sqlDB, err := h.db.DB()
	if err != nil {
		h.logger.Error("unwrap sql.DB failed", zap.Error(err))
		return ComponentStatus{
			Status:  "unhealthy",
			Message: "cannot access database handle",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		h.logger.Error("database ping failed", zap.Error(err))
		return ComponentStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	latency := time.Since(start).Milliseconds()

	stats := sqlDB.Stats()
	if stats.OpenConnections == stats.MaxOpenConnections {
		h.logger.Warn("database connection pool exhausted")
		return ComponentStatus{
			Status:  "degraded",
			Message: "connection pool exhausted",
			Latency: float64(latency),
		}
	}

	return ComponentStatus{
		Status:  "healthy",
		Latency: float64(latency),
	}
}

func (h *HealthChecker) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.Error("redis ping failed", zap.Error(err))
		return ComponentStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	return ComponentStatus{
		Status:  "healthy",
		Latency: float64(time.Since(start).Milliseconds()),
	}
}

// HandleHealth serves the aggregate health report.
func (h *HealthChecker) HandleHealth(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context(), startTime)

		w.Header().Set("Content-Type", "application/json")

		switch status.Status {
		case "healthy", "degraded":
			w.WriteHeader(http.StatusOK)
		case "unhealthy":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}

		if err := json.NewEncoder(w).Encode(status); err != nil {
			h.logger.Error("encode health response failed", zap.Error(err))
		}
	}
}

// HandleLiveness answers 200 while the process is running.
func (h *HealthChecker) HandleLiveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"alive"}`))
	}
}

// HandleReadiness requires every dependency to be healthy.
func (h *HealthChecker) HandleReadiness(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context(), startTime)

		w.Header().Set("Content-Type", "application/json")

		if status.Status == "healthy" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(status); err != nil {
			h.logger.Error("encode readiness response failed", zap.Error(err))
		}
	}
}
