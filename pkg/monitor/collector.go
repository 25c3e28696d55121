package monitor

import (
	"context"
	"runtime"
	"time"

	"order-tracker/pkg/metrics"

	"go.uber.org/zap"
)

// SystemCollector samples process runtime stats onto the Prometheus
// gauges every 15 seconds.
type SystemCollector struct {
	logger    *zap.Logger
	startTime time.Time
	stopChan  chan struct{}
}

// NewSystemCollector creates a SystemCollector.
func NewSystemCollector(logger *zap.Logger) *SystemCollector {
	return &SystemCollector{
		logger:    logger,
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}
}

// Start runs the sampling loop until the context is cancelled or Stop
// is called.
func (c *SystemCollector) Start(ctx context.Context) {
	c.logger.Info("system collector started")

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("system collector stopping: context cancelled")
			return

		case <-c.stopChan:
			c.logger.Info("system collector stopped")
			return

		case <-ticker.C:
			c.collect()
		}
	}
}

// Stop halts the sampling loop.
func (c *SystemCollector) Stop() {
	close(c.stopChan)
}

func (c *SystemCollector) collect() {
	uptime := time.Since(c.startTime).Seconds()
	goroutines := runtime.NumGoroutine()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics.UpdateSystemMetrics(uptime, goroutines, memStats.Alloc)

	c.logger.Debug("system stats sampled",
		zap.Float64("uptime_seconds", uptime),
		zap.Int("goroutines", goroutines),
		zap.Uint64("memory_bytes", memStats.Alloc),
	)
}
