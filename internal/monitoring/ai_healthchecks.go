package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15 * time.Second

// HealthChecker is anything that can report whether a dependency is up.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// MonitorInferenceHealth polls checker every interval and stores the outcome
// in healthy until ctx ends. A non-positive interval selects the default.
func MonitorInferenceHealth(ctx context.Context, checker HealthChecker, healthy *atomic.Bool, interval time.Duration) {
	if interval <= 0 {
		interval = HEALTHCHECK_TIMER
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			isHealthy := checker.HealthCheck(ctx)
			was := healthy.Swap(isHealthy)
			switch {
			case !isHealthy && was:
				slog.Warn("[HealthCheck] Inference service is unhealthy")
			case isHealthy && !was:
				slog.Info("[HealthCheck] Inference service recovered")
			}
		}
	}
}
