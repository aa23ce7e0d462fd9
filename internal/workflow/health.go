package workflow

import (
	"context"

	"gleaner/internal/stage"
)

// Health reports the readiness of the manager's stage plus the job store.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, 2)
	if err := m.store.CheckHealth(ctx); err != nil {
		checks = append(checks, stage.Unhealthy("jobs", err.Error()))
	} else {
		checks = append(checks, stage.Healthy("jobs"))
	}
	checks = append(checks, m.handler.HealthCheck(ctx))
	return checks
}
