package xover

import (
	"context"

	healthuc "github.com/kailas-cloud/xover/internal/usecase/health"
)

// HealthStatus represents the aggregated health of the client's dependencies.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // daily_files, crossovers, database → "ok"/"error"
}

// Health checks the input and output directories and, when configured, the database.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
