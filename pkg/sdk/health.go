package grclookup

import (
	"context"

	healthuc "github.com/kailas-cloud/grclookup/internal/usecase/health"
)

// HealthStatus describes the platform session behind a Client.
// Status is "ok", "degraded" (platform reachable, no session token) or
// "error" (platform ping failed). Checks holds "platform" and "session".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Usable reports whether lookups can run: the platform answered and a session is held.
func (h HealthStatus) Usable() bool { return h.Status == string(healthuc.Healthy) }

// SessionActive reports whether the client holds a platform session token.
func (h HealthStatus) SessionActive() bool {
	return h.Checks[healthuc.ComponentSession] == string(healthuc.CheckOK)
}

// Health pings the platform with the client's session.
// A lapsed session shows up as "degraded"; create a new Client to log in again.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(c.withLogger(ctx))
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase checks platform reachability and the held session.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
