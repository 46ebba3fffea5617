package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the platform is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentPlatform = "platform"
	ComponentSession  = "session"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	platform PlatformPinger
	session  SessionHolder
}

// New creates a Service. session can be nil.
func New(platform PlatformPinger, session SessionHolder) *Service {
	return &Service{platform: platform, session: session}
}

// Check runs health checks against all components.
// A failed platform ping is unhealthy; a missing session alone is degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.session != nil {
		if s.session.Token() == "" {
			checks[ComponentSession] = CheckError
		} else {
			checks[ComponentSession] = CheckOK
		}
	}

	if err := s.platform.Ping(ctx); err != nil {
		checks[ComponentPlatform] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[ComponentPlatform] = CheckOK

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
