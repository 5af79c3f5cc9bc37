package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Component names reported in Report.Checks.
const (
	ComponentEngine  = "engine"
	ComponentRecords = "records"
)

// Service coordinates health checks.
type Service struct {
	engine  Pinger
	records Pinger
}

// New creates a Service. records can be nil.
func New(engine, records Pinger) *Service {
	return &Service{engine: engine, records: records}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentEngine] = ping(ctx, s.engine)
	if s.records != nil {
		checks[ComponentRecords] = ping(ctx, s.records)
	}

	// Engine down is unhealthy; record source down only degrades.
	status := Healthy
	switch {
	case checks[ComponentEngine] == CheckError:
		status = Unhealthy
	case checks[ComponentRecords] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
