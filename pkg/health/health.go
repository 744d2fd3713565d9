package health

import (
	"context"
	"sync"
	"time"
)

// Checker is a function that checks the health of a dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Report is the outcome of running every registered check.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == StatusUp
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status  Status        `json:"status"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// Registry holds named dependency checks.
type Registry struct {
	timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates a registry whose Run is bounded by timeout. A zero
// timeout leaves the caller's deadline in charge.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		timeout:  timeout,
		checkers: make(map[string]Checker),
	}
}

// Register adds a named health checker, replacing any with the same name.
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Run executes every check. The report is down if any check failed.
func (r *Registry) Run(ctx context.Context) Report {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	r.mu.RUnlock()

	report := Report{
		Status: StatusUp,
		Checks: make(map[string]CheckResult, len(checkers)),
	}
	for name, checker := range checkers {
		start := time.Now()
		err := checker(ctx)
		result := CheckResult{Status: StatusUp, Latency: time.Since(start)}
		if err != nil {
			result.Status = StatusDown
			result.Error = err.Error()
			report.Status = StatusDown
		}
		report.Checks[name] = result
	}
	report.Timestamp = time.Now().UTC()
	return report
}
