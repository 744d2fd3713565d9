package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smhassan90/salaahManager/internal/domain"
	"github.com/smhassan90/salaahManager/pkg/httpclient"
)

// HealthService wraps the backend health check.
type HealthService struct {
	d httpclient.Doer
}

// NewHealthService creates a new health service.
func NewHealthService(d httpclient.Doer) *HealthService {
	return &HealthService{d: d}
}

// Check returns the backend's health report. The report is the top-level
// body, not an enveloped data field.
func (s *HealthService) Check(ctx context.Context) (domain.HealthStatus, error) {
	var status domain.HealthStatus
	resp, err := s.d.Do(ctx, get(pathHealth, nil))
	if err != nil {
		return status, err
	}
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return status, fmt.Errorf("decode health response: %w", err)
	}
	return status, nil
}
