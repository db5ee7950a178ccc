package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// SlaService resolves the SLA policy applicable to a ticket.
type SlaService struct {
	policies repository.SlaPolicyRepository
}

// NewSlaService builds service.
func NewSlaService(policies repository.SlaPolicyRepository) *SlaService {
	return &SlaService{policies: policies}
}

// FindPolicy returns the policy for the (priority, department) pair,
// preferring a department-specific match and falling back to the
// global one. Returns nil when neither exists.
func (s *SlaService) FindPolicy(ctx context.Context, priorityID int64, departmentID *int64) (*domain.SlaPolicy, error) {
	if departmentID != nil {
		policy, err := s.policies.FindForDepartment(ctx, priorityID, *departmentID)
		if err != nil {
			return nil, err
		}
		if policy != nil {
			return policy, nil
		}
	}
	return s.policies.FindGlobal(ctx, priorityID)
}

// ComputeDueAt derives the resolution deadline from the matched
// policy, or nil when no policy applies or the policy carries no
// resolution time.
func (s *SlaService) ComputeDueAt(ctx context.Context, priorityID int64, departmentID *int64, from time.Time) (*time.Time, *domain.SlaPolicy, error) {
	policy, err := s.FindPolicy(ctx, priorityID, departmentID)
	if err != nil {
		return nil, nil, err
	}
	if policy == nil {
		return nil, nil, nil
	}
	if policy.ResolutionTime <= 0 {
		return nil, policy, nil
	}
	due := from.Add(time.Duration(policy.ResolutionTime) * time.Minute)
	return &due, policy, nil
}
