package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AssignmentService selects an assignee for new tickets.
type AssignmentService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
	lookups repository.LookupRepository
}

// NewAssignmentService builds service.
func NewAssignmentService(users repository.UserRepository, tickets repository.TicketRepository, lookups repository.LookupRepository) *AssignmentService {
	return &AssignmentService{users: users, tickets: tickets, lookups: lookups}
}

// PickAssignee returns the active manager or agent carrying the fewest
// open tickets, optionally restricted to the department's membership.
// Ties break toward the lowest user id. Returns nil when no candidate
// exists, which leaves the ticket unassigned.
func (s *AssignmentService) PickAssignee(ctx context.Context, departmentID *int64) (*domain.User, error) {
	openStatus, err := s.lookups.GetStatusByName(ctx, domain.StatusOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	candidates, err := s.users.ListAssignable(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	counts, err := s.tickets.CountOpenByAssignee(ctx, openStatus.ID, ids)
	if err != nil {
		return nil, err
	}

	// candidates arrive sorted by id, so the first minimum wins.
	best := candidates[0]
	bestCount := counts[best.ID]
	for _, c := range candidates[1:] {
		if counts[c.ID] < bestCount {
			best = c
			bestCount = counts[c.ID]
		}
	}
	return &best, nil
}
