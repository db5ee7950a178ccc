package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Authorizer answers capability questions about a user and a ticket.
// Handlers and services ask it instead of inspecting role names.
type Authorizer interface {
	// ScopeFor returns the ticket visibility scope for the user.
	ScopeFor(ctx context.Context, user *domain.User) (repository.TicketScope, error)
	// CanView reports whether the user may open the ticket at all.
	CanView(ctx context.Context, user *domain.User, ticket *domain.Ticket) (bool, error)
	// CanManage reports whether the user may mutate the ticket's
	// workflow fields (status, assignment, department).
	CanManage(ctx context.Context, user *domain.User, ticket *domain.Ticket) (bool, error)
	// CanSeeInternal reports whether internal notes are visible.
	CanSeeInternal(user *domain.User) bool
}

// roleAuthorizer derives capabilities from the user's role and
// department memberships.
type roleAuthorizer struct {
	users repository.UserRepository
}

// NewRoleAuthorizer builds the default authorizer.
func NewRoleAuthorizer(users repository.UserRepository) Authorizer {
	return &roleAuthorizer{users: users}
}

func (a *roleAuthorizer) ScopeFor(ctx context.Context, user *domain.User) (repository.TicketScope, error) {
	switch user.RoleName {
	case domain.RoleAdmin:
		return repository.TicketScope{}, nil
	case domain.RoleManager, domain.RoleAgent:
		ids, err := a.users.DepartmentIDs(ctx, user.ID)
		if err != nil {
			return repository.TicketScope{}, err
		}
		if ids == nil {
			// membership-less staff sees nothing, not everything
			ids = []int64{}
		}
		return repository.TicketScope{DepartmentIDs: ids}, nil
	default:
		id := user.ID
		return repository.TicketScope{CreatedBy: &id}, nil
	}
}

func (a *roleAuthorizer) CanView(ctx context.Context, user *domain.User, ticket *domain.Ticket) (bool, error) {
	switch user.RoleName {
	case domain.RoleAdmin:
		return true, nil
	case domain.RoleManager, domain.RoleAgent:
		if ticket.AssignedTo != nil && *ticket.AssignedTo == user.ID {
			return true, nil
		}
		if ticket.DepartmentID == nil {
			return false, nil
		}
		ids, err := a.users.DepartmentIDs(ctx, user.ID)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			if id == *ticket.DepartmentID {
				return true, nil
			}
		}
		return false, nil
	default:
		return ticket.CreatedBy == user.ID, nil
	}
}

func (a *roleAuthorizer) CanManage(ctx context.Context, user *domain.User, ticket *domain.Ticket) (bool, error) {
	if !user.IsStaff() {
		return false, nil
	}
	return a.CanView(ctx, user, ticket)
}

func (a *roleAuthorizer) CanSeeInternal(user *domain.User) bool {
	return user.IsStaff()
}
