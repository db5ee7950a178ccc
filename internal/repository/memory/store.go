// Package memory provides in-memory implementations of the repository
// interfaces so the ticket lifecycle can be exercised without a live
// relational engine.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Store keeps all entities in slices guarded by one mutex.
type Store struct {
	mu sync.Mutex

	roles       []domain.Role
	permissions []domain.Permission
	rolePerms   map[int64][]string
	users       []domain.User
	memberships []domain.UserDepartment
	departments []domain.Department
	statuses    []domain.TicketStatus
	priorities  []domain.TicketPriority
	categories  []domain.TicketCategory
	slaPolicies []domain.SlaPolicy
	tickets     []domain.Ticket
	messages    []domain.TicketMessage
	attachments []domain.TicketAttachment
	logs        []domain.TicketActivityLog

	nextID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{rolePerms: make(map[int64][]string)}
}

// Repos exposes the store as a repository set.
func (s *Store) Repos() repository.Repositories {
	return repository.Repositories{
		Tickets:      &ticketRepo{s},
		Lookups:      &lookupRepo{s},
		SlaPolicies:  &slaRepo{s},
		Users:        &userRepo{s},
		Departments:  &departmentRepo{s},
		Messages:     &messageRepo{s},
		Attachments:  &attachmentRepo{s},
		ActivityLogs: &activityRepo{s},
	}
}

// WithinTx satisfies repository.TxRunner. The fake has no rollback:
// tests assert on final state only.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return fn(s.Repos())
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Seeding helpers

func (s *Store) AddRole(name string) domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := domain.Role{ID: s.id(), Name: name, Title: name, IsSystem: true}
	s.roles = append(s.roles, role)
	return role
}

func (s *Store) GrantPermission(roleID int64, permission string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolePerms[roleID] = append(s.rolePerms[roleID], permission)
}

func (s *Store) AddUser(firstName, lastName, email string, role domain.Role, active bool) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := domain.User{
		ID:        s.id(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		RoleID:    role.ID,
		RoleName:  role.Name,
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users = append(s.users, user)
	return user
}

func (s *Store) AddDepartment(name, shortCode string) domain.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept := domain.Department{ID: s.id(), Name: name, ShortCode: shortCode, IsActive: true}
	s.departments = append(s.departments, dept)
	return dept
}

func (s *Store) AddMembership(userID, departmentID int64, primary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, domain.UserDepartment{
		UserID:       userID,
		DepartmentID: departmentID,
		IsPrimary:    primary,
		JoinedAt:     time.Now(),
	})
}

func (s *Store) AddStatus(name string, sortOrder int) domain.TicketStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := domain.TicketStatus{
		ID:         s.id(),
		Name:       name,
		Title:      name,
		IsActive:   true,
		IsClosed:   name == domain.StatusClosed,
		IsResolved: name == domain.StatusResolved,
		SortOrder:  sortOrder,
	}
	s.statuses = append(s.statuses, status)
	return status
}

func (s *Store) AddPriority(name string, level int) domain.TicketPriority {
	s.mu.Lock()
	defer s.mu.Unlock()
	priority := domain.TicketPriority{ID: s.id(), Name: name, Level: level, SortOrder: level * 10}
	s.priorities = append(s.priorities, priority)
	return priority
}

func (s *Store) AddCategory(name string) domain.TicketCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	category := domain.TicketCategory{ID: s.id(), Name: name, Title: name, IsActive: true}
	s.categories = append(s.categories, category)
	return category
}

func (s *Store) AddSlaPolicy(name string, priorityID int64, departmentID *int64, responseTime, resolutionTime int) domain.SlaPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy := domain.SlaPolicy{
		ID:             s.id(),
		Name:           name,
		PriorityID:     &priorityID,
		DepartmentID:   departmentID,
		ResponseTime:   responseTime,
		ResolutionTime: resolutionTime,
		IsActive:       true,
	}
	s.slaPolicies = append(s.slaPolicies, policy)
	return policy
}

// Inspection helpers for tests

func (s *Store) TicketByID(id int64) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			ticket := s.tickets[i]
			return &ticket
		}
	}
	return nil
}

func (s *Store) LogsForTicket(ticketID int64) []domain.TicketActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.TicketActivityLog
	for _, entry := range s.logs {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result
}

func (s *Store) MessagesForTicket(ticketID int64) []domain.TicketMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.TicketMessage
	for _, msg := range s.messages {
		if msg.TicketID == ticketID {
			result = append(result, msg)
		}
	}
	return result
}

func (s *Store) statusName(id int64) string {
	for _, status := range s.statuses {
		if status.ID == id {
			return status.Name
		}
	}
	return ""
}

func (s *Store) priorityName(id int64) string {
	for _, priority := range s.priorities {
		if priority.ID == id {
			return priority.Name
		}
	}
	return ""
}

func (s *Store) userName(id int64) string {
	for _, user := range s.users {
		if user.ID == id {
			return strings.TrimSpace(user.FirstName + " " + user.LastName)
		}
	}
	return ""
}

var errNoRows = pgx.ErrNoRows
