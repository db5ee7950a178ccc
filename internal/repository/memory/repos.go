package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = r.s.id()
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.s.tickets = append(r.s.tickets, *ticket)
	return nil
}

func (r *ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.tickets {
		if r.s.tickets[i].ID == ticket.ID && r.s.tickets[i].DeletedAt == nil {
			ticket.UpdatedAt = time.Now()
			ticket.CreatedAt = r.s.tickets[i].CreatedAt
			r.s.tickets[i] = *ticket
			return nil
		}
	}
	return errNoRows
}

func (r *ticketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.tickets {
		if r.s.tickets[i].ID == id && r.s.tickets[i].DeletedAt == nil {
			ticket := r.s.tickets[i]
			return &ticket, nil
		}
	}
	return nil, errNoRows
}

func (r *ticketRepo) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.tickets {
		if r.s.tickets[i].ID == id && r.s.tickets[i].DeletedAt == nil {
			now := time.Now()
			r.s.tickets[i].DeletedAt = &now
			return nil
		}
	}
	return errNoRows
}

func (r *ticketRepo) NumbersForYear(ctx context.Context, year int) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prefix := fmt.Sprintf("TICKET-%d-", year)
	var numbers []string
	for _, ticket := range r.s.tickets {
		if strings.HasPrefix(ticket.TicketNumber, prefix) {
			numbers = append(numbers, ticket.TicketNumber)
		}
	}
	return numbers, nil
}

func (r *ticketRepo) matchesScope(ticket domain.Ticket, scope repository.TicketScope) bool {
	if scope.DepartmentIDs != nil {
		found := false
		for _, id := range scope.DepartmentIDs {
			if ticket.DepartmentID != nil && *ticket.DepartmentID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if scope.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *scope.AssignedTo) {
		return false
	}
	if scope.CreatedBy != nil && ticket.CreatedBy != *scope.CreatedBy {
		return false
	}
	return true
}

func (r *ticketRepo) ListSummaries(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketSummary, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []domain.Ticket
	for _, ticket := range r.s.tickets {
		if ticket.DeletedAt != nil || !r.matchesScope(ticket, filter.Scope) {
			continue
		}
		if filter.Status != "" && r.s.statusName(ticket.StatusID) != filter.Status {
			continue
		}
		if filter.Priority != "" && r.s.priorityName(ticket.PriorityID) != filter.Priority {
			continue
		}
		if filter.DepartmentID != nil && (ticket.DepartmentID == nil || *ticket.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
			if !strings.Contains(strings.ToLower(ticket.TicketNumber), search) &&
				!strings.Contains(strings.ToLower(ticket.Subject), search) {
				continue
			}
		}
		matched = append(matched, ticket)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	limit := filter.Limit
	if limit <= 0 {
		limit = 15
	}
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]domain.TicketSummary, 0, end-offset)
	for _, ticket := range matched[offset:end] {
		assignedTo := ""
		if ticket.AssignedTo != nil {
			assignedTo = r.s.userName(*ticket.AssignedTo)
		}
		result = append(result, domain.TicketSummary{
			ID:           ticket.ID,
			TicketNumber: ticket.TicketNumber,
			Subject:      ticket.Subject,
			Status:       r.s.statusName(ticket.StatusID),
			Priority:     r.s.priorityName(ticket.PriorityID),
			CreatedBy:    r.s.userName(ticket.CreatedBy),
			AssignedTo:   assignedTo,
			DepartmentID: ticket.DepartmentID,
			CreatedAt:    ticket.CreatedAt,
		})
	}
	return result, total, nil
}

func (r *ticketRepo) Stats(ctx context.Context, scope repository.TicketScope) (domain.TicketStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var stats domain.TicketStats
	for _, ticket := range r.s.tickets {
		if ticket.DeletedAt != nil || !r.matchesScope(ticket, scope) {
			continue
		}
		stats.Total++
		switch r.s.statusName(ticket.StatusID) {
		case domain.StatusOpen:
			stats.Open++
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusResolved:
			stats.Resolved++
		case domain.StatusClosed:
			stats.Closed++
		}
		switch r.s.priorityName(ticket.PriorityID) {
		case "Urgent":
			stats.Urgent++
		case "High":
			stats.High++
		}
	}
	return stats, nil
}

func (r *ticketRepo) CountOpenByAssignee(ctx context.Context, openStatusID int64, assigneeIDs []int64) (map[int64]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[int64]int64, len(assigneeIDs))
	eligible := make(map[int64]bool, len(assigneeIDs))
	for _, id := range assigneeIDs {
		eligible[id] = true
	}
	for _, ticket := range r.s.tickets {
		if ticket.DeletedAt != nil || ticket.StatusID != openStatusID || ticket.AssignedTo == nil {
			continue
		}
		if eligible[*ticket.AssignedTo] {
			counts[*ticket.AssignedTo]++
		}
	}
	return counts, nil
}

type lookupRepo struct{ s *Store }

func (r *lookupRepo) GetStatusByID(ctx context.Context, id int64) (*domain.TicketStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.statuses {
		if r.s.statuses[i].ID == id {
			status := r.s.statuses[i]
			return &status, nil
		}
	}
	return nil, errNoRows
}

func (r *lookupRepo) GetStatusByName(ctx context.Context, name string) (*domain.TicketStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.statuses {
		if r.s.statuses[i].Name == name {
			status := r.s.statuses[i]
			return &status, nil
		}
	}
	return nil, errNoRows
}

func (r *lookupRepo) ListActiveStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketStatus
	for _, status := range r.s.statuses {
		if status.IsActive {
			result = append(result, status)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (r *lookupRepo) GetPriorityByID(ctx context.Context, id int64) (*domain.TicketPriority, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.priorities {
		if r.s.priorities[i].ID == id {
			priority := r.s.priorities[i]
			return &priority, nil
		}
	}
	return nil, errNoRows
}

func (r *lookupRepo) GetPriorityByName(ctx context.Context, name string) (*domain.TicketPriority, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.priorities {
		if r.s.priorities[i].Name == name {
			priority := r.s.priorities[i]
			return &priority, nil
		}
	}
	return nil, errNoRows
}

func (r *lookupRepo) ListPriorities(ctx context.Context) ([]domain.TicketPriority, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := append([]domain.TicketPriority{}, r.s.priorities...)
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (r *lookupRepo) GetCategoryByID(ctx context.Context, id int64) (*domain.TicketCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.categories {
		if r.s.categories[i].ID == id {
			category := r.s.categories[i]
			return &category, nil
		}
	}
	return nil, errNoRows
}

func (r *lookupRepo) ListActiveCategories(ctx context.Context) ([]domain.TicketCategory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketCategory
	for _, category := range r.s.categories {
		if category.IsActive {
			result = append(result, category)
		}
	}
	return result, nil
}

type slaRepo struct{ s *Store }

func (r *slaRepo) FindForDepartment(ctx context.Context, priorityID, departmentID int64) (*domain.SlaPolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.slaPolicies {
		policy := r.s.slaPolicies[i]
		if policy.IsActive && policy.DeletedAt == nil &&
			policy.PriorityID != nil && *policy.PriorityID == priorityID &&
			policy.DepartmentID != nil && *policy.DepartmentID == departmentID {
			return &policy, nil
		}
	}
	return nil, nil
}

func (r *slaRepo) FindGlobal(ctx context.Context, priorityID int64) (*domain.SlaPolicy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.slaPolicies {
		policy := r.s.slaPolicies[i]
		if policy.IsActive && policy.DeletedAt == nil &&
			policy.PriorityID != nil && *policy.PriorityID == priorityID &&
			policy.DepartmentID == nil {
			return &policy, nil
		}
	}
	return nil, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.id()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	for _, role := range r.s.roles {
		if role.ID == user.RoleID {
			user.RoleName = role.Name
		}
	}
	r.s.users = append(r.s.users, *user)
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == user.ID && r.s.users[i].DeletedAt == nil {
			user.UpdatedAt = time.Now()
			r.s.users[i] = *user
			return nil
		}
	}
	return errNoRows
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == id && r.s.users[i].DeletedAt == nil {
			user := r.s.users[i]
			return &user, nil
		}
	}
	return nil, errNoRows
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].Email == email && r.s.users[i].DeletedAt == nil {
			user := r.s.users[i]
			return &user, nil
		}
	}
	return nil, errNoRows
}

func (r *userRepo) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.roles {
		if r.s.roles[i].Name == name {
			role := r.s.roles[i]
			return &role, nil
		}
	}
	return nil, errNoRows
}

func (r *userRepo) ListAssignable(ctx context.Context, departmentID *int64) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	assignable := make(map[string]bool, len(domain.AssignableRoles))
	for _, role := range domain.AssignableRoles {
		assignable[role] = true
	}

	var result []domain.User
	for _, user := range r.s.users {
		if user.DeletedAt != nil || !user.IsActive || !assignable[user.RoleName] {
			continue
		}
		if departmentID != nil {
			member := false
			for _, m := range r.s.memberships {
				if m.UserID == user.ID && m.DepartmentID == *departmentID {
					member = true
					break
				}
			}
			if !member {
				continue
			}
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *userRepo) DepartmentIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []int64{}
	for _, m := range r.s.memberships {
		if m.UserID == userID {
			ids = append(ids, m.DepartmentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *userRepo) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, name := range r.s.rolePerms[roleID] {
		if name == permission {
			return true, nil
		}
	}
	return false, nil
}

type departmentRepo struct{ s *Store }

func (r *departmentRepo) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.departments {
		if r.s.departments[i].ID == id && r.s.departments[i].DeletedAt == nil {
			dept := r.s.departments[i]
			return &dept, nil
		}
	}
	return nil, errNoRows
}

func (r *departmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Department
	for _, dept := range r.s.departments {
		if dept.DeletedAt == nil && dept.IsActive {
			result = append(result, dept)
		}
	}
	return result, nil
}

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(ctx context.Context, msg *domain.TicketMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msg.ID = r.s.id()
	msg.CreatedAt = time.Now()
	r.s.messages = append(r.s.messages, *msg)
	return nil
}

func (r *messageRepo) GetByID(ctx context.Context, id int64) (*domain.TicketMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.messages {
		if r.s.messages[i].ID == id {
			msg := r.s.messages[i]
			return &msg, nil
		}
	}
	return nil, errNoRows
}

func (r *messageRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketMessage
	for _, msg := range r.s.messages {
		if msg.TicketID == ticketID {
			msg.AuthorName = r.s.userName(msg.UserID)
			result = append(result, msg)
		}
	}
	return result, nil
}

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) Create(ctx context.Context, att *domain.TicketAttachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	att.ID = r.s.id()
	att.UploadedAt = time.Now()
	r.s.attachments = append(r.s.attachments, *att)
	return nil
}

func (r *attachmentRepo) GetByID(ctx context.Context, ticketID, id int64) (*domain.TicketAttachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.attachments {
		if r.s.attachments[i].TicketID == ticketID && r.s.attachments[i].ID == id {
			att := r.s.attachments[i]
			return &att, nil
		}
	}
	return nil, errNoRows
}

func (r *attachmentRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketAttachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.TicketAttachment
	for _, att := range r.s.attachments {
		if att.TicketID == ticketID {
			result = append(result, att)
		}
	}
	return result, nil
}

type activityRepo struct{ s *Store }

func (r *activityRepo) Create(ctx context.Context, entry *domain.TicketActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	entry.CreatedAt = time.Now()
	entry.UserName = r.s.userName(entry.UserID)
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r *activityRepo) ListByTicket(ctx context.Context, ticketID int64, limit int) ([]domain.TicketActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var result []domain.TicketActivityLog
	for i := len(r.s.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if r.s.logs[i].TicketID == ticketID {
			result = append(result, r.s.logs[i])
		}
	}
	return result, nil
}
