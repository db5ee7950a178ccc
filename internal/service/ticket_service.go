package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, workflow
// mutations, conversation and the audit trail. Every mutation and its
// activity log rows commit in one transaction.
type TicketService struct {
	store      repository.TxRunner
	repos      repository.Repositories
	sla        *SlaService
	assigner   *AssignmentService
	allocator  *TicketNumberAllocator
	auth       Authorizer
	dispatcher events.Dispatcher
	files      storage.Storage
	logger     *zap.Logger
	pageSize   int
	logLimit   int
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store       repository.TxRunner
	Repos       repository.Repositories
	Sla         *SlaService
	Assigner    *AssignmentService
	Allocator   *TicketNumberAllocator
	Authorizer  Authorizer
	Dispatcher  events.Dispatcher
	Files       storage.Storage
	Logger      *zap.Logger
	PageSize    int
	LogPageSize int
	Now         func() time.Time
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = 15
	}
	logLimit := deps.LogPageSize
	if logLimit <= 0 {
		logLimit = 50
	}
	return &TicketService{
		store:      deps.Store,
		repos:      deps.Repos,
		sla:        deps.Sla,
		assigner:   deps.Assigner,
		allocator:  deps.Allocator,
		auth:       deps.Authorizer,
		dispatcher: deps.Dispatcher,
		files:      deps.Files,
		logger:     deps.Logger,
		pageSize:   pageSize,
		logLimit:   logLimit,
		now:        now,
	}
}

// CreateTicketInput describes ticket creation payload. Priority is a
// lookup name; AssignedTo nil requests auto-assignment.
type CreateTicketInput struct {
	Subject      string
	Description  string
	Priority     string
	CategoryID   *int64
	DepartmentID *int64
	AssignedTo   *int64
}

// RefChange is an optional nullable reference update. Set false leaves
// the field untouched; Set true with a nil value clears it.
type RefChange struct {
	Set   bool
	Value *int64
}

// UpdateTicketInput carries the mutable workflow fields. Nil pointers
// mean "leave unchanged".
type UpdateTicketInput struct {
	Subject     *string
	Description *string
	StatusID    *int64
	PriorityID  *int64
	Category    RefChange
	Department  RefChange
	Assignee    RefChange
}

// TicketPage is one listing page plus scope-wide stats.
type TicketPage struct {
	Items    []domain.TicketSummary
	Total    int64
	Page     int
	PageSize int
	Stats    domain.TicketStats
}

// TicketDetail is the full ticket view.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Messages    []domain.TicketMessage
	Attachments []domain.TicketAttachment
	Activity    []domain.TicketActivityLog
	SlaPolicy   *domain.SlaPolicy
}

// CreateTicket validates input, allocates the next ticket number under
// the year lock, applies SLA and auto-assignment, and writes the
// ticket with its audit rows in one transaction.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}

	priority, err := s.repos.Lookups.GetPriorityByName(ctx, input.Priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
		}
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.repos.Lookups.GetCategoryByID(ctx, *input.CategoryID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if input.DepartmentID != nil {
		if _, err := s.repos.Departments.GetByID(ctx, *input.DepartmentID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	openStatus, err := s.repos.Lookups.GetStatusByName(ctx, domain.StatusOpen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConfigurationError("ticket status Open is not seeded")
		}
		return nil, err
	}

	createdAt := s.now()
	dueAt, _, err := s.sla.ComputeDueAt(ctx, priority.ID, input.DepartmentID, createdAt)
	if err != nil {
		return nil, err
	}

	assignee := input.AssignedTo
	if assignee == nil {
		picked, err := s.assigner.PickAssignee(ctx, input.DepartmentID)
		if err != nil {
			return nil, err
		}
		if picked != nil {
			assignee = &picked.ID
		}
	} else {
		if _, err := s.repos.Users.GetByID(ctx, *assignee); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Subject:      subject,
		Description:  description,
		StatusID:     openStatus.ID,
		PriorityID:   priority.ID,
		CategoryID:   input.CategoryID,
		DepartmentID: input.DepartmentID,
		CreatedBy:    actor.ID,
		AssignedTo:   assignee,
		DueAt:        dueAt,
	}

	year := createdAt.Year()
	err = s.allocator.Allocate(ctx, s.repos.Tickets, year, func(number string) error {
		ticket.TicketNumber = number
		return s.store.WithinTx(ctx, func(tx repository.Repositories) error {
			if err := tx.Tickets.Create(ctx, ticket); err != nil {
				return err
			}
			created := ticket.TicketNumber
			if err := tx.ActivityLogs.Create(ctx, &domain.TicketActivityLog{
				TicketID: ticket.ID,
				UserID:   actor.ID,
				Action:   domain.ActionTicketCreated,
				NewValue: &created,
			}); err != nil {
				return err
			}
			if ticket.AssignedTo != nil {
				if err := tx.ActivityLogs.Create(ctx, &domain.TicketActivityLog{
					TicketID: ticket.ID,
					UserID:   actor.ID,
					Action:   domain.ActionAssignmentChanged,
					OldValue: refString(nil),
					NewValue: refString(ticket.AssignedTo),
				}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, actor.ID, events.TicketCreatedPayload{
		TicketNumber: ticket.TicketNumber,
		Subject:      ticket.Subject,
		Priority:     priority.Name,
		DepartmentID: ticket.DepartmentID,
		AssignedTo:   ticket.AssignedTo,
		DueAt:        ticket.DueAt,
	}))

	s.logger.Info("ticket created",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("created_by", actor.ID))
	return ticket, nil
}

// UpdateTicket applies workflow changes and records one audit row per
// changed field, all in a single transaction. Resolution and closure
// timestamps are written once and never overwritten.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID int64, input UpdateTicketInput) (*domain.Ticket, error) {
	ticket, err := s.loadManaged(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	var changes []domain.TicketActivityLog
	var published []events.Event
	now := s.now()

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, apperrors.NewValidationError("subject is required", nil)
		}
		ticket.Subject = subject
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description is required", nil)
		}
		ticket.Description = description
	}

	if input.StatusID != nil && *input.StatusID != ticket.StatusID {
		oldStatus, err := s.repos.Lookups.GetStatusByID(ctx, ticket.StatusID)
		if err != nil {
			return nil, err
		}
		newStatus, err := s.repos.Lookups.GetStatusByID(ctx, *input.StatusID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.StatusID = newStatus.ID
		if newStatus.IsResolved && ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
			ticket.ResolverID = &actor.ID
		}
		if newStatus.IsClosed && ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
			ticket.ClosedBy = &actor.ID
		}
		oldName, newName := oldStatus.Name, newStatus.Name
		changes = append(changes, domain.TicketActivityLog{
			Action:   domain.ActionStatusChanged,
			OldValue: &oldName,
			NewValue: &newName,
		})
		published = append(published, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor.ID,
			events.TicketStatusChangedPayload{OldStatus: oldName, NewStatus: newName}))
	}

	if input.PriorityID != nil && *input.PriorityID != ticket.PriorityID {
		if _, err := s.repos.Lookups.GetPriorityByID(ctx, *input.PriorityID); err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.PriorityID = *input.PriorityID
	}

	if input.Category.Set && !refEqual(ticket.CategoryID, input.Category.Value) {
		if input.Category.Value != nil {
			if _, err := s.repos.Lookups.GetCategoryByID(ctx, *input.Category.Value); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		ticket.CategoryID = input.Category.Value
	}

	if input.Department.Set && !refEqual(ticket.DepartmentID, input.Department.Value) {
		if input.Department.Value != nil {
			if _, err := s.repos.Departments.GetByID(ctx, *input.Department.Value); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		oldDept, newDept := refString(ticket.DepartmentID), refString(input.Department.Value)
		changes = append(changes, domain.TicketActivityLog{
			Action:   domain.ActionDepartmentChanged,
			OldValue: oldDept,
			NewValue: newDept,
		})
		published = append(published, events.NewEvent(events.EventTicketDepartmentChanged, ticket.ID, actor.ID,
			events.TicketDepartmentChangedPayload{OldDepartment: ticket.DepartmentID, NewDepartment: input.Department.Value}))
		ticket.DepartmentID = input.Department.Value
	}

	if input.Assignee.Set && !refEqual(ticket.AssignedTo, input.Assignee.Value) {
		if input.Assignee.Value != nil {
			if _, err := s.repos.Users.GetByID(ctx, *input.Assignee.Value); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
		oldAssignee, newAssignee := refString(ticket.AssignedTo), refString(input.Assignee.Value)
		changes = append(changes, domain.TicketActivityLog{
			Action:   domain.ActionAssignmentChanged,
			OldValue: oldAssignee,
			NewValue: newAssignee,
		})
		published = append(published, events.NewEvent(events.EventTicketAssignmentChanged, ticket.ID, actor.ID,
			events.TicketAssignmentChangedPayload{OldAssignee: ticket.AssignedTo, NewAssignee: input.Assignee.Value}))
		ticket.AssignedTo = input.Assignee.Value
	}

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		for i := range changes {
			changes[i].TicketID = ticket.ID
			changes[i].UserID = actor.ID
			if err := tx.ActivityLogs.Create(ctx, &changes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, event := range published {
		s.publish(ctx, event)
	}
	return ticket, nil
}

// AddMessage appends a reply or internal note. The first staff reply
// that is visible to the requester stamps first_response_at. Equal
// bodies are distinct messages.
func (s *TicketService) AddMessage(ctx context.Context, actor *domain.User, ticketID int64, body string, isInternal bool) (*domain.TicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	if isInternal && !actor.IsStaff() {
		return nil, apperrors.NewForbidden("internal notes are restricted to staff")
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	message := &domain.TicketMessage{
		TicketID:   ticket.ID,
		UserID:     actor.ID,
		IsInternal: isInternal,
		Body:       body,
	}

	kind := "Reply"
	if isInternal {
		kind = "Internal note"
	}

	stampFirstResponse := !isInternal && actor.IsStaff() && ticket.FirstResponseAt == nil

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Messages.Create(ctx, message); err != nil {
			return err
		}
		if stampFirstResponse {
			now := s.now()
			ticket.FirstResponseAt = &now
			if err := tx.Tickets.Update(ctx, ticket); err != nil {
				return err
			}
		}
		note := kind
		return tx.ActivityLogs.Create(ctx, &domain.TicketActivityLog{
			TicketID: ticket.ID,
			UserID:   actor.ID,
			Action:   domain.ActionMessageAdded,
			NewValue: &note,
		})
	})
	if err != nil {
		return nil, err
	}

	preview := body
	if len(preview) > 120 {
		preview = preview[:120]
	}
	s.publish(ctx, events.NewEvent(events.EventTicketMessageAdded, ticket.ID, actor.ID, events.TicketMessageAddedPayload{
		MessageID:   message.ID,
		IsInternal:  isInternal,
		BodyPreview: preview,
	}))
	return message, nil
}

// AttachmentInput carries one uploaded file.
type AttachmentInput struct {
	FileName  string
	MimeType  string
	MessageID *int64
	Content   io.Reader
}

// AddAttachment stores the file bytes and records metadata plus the
// audit row transactionally.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID int64, input AttachmentInput) (*domain.TicketAttachment, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.NewValidationError("file name is required", nil)
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	saved, err := s.files.Save(ticket.ID, input.FileName, input.Content)
	if err != nil {
		return nil, err
	}

	attachment := &domain.TicketAttachment{
		TicketID:   ticket.ID,
		MessageID:  input.MessageID,
		FileName:   input.FileName,
		StoredName: saved.StoredName,
		FilePath:   saved.Path,
		FileSize:   saved.Size,
		MimeType:   input.MimeType,
		UploadedBy: actor.ID,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if err := tx.Attachments.Create(ctx, attachment); err != nil {
			return err
		}
		name := input.FileName
		return tx.ActivityLogs.Create(ctx, &domain.TicketActivityLog{
			TicketID: ticket.ID,
			UserID:   actor.ID,
			Action:   domain.ActionAttachmentAdded,
			NewValue: &name,
		})
	})
	if err != nil {
		// the metadata row failed, do not leave the blob behind
		if removeErr := s.files.Remove(saved.Path); removeErr != nil {
			s.logger.Warn("orphaned attachment blob", zap.String("path", saved.Path), zap.Error(removeErr))
		}
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventTicketAttachmentAdded, ticket.ID, actor.ID, events.TicketAttachmentAddedPayload{
		AttachmentID: attachment.ID,
		FileName:     attachment.FileName,
		SizeBytes:    attachment.FileSize,
	}))
	return attachment, nil
}

// ListFilter carries list-screen query parameters.
type ListFilter struct {
	Status       string
	Priority     string
	DepartmentID *int64
	Search       string
	AssignedToMe bool
	Page         int
}

// ListTickets returns one page of summaries within the caller's scope
// plus stats computed over the whole scope, ignoring the filter.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter ListFilter) (*TicketPage, error) {
	scope, err := s.auth.ScopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	if filter.AssignedToMe {
		id := actor.ID
		scope.AssignedTo = &id
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	items, total, err := s.repos.Tickets.ListSummaries(ctx, repository.TicketFilter{
		Scope:        scope,
		Status:       filter.Status,
		Priority:     filter.Priority,
		DepartmentID: filter.DepartmentID,
		Search:       strings.TrimSpace(filter.Search),
		Limit:        s.pageSize,
		Offset:       (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.repos.Tickets.Stats(ctx, scope)
	if err != nil {
		return nil, err
	}

	return &TicketPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: s.pageSize,
		Stats:    stats,
	}, nil
}

// GetTicket loads the full detail view. Internal notes are stripped
// for requesters without staff visibility.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	status, err := s.repos.Lookups.GetStatusByID(ctx, ticket.StatusID)
	if err != nil {
		return nil, err
	}
	priority, err := s.repos.Lookups.GetPriorityByID(ctx, ticket.PriorityID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repos.Messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	if !s.auth.CanSeeInternal(actor) {
		visible := messages[:0]
		for _, m := range messages {
			if !m.IsInternal {
				visible = append(visible, m)
			}
		}
		messages = visible
	}

	attachments, err := s.repos.Attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	activity, err := s.repos.ActivityLogs.ListByTicket(ctx, ticket.ID, s.logLimit)
	if err != nil {
		return nil, err
	}

	policy, err := s.sla.FindPolicy(ctx, ticket.PriorityID, ticket.DepartmentID)
	if err != nil {
		return nil, err
	}

	return &TicketDetail{
		Ticket:      ticket,
		Status:      status,
		Priority:    priority,
		Messages:    messages,
		Attachments: attachments,
		Activity:    activity,
		SlaPolicy:   policy,
	}, nil
}

// OpenAttachment authorizes the download and hands back the blob.
func (s *TicketService) OpenAttachment(ctx context.Context, actor *domain.User, ticketID, attachmentID int64) (*domain.TicketAttachment, io.ReadCloser, error) {
	if _, err := s.loadVisible(ctx, actor, ticketID); err != nil {
		return nil, nil, err
	}
	attachment, err := s.repos.Attachments.GetByID(ctx, ticketID, attachmentID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	reader, err := s.files.Open(attachment.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return attachment, reader, nil
}

// DeleteTicket soft-deletes; the number stays burned for the year.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID int64) error {
	if _, err := s.loadManaged(ctx, actor, ticketID); err != nil {
		return err
	}
	if err := s.repos.Tickets.SoftDelete(ctx, ticketID); err != nil {
		return err
	}
	s.logger.Info("ticket deleted", zap.Int64("ticket_id", ticketID), zap.Int64("deleted_by", actor.ID))
	return nil
}

func (s *TicketService) loadVisible(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ok, err := s.auth.CanView(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !ok {
		// hide existence from users outside the scope
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

func (s *TicketService) loadManaged(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.CanManage(ctx, actor, ticket)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewForbidden("ticket workflow changes are restricted to staff")
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func refEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// refString renders a nullable reference for the activity log. A nil
// reference logs as the empty string, not as a missing value.
func refString(v *int64) *string {
	s := ""
	if v != nil {
		s = strconv.FormatInt(*v, 10)
	}
	return &s
}
