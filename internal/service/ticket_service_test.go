package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type fixture struct {
	store *memory.Store
	svc   *TicketService
	now   *time.Time

	roles      map[string]domain.Role
	statuses   map[string]domain.TicketStatus
	priorities map[string]domain.TicketPriority
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:      store,
		roles:      make(map[string]domain.Role),
		statuses:   make(map[string]domain.TicketStatus),
		priorities: make(map[string]domain.TicketPriority),
	}

	for _, name := range []string{domain.RoleUser, domain.RoleAgent, domain.RoleManager, domain.RoleAdmin} {
		f.roles[name] = store.AddRole(name)
	}
	for i, name := range []string{domain.StatusOpen, domain.StatusPending, domain.StatusResolved, domain.StatusClosed} {
		f.statuses[name] = store.AddStatus(name, i+1)
	}
	for level, name := range map[int]string{1: "Low", 2: "Medium", 3: "High", 4: "Urgent"} {
		f.priorities[name] = store.AddPriority(name, level)
	}

	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	f.now = &now

	files, err := storage.NewLocalStorage(t.TempDir(), 4)
	require.NoError(t, err)

	repos := store.Repos()
	f.svc = NewTicketService(TicketDependencies{
		Store:      store,
		Repos:      repos,
		Sla:        NewSlaService(repos.SlaPolicies),
		Assigner:   NewAssignmentService(repos.Users, repos.Tickets, repos.Lookups),
		Allocator:  NewTicketNumberAllocator(persistence.NewLocalLocker(), 10*time.Second, time.Second),
		Authorizer: NewRoleAuthorizer(repos.Users),
		Dispatcher: events.NewInMemoryDispatcher(),
		Files:      files,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return *f.now },
	})
	return f
}

func (f *fixture) admin() domain.User {
	return f.store.AddUser("Ada", "Admin", "ada@example.com", f.roles[domain.RoleAdmin], true)
}

func (f *fixture) requester() domain.User {
	return f.store.AddUser("Rae", "Requester", "rae@example.com", f.roles[domain.RoleUser], true)
}

func (f *fixture) createTicket(t *testing.T, actor domain.User, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), &actor, CreateTicketInput{
		Subject:     "printer on fire",
		Description: "it prints but also burns",
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketAssignsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()

	first := f.createTicket(t, actor, "Low")
	second := f.createTicket(t, actor, "Low")

	assert.Equal(t, "TICKET-2026-0001", first.TicketNumber)
	assert.Equal(t, "TICKET-2026-0002", second.TicketNumber)
}

func TestCreateTicketNumbersDistinctUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()

	const n = 20
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			ticket, err := f.svc.CreateTicket(context.Background(), &actor, CreateTicketInput{
				Subject:     "load test",
				Description: "concurrent create",
				Priority:    "Low",
			})
			if err != nil {
				results <- err.Error()
				return
			}
			results <- ticket.TicketNumber
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		number := <-results
		require.True(t, strings.HasPrefix(number, "TICKET-2026-"), "unexpected result %q", number)
		assert.False(t, seen[number], "duplicate number %q", number)
		seen[number] = true
	}
}

func TestCreateTicketSkipsSoftDeletedNumbers(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()

	first := f.createTicket(t, admin, "Low")
	require.NoError(t, f.svc.DeleteTicket(context.Background(), &admin, first.ID))

	second := f.createTicket(t, admin, "Low")
	assert.Equal(t, "TICKET-2026-0002", second.TicketNumber, "deleted numbers stay burned")
}

func TestCreateTicketComputesDueDateFromGlobalPolicy(t *testing.T) {
	f := newFixture(t)
	f.store.AddSlaPolicy("High SLA", f.priorities["High"].ID, nil, 60, 480)
	actor := f.requester()

	ticket := f.createTicket(t, actor, "High")

	require.NotNil(t, ticket.DueAt)
	assert.Equal(t, f.now.Add(480*time.Minute), *ticket.DueAt)
}

func TestCreateTicketPrefersDepartmentPolicy(t *testing.T) {
	f := newFixture(t)
	dept := f.store.AddDepartment("Support", "SUP")
	f.store.AddSlaPolicy("High SLA", f.priorities["High"].ID, nil, 60, 480)
	f.store.AddSlaPolicy("Support High SLA", f.priorities["High"].ID, &dept.ID, 30, 120)
	actor := f.requester()

	ticket, err := f.svc.CreateTicket(context.Background(), &actor, CreateTicketInput{
		Subject:      "vpn broken",
		Description:  "cannot connect",
		Priority:     "High",
		DepartmentID: &dept.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, ticket.DueAt)
	assert.Equal(t, f.now.Add(120*time.Minute), *ticket.DueAt)
}

func TestCreateTicketWithoutPolicyLeavesDueDateEmpty(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()

	ticket := f.createTicket(t, actor, "Medium")
	assert.Nil(t, ticket.DueAt)
}

func TestCreateTicketStaysUnassignedWithoutCandidates(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()

	ticket := f.createTicket(t, actor, "Low")
	assert.Nil(t, ticket.AssignedTo)

	logs := f.store.LogsForTicket(ticket.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ActionTicketCreated, logs[0].Action)
	require.NotNil(t, logs[0].NewValue)
	assert.Equal(t, ticket.TicketNumber, *logs[0].NewValue)
}

func TestCreateTicketAutoAssignsLeastLoadedAgent(t *testing.T) {
	f := newFixture(t)
	busy := f.store.AddUser("Bea", "Busy", "bea@example.com", f.roles[domain.RoleAgent], true)
	idle := f.store.AddUser("Ike", "Idle", "ike@example.com", f.roles[domain.RoleAgent], true)
	actor := f.requester()

	// load the first agent with an open ticket
	loaded := f.createTicket(t, actor, "Low")
	require.NotNil(t, loaded.AssignedTo)
	require.Equal(t, busy.ID, *loaded.AssignedTo, "first assignment breaks the tie toward the lowest id")

	next := f.createTicket(t, actor, "Low")
	require.NotNil(t, next.AssignedTo)
	assert.Equal(t, idle.ID, *next.AssignedTo)
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()

	_, err := f.svc.CreateTicket(context.Background(), &actor, CreateTicketInput{
		Subject:     "subject",
		Description: "description",
		Priority:    "Catastrophic",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateTicketStampsResolutionOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	other := f.store.AddUser("Omar", "Other", "omar@example.com", f.roles[domain.RoleAdmin], true)
	ticket := f.createTicket(t, admin, "Low")

	resolvedID := f.statuses[domain.StatusResolved].ID
	updated, err := f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{StatusID: &resolvedID})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	firstResolved := *updated.ResolvedAt
	require.NotNil(t, updated.ResolverID)
	assert.Equal(t, admin.ID, *updated.ResolverID)

	// reopen, advance time, resolve again as someone else
	openID := f.statuses[domain.StatusOpen].ID
	_, err = f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{StatusID: &openID})
	require.NoError(t, err)

	later := f.now.Add(2 * time.Hour)
	*f.now = later
	updated, err = f.svc.UpdateTicket(context.Background(), &other, ticket.ID, UpdateTicketInput{StatusID: &resolvedID})
	require.NoError(t, err)

	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, firstResolved, *updated.ResolvedAt, "resolved_at is written once")
	assert.Equal(t, admin.ID, *updated.ResolverID, "resolver_id keeps the first resolver")
}

func TestUpdateTicketStampsClosureOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	ticket := f.createTicket(t, admin, "Low")

	closedID := f.statuses[domain.StatusClosed].ID
	updated, err := f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{StatusID: &closedID})
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedAt)
	require.NotNil(t, updated.ClosedBy)
	assert.Equal(t, admin.ID, *updated.ClosedBy)
	firstClosed := *updated.ClosedAt

	openID := f.statuses[domain.StatusOpen].ID
	_, err = f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{StatusID: &openID})
	require.NoError(t, err)
	*f.now = f.now.Add(time.Hour)
	updated, err = f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{StatusID: &closedID})
	require.NoError(t, err)

	assert.Equal(t, firstClosed, *updated.ClosedAt)
}

func TestUpdateTicketWritesOneLogRowPerChangedField(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	agent := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	dept := f.store.AddDepartment("Support", "SUP")
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")
	require.NotNil(t, ticket.AssignedTo)

	pendingID := f.statuses[domain.StatusPending].ID
	_, err := f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{
		StatusID:   &pendingID,
		Department: RefChange{Set: true, Value: &dept.ID},
		Assignee:   RefChange{Set: true, Value: nil},
	})
	require.NoError(t, err)

	logs := f.store.LogsForTicket(ticket.ID)
	byAction := make(map[string]domain.TicketActivityLog)
	for _, entry := range logs {
		if entry.UserID == admin.ID {
			byAction[entry.Action] = entry
		}
	}
	require.Len(t, byAction, 3)

	statusLog := byAction[domain.ActionStatusChanged]
	require.NotNil(t, statusLog.OldValue)
	require.NotNil(t, statusLog.NewValue)
	assert.Equal(t, domain.StatusOpen, *statusLog.OldValue)
	assert.Equal(t, domain.StatusPending, *statusLog.NewValue)

	deptLog := byAction[domain.ActionDepartmentChanged]
	require.NotNil(t, deptLog.OldValue)
	assert.Equal(t, "", *deptLog.OldValue, "missing department logs as empty string")
	require.NotNil(t, deptLog.NewValue)
	assert.Equal(t, strconv.FormatInt(dept.ID, 10), *deptLog.NewValue)

	assignLog := byAction[domain.ActionAssignmentChanged]
	require.NotNil(t, assignLog.OldValue)
	assert.Equal(t, strconv.FormatInt(agent.ID, 10), *assignLog.OldValue)
	require.NotNil(t, assignLog.NewValue)
	assert.Equal(t, "", *assignLog.NewValue, "cleared assignment logs as empty string")
}

func TestUpdateTicketIgnoresNoOpChanges(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	ticket := f.createTicket(t, admin, "Low")
	before := len(f.store.LogsForTicket(ticket.ID))

	openID := f.statuses[domain.StatusOpen].ID
	_, err := f.svc.UpdateTicket(context.Background(), &admin, ticket.ID, UpdateTicketInput{
		StatusID: &openID,
		Assignee: RefChange{Set: true, Value: ticket.AssignedTo},
	})
	require.NoError(t, err)

	assert.Len(t, f.store.LogsForTicket(ticket.ID), before)
}

func TestUpdateTicketForbiddenForRequester(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	pendingID := f.statuses[domain.StatusPending].ID
	_, err := f.svc.UpdateTicket(context.Background(), &actor, ticket.ID, UpdateTicketInput{StatusID: &pendingID})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAddMessageKeepsDuplicateBodies(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	first, err := f.svc.AddMessage(context.Background(), &actor, ticket.ID, "same words", false)
	require.NoError(t, err)
	second, err := f.svc.AddMessage(context.Background(), &actor, ticket.ID, "same words", false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.store.MessagesForTicket(ticket.ID), 2)
}

func TestAddMessageStampsFirstResponseOnStaffReplyOnly(t *testing.T) {
	f := newFixture(t)
	agent := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	// requester messages never stamp
	_, err := f.svc.AddMessage(context.Background(), &actor, ticket.ID, "any update?", false)
	require.NoError(t, err)
	assert.Nil(t, f.store.TicketByID(ticket.ID).FirstResponseAt)

	// internal notes never stamp
	_, err = f.svc.AddMessage(context.Background(), &agent, ticket.ID, "looking into it", true)
	require.NoError(t, err)
	assert.Nil(t, f.store.TicketByID(ticket.ID).FirstResponseAt)

	_, err = f.svc.AddMessage(context.Background(), &agent, ticket.ID, "on it", false)
	require.NoError(t, err)
	stamped := f.store.TicketByID(ticket.ID).FirstResponseAt
	require.NotNil(t, stamped)
	firstStamp := *stamped

	*f.now = f.now.Add(time.Hour)
	_, err = f.svc.AddMessage(context.Background(), &agent, ticket.ID, "still on it", false)
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *f.store.TicketByID(ticket.ID).FirstResponseAt, "first stamp wins")
}

func TestAddMessageInternalNoteRequiresStaff(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	_, err := f.svc.AddMessage(context.Background(), &actor, ticket.ID, "sneaky note", true)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAddMessageLogsKind(t *testing.T) {
	f := newFixture(t)
	agent := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	_, err := f.svc.AddMessage(context.Background(), &agent, ticket.ID, "public answer", false)
	require.NoError(t, err)
	_, err = f.svc.AddMessage(context.Background(), &agent, ticket.ID, "private note", true)
	require.NoError(t, err)

	var kinds []string
	for _, entry := range f.store.LogsForTicket(ticket.ID) {
		if entry.Action == domain.ActionMessageAdded {
			require.NotNil(t, entry.NewValue)
			kinds = append(kinds, *entry.NewValue)
		}
	}
	assert.Equal(t, []string{"Reply", "Internal note"}, kinds)
}

func TestGetTicketHidesInternalNotesFromRequester(t *testing.T) {
	f := newFixture(t)
	agent := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	_, err := f.svc.AddMessage(context.Background(), &agent, ticket.ID, "public answer", false)
	require.NoError(t, err)
	_, err = f.svc.AddMessage(context.Background(), &agent, ticket.ID, "internal note", true)
	require.NoError(t, err)

	detail, err := f.svc.GetTicket(context.Background(), &actor, ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "public answer", detail.Messages[0].Body)

	adminUser := f.admin()
	detail, err = f.svc.GetTicket(context.Background(), &adminUser, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 2)
}

func TestGetTicketHiddenOutsideRequesterScope(t *testing.T) {
	f := newFixture(t)
	owner := f.requester()
	stranger := f.store.AddUser("Sid", "Stranger", "sid@example.com", f.roles[domain.RoleUser], true)
	ticket := f.createTicket(t, owner, "Low")

	_, err := f.svc.GetTicket(context.Background(), &stranger, ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"), "existence is hidden, not forbidden")
}

func TestListTicketsStatsIgnoreFilter(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	f.store.AddSlaPolicy("High SLA", f.priorities["High"].ID, nil, 60, 480)

	f.createTicket(t, admin, "Low")
	f.createTicket(t, admin, "High")
	high := f.createTicket(t, admin, "High")

	resolvedID := f.statuses[domain.StatusResolved].ID
	_, err := f.svc.UpdateTicket(context.Background(), &admin, high.ID, UpdateTicketInput{StatusID: &resolvedID})
	require.NoError(t, err)

	page, err := f.svc.ListTickets(context.Background(), &admin, ListFilter{Status: domain.StatusResolved})
	require.NoError(t, err)

	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Total)
	assert.EqualValues(t, 3, page.Stats.Total, "stats cover the scope, not the filter")
	assert.EqualValues(t, 2, page.Stats.Open)
	assert.EqualValues(t, 1, page.Stats.Resolved)
	assert.EqualValues(t, 2, page.Stats.High)
}

func TestListTicketsRequesterSeesOnlyOwn(t *testing.T) {
	f := newFixture(t)
	owner := f.requester()
	stranger := f.store.AddUser("Sid", "Stranger", "sid@example.com", f.roles[domain.RoleUser], true)
	f.createTicket(t, owner, "Low")
	f.createTicket(t, stranger, "Low")

	page, err := f.svc.ListTickets(context.Background(), &owner, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.EqualValues(t, 1, page.Stats.Total)
}

func TestAddAttachmentStoresFileAndLogs(t *testing.T) {
	f := newFixture(t)
	actor := f.requester()
	ticket := f.createTicket(t, actor, "Low")

	attachment, err := f.svc.AddAttachment(context.Background(), &actor, ticket.ID, AttachmentInput{
		FileName: "screenshot.png",
		MimeType: "image/png",
		Content:  strings.NewReader("not really a png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "screenshot.png", attachment.FileName)
	assert.EqualValues(t, len("not really a png"), attachment.FileSize)
	assert.NotEqual(t, "screenshot.png", attachment.StoredName)

	var found bool
	for _, entry := range f.store.LogsForTicket(ticket.ID) {
		if entry.Action == domain.ActionAttachmentAdded {
			require.NotNil(t, entry.NewValue)
			assert.Equal(t, "screenshot.png", *entry.NewValue)
			found = true
		}
	}
	assert.True(t, found)
}
