package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type assignmentFixture struct {
	store *memory.Store
	svc   *AssignmentService

	open  domain.TicketStatus
	roles map[string]domain.Role
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	store := memory.NewStore()
	f := &assignmentFixture{store: store, roles: make(map[string]domain.Role)}
	for _, name := range []string{domain.RoleUser, domain.RoleAgent, domain.RoleManager, domain.RoleAdmin} {
		f.roles[name] = store.AddRole(name)
	}
	f.open = store.AddStatus(domain.StatusOpen, 1)

	repos := store.Repos()
	f.svc = NewAssignmentService(repos.Users, repos.Tickets, repos.Lookups)
	return f
}

func (f *assignmentFixture) openTicketFor(t *testing.T, assignee int64) {
	t.Helper()
	err := f.store.Repos().Tickets.Create(context.Background(), &domain.Ticket{
		TicketNumber: "TICKET-2026-9999",
		Subject:      "load",
		Description:  "load",
		StatusID:     f.open.ID,
		PriorityID:   1,
		CreatedBy:    assignee,
		AssignedTo:   &assignee,
	})
	require.NoError(t, err)
}

func TestPickAssigneeOnlyActiveStaffRoles(t *testing.T) {
	f := newAssignmentFixture(t)
	f.store.AddUser("Rae", "Requester", "rae@example.com", f.roles[domain.RoleUser], true)
	f.store.AddUser("Ada", "Admin", "ada@example.com", f.roles[domain.RoleAdmin], true)
	f.store.AddUser("Gone", "Agent", "gone@example.com", f.roles[domain.RoleAgent], false)
	manager := f.store.AddUser("Mia", "Manager", "mia@example.com", f.roles[domain.RoleManager], true)

	picked, err := f.svc.PickAssignee(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, manager.ID, picked.ID, "requesters, admins and inactive agents are not assignable")
}

func TestPickAssigneePrefersLeastLoaded(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	second := f.store.AddUser("Ben", "Agent", "ben@example.com", f.roles[domain.RoleAgent], true)
	f.openTicketFor(t, first.ID)
	f.openTicketFor(t, first.ID)
	f.openTicketFor(t, second.ID)

	picked, err := f.svc.PickAssignee(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, second.ID, picked.ID)
}

func TestPickAssigneeTieBreaksTowardLowestID(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.store.AddUser("Ann", "Agent", "ann@example.com", f.roles[domain.RoleAgent], true)
	second := f.store.AddUser("Ben", "Agent", "ben@example.com", f.roles[domain.RoleAgent], true)
	f.openTicketFor(t, first.ID)
	f.openTicketFor(t, second.ID)

	picked, err := f.svc.PickAssignee(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, first.ID, picked.ID)
}

func TestPickAssigneeRestrictedToDepartment(t *testing.T) {
	f := newAssignmentFixture(t)
	outsider := f.store.AddUser("Out", "Sider", "out@example.com", f.roles[domain.RoleAgent], true)
	member := f.store.AddUser("Mem", "Ber", "mem@example.com", f.roles[domain.RoleAgent], true)
	dept := f.store.AddDepartment("Support", "SUP")
	f.store.AddMembership(member.ID, dept.ID, true)

	picked, err := f.svc.PickAssignee(context.Background(), &dept.ID)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, member.ID, picked.ID)
	assert.NotEqual(t, outsider.ID, picked.ID)
}

func TestPickAssigneeEmptyPool(t *testing.T) {
	f := newAssignmentFixture(t)
	f.store.AddUser("Rae", "Requester", "rae@example.com", f.roles[domain.RoleUser], true)

	picked, err := f.svc.PickAssignee(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, picked)
}
