package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func TestScopeForAdminIsUnrestricted(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleAdmin)
	admin := store.AddUser("Ada", "Admin", "ada@example.com", role, true)

	scope, err := NewRoleAuthorizer(store.Repos().Users).ScopeFor(context.Background(), &admin)
	require.NoError(t, err)
	assert.Nil(t, scope.DepartmentIDs)
	assert.Nil(t, scope.CreatedBy)
}

func TestScopeForManagerWithoutDepartmentsSeesNothing(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleManager)
	manager := store.AddUser("Mia", "Manager", "mia@example.com", role, true)

	scope, err := NewRoleAuthorizer(store.Repos().Users).ScopeFor(context.Background(), &manager)
	require.NoError(t, err)
	require.NotNil(t, scope.DepartmentIDs)
	assert.Empty(t, scope.DepartmentIDs)
}

func TestScopeForAgentListsDepartments(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleAgent)
	agent := store.AddUser("Ann", "Agent", "ann@example.com", role, true)
	dept := store.AddDepartment("Support", "SUP")
	store.AddMembership(agent.ID, dept.ID, true)

	scope, err := NewRoleAuthorizer(store.Repos().Users).ScopeFor(context.Background(), &agent)
	require.NoError(t, err)
	assert.Equal(t, []int64{dept.ID}, scope.DepartmentIDs)
}

func TestScopeForRequesterPinsCreator(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleUser)
	user := store.AddUser("Rae", "Requester", "rae@example.com", role, true)

	scope, err := NewRoleAuthorizer(store.Repos().Users).ScopeFor(context.Background(), &user)
	require.NoError(t, err)
	require.NotNil(t, scope.CreatedBy)
	assert.Equal(t, user.ID, *scope.CreatedBy)
}

func TestCanViewAssignedTicketOutsideDepartments(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleAgent)
	agent := store.AddUser("Ann", "Agent", "ann@example.com", role, true)
	ticket := &domain.Ticket{ID: 1, CreatedBy: 99, AssignedTo: &agent.ID}

	ok, err := NewRoleAuthorizer(store.Repos().Users).CanView(context.Background(), &agent, ticket)
	require.NoError(t, err)
	assert.True(t, ok, "assignment grants visibility regardless of membership")
}

func TestCanManageDeniedToRequester(t *testing.T) {
	store := memory.NewStore()
	role := store.AddRole(domain.RoleUser)
	user := store.AddUser("Rae", "Requester", "rae@example.com", role, true)
	ticket := &domain.Ticket{ID: 1, CreatedBy: user.ID}

	ok, err := NewRoleAuthorizer(store.Repos().Users).CanManage(context.Background(), &user, ticket)
	require.NoError(t, err)
	assert.False(t, ok, "owning a ticket does not grant workflow changes")
}
