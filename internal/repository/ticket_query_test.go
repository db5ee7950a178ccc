package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTicketWhereDefaults(t *testing.T) {
	where, args := buildTicketWhere(TicketFilter{})
	assert.Equal(t, "tickets.deleted_at IS NULL", where)
	assert.Empty(t, args)
}

func TestBuildTicketWhereEmptyDepartmentScopeMatchesNothing(t *testing.T) {
	where, args := buildTicketWhere(TicketFilter{Scope: TicketScope{DepartmentIDs: []int64{}}})
	assert.Equal(t, "tickets.deleted_at IS NULL AND FALSE", where)
	assert.Empty(t, args)
}

func TestBuildTicketWhereDepartmentScope(t *testing.T) {
	where, args := buildTicketWhere(TicketFilter{Scope: TicketScope{DepartmentIDs: []int64{3, 7}}})
	assert.Equal(t, "tickets.deleted_at IS NULL AND tickets.department_id = ANY($1)", where)
	assert.Equal(t, []any{[]int64{3, 7}}, args)
}

func TestBuildTicketWhereFullFilter(t *testing.T) {
	creator := int64(9)
	dept := int64(4)
	where, args := buildTicketWhere(TicketFilter{
		Scope:        TicketScope{CreatedBy: &creator},
		Status:       "Open",
		Priority:     "High",
		DepartmentID: &dept,
		Search:       "  Printer ",
	})

	assert.Equal(t,
		"tickets.deleted_at IS NULL AND tickets.created_by = $1 AND ticket_statuses.name = $2"+
			" AND ticket_priorities.name = $3 AND tickets.department_id = $4"+
			" AND (LOWER(tickets.ticket_number) LIKE $5 OR LOWER(tickets.subject) LIKE $5)",
		where)
	assert.Equal(t, []any{int64(9), "Open", "High", int64(4), "%printer%"}, args)
}

func TestBuildTicketWhereAssignedScope(t *testing.T) {
	assignee := int64(12)
	where, args := buildTicketWhere(TicketFilter{Scope: TicketScope{AssignedTo: &assignee}})
	assert.Equal(t, "tickets.deleted_at IS NULL AND tickets.assigned_to = $1", where)
	assert.Equal(t, []any{int64(12)}, args)
}
