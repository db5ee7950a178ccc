package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func TestFindPolicyDepartmentOverridesGlobal(t *testing.T) {
	store := memory.NewStore()
	priority := store.AddPriority("High", 3)
	dept := store.AddDepartment("Support", "SUP")
	store.AddSlaPolicy("global", priority.ID, nil, 60, 480)
	local := store.AddSlaPolicy("support", priority.ID, &dept.ID, 30, 120)

	svc := NewSlaService(store.Repos().SlaPolicies)
	policy, err := svc.FindPolicy(context.Background(), priority.ID, &dept.ID)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, local.ID, policy.ID)
}

func TestFindPolicyFallsBackToGlobal(t *testing.T) {
	store := memory.NewStore()
	priority := store.AddPriority("High", 3)
	dept := store.AddDepartment("Support", "SUP")
	global := store.AddSlaPolicy("global", priority.ID, nil, 60, 480)

	svc := NewSlaService(store.Repos().SlaPolicies)
	policy, err := svc.FindPolicy(context.Background(), priority.ID, &dept.ID)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, global.ID, policy.ID)
}

func TestComputeDueAtWithoutPolicy(t *testing.T) {
	store := memory.NewStore()
	priority := store.AddPriority("Medium", 2)

	svc := NewSlaService(store.Repos().SlaPolicies)
	due, policy, err := svc.ComputeDueAt(context.Background(), priority.ID, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, due)
	assert.Nil(t, policy)
}

func TestComputeDueAtWithoutResolutionTime(t *testing.T) {
	store := memory.NewStore()
	priority := store.AddPriority("Low", 1)
	store.AddSlaPolicy("response-only", priority.ID, nil, 60, 0)

	svc := NewSlaService(store.Repos().SlaPolicies)
	due, policy, err := svc.ComputeDueAt(context.Background(), priority.ID, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Nil(t, due)
}

func TestComputeDueAtAddsResolutionMinutes(t *testing.T) {
	store := memory.NewStore()
	priority := store.AddPriority("Urgent", 4)
	store.AddSlaPolicy("urgent", priority.ID, nil, 30, 240)

	svc := NewSlaService(store.Repos().SlaPolicies)
	from := time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC)
	due, policy, err := svc.ComputeDueAt(context.Background(), priority.ID, nil, from)
	require.NoError(t, err)
	require.NotNil(t, policy)
	require.NotNil(t, due)
	assert.Equal(t, from.Add(4*time.Hour), *due)
}
