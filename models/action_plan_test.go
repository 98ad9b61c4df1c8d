package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActionPlanStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from ActionPlanStatus
		to   ActionPlanStatus
		want bool
	}{
		{ActionPlanOpen, ActionPlanInProgress, true},
		{ActionPlanOpen, ActionPlanDone, true},
		{ActionPlanOpen, ActionPlanCancelled, true},
		{ActionPlanOpen, ActionPlanOpen, false},
		{ActionPlanInProgress, ActionPlanOpen, true},
		{ActionPlanInProgress, ActionPlanDone, true},
		{ActionPlanDone, ActionPlanOpen, false},
		{ActionPlanCancelled, ActionPlanInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestActionPlan_Overdue(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)

	plan := &ActionPlan{Status: ActionPlanOpen, DueDate: now.Add(-time.Hour)}
	assert.True(t, plan.Overdue(now))

	plan.Status = ActionPlanDone
	assert.False(t, plan.Overdue(now))

	plan.Status = ActionPlanInProgress
	plan.DueDate = now.Add(time.Hour)
	assert.False(t, plan.Overdue(now))
}

func TestRole_CanManage(t *testing.T) {
	assert.True(t, RoleAdmin.CanManage())
	assert.True(t, RoleManager.CanManage())
	assert.False(t, RoleOperator.CanManage())
}

func TestActionPlanStatus_Valid(t *testing.T) {
	for _, s := range []ActionPlanStatus{ActionPlanOpen, ActionPlanInProgress, ActionPlanDone, ActionPlanCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ActionPlanStatus("closed").Valid())
	assert.False(t, ActionPlanStatus("").Valid())
}
