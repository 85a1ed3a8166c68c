package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeadline(t *testing.T) {
	assigned := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	task := TaskAssignment{AssignedAt: assigned, Deadline: assigned.Add(time.Hour)}
	assert.NoError(t, task.ValidateDeadline())

	task.Deadline = assigned
	assert.ErrorIs(t, task.ValidateDeadline(), ErrDeadlineNotAfterAssigned)

	task.Deadline = assigned.Add(-time.Hour)
	assert.ErrorIs(t, task.ValidateDeadline(), ErrDeadlineNotAfterAssigned)
}

func TestApplyProgress(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("clamps out-of-range values", func(t *testing.T) {
		task := TaskAssignment{Status: TaskStatusPending}
		task.ApplyProgress(-10, now)
		assert.Equal(t, 0, task.Progress)
		assert.Equal(t, TaskStatusPending, task.Status)

		task.ApplyProgress(150, now)
		assert.Equal(t, 100, task.Progress)
		assert.Equal(t, TaskStatusCompleted, task.Status)
	})

	t.Run("any progress starts a pending task", func(t *testing.T) {
		task := TaskAssignment{Status: TaskStatusPending}
		task.ApplyProgress(1, now)
		assert.Equal(t, TaskStatusInProgress, task.Status)
	})

	t.Run("full progress completes and stamps once", func(t *testing.T) {
		task := TaskAssignment{Status: TaskStatusInProgress}
		task.ApplyProgress(100, now)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, now, *task.CompletedAt)

		later := now.Add(time.Hour)
		task.ApplyProgress(100, later)
		assert.Equal(t, now, *task.CompletedAt, "CompletedAt must not move on repeat writes")
	})

	t.Run("progress on an overdue task does not revert it", func(t *testing.T) {
		task := TaskAssignment{Status: TaskStatusOverdue}
		task.ApplyProgress(50, now)
		assert.Equal(t, TaskStatusOverdue, task.Status)
		assert.Equal(t, 50, task.Progress)
	})
}

func TestReclassify(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		status   string
		deadline time.Time
		want     bool
		wantEnd  string
	}{
		{"pending past deadline", TaskStatusPending, now.Add(-time.Minute), true, TaskStatusOverdue},
		{"in progress past deadline", TaskStatusInProgress, now.Add(-48 * time.Hour), true, TaskStatusOverdue},
		{"pending before deadline", TaskStatusPending, now.Add(time.Minute), false, TaskStatusPending},
		{"completed is terminal", TaskStatusCompleted, now.Add(-time.Hour), false, TaskStatusCompleted},
		{"cancelled is terminal", TaskStatusCancelled, now.Add(-time.Hour), false, TaskStatusCancelled},
		{"already overdue", TaskStatusOverdue, now.Add(-time.Hour), false, TaskStatusOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := TaskAssignment{Status: tc.status, Deadline: tc.deadline}
			assert.Equal(t, tc.want, task.Reclassify(now))
			assert.Equal(t, tc.wantEnd, task.Status)
		})
	}
}

func TestCancel(t *testing.T) {
	for _, status := range []string{TaskStatusPending, TaskStatusInProgress, TaskStatusOverdue} {
		task := TaskAssignment{Status: status}
		assert.NoError(t, task.Cancel())
		assert.Equal(t, TaskStatusCancelled, task.Status)
	}

	for _, status := range []string{TaskStatusCompleted, TaskStatusCancelled} {
		task := TaskAssignment{Status: status}
		assert.Error(t, task.Cancel())
		assert.Equal(t, status, task.Status)
	}
}

func TestDaysOverdue(t *testing.T) {
	deadline := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	task := TaskAssignment{Deadline: deadline}

	assert.Equal(t, 1, task.DaysOverdue(deadline.Add(time.Minute)), "partial day rounds up")
	assert.Equal(t, 1, task.DaysOverdue(deadline.Add(24*time.Hour)))
	assert.Equal(t, 2, task.DaysOverdue(deadline.Add(24*time.Hour+time.Second)))
	assert.Equal(t, 3, task.DaysOverdue(deadline.Add(60*time.Hour)))
	assert.Equal(t, 1, task.DaysOverdue(deadline), "never less than one day")
}

func TestApprove(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	by := uuid.New()

	task := TaskAssignment{Status: TaskStatusCompleted, RequiresApproval: true}
	task.Approve(by, "đạt yêu cầu", now)

	require.NotNil(t, task.ApprovedBy)
	assert.Equal(t, by, *task.ApprovedBy)
	require.NotNil(t, task.ApprovedAt)
	assert.Equal(t, now, *task.ApprovedAt)
	assert.Equal(t, "đạt yêu cầu", task.ApprovalNotes)
	assert.Equal(t, TaskStatusCompleted, task.Status, "approval does not alter status")
}
