package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskAssignment status values
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusOverdue    = "overdue"
	TaskStatusCancelled  = "cancelled"
)

// TaskAssignment priority values
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Reminder channel types
const (
	ReminderTypeEmail        = "email"
	ReminderTypeNotification = "notification"
	ReminderTypeSMS          = "sms"
)

// ErrDeadlineNotAfterAssigned rejects tasks whose deadline does not leave any
// working time after assignment.
var ErrDeadlineNotAfterAssigned = errors.New("deadline must be after assigned time")

// TaskAssignment links a user to a book entry with a deadline. Status moves
// pending -> in_progress -> completed, or to overdue once the deadline passes;
// completed and cancelled are terminal for automatic transitions.
type TaskAssignment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BookID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"book_id"`
	Book             *Book          `gorm:"foreignKey:BookID" json:"book,omitempty"`
	BookEntryID      *uuid.UUID     `gorm:"type:uuid;index" json:"book_entry_id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	AssignedBy       uuid.UUID      `gorm:"type:uuid;not null;index" json:"assigned_by"`
	Assigner         *User          `gorm:"foreignKey:AssignedBy" json:"assigner,omitempty"`
	AssignedTo       uuid.UUID      `gorm:"type:uuid;not null;index" json:"assigned_to"`
	Assignee         *User          `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	UnitID           *uuid.UUID     `gorm:"type:uuid;index" json:"unit_id"`
	DepartmentID     *uuid.UUID     `gorm:"type:uuid;index" json:"department_id"`
	AssignedAt       time.Time      `gorm:"not null" json:"assigned_at"`
	Deadline         time.Time      `gorm:"not null;index" json:"deadline"`
	CompletedAt      *time.Time     `json:"completed_at"`
	Status           string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority         string         `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Progress         int            `gorm:"not null;default:0" json:"progress"`
	RequiresApproval bool           `gorm:"default:false" json:"requires_approval"`
	ApprovedBy       *uuid.UUID     `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt       *time.Time     `json:"approved_at"`
	ApprovalNotes    string         `gorm:"type:text" json:"approval_notes"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	UpdatedBy        *uuid.UUID     `gorm:"type:uuid" json:"updated_by"`
	Notes            []TaskNote     `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
	Reminders        []TaskReminder `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"reminders,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *TaskAssignment) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TaskNote is an append-only remark on a task.
type TaskNote struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *TaskNote) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// TaskReminder is a one-shot scheduled notification tied to a task deadline.
// Sent flips false -> true exactly once; rows are never removed.
type TaskReminder struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	Type        string     `gorm:"type:varchar(20);not null;default:'notification'" json:"type"`
	Message     string     `gorm:"type:text" json:"message"`
	ScheduledAt time.Time  `gorm:"not null;index" json:"scheduled_at"`
	Sent        bool       `gorm:"not null;default:false;index" json:"sent"`
	SentAt      *time.Time `json:"sent_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (r *TaskReminder) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// --- State machine ---
//
// Every mutation path (task service and scheduler sweeps) goes through these
// transition functions so the overdue predicate lives in exactly one place.

// ValidateDeadline enforces the creation invariant deadline > assignedAt.
func (t *TaskAssignment) ValidateDeadline() error {
	if !t.Deadline.After(t.AssignedAt) {
		return ErrDeadlineNotAfterAssigned
	}
	return nil
}

// ApplyProgress clamps p into [0,100] and applies the progress-driven
// transitions: any progress on a pending task starts it, and full progress
// completes it, stamping CompletedAt once.
func (t *TaskAssignment) ApplyProgress(p int, now time.Time) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	t.Progress = p

	switch {
	case p == 100:
		t.Status = TaskStatusCompleted
		if t.CompletedAt == nil {
			completed := now
			t.CompletedAt = &completed
		}
	case p > 0 && t.Status == TaskStatusPending:
		t.Status = TaskStatusInProgress
	}
}

// IsPastDeadline reports whether the task should be classified overdue at now.
// The scheduler sweep and every direct write share this predicate.
func (t *TaskAssignment) IsPastDeadline(now time.Time) bool {
	return t.Deadline.Before(now) &&
		t.Status != TaskStatusCompleted &&
		t.Status != TaskStatusCancelled &&
		t.Status != TaskStatusOverdue
}

// Reclassify forces the overdue status when the deadline has passed. Returns
// true when the status actually changed. Overdue is never auto-reverted.
func (t *TaskAssignment) Reclassify(now time.Time) bool {
	if !t.IsPastDeadline(now) {
		return false
	}
	t.Status = TaskStatusOverdue
	return true
}

// Cancel is the only explicit terminal transition besides completion.
func (t *TaskAssignment) Cancel() error {
	switch t.Status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusOverdue:
		t.Status = TaskStatusCancelled
		return nil
	default:
		return fmt.Errorf("cannot cancel task in status %s", t.Status)
	}
}

// Approve records the approval gate, which is independent of Status.
func (t *TaskAssignment) Approve(by uuid.UUID, notes string, now time.Time) {
	t.ApprovedBy = &by
	approvedAt := now
	t.ApprovedAt = &approvedAt
	t.ApprovalNotes = notes
}

// DaysOverdue returns ceil((now - deadline) / 24h), minimum 1, for
// notification copy. Callers only invoke it on tasks past their deadline.
func (t *TaskAssignment) DaysOverdue(now time.Time) int {
	elapsed := now.Sub(t.Deadline)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
