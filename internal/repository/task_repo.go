package repository

import (
	"context"
	"time"

	"sosach/internal/model"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status     string
	Priority   string
	AssignedTo *uuid.UUID
	AssignedBy *uuid.UUID
	BookID     *uuid.UUID
}

// DueReminder is one unsent reminder joined with the task fields the
// reminder sweep needs to build its notification.
type DueReminder struct {
	Reminder model.TaskReminder
	Task     model.TaskAssignment
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.TaskAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaskAssignment, error)
	List(ctx context.Context, filter TaskFilter, p pagination.Params) ([]model.TaskAssignment, int64, error)
	Update(ctx context.Context, task *model.TaskAssignment) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddNote(ctx context.Context, note *model.TaskNote) error
	AddReminder(ctx context.Context, reminder *model.TaskReminder) error
	AddReminders(ctx context.Context, reminders []model.TaskReminder) error

	DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error)
	ClaimReminder(ctx context.Context, reminderID uuid.UUID, at time.Time) (bool, error)
	OverdueCandidates(ctx context.Context, now time.Time) ([]model.TaskAssignment, error)
	MarkOverdue(ctx context.Context, taskID uuid.UUID) (bool, error)
	UpcomingReminders(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]DueReminder, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.TaskAssignment) error {
	return GetDB(ctx, r.db).Create(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaskAssignment, error) {
	var task model.TaskAssignment
	err := GetDB(ctx, r.db).
		Preload("Assigner").Preload("Assignee").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Reminders", func(db *gorm.DB) *gorm.DB { return db.Order("scheduled_at asc") }).
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter, p pagination.Params) ([]model.TaskAssignment, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.TaskAssignment{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.AssignedTo != nil {
		db = db.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.AssignedBy != nil {
		db = db.Where("assigned_by = ?", *filter.AssignedBy)
	}
	if filter.BookID != nil {
		db = db.Where("book_id = ?", *filter.BookID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.TaskAssignment
	err := db.Preload("Assigner").Preload("Assignee").
		Order("deadline asc").
		Scopes(p.Scope()).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.TaskAssignment) error {
	return GetDB(ctx, r.db).Omit("Notes", "Reminders", "Assigner", "Assignee", "Book").Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Select("Notes", "Reminders").Delete(&model.TaskAssignment{ID: id}).Error
}

func (r *taskRepository) AddNote(ctx context.Context, note *model.TaskNote) error {
	return GetDB(ctx, r.db).Create(note).Error
}

func (r *taskRepository) AddReminder(ctx context.Context, reminder *model.TaskReminder) error {
	return GetDB(ctx, r.db).Create(reminder).Error
}

func (r *taskRepository) AddReminders(ctx context.Context, reminders []model.TaskReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&reminders).Error
}

// DueReminders returns every unsent reminder whose scheduled time has passed,
// together with its parent task.
func (r *taskRepository) DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	var reminders []model.TaskReminder
	err := GetDB(ctx, r.db).
		Where("sent = ? AND scheduled_at <= ?", false, now).
		Order("scheduled_at asc").
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}

	due := make([]DueReminder, 0, len(reminders))
	for _, rem := range reminders {
		var task model.TaskAssignment
		if err := GetDB(ctx, r.db).First(&task, "id = ?", rem.TaskID).Error; err != nil {
			continue // task deleted under the reminder; skip it
		}
		due = append(due, DueReminder{Reminder: rem, Task: task})
	}

	return due, nil
}

// ClaimReminder flips sent false -> true as a single conditional update.
// Returns true only for the caller that won the claim, so overlapping sweeps
// cannot fire the same reminder twice.
func (r *taskRepository) ClaimReminder(ctx context.Context, reminderID uuid.UUID, at time.Time) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.TaskReminder{}).
		Where("id = ? AND sent = ?", reminderID, false).
		Updates(map[string]interface{}{"sent": true, "sent_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *taskRepository) OverdueCandidates(ctx context.Context, now time.Time) ([]model.TaskAssignment, error) {
	var tasks []model.TaskAssignment
	err := GetDB(ctx, r.db).
		Where("status IN ? AND deadline < ?", []string{model.TaskStatusPending, model.TaskStatusInProgress}, now).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkOverdue transitions a task to overdue only if it is still pending or
// in progress. RowsAffected tells the sweep whether it won the transition and
// therefore owns the notifications.
func (r *taskRepository) MarkOverdue(ctx context.Context, taskID uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.TaskAssignment{}).
		Where("id = ? AND status IN ?", taskID, []string{model.TaskStatusPending, model.TaskStatusInProgress}).
		Update("status", model.TaskStatusOverdue)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpcomingReminders flattens the user's unsent future reminders, ascending by
// schedule, capped at limit.
func (r *taskRepository) UpcomingReminders(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]DueReminder, error) {
	var tasks []model.TaskAssignment
	err := GetDB(ctx, r.db).
		Where("assigned_to = ? AND status IN ?", userID, []string{model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusOverdue}).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.TaskAssignment, len(tasks))
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var reminders []model.TaskReminder
	q := GetDB(ctx, r.db).
		Where("task_id IN ? AND sent = ? AND scheduled_at >= ?", ids, false, now).
		Order("scheduled_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&reminders).Error; err != nil {
		return nil, err
	}

	upcoming := make([]DueReminder, 0, len(reminders))
	for _, rem := range reminders {
		upcoming = append(upcoming, DueReminder{Reminder: rem, Task: byID[rem.TaskID]})
	}

	return upcoming, nil
}
