package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/internal/scheduler"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaskRequest struct {
	BookID           string     `json:"book_id" binding:"required"`
	BookEntryID      string     `json:"book_entry_id"`
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	AssignedTo       string     `json:"assigned_to" binding:"required"`
	Deadline         time.Time  `json:"deadline" binding:"required"`
	Priority         string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	RequiresApproval bool       `json:"requires_approval"`
	UnitID           *string    `json:"unit_id"`
	DepartmentID     *string    `json:"department_id"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress"`
}

type AddNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

type ApproveTaskRequest struct {
	Notes string `json:"notes"`
}

type ManualReminderRequest struct {
	Type        string    `json:"type" binding:"omitempty,oneof=email notification sms"`
	Message     string    `json:"message" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type TaskResponse struct {
	ID               string     `json:"id"`
	BookID           string     `json:"book_id"`
	BookEntryID      *string    `json:"book_entry_id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	AssignedBy       string     `json:"assigned_by"`
	AssignerName     string     `json:"assigner_name,omitempty"`
	AssignedTo       string     `json:"assigned_to"`
	AssigneeName     string     `json:"assignee_name,omitempty"`
	AssignedAt       time.Time  `json:"assigned_at"`
	Deadline         time.Time  `json:"deadline"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	Progress         int        `json:"progress"`
	RequiresApproval bool       `json:"requires_approval"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovalNotes    string     `json:"approval_notes,omitempty"`
}

var ErrTaskNotFound = errors.New("task not found")
var ErrNotTaskOwner = errors.New("only an admin or the task creator may delete it")

// --- Interface ---

type TaskService interface {
	CreateTask(ctx context.Context, actor *model.User, req CreateTaskRequest) (TaskResponse, error)
	GetTask(ctx context.Context, id string) (*model.TaskAssignment, error)
	ListTasks(ctx context.Context, filter repository.TaskFilter, p pagination.Params) ([]TaskResponse, int64, error)
	UpdateProgress(ctx context.Context, actor *model.User, id string, progress int) (TaskResponse, error)
	AddNote(ctx context.Context, actor *model.User, id string, content string) error
	ApproveTask(ctx context.Context, actor *model.User, id string, notes string) (TaskResponse, error)
	CancelTask(ctx context.Context, actor *model.User, id string) (TaskResponse, error)
	DeleteTask(ctx context.Context, actor *model.User, id string) error
}

type taskService struct {
	tasks         repository.TaskRepository
	notifications NotificationService
	sched         *scheduler.Scheduler
	txManager     repository.TransactionManager
	now           func() time.Time
}

func NewTaskService(
	tasks repository.TaskRepository,
	notifications NotificationService,
	sched *scheduler.Scheduler,
	txManager repository.TransactionManager,
	now func() time.Time,
) TaskService {
	if now == nil {
		now = time.Now
	}
	return &taskService{
		tasks:         tasks,
		notifications: notifications,
		sched:         sched,
		txManager:     txManager,
		now:           now,
	}
}

// --- Implementation ---

func (s *taskService) CreateTask(ctx context.Context, actor *model.User, req CreateTaskRequest) (TaskResponse, error) {
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return TaskResponse{}, fmt.Errorf("invalid book_id: %w", err)
	}
	assigneeID, err := uuid.Parse(req.AssignedTo)
	if err != nil {
		return TaskResponse{}, fmt.Errorf("invalid assigned_to: %w", err)
	}

	var entryID *uuid.UUID
	if req.BookEntryID != "" {
		parsed, parseErr := uuid.Parse(req.BookEntryID)
		if parseErr != nil {
			return TaskResponse{}, fmt.Errorf("invalid book_entry_id: %w", parseErr)
		}
		entryID = &parsed
	}

	priority := req.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}

	task := model.TaskAssignment{
		BookID:           bookID,
		BookEntryID:      entryID,
		Title:            req.Title,
		Description:      req.Description,
		AssignedBy:       actor.ID,
		AssignedTo:       assigneeID,
		AssignedAt:       s.now(),
		Deadline:         req.Deadline,
		Status:           model.TaskStatusPending,
		Priority:         priority,
		RequiresApproval: req.RequiresApproval,
		CreatedBy:        actor.ID,
		UnitID:           parseOptionalUUID(req.UnitID),
		DepartmentID:     parseOptionalUUID(req.DepartmentID),
	}

	if err := task.ValidateDeadline(); err != nil {
		return TaskResponse{}, err
	}

	// The task row and its default reminder schedule commit together.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tasks.Create(txCtx, &task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return s.sched.CreateAutomaticReminders(txCtx, task.ID)
	})
	if err != nil {
		return TaskResponse{}, err
	}

	_ = s.notifications.Notify(ctx, &model.Notification{
		RecipientID:   assigneeID,
		SenderID:      &actor.ID,
		Type:          model.NotificationTypeTaskAssigned,
		Title:         "Nhiệm vụ mới",
		Message:       fmt.Sprintf("Bạn được giao nhiệm vụ \"%s\", hạn %s", task.Title, task.Deadline.Format("02/01/2006 15:04")),
		Priority:      model.NotificationPriorityMedium,
		RelatedBookID: &task.BookID,
		RelatedTaskID: &task.ID,
	})

	return toTaskResponse(task), nil
}

func (s *taskService) GetTask(ctx context.Context, id string) (*model.TaskAssignment, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid task id: %w", err)
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, filter repository.TaskFilter, p pagination.Params) ([]TaskResponse, int64, error) {
	tasks, total, err := s.tasks.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	res := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, toTaskResponse(t))
	}
	return res, total, nil
}

func (s *taskService) UpdateProgress(ctx context.Context, actor *model.User, id string, progress int) (TaskResponse, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return TaskResponse{}, err
	}

	now := s.now()
	task.ApplyProgress(progress, now)
	task.Reclassify(now)
	task.UpdatedBy = &actor.ID

	if err := s.tasks.Update(ctx, task); err != nil {
		return TaskResponse{}, fmt.Errorf("failed to update task: %w", err)
	}

	return toTaskResponse(*task), nil
}

func (s *taskService) AddNote(ctx context.Context, actor *model.User, id string, content string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	note := model.TaskNote{
		TaskID:   task.ID,
		Content:  content,
		AuthorID: actor.ID,
	}
	if err := s.tasks.AddNote(ctx, &note); err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	return nil
}

func (s *taskService) ApproveTask(ctx context.Context, actor *model.User, id string, notes string) (TaskResponse, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return TaskResponse{}, err
	}

	now := s.now()
	task.Approve(actor.ID, notes, now)
	task.Reclassify(now)
	task.UpdatedBy = &actor.ID

	if err := s.tasks.Update(ctx, task); err != nil {
		return TaskResponse{}, fmt.Errorf("failed to approve task: %w", err)
	}

	return toTaskResponse(*task), nil
}

func (s *taskService) CancelTask(ctx context.Context, actor *model.User, id string) (TaskResponse, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return TaskResponse{}, err
	}

	if err := task.Cancel(); err != nil {
		return TaskResponse{}, err
	}
	task.UpdatedBy = &actor.ID

	if err := s.tasks.Update(ctx, task); err != nil {
		return TaskResponse{}, fmt.Errorf("failed to cancel task: %w", err)
	}

	return toTaskResponse(*task), nil
}

func (s *taskService) DeleteTask(ctx context.Context, actor *model.User, id string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != model.RoleAdmin && task.CreatedBy != actor.ID {
		return ErrNotTaskOwner
	}

	return s.tasks.Delete(ctx, task.ID)
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	parsed, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &parsed
}

func toTaskResponse(t model.TaskAssignment) TaskResponse {
	res := TaskResponse{
		ID:               t.ID.String(),
		BookID:           t.BookID.String(),
		Title:            t.Title,
		Description:      t.Description,
		AssignedBy:       t.AssignedBy.String(),
		AssignedTo:       t.AssignedTo.String(),
		AssignedAt:       t.AssignedAt,
		Deadline:         t.Deadline,
		CompletedAt:      t.CompletedAt,
		Status:           t.Status,
		Priority:         t.Priority,
		Progress:         t.Progress,
		RequiresApproval: t.RequiresApproval,
		ApprovedAt:       t.ApprovedAt,
		ApprovalNotes:    t.ApprovalNotes,
	}
	if t.BookEntryID != nil {
		v := t.BookEntryID.String()
		res.BookEntryID = &v
	}
	if t.Assigner != nil {
		res.AssignerName = t.Assigner.FullName
	}
	if t.Assignee != nil {
		res.AssigneeName = t.Assignee.FullName
	}
	return res
}
