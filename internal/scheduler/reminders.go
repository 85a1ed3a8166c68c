package scheduler

import (
	"context"
	"fmt"
	"time"

	"sosach/internal/model"

	"github.com/google/uuid"
)

// Default reminder offsets counted back from the task deadline.
var autoReminderOffsets = []struct {
	before  time.Duration
	message string
}{
	{24 * time.Hour, "Nhiệm vụ \"%s\" còn 24 giờ nữa đến hạn"},
	{2 * time.Hour, "Nhiệm vụ \"%s\" còn 2 giờ nữa đến hạn"},
	{30 * time.Minute, "Nhiệm vụ \"%s\" còn 30 phút nữa đến hạn"},
}

// UpcomingReminder is one pending reminder flattened for the dashboard.
type UpcomingReminder struct {
	TaskID      uuid.UUID `json:"task_id"`
	TaskTitle   string    `json:"task_title"`
	Priority    string    `json:"priority"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Deadline    time.Time `json:"deadline"`
}

// CreateAutomaticReminders seeds the default schedule for a newly created
// task: 24h, 2h and 30min before the deadline, skipping instants already in
// the past. Called once by the task-creation path.
func (s *Scheduler) CreateAutomaticReminders(ctx context.Context, taskID uuid.UUID) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("task not found: %w", err)
	}

	now := s.now()
	var reminders []model.TaskReminder
	for _, offset := range autoReminderOffsets {
		at := task.Deadline.Add(-offset.before)
		if !at.After(now) {
			continue
		}
		reminders = append(reminders, model.TaskReminder{
			TaskID:      task.ID,
			Type:        model.ReminderTypeNotification,
			Message:     fmt.Sprintf(offset.message, task.Title),
			ScheduledAt: at,
		})
	}

	if len(reminders) == 0 {
		return nil
	}
	if err := s.tasks.AddReminders(ctx, reminders); err != nil {
		return fmt.Errorf("failed to create automatic reminders: %w", err)
	}
	return nil
}

// SendManualReminder appends one operator-supplied reminder without touching
// the existing schedule. Returns false when the task does not exist.
func (s *Scheduler) SendManualReminder(ctx context.Context, taskID uuid.UUID, remType, message string, scheduledAt time.Time) (bool, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return false, nil
	}

	if remType == "" {
		remType = model.ReminderTypeNotification
	}

	reminder := model.TaskReminder{
		TaskID:      task.ID,
		Type:        remType,
		Message:     message,
		ScheduledAt: scheduledAt,
	}
	if err := s.tasks.AddReminder(ctx, &reminder); err != nil {
		return false, fmt.Errorf("failed to create manual reminder: %w", err)
	}
	return true, nil
}

// GetUpcomingReminders lists the user's unsent future reminders ascending by
// schedule, capped at limit.
func (s *Scheduler) GetUpcomingReminders(ctx context.Context, userID uuid.UUID, limit int) ([]UpcomingReminder, error) {
	due, err := s.tasks.UpcomingReminders(ctx, userID, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming reminders: %w", err)
	}

	upcoming := make([]UpcomingReminder, 0, len(due))
	for _, d := range due {
		upcoming = append(upcoming, UpcomingReminder{
			TaskID:      d.Task.ID,
			TaskTitle:   d.Task.Title,
			Priority:    d.Task.Priority,
			Type:        d.Reminder.Type,
			Message:     d.Reminder.Message,
			ScheduledAt: d.Reminder.ScheduledAt,
			Deadline:    d.Task.Deadline,
		})
	}

	return upcoming, nil
}
