package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sosach/internal/model"
	"sosach/internal/repository"

	"go.uber.org/zap"
)

// Clock supplies the current time; injected so sweeps are testable.
type Clock func() time.Time

// Notifier creates one fire-and-forget notification. The notification
// service implements it (persist + websocket push); the scheduler never
// waits on delivery.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// EmailSender and SMSSender are the out-of-band channels. Dispatch failures
// are logged and never retried.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Config holds the sweep periods.
type Config struct {
	ReminderInterval time.Duration // reminder sweep, default 30m
	OverdueInterval  time.Duration // overdue + notification expiry sweep, default 24h
}

func (c *Config) applyDefaults() {
	if c.ReminderInterval <= 0 {
		c.ReminderInterval = 30 * time.Minute
	}
	if c.OverdueInterval <= 0 {
		c.OverdueInterval = 24 * time.Hour
	}
}

// Scheduler owns the deadline-driven background work: firing reminders,
// reclassifying overdue tasks and expiring stale notifications. It has an
// explicit Start/Stop lifecycle and does nothing at construction.
type Scheduler struct {
	tasks         repository.TaskRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	notifier      Notifier
	email         EmailSender
	sms           SMSSender
	log           *zap.Logger
	now           Clock
	cfg           Config

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	tasks repository.TaskRepository,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	notifier Notifier,
	email EmailSender,
	sms SMSSender,
	log *zap.Logger,
	now Clock,
	cfg Config,
) *Scheduler {
	cfg.applyDefaults()
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		tasks:         tasks,
		notifications: notifications,
		users:         users,
		notifier:      notifier,
		email:         email,
		sms:           sms,
		log:           log,
		now:           now,
		cfg:           cfg,
	}
}

// Start launches the sweep tickers. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.loop(ctx, s.cfg.ReminderInterval, "reminder sweep", func(ctx context.Context) error {
		_, err := s.RunReminderSweep(ctx)
		return err
	})
	go s.loop(ctx, s.cfg.OverdueInterval, "daily sweep", func(ctx context.Context) error {
		if _, err := s.RunOverdueSweep(ctx); err != nil {
			return err
		}
		return s.expireNotifications(ctx)
	})

	s.log.Info("scheduler started",
		zap.Duration("reminder_interval", s.cfg.ReminderInterval),
		zap.Duration("overdue_interval", s.cfg.OverdueInterval))
}

// Stop cancels the tickers and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, name string, run func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := run(ctx); err != nil {
				s.log.Error("sweep failed", zap.String("sweep", name), zap.Error(err))
			}
		}
	}
}

// RunReminderSweep fires every unsent reminder whose scheduled time has
// passed. A reminder is claimed with a conditional update before anything is
// sent, so each one fires at most once even when sweeps overlap. Per-reminder
// failures are logged and skipped; the sweep always moves on.
func (s *Scheduler) RunReminderSweep(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.tasks.DueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query due reminders: %w", err)
	}

	fired := 0
	for _, d := range due {
		claimed, err := s.tasks.ClaimReminder(ctx, d.Reminder.ID, now)
		if err != nil {
			s.log.Error("failed to claim reminder",
				zap.String("reminder_id", d.Reminder.ID.String()), zap.Error(err))
			continue
		}
		if !claimed {
			// Another sweep got there first.
			continue
		}

		s.fireReminder(ctx, d, now)
		fired++
	}

	return fired, nil
}

func (s *Scheduler) fireReminder(ctx context.Context, d repository.DueReminder, now time.Time) {
	task := d.Task
	rem := d.Reminder

	priority := model.NotificationPriorityMedium
	if task.Priority == model.TaskPriorityUrgent {
		priority = model.NotificationPriorityHigh
	}

	message := rem.Message
	if message == "" {
		message = fmt.Sprintf("Nhiệm vụ \"%s\" sắp đến hạn (%s)", task.Title, task.Deadline.Format("02/01/2006 15:04"))
	}

	n := &model.Notification{
		RecipientID:   task.AssignedTo,
		SenderID:      &task.AssignedBy,
		Type:          model.NotificationTypeTaskReminder,
		Title:         "Nhắc nhở nhiệm vụ",
		Message:       message,
		Priority:      priority,
		RelatedBookID: &task.BookID,
		RelatedTaskID: &task.ID,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error("failed to create reminder notification",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	switch rem.Type {
	case model.ReminderTypeEmail, model.ReminderTypeSMS:
		s.dispatchOutOfBand(ctx, rem.Type, task, message)
	}

	s.log.Info("reminder fired",
		zap.String("task_id", task.ID.String()),
		zap.String("reminder_id", rem.ID.String()),
		zap.Time("scheduled_at", rem.ScheduledAt))
}

func (s *Scheduler) dispatchOutOfBand(ctx context.Context, remType string, task model.TaskAssignment, message string) {
	assignee, err := s.users.FindByID(ctx, task.AssignedTo)
	if err != nil {
		s.log.Warn("cannot resolve assignee for out-of-band reminder",
			zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}

	switch remType {
	case model.ReminderTypeEmail:
		if s.email == nil {
			return
		}
		if err := s.email.SendEmail(ctx, assignee.Email, "Nhắc nhở nhiệm vụ", message); err != nil {
			s.log.Warn("email reminder dispatch failed",
				zap.String("task_id", task.ID.String()), zap.Error(err))
		}
	case model.ReminderTypeSMS:
		if s.sms == nil {
			return
		}
		if err := s.sms.SendSMS(ctx, assignee.Phone, message); err != nil {
			s.log.Warn("sms reminder dispatch failed",
				zap.String("task_id", task.ID.String()), zap.Error(err))
		}
	}
}

// RunOverdueSweep transitions every pending or in-progress task past its
// deadline to overdue and notifies both assignee and assigner. The status
// write is conditional, so a task is transitioned and notified exactly once;
// already-overdue tasks are skipped. Exposed for manual invocation as well.
func (s *Scheduler) RunOverdueSweep(ctx context.Context) (int, error) {
	now := s.now()

	candidates, err := s.tasks.OverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query overdue tasks: %w", err)
	}

	transitioned := 0
	for _, task := range candidates {
		won, err := s.tasks.MarkOverdue(ctx, task.ID)
		if err != nil {
			s.log.Error("failed to mark task overdue",
				zap.String("task_id", task.ID.String()), zap.Error(err))
			continue
		}
		if !won {
			// Already transitioned by a concurrent sweep or direct write.
			continue
		}

		s.notifyOverdue(ctx, task, now)
		transitioned++
	}

	return transitioned, nil
}

func (s *Scheduler) notifyOverdue(ctx context.Context, task model.TaskAssignment, now time.Time) {
	days := task.DaysOverdue(now)

	assigneeName := ""
	if assignee, err := s.users.FindByID(ctx, task.AssignedTo); err == nil {
		assigneeName = assignee.FullName
	}

	toAssignee := &model.Notification{
		RecipientID:   task.AssignedTo,
		SenderID:      &task.AssignedBy,
		Type:          model.NotificationTypeTaskOverdue,
		Title:         "Nhiệm vụ quá hạn",
		Message:       fmt.Sprintf("Nhiệm vụ \"%s\" đã quá hạn %d ngày", task.Title, days),
		Priority:      model.NotificationPriorityHigh,
		RelatedBookID: &task.BookID,
		RelatedTaskID: &task.ID,
	}
	if err := s.notifier.Notify(ctx, toAssignee); err != nil {
		s.log.Error("failed to notify assignee of overdue task",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	assignerMessage := fmt.Sprintf("Nhiệm vụ \"%s\" đã quá hạn %d ngày", task.Title, days)
	if assigneeName != "" {
		assignerMessage = fmt.Sprintf("Nhiệm vụ \"%s\" giao cho %s đã quá hạn %d ngày", task.Title, assigneeName, days)
	}
	toAssigner := &model.Notification{
		RecipientID:   task.AssignedBy,
		Type:          model.NotificationTypeTaskOverdue,
		Title:         "Nhiệm vụ quá hạn",
		Message:       assignerMessage,
		Priority:      model.NotificationPriorityHigh,
		RelatedBookID: &task.BookID,
		RelatedTaskID: &task.ID,
		RelatedUserID: &task.AssignedTo,
	}
	if err := s.notifier.Notify(ctx, toAssigner); err != nil {
		s.log.Error("failed to notify assigner of overdue task",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}
}

// expireNotifications enforces the notification TTL policy on the daily tick.
func (s *Scheduler) expireNotifications(ctx context.Context) error {
	removed, err := s.notifications.DeleteExpired(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to expire notifications: %w", err)
	}
	if removed > 0 {
		s.log.Info("expired notifications removed", zap.Int64("count", removed))
	}
	return nil
}
