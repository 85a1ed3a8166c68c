package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sosach/internal/database"
	"sosach/internal/model"
	"sosach/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// captureNotifier records every notification in memory.
type captureNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *captureNotifier) Notify(_ context.Context, notification *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *notification)
	return nil
}

func (n *captureNotifier) all() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.sent...)
}

func (n *captureNotifier) forRecipient(id uuid.UUID) []model.Notification {
	var out []model.Notification
	for _, sent := range n.all() {
		if sent.RecipientID == id {
			out = append(out, sent)
		}
	}
	return out
}

type captureEmail struct {
	mu   sync.Mutex
	sent []string
}

func (e *captureEmail) SendEmail(_ context.Context, to, _, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, to)
	return nil
}

type schedulerFixture struct {
	db       *gorm.DB
	sched    *Scheduler
	notifier *captureNotifier
	email    *captureEmail
	tasks    repository.TaskRepository
	assigner model.User
	assignee model.User
	now      time.Time
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	assigner := model.User{Username: "chihuy", FullName: "Trần Văn An", Email: "an@example.com", Password: "x", Role: model.RoleCommander, IsActive: true}
	assignee := model.User{Username: "nhanvien", FullName: "Lê Thị Hoa", Email: "hoa@example.com", Phone: "0900000000", Password: "x", Role: model.RoleMember, IsActive: true}
	require.NoError(t, db.Create(&assigner).Error)
	require.NoError(t, db.Create(&assignee).Error)

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	notifier := &captureNotifier{}
	email := &captureEmail{}
	tasks := repository.NewTaskRepository(db)

	sched := New(
		tasks,
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		notifier,
		email,
		nil,
		zap.NewNop(),
		func() time.Time { return now },
		Config{},
	)

	return &schedulerFixture{
		db:       db,
		sched:    sched,
		notifier: notifier,
		email:    email,
		tasks:    tasks,
		assigner: assigner,
		assignee: assignee,
		now:      now,
	}
}

func (f *schedulerFixture) createBook(t *testing.T) model.Book {
	t.Helper()
	book := model.Book{Name: "Sổ trực ban", Code: "TB-" + uuid.NewString()[:8], Frequency: model.BookFrequencyDaily, CreatedBy: f.assigner.ID}
	require.NoError(t, f.db.Create(&book).Error)
	return book
}

func (f *schedulerFixture) createTask(t *testing.T, deadline time.Time, status string) model.TaskAssignment {
	t.Helper()
	book := f.createBook(t)
	task := model.TaskAssignment{
		BookID:     book.ID,
		Title:      "Ghi chép trực ban",
		AssignedBy: f.assigner.ID,
		AssignedTo: f.assignee.ID,
		AssignedAt: f.now.Add(-72 * time.Hour),
		Deadline:   deadline,
		Status:     status,
		Priority:   model.TaskPriorityMedium,
		CreatedBy:  f.assigner.ID,
	}
	require.NoError(t, f.db.Create(&task).Error)
	return task
}

func TestReminderSweepFiresAtMostOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(time.Hour), model.TaskStatusPending)

	reminder := model.TaskReminder{TaskID: task.ID, Type: model.ReminderTypeNotification, ScheduledAt: f.now.Add(-time.Minute)}
	require.NoError(t, f.db.Create(&reminder).Error)

	fired, err := f.sched.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	notifications := f.notifier.forRecipient(f.assignee.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeTaskReminder, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, task.Title)

	var stored model.TaskReminder
	require.NoError(t, f.db.First(&stored, "id = ?", reminder.ID).Error)
	assert.True(t, stored.Sent)
	require.NotNil(t, stored.SentAt)

	// The sweep is idempotent: the claimed reminder never fires again.
	fired, err = f.sched.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Len(t, f.notifier.forRecipient(f.assignee.ID), 1)
}

func TestReminderSweepIgnoresFutureReminders(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour), model.TaskStatusPending)

	require.NoError(t, f.db.Create(&model.TaskReminder{
		TaskID: task.ID, Type: model.ReminderTypeNotification, ScheduledAt: f.now.Add(time.Hour),
	}).Error)

	fired, err := f.sched.RunReminderSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, fired)
	assert.Empty(t, f.notifier.all())
}

func TestReminderSweepUrgentTaskGetsHighPriority(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(time.Hour), model.TaskStatusInProgress)
	require.NoError(t, f.db.Model(&model.TaskAssignment{}).Where("id = ?", task.ID).
		Update("priority", model.TaskPriorityUrgent).Error)

	require.NoError(t, f.db.Create(&model.TaskReminder{
		TaskID: task.ID, Type: model.ReminderTypeNotification, ScheduledAt: f.now.Add(-time.Minute),
	}).Error)

	_, err := f.sched.RunReminderSweep(context.Background())
	require.NoError(t, err)

	notifications := f.notifier.forRecipient(f.assignee.ID)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationPriorityHigh, notifications[0].Priority)
}

func TestReminderSweepDispatchesEmail(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(time.Hour), model.TaskStatusPending)

	require.NoError(t, f.db.Create(&model.TaskReminder{
		TaskID: task.ID, Type: model.ReminderTypeEmail, Message: "còn 1 giờ", ScheduledAt: f.now.Add(-time.Minute),
	}).Error)

	_, err := f.sched.RunReminderSweep(context.Background())
	require.NoError(t, err)

	require.Len(t, f.email.sent, 1)
	assert.Equal(t, f.assignee.Email, f.email.sent[0])
	// The in-app notification still goes out alongside the email.
	assert.Len(t, f.notifier.forRecipient(f.assignee.ID), 1)
}

func TestOverdueSweepTransitionsAndNotifiesOnce(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(-30*time.Hour), model.TaskStatusInProgress)

	transitioned, err := f.sched.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, transitioned)

	var stored model.TaskAssignment
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.Equal(t, model.TaskStatusOverdue, stored.Status)

	toAssignee := f.notifier.forRecipient(f.assignee.ID)
	require.Len(t, toAssignee, 1)
	assert.Equal(t, model.NotificationTypeTaskOverdue, toAssignee[0].Type)
	assert.Equal(t, model.NotificationPriorityHigh, toAssignee[0].Priority)
	assert.Contains(t, toAssignee[0].Message, "2 ngày", "30 hours overdue rounds up to 2 days")

	toAssigner := f.notifier.forRecipient(f.assigner.ID)
	require.Len(t, toAssigner, 1)
	assert.Contains(t, toAssigner[0].Message, f.assignee.FullName)

	// A second sweep finds nothing to transition and sends nothing new.
	transitioned, err = f.sched.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, transitioned)
	assert.Len(t, f.notifier.all(), 2)
}

func TestOverdueSweepSkipsTerminalTasks(t *testing.T) {
	f := newSchedulerFixture(t)
	f.createTask(t, f.now.Add(-time.Hour), model.TaskStatusCompleted)
	f.createTask(t, f.now.Add(-time.Hour), model.TaskStatusCancelled)
	f.createTask(t, f.now.Add(time.Hour), model.TaskStatusPending)

	transitioned, err := f.sched.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, transitioned)
	assert.Empty(t, f.notifier.all())
}

func TestExpireNotifications(t *testing.T) {
	f := newSchedulerFixture(t)

	expired := f.now.Add(-time.Hour)
	alive := f.now.Add(time.Hour)
	require.NoError(t, f.db.Create(&model.Notification{
		RecipientID: f.assignee.ID, Type: model.NotificationTypeSystem, Title: "a", Message: "m",
		Priority: model.NotificationPriorityLow, ExpiresAt: &expired,
	}).Error)
	require.NoError(t, f.db.Create(&model.Notification{
		RecipientID: f.assignee.ID, Type: model.NotificationTypeSystem, Title: "b", Message: "m",
		Priority: model.NotificationPriorityLow, ExpiresAt: &alive,
	}).Error)
	require.NoError(t, f.db.Create(&model.Notification{
		RecipientID: f.assignee.ID, Type: model.NotificationTypeSystem, Title: "c", Message: "m",
		Priority: model.NotificationPriorityLow,
	}).Error)

	require.NoError(t, f.sched.expireNotifications(context.Background()))

	var remaining []model.Notification
	require.NoError(t, f.db.Find(&remaining).Error)
	assert.Len(t, remaining, 2, "only the elapsed TTL is removed; no TTL means keep forever")
}

func TestCreateAutomaticReminders(t *testing.T) {
	f := newSchedulerFixture(t)

	t.Run("full schedule for a distant deadline", func(t *testing.T) {
		task := f.createTask(t, f.now.Add(48*time.Hour), model.TaskStatusPending)
		require.NoError(t, f.sched.CreateAutomaticReminders(context.Background(), task.ID))

		var reminders []model.TaskReminder
		require.NoError(t, f.db.Where("task_id = ?", task.ID).Order("scheduled_at asc").Find(&reminders).Error)
		require.Len(t, reminders, 3)
		assert.WithinDuration(t, task.Deadline.Add(-24*time.Hour), reminders[0].ScheduledAt, time.Second)
		assert.WithinDuration(t, task.Deadline.Add(-2*time.Hour), reminders[1].ScheduledAt, time.Second)
		assert.WithinDuration(t, task.Deadline.Add(-30*time.Minute), reminders[2].ScheduledAt, time.Second)
		for _, rem := range reminders {
			assert.Equal(t, model.ReminderTypeNotification, rem.Type)
			assert.False(t, rem.Sent)
		}
	})

	t.Run("instants already past are skipped", func(t *testing.T) {
		task := f.createTask(t, f.now.Add(time.Hour), model.TaskStatusPending)
		require.NoError(t, f.sched.CreateAutomaticReminders(context.Background(), task.ID))

		var reminders []model.TaskReminder
		require.NoError(t, f.db.Where("task_id = ?", task.ID).Find(&reminders).Error)
		require.Len(t, reminders, 1, "only the 30 minute mark is still ahead")
		assert.WithinDuration(t, task.Deadline.Add(-30*time.Minute), reminders[0].ScheduledAt, time.Second)
	})

	t.Run("missing task", func(t *testing.T) {
		assert.Error(t, f.sched.CreateAutomaticReminders(context.Background(), uuid.New()))
	})
}

func TestSendManualReminder(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(24*time.Hour), model.TaskStatusPending)

	found, err := f.sched.SendManualReminder(context.Background(), task.ID, "", "kiểm tra lại số liệu", f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, found)

	var reminders []model.TaskReminder
	require.NoError(t, f.db.Where("task_id = ?", task.ID).Find(&reminders).Error)
	require.Len(t, reminders, 1)
	assert.Equal(t, model.ReminderTypeNotification, reminders[0].Type, "empty type defaults to in-app")
	assert.Equal(t, "kiểm tra lại số liệu", reminders[0].Message)

	found, err = f.sched.SendManualReminder(context.Background(), uuid.New(), "", "x", f.now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetUpcomingReminders(t *testing.T) {
	f := newSchedulerFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour), model.TaskStatusPending)

	past := f.now.Add(-time.Hour)
	soon := f.now.Add(time.Hour)
	later := f.now.Add(5 * time.Hour)
	for _, at := range []time.Time{later, past, soon} {
		require.NoError(t, f.db.Create(&model.TaskReminder{
			TaskID: task.ID, Type: model.ReminderTypeNotification, ScheduledAt: at,
		}).Error)
	}

	upcoming, err := f.sched.GetUpcomingReminders(context.Background(), f.assignee.ID, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 2, "past reminders are excluded")
	assert.True(t, upcoming[0].ScheduledAt.Before(upcoming[1].ScheduledAt))
	assert.Equal(t, task.Title, upcoming[0].TaskTitle)

	limited, err := f.sched.GetUpcomingReminders(context.Background(), f.assignee.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSchedulerLifecycle(t *testing.T) {
	f := newSchedulerFixture(t)

	f.sched.Start()
	f.sched.Start() // second Start is a no-op
	f.sched.Stop()
	f.sched.Stop() // second Stop is a no-op
}
