package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sosach/internal/database"
	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/internal/scheduler"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingNotifications satisfies NotificationService while keeping
// everything in memory; only Notify matters to the services under test.
type recordingNotifications struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (r *recordingNotifications) Notify(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *n)
	return nil
}

func (r *recordingNotifications) List(context.Context, uuid.UUID, bool, pagination.Params) ([]NotificationResponse, int64, error) {
	return nil, 0, nil
}
func (r *recordingNotifications) CountUnread(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (r *recordingNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error  { return nil }
func (r *recordingNotifications) MarkAllRead(context.Context, uuid.UUID) error          { return nil }
func (r *recordingNotifications) Delete(context.Context, uuid.UUID, uuid.UUID) error    { return nil }

func (r *recordingNotifications) byType(typ string) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type serviceFixture struct {
	db            *gorm.DB
	tasks         TaskService
	books         BookService
	notifications *recordingNotifications
	commander     model.User
	member        model.User
	now           time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	commander := model.User{Username: "chihuy", FullName: "Trần Văn An", Email: "an@example.com", Password: "x", Role: model.RoleCommander, IsActive: true}
	member := model.User{Username: "nhanvien", FullName: "Lê Thị Hoa", Email: "hoa@example.com", Password: "x", Role: model.RoleMember, IsActive: true}
	require.NoError(t, db.Create(&commander).Error)
	require.NoError(t, db.Create(&member).Error)

	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	notifications := &recordingNotifications{}
	taskRepo := repository.NewTaskRepository(db)
	sched := scheduler.New(
		taskRepo,
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		notifications,
		nil, nil,
		zap.NewNop(),
		clock,
		scheduler.Config{},
	)

	return &serviceFixture{
		db:            db,
		tasks:         NewTaskService(taskRepo, notifications, sched, repository.NewTransactionManager(db), clock),
		books:         NewBookService(repository.NewBookRepository(db), notifications, clock),
		notifications: notifications,
		commander:     commander,
		member:        member,
		now:           now,
	}
}

func (f *serviceFixture) createBook(t *testing.T) *model.Book {
	t.Helper()
	book, err := f.books.CreateBook(context.Background(), &f.commander, CreateBookRequest{
		Name: "Sổ trực ban", Code: "TB-" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	return book
}

func (f *serviceFixture) createTask(t *testing.T, deadline time.Time) TaskResponse {
	t.Helper()
	book := f.createBook(t)
	task, err := f.tasks.CreateTask(context.Background(), &f.commander, CreateTaskRequest{
		BookID:     book.ID.String(),
		Title:      "Ghi chép trực ban",
		AssignedTo: f.member.ID.String(),
		Deadline:   deadline,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask(t *testing.T) {
	f := newServiceFixture(t)
	deadline := f.now.Add(48 * time.Hour)
	task := f.createTask(t, deadline)

	assert.Equal(t, model.TaskStatusPending, task.Status)
	assert.Equal(t, model.TaskPriorityMedium, task.Priority, "priority defaults to medium")
	assert.Equal(t, f.commander.ID.String(), task.AssignedBy)
	assert.Equal(t, f.member.ID.String(), task.AssignedTo)

	// Assignment seeds the reminder schedule and notifies the assignee.
	var reminders []model.TaskReminder
	require.NoError(t, f.db.Where("task_id = ?", task.ID).Find(&reminders).Error)
	assert.Len(t, reminders, 3)

	assigned := f.notifications.byType(model.NotificationTypeTaskAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, f.member.ID, assigned[0].RecipientID)
}

func TestCreateTaskRejectsPastDeadline(t *testing.T) {
	f := newServiceFixture(t)
	book := f.createBook(t)

	_, err := f.tasks.CreateTask(context.Background(), &f.commander, CreateTaskRequest{
		BookID:     book.ID.String(),
		Title:      "x",
		AssignedTo: f.member.ID.String(),
		Deadline:   f.now.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, model.ErrDeadlineNotAfterAssigned)
}

func TestUpdateProgress(t *testing.T) {
	f := newServiceFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour))

	updated, err := f.tasks.UpdateProgress(context.Background(), &f.member, task.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusInProgress, updated.Status)
	assert.Equal(t, 40, updated.Progress)

	updated, err = f.tasks.UpdateProgress(context.Background(), &f.member, task.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestUpdateProgressNotFound(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.tasks.UpdateProgress(context.Background(), &f.member, uuid.NewString(), 10)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAddNote(t *testing.T) {
	f := newServiceFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour))

	require.NoError(t, f.tasks.AddNote(context.Background(), &f.member, task.ID, "đã hoàn thành một nửa"))

	stored, err := f.tasks.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, stored.Notes, 1)
	assert.Equal(t, "đã hoàn thành một nửa", stored.Notes[0].Content)
	assert.Equal(t, f.member.ID, stored.Notes[0].AuthorID)
}

func TestApproveTask(t *testing.T) {
	f := newServiceFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour))

	approved, err := f.tasks.ApproveTask(context.Background(), &f.commander, task.ID, "đạt")
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, "đạt", approved.ApprovalNotes)
}

func TestCancelTask(t *testing.T) {
	f := newServiceFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour))

	cancelled, err := f.tasks.CancelTask(context.Background(), &f.commander, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCancelled, cancelled.Status)

	// A cancelled task cannot be cancelled again.
	_, err = f.tasks.CancelTask(context.Background(), &f.commander, task.ID)
	assert.Error(t, err)
}

func TestDeleteTaskAuthorization(t *testing.T) {
	f := newServiceFixture(t)
	task := f.createTask(t, f.now.Add(48*time.Hour))

	err := f.tasks.DeleteTask(context.Background(), &f.member, task.ID)
	assert.ErrorIs(t, err, ErrNotTaskOwner)

	require.NoError(t, f.tasks.DeleteTask(context.Background(), &f.commander, task.ID))

	_, err = f.tasks.GetTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
