package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sosach/internal/middleware"
	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/internal/scheduler"
	"sosach/internal/service"
	"sosach/pkg/pagination"
	"sosach/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskService service.TaskService
	sched       *scheduler.Scheduler
	auth        gin.HandlerFunc
}

func NewTaskHandler(taskService service.TaskService, sched *scheduler.Scheduler, auth gin.HandlerFunc) *TaskHandler {
	return &TaskHandler{taskService: taskService, sched: sched, auth: auth}
}

func (h *TaskHandler) RegisterRoutes(router *gin.RouterGroup) {
	tasks := router.Group("/api/task-assignments", h.auth)
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/reminders/upcoming", h.UpcomingReminders)
		tasks.GET("/:id", h.GetTask)
		tasks.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.CreateTask)
		tasks.PUT("/:id/progress", h.UpdateProgress)
		tasks.POST("/:id/notes", h.AddNote)
		tasks.POST("/:id/approve", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.ApproveTask)
		tasks.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.CancelTask)
		tasks.POST("/:id/reminders", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.SendReminder)
		tasks.POST("/sweep-overdue", middleware.RequireRole(model.RoleAdmin), h.SweepOverdue)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}

// ListTasks returns assignments filtered by status, priority or participant
// @Summary      List task assignments
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "pending, in_progress, completed, overdue or cancelled"
// @Param        priority     query     string  false  "low, medium, high or urgent"
// @Param        assigned_to  query     string  false  "Assignee ID"
// @Param        assigned_by  query     string  false  "Assigner ID"
// @Param        book_id      query     string  false  "Book ID"
// @Success      200          {object}  response.Response{data=response.ListData}
// @Router       /api/task-assignments [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.TaskFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	if assignedTo, err := uuid.Parse(c.Query("assigned_to")); err == nil {
		filter.AssignedTo = &assignedTo
	}
	if assignedBy, err := uuid.Parse(c.Query("assigned_by")); err == nil {
		filter.AssignedBy = &assignedBy
	}
	if bookID, err := uuid.Parse(c.Query("book_id")); err == nil {
		filter.BookID = &bookID
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), filter, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list tasks: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, tasks, total, p.Page, p.Limit))
}

// GetTask returns one assignment with its notes and reminders
// @Summary      Get task assignment
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  response.Response{data=model.TaskAssignment}
// @Router       /api/task-assignments/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.taskService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// CreateTask assigns a task and seeds its reminder schedule
// @Summary      Create task assignment
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.CreateTaskRequest  true  "Task"
// @Success      201   {object}  response.Response{data=service.TaskResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/task-assignments [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, task))
}

// UpdateProgress records completion percentage on an assignment
// @Summary      Update task progress
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                         true  "Task ID"
// @Param        body  body      service.UpdateProgressRequest  true  "Progress"
// @Success      200   {object}  response.Response{data=service.TaskResponse}
// @Router       /api/task-assignments/{id}/progress [put]
func (h *TaskHandler) UpdateProgress(c *gin.Context) {
	var req service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	task, err := h.taskService.UpdateProgress(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Progress)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrTaskNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// AddNote appends a progress note
// @Summary      Add task note
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Task ID"
// @Param        body  body      service.AddNoteRequest  true  "Note"
// @Success      201   {object}  response.Response
// @Router       /api/task-assignments/{id}/notes [post]
func (h *TaskHandler) AddNote(c *gin.Context) {
	var req service.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	if err := h.taskService.AddNote(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Content); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"message": "note added"}))
}

// ApproveTask signs off on a completed assignment
// @Summary      Approve task
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true   "Task ID"
// @Param        body  body      service.ApproveTaskRequest  false  "Approval notes"
// @Success      200   {object}  response.Response{data=service.TaskResponse}
// @Router       /api/task-assignments/{id}/approve [post]
func (h *TaskHandler) ApproveTask(c *gin.Context) {
	var req service.ApproveTaskRequest
	_ = c.ShouldBindJSON(&req)

	task, err := h.taskService.ApproveTask(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// CancelTask withdraws an assignment that is not yet completed
// @Summary      Cancel task
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  response.Response{data=service.TaskResponse}
// @Router       /api/task-assignments/{id}/cancel [post]
func (h *TaskHandler) CancelTask(c *gin.Context) {
	task, err := h.taskService.CancelTask(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// SendReminder schedules a one-off reminder on a task
// @Summary      Send manual reminder
// @Tags         tasks
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                         true  "Task ID"
// @Param        body  body      service.ManualReminderRequest  true  "Reminder"
// @Success      201   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/task-assignments/{id}/reminders [post]
func (h *TaskHandler) SendReminder(c *gin.Context) {
	var req service.ManualReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid task id"))
		return
	}

	found, err := h.sched.SendManualReminder(c.Request.Context(), taskID, req.Type, req.Message, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Task not found"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"message": "reminder scheduled"}))
}

// UpcomingReminders lists the caller's pending reminders
// @Summary      Upcoming reminders
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max results (default 10)"
// @Success      200    {object}  response.Response{data=[]scheduler.UpcomingReminder}
// @Router       /api/task-assignments/reminders/upcoming [get]
func (h *TaskHandler) UpcomingReminders(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	reminders, err := h.sched.GetUpcomingReminders(c.Request.Context(), user.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reminders))
}

// SweepOverdue forces an immediate overdue reclassification pass
// @Summary      Run overdue sweep
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/task-assignments/sweep-overdue [post]
func (h *TaskHandler) SweepOverdue(c *gin.Context) {
	n, err := h.sched.RunOverdueSweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"marked_overdue": n}))
}

// DeleteTask removes an assignment and its reminders
// @Summary      Delete task
// @Tags         tasks
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  response.Response
// @Router       /api/task-assignments/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskService.DeleteTask(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrNotTaskOwner) {
			status = http.StatusForbidden
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "task deleted"}))
}
