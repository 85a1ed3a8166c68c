package service

import (
	"context"
	"time"

	"sosach/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsResponse feeds the admin dashboard.
type StatisticsResponse struct {
	TimeRangeStartDate time.Time `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time `json:"time_range_end_date"`

	TotalTasks      int64 `json:"total_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	InProgressTasks int64 `json:"in_progress_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	OverdueTasks    int64 `json:"overdue_tasks"`
	CancelledTasks  int64 `json:"cancelled_tasks"`

	// Percentages with two decimal places
	CompletionRate decimal.Decimal `json:"completion_rate"`
	OnTimeRate     decimal.Decimal `json:"on_time_rate"`

	TotalEntries     int64 `json:"total_entries"`
	SubmittedEntries int64 `json:"submitted_entries"`
	ApprovedEntries  int64 `json:"approved_entries"`
	RejectedEntries  int64 `json:"rejected_entries"`

	AuditActions []ActionCount `json:"audit_actions"`
}

type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error)
}

type statisticsService struct {
	db *gorm.DB
}

func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetStatistics aggregates task, entry and audit activity inside the range.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (StatisticsResponse, error) {
	var response StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	taskCounts := map[string]*int64{
		model.TaskStatusPending:    &response.PendingTasks,
		model.TaskStatusInProgress: &response.InProgressTasks,
		model.TaskStatusCompleted:  &response.CompletedTasks,
		model.TaskStatusOverdue:    &response.OverdueTasks,
		model.TaskStatusCancelled:  &response.CancelledTasks,
	}
	for status, dest := range taskCounts {
		s.db.WithContext(ctx).Model(&model.TaskAssignment{}).
			Where("status = ? AND created_at >= ? AND created_at <= ?", status, startDate, endDate).
			Count(dest)
	}
	response.TotalTasks = response.PendingTasks + response.InProgressTasks +
		response.CompletedTasks + response.OverdueTasks + response.CancelledTasks

	if response.TotalTasks > 0 {
		response.CompletionRate = decimal.NewFromInt(response.CompletedTasks).
			Div(decimal.NewFromInt(response.TotalTasks)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	// On-time rate: completed tasks whose completion beat the deadline
	var onTime int64
	s.db.WithContext(ctx).Model(&model.TaskAssignment{}).
		Where("status = ? AND completed_at IS NOT NULL AND completed_at <= deadline AND created_at >= ? AND created_at <= ?",
			model.TaskStatusCompleted, startDate, endDate).
		Count(&onTime)
	if response.CompletedTasks > 0 {
		response.OnTimeRate = decimal.NewFromInt(onTime).
			Div(decimal.NewFromInt(response.CompletedTasks)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	s.db.WithContext(ctx).Model(&model.BookEntry{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Count(&response.TotalEntries)
	entryCounts := map[string]*int64{
		model.EntryStatusSubmitted: &response.SubmittedEntries,
		model.EntryStatusApproved:  &response.ApprovedEntries,
		model.EntryStatusRejected:  &response.RejectedEntries,
	}
	for status, dest := range entryCounts {
		s.db.WithContext(ctx).Model(&model.BookEntry{}).
			Where("status = ? AND created_at >= ? AND created_at <= ?", status, startDate, endDate).
			Count(dest)
	}

	var actions []ActionCount
	s.db.WithContext(ctx).Model(&model.AuditLog{}).
		Select("action, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Group("action").
		Order("count DESC").
		Scan(&actions)
	response.AuditActions = actions

	return response, nil
}
