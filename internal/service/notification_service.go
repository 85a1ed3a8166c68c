package service

import (
	"context"
	"fmt"

	"sosach/internal/model"
	"sosach/internal/repository"
	ws "sosach/internal/websocket"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
)

// NotificationResponse is the API shape for one notification.
type NotificationResponse struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Priority       string  `json:"priority"`
	IsRead         bool    `json:"is_read"`
	SenderName     string  `json:"sender_name,omitempty"`
	RelatedBookID  *string `json:"related_book_id,omitempty"`
	RelatedEntryID *string `json:"related_entry_id,omitempty"`
	RelatedTaskID  *string `json:"related_task_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type NotificationService interface {
	// Notify persists a notification and pushes it to connected clients.
	// Fire-and-forget: the push is best-effort and never fails the call.
	Notify(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, p pagination.Params) ([]NotificationResponse, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error
	Delete(ctx context.Context, id, recipientID uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  *ws.Hub
}

func NewNotificationService(repo repository.NotificationRepository, hub *ws.Hub) NotificationService {
	return &notificationService{repo: repo, hub: hub}
}

func (s *notificationService) Notify(ctx context.Context, n *model.Notification) error {
	if n.Priority == "" {
		n.Priority = model.NotificationPriorityMedium
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish("notification", n.RecipientID.String(), toNotificationResponse(*n))
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, p pagination.Params) ([]NotificationResponse, int64, error) {
	notifications, total, err := s.repo.ListByRecipient(ctx, recipientID, unreadOnly, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	res := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, toNotificationResponse(n))
	}
	return res, total, nil
}

func (s *notificationService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}

func (s *notificationService) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.Delete(ctx, id, recipientID)
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	res := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if n.Sender != nil {
		res.SenderName = n.Sender.FullName
	}
	if n.RelatedBookID != nil {
		v := n.RelatedBookID.String()
		res.RelatedBookID = &v
	}
	if n.RelatedEntryID != nil {
		v := n.RelatedEntryID.String()
		res.RelatedEntryID = &v
	}
	if n.RelatedTaskID != nil {
		v := n.RelatedTaskID.String()
		res.RelatedTaskID = &v
	}
	return res
}
