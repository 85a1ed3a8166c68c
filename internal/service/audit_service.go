package service

import (
	"context"
	"encoding/json"

	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/pkg/pagination"
)

type AuditLogResponse struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	UserInfo      *model.ActorInfo `json:"user_info,omitempty"`
	Action        string           `json:"action"`
	Resource      string           `json:"resource"`
	ResourceID    string           `json:"resource_id"`
	ResourceName  string           `json:"resource_name"`
	Description   string           `json:"description"`
	OldData       json.RawMessage  `json:"old_data,omitempty"`
	NewData       json.RawMessage  `json:"new_data,omitempty"`
	IPAddress     string           `json:"ip_address"`
	Status        string           `json:"status"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	ExecutionTime int64            `json:"execution_time"`
	CreatedAt     string           `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter, p pagination.Params) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs retrieves filtered, paginated audit records for the admin
// activity screen. The denormalized actor snapshot is preferred over the
// joined user, which may have been edited or removed since the record was
// written.
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter, p pagination.Params) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditLogResponse{
			ID:            l.ID.String(),
			Action:        l.Action,
			Resource:      l.Resource,
			ResourceID:    l.ResourceID,
			ResourceName:  l.ResourceName,
			Description:   l.Description,
			IPAddress:     l.IPAddress,
			Status:        l.Status,
			ErrorMessage:  l.ErrorMessage,
			ExecutionTime: l.ExecutionTime,
			CreatedAt:     l.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if l.UserID != nil {
			entry.UserID = l.UserID.String()
		}
		if l.UserInfo != "" {
			var info model.ActorInfo
			if err := json.Unmarshal([]byte(l.UserInfo), &info); err == nil {
				entry.UserInfo = &info
			}
		}
		if l.OldData != "" {
			entry.OldData = json.RawMessage(l.OldData)
		}
		if l.NewData != "" {
			entry.NewData = json.RawMessage(l.NewData)
		}

		res = append(res, entry)
	}

	return res, total, nil
}
