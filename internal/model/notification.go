package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification event types
const (
	NotificationTypeTaskAssigned   = "task_assigned"
	NotificationTypeTaskReminder   = "task_reminder"
	NotificationTypeTaskOverdue    = "task_overdue"
	NotificationTypeEntrySubmitted = "entry_submitted"
	NotificationTypeEntryApproved  = "entry_approved"
	NotificationTypeEntryRejected  = "entry_rejected"
	NotificationTypeSystem         = "system"
)

// Notification priorities
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityMedium = "medium"
	NotificationPriorityHigh   = "high"
)

// Notification is a fire-and-forget message to one recipient. Rows with an
// ExpiresAt in the past are removed by the scheduler's daily sweep.
type Notification struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient      *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	SenderID       *uuid.UUID `gorm:"type:uuid" json:"sender_id"`
	Sender         *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type           string     `gorm:"type:varchar(30);not null;index" json:"type"`
	Title          string     `gorm:"type:varchar(255);not null" json:"title"`
	Message        string     `gorm:"type:text" json:"message"`
	Priority       string     `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	IsRead         bool       `gorm:"not null;default:false;index" json:"is_read"`
	RelatedBookID  *uuid.UUID `gorm:"type:uuid" json:"related_book_id"`
	RelatedEntryID *uuid.UUID `gorm:"type:uuid" json:"related_entry_id"`
	RelatedTaskID  *uuid.UUID `gorm:"type:uuid" json:"related_task_id"`
	RelatedUserID  *uuid.UUID `gorm:"type:uuid" json:"related_user_id"`
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
