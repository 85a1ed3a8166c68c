package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	ActionLogin       = "LOGIN"
	ActionLogout      = "LOGOUT"
	ActionLoginFailed = "LOGIN_FAILED"
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionView        = "VIEW"
	ActionAssign      = "ASSIGN"
	ActionUnassign    = "UNASSIGN"
	ActionApprove     = "APPROVE"
	ActionReject      = "REJECT"
	ActionExport      = "EXPORT"
	ActionImport      = "IMPORT"
	ActionBackup      = "BACKUP"
	ActionRestore     = "RESTORE"
)

// Audit resources
const (
	ResourceUser           = "USER"
	ResourceDepartment     = "DEPARTMENT"
	ResourceUnit           = "UNIT"
	ResourceRank           = "RANK"
	ResourcePosition       = "POSITION"
	ResourceBook           = "BOOK"
	ResourceBookEntry      = "BOOK_ENTRY"
	ResourceNotification   = "NOTIFICATION"
	ResourceTaskAssignment = "TASK_ASSIGNMENT"
	ResourceReport         = "REPORT"
	ResourceAuth           = "AUTH"
	ResourceSystem         = "SYSTEM"
)

// Audit outcome, derived from the HTTP status code of the audited request
const (
	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailed  = "FAILED"
	AuditStatusPending = "PENDING"
)

// ActorInfo is the denormalized snapshot of the acting user captured at write
// time, so the record survives later user edits or deletion.
type ActorInfo struct {
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Unit       string `json:"unit,omitempty"`
}

// AuditLog is an append-only record of one API operation: actor, target and
// outcome. Created once by the audit interceptor, never updated or deleted.
type AuditLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	UserInfo      string     `gorm:"type:jsonb" json:"user_info"` // serialized ActorInfo
	Action        string     `gorm:"type:varchar(20);not null;index" json:"action"`
	Resource      string     `gorm:"type:varchar(30);not null;index" json:"resource"`
	ResourceID    string     `gorm:"type:varchar(64);index" json:"resource_id"`
	ResourceName  string     `gorm:"type:varchar(255)" json:"resource_name"`
	Description   string     `gorm:"type:text" json:"description"`
	OldData       string     `gorm:"type:jsonb" json:"old_data"`
	NewData       string     `gorm:"type:jsonb" json:"new_data"`
	IPAddress     string     `gorm:"type:varchar(45)" json:"ip_address"` // IPv4 or IPv6
	UserAgent     string     `gorm:"type:text" json:"user_agent"`
	Status        string     `gorm:"type:varchar(10);not null;index" json:"status"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message"`
	ExecutionTime int64      `gorm:"not null;default:0" json:"execution_time"` // milliseconds
	Metadata      string     `gorm:"type:jsonb" json:"metadata"`               // method, url, status code, params, query
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
