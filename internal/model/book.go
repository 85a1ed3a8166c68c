package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book cadence constants
const (
	BookFrequencyDaily   = "daily"
	BookFrequencyWeekly  = "weekly"
	BookFrequencyMonthly = "monthly"
)

// BookEntry lifecycle: draft -> submitted -> approved | rejected
const (
	EntryStatusDraft     = "draft"
	EntryStatusSubmitted = "submitted"
	EntryStatusApproved  = "approved"
	EntryStatusRejected  = "rejected"
)

// Book is a recurring logbook (sổ sách) owned by a unit or department.
type Book struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Code         string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description  string         `gorm:"type:text" json:"description"`
	Frequency    string         `gorm:"type:varchar(20);not null;default:'daily'" json:"frequency"`
	UnitID       *uuid.UUID     `gorm:"type:uuid;index" json:"unit_id"`
	Unit         *Unit          `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	DepartmentID *uuid.UUID     `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department    `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookEntry is one dated submission against a Book, reviewed by a commander.
type BookEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BookID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"book_id"`
	Book        *Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Content     string     `gorm:"type:text" json:"content"`
	EntryDate   time.Time  `gorm:"not null;index" json:"entry_date"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by"`
	Author      *User      `gorm:"foreignKey:CreatedBy" json:"author,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedBy  *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	Reviewer    *User      `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *BookEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
