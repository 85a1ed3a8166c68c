package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateBookRequest struct {
	Name         string  `json:"name" binding:"required"`
	Code         string  `json:"code" binding:"required"`
	Description  string  `json:"description"`
	Frequency    string  `json:"frequency" binding:"omitempty,oneof=daily weekly monthly"`
	UnitID       *string `json:"unit_id"`
	DepartmentID *string `json:"department_id"`
}

type UpdateBookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency" binding:"omitempty,oneof=daily weekly monthly"`
	IsActive    *bool  `json:"is_active"`
}

type CreateEntryRequest struct {
	BookID    string     `json:"book_id" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Content   string     `json:"content"`
	EntryDate time.Time  `json:"entry_date" binding:"required"`
	Deadline  *time.Time `json:"deadline"`
}

type UpdateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ReviewEntryRequest struct {
	Notes string `json:"notes"`
}

var ErrEntryNotEditable = errors.New("only draft or rejected entries can be edited")
var ErrEntryNotSubmittable = errors.New("entry has already been submitted")
var ErrEntryNotReviewable = errors.New("only submitted entries can be reviewed")

// --- Interface ---

type BookService interface {
	CreateBook(ctx context.Context, actor *model.User, req CreateBookRequest) (*model.Book, error)
	GetBook(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context, p pagination.Params) ([]model.Book, int64, error)
	UpdateBook(ctx context.Context, id string, req UpdateBookRequest) (*model.Book, error)
	DeleteBook(ctx context.Context, id string) error

	CreateEntry(ctx context.Context, actor *model.User, req CreateEntryRequest) (*model.BookEntry, error)
	GetEntry(ctx context.Context, id string) (*model.BookEntry, error)
	ListEntries(ctx context.Context, filter repository.EntryFilter, p pagination.Params) ([]model.BookEntry, int64, error)
	UpdateEntry(ctx context.Context, actor *model.User, id string, req UpdateEntryRequest) (*model.BookEntry, error)
	SubmitEntry(ctx context.Context, actor *model.User, id string) (*model.BookEntry, error)
	ApproveEntry(ctx context.Context, actor *model.User, id string, notes string) (*model.BookEntry, error)
	RejectEntry(ctx context.Context, actor *model.User, id string, notes string) (*model.BookEntry, error)
	DeleteEntry(ctx context.Context, actor *model.User, id string) error
}

type bookService struct {
	repo          repository.BookRepository
	notifications NotificationService
	now           func() time.Time
}

func NewBookService(repo repository.BookRepository, notifications NotificationService, now func() time.Time) BookService {
	if now == nil {
		now = time.Now
	}
	return &bookService{repo: repo, notifications: notifications, now: now}
}

// --- Books ---

func (s *bookService) CreateBook(ctx context.Context, actor *model.User, req CreateBookRequest) (*model.Book, error) {
	frequency := req.Frequency
	if frequency == "" {
		frequency = model.BookFrequencyDaily
	}

	book := &model.Book{
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		Frequency:    frequency,
		UnitID:       parseOptionalUUID(req.UnitID),
		DepartmentID: parseOptionalUUID(req.DepartmentID),
		CreatedBy:    actor.ID,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

func (s *bookService) GetBook(ctx context.Context, id string) (*model.Book, error) {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid book id: %w", err)
	}
	book, err := s.repo.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("book not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context, p pagination.Params) ([]model.Book, int64, error) {
	return s.repo.List(ctx, p)
}

func (s *bookService) UpdateBook(ctx context.Context, id string, req UpdateBookRequest) (*model.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		book.Name = req.Name
	}
	if req.Description != "" {
		book.Description = req.Description
	}
	if req.Frequency != "" {
		book.Frequency = req.Frequency
	}
	if req.IsActive != nil {
		book.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, id string) error {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid book id: %w", err)
	}
	return s.repo.Delete(ctx, bookID)
}

// --- Entries ---

func (s *bookService) CreateEntry(ctx context.Context, actor *model.User, req CreateEntryRequest) (*model.BookEntry, error) {
	bookID, err := uuid.Parse(req.BookID)
	if err != nil {
		return nil, fmt.Errorf("invalid book_id: %w", err)
	}

	if _, err := s.repo.FindByID(ctx, bookID); err != nil {
		return nil, errors.New("book not found")
	}

	entry := &model.BookEntry{
		BookID:    bookID,
		Title:     req.Title,
		Content:   req.Content,
		EntryDate: req.EntryDate,
		Deadline:  req.Deadline,
		Status:    model.EntryStatusDraft,
		CreatedBy: actor.ID,
	}

	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return entry, nil
}

func (s *bookService) GetEntry(ctx context.Context, id string) (*model.BookEntry, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id: %w", err)
	}
	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("entry not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return entry, nil
}

func (s *bookService) ListEntries(ctx context.Context, filter repository.EntryFilter, p pagination.Params) ([]model.BookEntry, int64, error) {
	return s.repo.ListEntries(ctx, filter, p)
}

func (s *bookService) UpdateEntry(ctx context.Context, actor *model.User, id string, req UpdateEntryRequest) (*model.BookEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.Status != model.EntryStatusDraft && entry.Status != model.EntryStatusRejected {
		return nil, ErrEntryNotEditable
	}

	if req.Title != "" {
		entry.Title = req.Title
	}
	if req.Content != "" {
		entry.Content = req.Content
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

// SubmitEntry moves a draft (or rejected) entry into review and notifies the
// reviewing commander chain via the entry author's unit.
func (s *bookService) SubmitEntry(ctx context.Context, actor *model.User, id string) (*model.BookEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.Status != model.EntryStatusDraft && entry.Status != model.EntryStatusRejected {
		return nil, ErrEntryNotSubmittable
	}

	now := s.now()
	entry.Status = model.EntryStatusSubmitted
	entry.SubmittedAt = &now
	entry.ReviewedBy = nil
	entry.ReviewedAt = nil
	entry.ReviewNotes = ""

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to submit entry: %w", err)
	}

	// The book owner reviews submissions.
	if book, err := s.repo.FindByID(ctx, entry.BookID); err == nil && book.CreatedBy != actor.ID {
		_ = s.notifications.Notify(ctx, &model.Notification{
			RecipientID:    book.CreatedBy,
			SenderID:       &actor.ID,
			Type:           model.NotificationTypeEntrySubmitted,
			Title:          "Ghi chép chờ duyệt",
			Message:        fmt.Sprintf("%s đã nộp ghi chép \"%s\"", actor.FullName, entry.Title),
			Priority:       model.NotificationPriorityMedium,
			RelatedBookID:  &entry.BookID,
			RelatedEntryID: &entry.ID,
			RelatedUserID:  &actor.ID,
		})
	}

	return entry, nil
}

func (s *bookService) ApproveEntry(ctx context.Context, actor *model.User, id string, notes string) (*model.BookEntry, error) {
	return s.reviewEntry(ctx, actor, id, model.EntryStatusApproved, notes, model.NotificationTypeEntryApproved, "Ghi chép được phê duyệt")
}

func (s *bookService) RejectEntry(ctx context.Context, actor *model.User, id string, notes string) (*model.BookEntry, error) {
	return s.reviewEntry(ctx, actor, id, model.EntryStatusRejected, notes, model.NotificationTypeEntryRejected, "Ghi chép bị từ chối")
}

func (s *bookService) reviewEntry(ctx context.Context, actor *model.User, id, status, notes, notificationType, title string) (*model.BookEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.Status != model.EntryStatusSubmitted {
		return nil, ErrEntryNotReviewable
	}

	now := s.now()
	entry.Status = status
	entry.ReviewedBy = &actor.ID
	entry.ReviewedAt = &now
	entry.ReviewNotes = notes

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to review entry: %w", err)
	}

	_ = s.notifications.Notify(ctx, &model.Notification{
		RecipientID:    entry.CreatedBy,
		SenderID:       &actor.ID,
		Type:           notificationType,
		Title:          title,
		Message:        fmt.Sprintf("Ghi chép \"%s\": %s", entry.Title, notes),
		Priority:       model.NotificationPriorityMedium,
		RelatedBookID:  &entry.BookID,
		RelatedEntryID: &entry.ID,
	})

	return entry, nil
}

func (s *bookService) DeleteEntry(ctx context.Context, actor *model.User, id string) error {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != model.RoleAdmin && entry.CreatedBy != actor.ID {
		return errors.New("only an admin or the entry author may delete it")
	}

	return s.repo.DeleteEntry(ctx, entry.ID)
}
