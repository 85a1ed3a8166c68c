package repository

import (
	"context"

	"sosach/internal/model"
	"sosach/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryFilter narrows book entry listings.
type EntryFilter struct {
	BookID    *uuid.UUID
	Status    string
	CreatedBy *uuid.UUID
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context, p pagination.Params) ([]model.Book, int64, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateEntry(ctx context.Context, entry *model.BookEntry) error
	FindEntryByID(ctx context.Context, id uuid.UUID) (*model.BookEntry, error)
	ListEntries(ctx context.Context, filter EntryFilter, p pagination.Params) ([]model.BookEntry, int64, error)
	UpdateEntry(ctx context.Context, entry *model.BookEntry) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return GetDB(ctx, r.db).Create(book).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	err := GetDB(ctx, r.db).Preload("Unit").Preload("Department").First(&book, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, p pagination.Params) ([]model.Book, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.Book{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	err := db.Preload("Unit").Preload("Department").
		Order("created_at desc").
		Scopes(p.Scope()).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return GetDB(ctx, r.db).Omit("Unit", "Department").Save(book).Error
}

func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Book{}, "id = ?", id).Error
}

func (r *bookRepository) CreateEntry(ctx context.Context, entry *model.BookEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *bookRepository) FindEntryByID(ctx context.Context, id uuid.UUID) (*model.BookEntry, error) {
	var entry model.BookEntry
	err := GetDB(ctx, r.db).
		Preload("Book").Preload("Author").Preload("Reviewer").
		First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *bookRepository) ListEntries(ctx context.Context, filter EntryFilter, p pagination.Params) ([]model.BookEntry, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.BookEntry{})

	if filter.BookID != nil {
		db = db.Where("book_id = ?", *filter.BookID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.BookEntry
	err := db.Preload("Author").
		Order("entry_date desc").
		Scopes(p.Scope()).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *bookRepository) UpdateEntry(ctx context.Context, entry *model.BookEntry) error {
	return GetDB(ctx, r.db).Omit("Book", "Author", "Reviewer").Save(entry).Error
}

func (r *bookRepository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.BookEntry{}, "id = ?", id).Error
}
