package service

import (
	"context"
	"fmt"

	"sosach/internal/model"

	"gorm.io/gorm"
)

// ReferenceService maintains the flat lookup tables (ranks, units,
// departments, positions). Plain CRUD over the shared database handle.
type ReferenceService interface {
	ListRanks(ctx context.Context) ([]model.Rank, error)
	CreateRank(ctx context.Context, rank *model.Rank) error
	UpdateRank(ctx context.Context, rank *model.Rank) error
	DeleteRank(ctx context.Context, id string) error

	ListUnits(ctx context.Context) ([]model.Unit, error)
	CreateUnit(ctx context.Context, unit *model.Unit) error
	UpdateUnit(ctx context.Context, unit *model.Unit) error
	DeleteUnit(ctx context.Context, id string) error

	ListDepartments(ctx context.Context) ([]model.Department, error)
	CreateDepartment(ctx context.Context, department *model.Department) error
	UpdateDepartment(ctx context.Context, department *model.Department) error
	DeleteDepartment(ctx context.Context, id string) error

	ListPositions(ctx context.Context) ([]model.Position, error)
	CreatePosition(ctx context.Context, position *model.Position) error
	UpdatePosition(ctx context.Context, position *model.Position) error
	DeletePosition(ctx context.Context, id string) error
}

type referenceService struct {
	db *gorm.DB
}

func NewReferenceService(db *gorm.DB) ReferenceService {
	return &referenceService{db: db}
}

func (s *referenceService) ListRanks(ctx context.Context) ([]model.Rank, error) {
	var ranks []model.Rank
	err := s.db.WithContext(ctx).Order("level asc").Find(&ranks).Error
	return ranks, err
}

func (s *referenceService) CreateRank(ctx context.Context, rank *model.Rank) error {
	return s.db.WithContext(ctx).Create(rank).Error
}

func (s *referenceService) UpdateRank(ctx context.Context, rank *model.Rank) error {
	return s.db.WithContext(ctx).Save(rank).Error
}

func (s *referenceService) DeleteRank(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &model.Rank{}, id)
}

func (s *referenceService) ListUnits(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	err := s.db.WithContext(ctx).Order("code asc").Find(&units).Error
	return units, err
}

func (s *referenceService) CreateUnit(ctx context.Context, unit *model.Unit) error {
	return s.db.WithContext(ctx).Create(unit).Error
}

func (s *referenceService) UpdateUnit(ctx context.Context, unit *model.Unit) error {
	return s.db.WithContext(ctx).Save(unit).Error
}

func (s *referenceService) DeleteUnit(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &model.Unit{}, id)
}

func (s *referenceService) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	err := s.db.WithContext(ctx).Order("code asc").Find(&departments).Error
	return departments, err
}

func (s *referenceService) CreateDepartment(ctx context.Context, department *model.Department) error {
	return s.db.WithContext(ctx).Create(department).Error
}

func (s *referenceService) UpdateDepartment(ctx context.Context, department *model.Department) error {
	return s.db.WithContext(ctx).Save(department).Error
}

func (s *referenceService) DeleteDepartment(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &model.Department{}, id)
}

func (s *referenceService) ListPositions(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	err := s.db.WithContext(ctx).Order("name asc").Find(&positions).Error
	return positions, err
}

func (s *referenceService) CreatePosition(ctx context.Context, position *model.Position) error {
	return s.db.WithContext(ctx).Create(position).Error
}

func (s *referenceService) UpdatePosition(ctx context.Context, position *model.Position) error {
	return s.db.WithContext(ctx).Save(position).Error
}

func (s *referenceService) DeletePosition(ctx context.Context, id string) error {
	return s.deleteByID(ctx, &model.Position{}, id)
}

func (s *referenceService) deleteByID(ctx context.Context, entity interface{}, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(entity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s not found", id)
	}
	return nil
}
