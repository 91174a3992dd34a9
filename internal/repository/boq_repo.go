package repository

import (
	"context"

	"erpledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BOQListFilter narrows BOQ listings
type BOQListFilter struct {
	ProjectID *uuid.UUID
	Status    string
	Page      int
	Limit     int
}

type BOQRepository interface {
	Create(ctx context.Context, boq *model.BOQ) error
	Update(ctx context.Context, boq *model.BOQ) error
	ReplaceItems(ctx context.Context, boqID uuid.UUID, items []model.BOQItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.BOQ, error)
	List(ctx context.Context, filter BOQListFilter) ([]model.BOQ, int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type boqRepository struct {
	db *gorm.DB
}

func NewBOQRepository(db *gorm.DB) BOQRepository {
	return &boqRepository{db: db}
}

func (r *boqRepository) Create(ctx context.Context, boq *model.BOQ) error {
	return GetDB(ctx, r.db).Create(boq).Error
}

func (r *boqRepository) Update(ctx context.Context, boq *model.BOQ) error {
	return GetDB(ctx, r.db).Omit("Items").Save(boq).Error
}

// ReplaceItems swaps the full item set of a BOQ. Documents are saved
// wholesale from the form, so partial item updates never happen.
func (r *boqRepository) ReplaceItems(ctx context.Context, boqID uuid.UUID, items []model.BOQItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("boq_id = ?", boqID).Delete(&model.BOQItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BOQID = boqID
	}
	return db.Create(&items).Error
}

func (r *boqRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BOQ{}).Error
}

func (r *boqRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.BOQ, error) {
	var boq model.BOQ
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Project").
		First(&boq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &boq, nil
}

func (r *boqRepository) List(ctx context.Context, filter BOQListFilter) ([]model.BOQ, int64, error) {
	var boqs []model.BOQ
	var total int64

	db := GetDB(ctx, r.db)
	applyFilter := func(q *gorm.DB) *gorm.DB {
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		return q
	}

	if err := applyFilter(db.Model(&model.BOQ{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := applyFilter(db).
		Preload("Project").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&boqs).Error; err != nil {
		return nil, 0, err
	}

	return boqs, total, nil
}

func (r *boqRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.BOQ{}).Where("boq_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
