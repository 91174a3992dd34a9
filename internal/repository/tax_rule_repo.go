package repository

import (
	"context"
	"time"

	"erpledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxRuleRepository stores the temporal GST/VAT rate table. Rules of the
// same type must not overlap in time; CountOverlapping backs that check.
type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	Update(ctx context.Context, rule *model.TaxRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error)
	// FindActiveByType returns the rule in force for taxType on targetDate.
	FindActiveByType(ctx context.Context, taxType string, targetDate time.Time) (*model.TaxRule, error)
	// CountOverlapping counts existing rules of the candidate's type whose
	// effective range intersects the candidate's. The candidate itself is
	// excluded when its ID is set, so updates don't collide with their own row.
	CountOverlapping(ctx context.Context, candidate model.TaxRule) (int64, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) Update(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *taxRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxRule{}).Error
}

func (r *taxRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error) {
	var rule model.TaxRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	var rules []model.TaxRule
	var total int64

	db := GetDB(ctx, r.db).Model(&model.TaxRule{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("tax_type asc, effective_from desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rules).Error
	if err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

func (r *taxRuleRepository) FindActiveByType(ctx context.Context, taxType string, targetDate time.Time) (*model.TaxRule, error) {
	var rule model.TaxRule
	err := GetDB(ctx, r.db).
		Where("tax_type = ? AND effective_from <= ?", taxType, targetDate).
		Where("COALESCE(effective_to, DATE '9999-12-31') >= ?", targetDate).
		Order("effective_from DESC").
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) CountOverlapping(ctx context.Context, candidate model.TaxRule) (int64, error) {
	// Two ranges intersect when each starts before the other ends. A NULL
	// effective_to means the rule is open ended, modelled as a far date.
	query := GetDB(ctx, r.db).Model(&model.TaxRule{}).
		Where("tax_type = ?", candidate.TaxType).
		Where("effective_from <= COALESCE(?, DATE '9999-12-31')", candidate.EffectiveTo).
		Where("COALESCE(effective_to, DATE '9999-12-31') >= ?", candidate.EffectiveFrom)

	if candidate.ID != uuid.Nil {
		query = query.Where("id != ?", candidate.ID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
