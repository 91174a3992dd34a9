package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRuleRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=GST VAT"`
	RatePercent   string `json:"rate_percent" binding:"required"`   // e.g. "18"
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
	Description   string `json:"description"`
}

type UpdateTaxRuleRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=GST VAT"`
	RatePercent   string `json:"rate_percent" binding:"required"`
	EffectiveFrom string `json:"effective_from" binding:"required"`
	EffectiveTo   string `json:"effective_to"`
	Description   string `json:"description"`
}

type TaxRuleResponse struct {
	ID            string  `json:"id"`
	TaxType       string  `json:"tax_type"`
	RatePercent   string  `json:"rate_percent"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type TaxService interface {
	GetTaxRules(ctx context.Context, page, limit int) ([]TaxRuleResponse, int64, error)
	CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error)
	UpdateTaxRule(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (TaxRuleResponse, error)
	DeleteTaxRule(ctx context.Context, id string, userID string) error
	// ResolveRate returns the rate active for taxType on targetDate, or
	// fallback when no rule covers it.
	ResolveRate(ctx context.Context, taxType string, targetDate time.Time, fallback decimal.Decimal) (decimal.Decimal, error)
}

type taxService struct {
	taxRepo repository.TaxRuleRepository
	audit   AuditService
}

func NewTaxService(taxRepo repository.TaxRuleRepository, audit AuditService) TaxService {
	return &taxService{taxRepo: taxRepo, audit: audit}
}

// --- Implementation ---

func (s *taxService) GetTaxRules(ctx context.Context, page, limit int) ([]TaxRuleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	rules, total, err := s.taxRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}
	return res, total, nil
}

func (s *taxService) CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	rate, effectiveFrom, effectiveTo, err := parseTaxRuleFields(req.RatePercent, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule := model.TaxRule{
		TaxType:       req.TaxType,
		RatePercent:   rate,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   req.Description,
	}

	if err := s.checkOverlap(ctx, rule); err != nil {
		return TaxRuleResponse{}, err
	}

	if err := s.taxRepo.Create(ctx, &rule); err != nil {
		return TaxRuleResponse{}, fmt.Errorf("failed to create tax rule: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateTaxRule, rule.ID.String(), req.TaxType+" "+rate.StringFixed(2)+"%", req)

	return toTaxRuleResponse(rule), nil
}

func (s *taxService) UpdateTaxRule(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid tax rule id: %w", err)
	}

	rule, err := s.taxRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxRuleResponse{}, fmt.Errorf("tax rule not found")
		}
		return TaxRuleResponse{}, fmt.Errorf("failed to fetch tax rule: %w", err)
	}

	rate, effectiveFrom, effectiveTo, err := parseTaxRuleFields(req.RatePercent, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule.TaxType = req.TaxType
	rule.RatePercent = rate
	rule.EffectiveFrom = effectiveFrom
	rule.EffectiveTo = effectiveTo
	rule.Description = req.Description

	if err := s.checkOverlap(ctx, *rule); err != nil {
		return TaxRuleResponse{}, err
	}

	if err := s.taxRepo.Update(ctx, rule); err != nil {
		return TaxRuleResponse{}, fmt.Errorf("failed to update tax rule: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdateTaxRule, rule.ID.String(), req.TaxType+" "+rate.StringFixed(2)+"%", req)

	return toTaxRuleResponse(*rule), nil
}

func (s *taxService) DeleteTaxRule(ctx context.Context, id string, userID string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rule id: %w", err)
	}

	rule, err := s.taxRepo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rule not found")
		}
		return fmt.Errorf("failed to fetch tax rule: %w", err)
	}

	if err := s.taxRepo.Delete(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete tax rule: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteTaxRule, rule.ID.String(), rule.TaxType+" "+rule.RatePercent.StringFixed(2)+"%", map[string]string{"deleted_id": id})

	return nil
}

func (s *taxService) ResolveRate(ctx context.Context, taxType string, targetDate time.Time, fallback decimal.Decimal) (decimal.Decimal, error) {
	rule, err := s.taxRepo.FindActiveByType(ctx, taxType, targetDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fallback, nil
		}
		return decimal.Zero, fmt.Errorf("failed to query tax rule: %w", err)
	}
	return rule.RatePercent, nil
}

// --- Helpers ---

func parseTaxRuleFields(rateStr, fromStr, toStr string) (decimal.Decimal, time.Time, *time.Time, error) {
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid rate value: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, time.Time{}, nil, fmt.Errorf("rate must be between 0 and 100")
	}

	effectiveFrom, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid effective_from date format (expected YYYY-MM-DD): %w", err)
	}

	var effectiveTo *time.Time
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid effective_to date format (expected YYYY-MM-DD): %w", err)
		}
		if t.Before(effectiveFrom) {
			return decimal.Zero, time.Time{}, nil, fmt.Errorf("effective_to must not be before effective_from")
		}
		effectiveTo = &t
	}

	return rate, effectiveFrom, effectiveTo, nil
}

func (s *taxService) checkOverlap(ctx context.Context, candidate model.TaxRule) error {
	count, err := s.taxRepo.CountOverlapping(ctx, candidate)
	if err != nil {
		return fmt.Errorf("failed to check overlapping rules: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("a %s rule already covers part of this date range", candidate.TaxType)
	}
	return nil
}

func toTaxRuleResponse(rule model.TaxRule) TaxRuleResponse {
	res := TaxRuleResponse{
		ID:            rule.ID.String(),
		TaxType:       rule.TaxType,
		RatePercent:   rule.RatePercent.StringFixed(2),
		EffectiveFrom: rule.EffectiveFrom.Format("2006-01-02"),
		Description:   rule.Description,
		CreatedAt:     rule.CreatedAt.Format(time.RFC3339),
	}
	if rule.EffectiveTo != nil {
		to := rule.EffectiveTo.Format("2006-01-02")
		res.EffectiveTo = &to
	}
	return res
}
