package service

import (
	"context"
	"testing"
	"time"

	"erpledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestResolveRate_UsesActiveRule(t *testing.T) {
	taxRepo := new(mockTaxRuleRepo)
	svc := NewTaxService(taxRepo, &recordingAudit{})

	target := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	taxRepo.On("FindActiveByType", mock.Anything, model.TaxTypeGST, target).Return(&model.TaxRule{
		TaxType:     model.TaxTypeGST,
		RatePercent: decimal.RequireFromString("12"),
	}, nil)

	rate, err := svc.ResolveRate(context.Background(), model.TaxTypeGST, target, decimal.NewFromInt(18))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("12")))
}

func TestResolveRate_FallsBackWhenNoRule(t *testing.T) {
	taxRepo := new(mockTaxRuleRepo)
	svc := NewTaxService(taxRepo, &recordingAudit{})

	target := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	taxRepo.On("FindActiveByType", mock.Anything, model.TaxTypeGST, target).Return(nil, gorm.ErrRecordNotFound)

	rate, err := svc.ResolveRate(context.Background(), model.TaxTypeGST, target, decimal.NewFromInt(18))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(18)))
}

func TestCreateTaxRule_RejectsOverlap(t *testing.T) {
	taxRepo := new(mockTaxRuleRepo)
	svc := NewTaxService(taxRepo, &recordingAudit{})

	taxRepo.On("CountOverlapping", mock.Anything, mock.MatchedBy(func(r model.TaxRule) bool {
		return r.TaxType == model.TaxTypeGST && r.ID == uuid.Nil
	})).Return(int64(1), nil)

	_, err := svc.CreateTaxRule(context.Background(), CreateTaxRuleRequest{
		TaxType:       model.TaxTypeGST,
		RatePercent:   "12",
		EffectiveFrom: "2026-09-01",
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already covers part of this date range")
	taxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateTaxRule_ValidatesFields(t *testing.T) {
	taxRepo := new(mockTaxRuleRepo)
	svc := NewTaxService(taxRepo, &recordingAudit{})

	tests := []struct {
		name    string
		req     CreateTaxRuleRequest
		wantErr string
	}{
		{
			name:    "rate above 100",
			req:     CreateTaxRuleRequest{TaxType: "GST", RatePercent: "120", EffectiveFrom: "2026-09-01"},
			wantErr: "between 0 and 100",
		},
		{
			name:    "bad from date",
			req:     CreateTaxRuleRequest{TaxType: "GST", RatePercent: "12", EffectiveFrom: "01/09/2026"},
			wantErr: "invalid effective_from",
		},
		{
			name:    "to before from",
			req:     CreateTaxRuleRequest{TaxType: "GST", RatePercent: "12", EffectiveFrom: "2026-09-01", EffectiveTo: "2026-08-01"},
			wantErr: "must not be before",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTaxRule(context.Background(), tc.req, uuid.New().String())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestCreateTaxRule_Persists(t *testing.T) {
	taxRepo := new(mockTaxRuleRepo)
	audit := &recordingAudit{}
	svc := NewTaxService(taxRepo, audit)

	taxRepo.On("CountOverlapping", mock.Anything, mock.AnythingOfType("model.TaxRule")).
		Return(int64(0), nil)

	var saved *model.TaxRule
	taxRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.TaxRule")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.TaxRule)
	}).Return(nil)

	res, err := svc.CreateTaxRule(context.Background(), CreateTaxRuleRequest{
		TaxType:       model.TaxTypeVAT,
		RatePercent:   "7.5",
		EffectiveFrom: "2026-09-01",
		EffectiveTo:   "2026-12-31",
	}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.True(t, saved.RatePercent.Equal(decimal.RequireFromString("7.5")))
	require.NotNil(t, saved.EffectiveTo)
	assert.Equal(t, "2026-12-31", saved.EffectiveTo.Format("2006-01-02"))
	assert.Equal(t, "7.50", res.RatePercent)
	assert.Equal(t, []string{model.ActionCreateTaxRule}, audit.actions)
}

func TestUpdateTaxRule_OverlapCheckExcludesOwnRow(t *testing.T) {
	ruleID := uuid.New()
	taxRepo := new(mockTaxRuleRepo)
	audit := &recordingAudit{}
	svc := NewTaxService(taxRepo, audit)

	taxRepo.On("FindByID", mock.Anything, ruleID).Return(&model.TaxRule{
		ID:            ruleID,
		TaxType:       model.TaxTypeGST,
		RatePercent:   decimal.NewFromInt(18),
		EffectiveFrom: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}, nil)
	taxRepo.On("CountOverlapping", mock.Anything, mock.MatchedBy(func(r model.TaxRule) bool {
		return r.ID == ruleID && r.TaxType == model.TaxTypeGST
	})).Return(int64(0), nil)
	taxRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.TaxRule")).Return(nil)

	res, err := svc.UpdateTaxRule(context.Background(), ruleID.String(), UpdateTaxRuleRequest{
		TaxType:       model.TaxTypeGST,
		RatePercent:   "20",
		EffectiveFrom: "2026-10-01",
	}, uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.RatePercent)
	assert.Equal(t, []string{model.ActionUpdateTaxRule}, audit.actions)
	taxRepo.AssertExpectations(t)
}
