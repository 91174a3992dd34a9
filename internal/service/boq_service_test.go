package service

import (
	"context"
	"testing"
	"time"

	"erpledger/internal/model"
	ws "erpledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newBOQServiceForTest(boqRepo *mockBOQRepo, projectRepo *mockProjectRepo) (BOQService, *recordingAudit) {
	audit := &recordingAudit{}
	svc := NewBOQService(boqRepo, projectRepo, passthroughTx{}, audit, ws.NewHub())
	return svc, audit
}

func TestCreateBOQ_ComputesTotals(t *testing.T) {
	projectID := uuid.New()
	boqID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, audit := newBOQServiceForTest(boqRepo, projectRepo)

	projectRepo.On("FindByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)
	boqRepo.On("CountByPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(2), nil)

	var saved *model.BOQ
	boqRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.BOQ")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.BOQ)
		saved.ID = boqID
	}).Return(nil)
	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(&model.BOQ{ID: boqID, ProjectID: projectID, BOQDate: time.Now()}, nil)

	_, err := svc.CreateBOQ(context.Background(), CreateBOQRequest{
		ProjectID:          projectID.String(),
		ContractorName:     "Apex Contractors",
		ContingencyPercent: "5",
		Items: []BOQItemInput{
			{Description: "Excavation", Quantity: "2.5", UnitRate: "100"},
			{Description: "Backfill", Quantity: "4", UnitRate: "12.345"},
		},
	}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.True(t, saved.Subtotal.Equal(decimal.RequireFromString("299.38")), "subtotal was %s", saved.Subtotal)
	assert.True(t, saved.ContingencyAmount.Equal(decimal.RequireFromString("14.97")), "contingency was %s", saved.ContingencyAmount)
	assert.True(t, saved.Total.Equal(decimal.RequireFromString("314.35")), "total was %s", saved.Total)
	assert.Equal(t, model.BOQStatusDraft, saved.Status)

	require.Len(t, saved.Items, 2)
	assert.True(t, saved.Items[0].Amount.Equal(decimal.RequireFromString("250")))
	assert.True(t, saved.Items[1].Amount.Equal(decimal.RequireFromString("49.38")))

	// Numbering continues from the day's existing count.
	wantNumber := "BOQ-" + time.Now().Format("20060102") + "-0003"
	assert.Equal(t, wantNumber, saved.BOQNumber)

	assert.Equal(t, []string{model.ActionCreateBOQ}, audit.actions)
	boqRepo.AssertExpectations(t)
	projectRepo.AssertExpectations(t)
}

func TestCreateBOQ_RequiresItems(t *testing.T) {
	projectID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	projectRepo.On("FindByID", mock.Anything, projectID).Return(&model.Project{ID: projectID}, nil)

	_, err := svc.CreateBOQ(context.Background(), CreateBOQRequest{
		ProjectID:      projectID.String(),
		ContractorName: "Apex Contractors",
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one BOQ item")
	boqRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateBOQ_UnknownProject(t *testing.T) {
	projectID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	projectRepo.On("FindByID", mock.Anything, projectID).Return(nil, assert.AnError)

	_, err := svc.CreateBOQ(context.Background(), CreateBOQRequest{
		ProjectID:      projectID.String(),
		ContractorName: "Apex Contractors",
		Items:          []BOQItemInput{{Description: "Excavation", Quantity: "1", UnitRate: "10"}},
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "referenced project not found")
}

func TestUpdateBOQ_ContingencyOnlyRecomputesFromStoredRows(t *testing.T) {
	projectID := uuid.New()
	boqID := uuid.New()

	stored := &model.BOQ{
		ID:                 boqID,
		BOQNumber:          "BOQ-20260801-0001",
		ProjectID:          projectID,
		ContractorName:     "Apex Contractors",
		BOQDate:            time.Now(),
		ContingencyPercent: decimal.NewFromInt(5),
		Status:             model.BOQStatusDraft,
		Items: []model.BOQItem{
			{Description: "Excavation", Quantity: decimal.RequireFromString("2.5"), UnitRate: decimal.NewFromInt(100)},
		},
	}

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(stored, nil)

	var updated *model.BOQ
	boqRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.BOQ")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*model.BOQ)
	}).Return(nil)
	boqRepo.On("ReplaceItems", mock.Anything, boqID, mock.AnythingOfType("[]model.BOQItem")).Return(nil)

	contingency := "10"
	_, err := svc.UpdateBOQ(context.Background(), boqID.String(), UpdateBOQRequest{
		ContingencyPercent: &contingency,
	}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(250)), "subtotal was %s", updated.Subtotal)
	assert.True(t, updated.ContingencyAmount.Equal(decimal.NewFromInt(25)), "contingency was %s", updated.ContingencyAmount)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(275)), "total was %s", updated.Total)
}

func TestUpdateBOQ_RejectsInvalidStatus(t *testing.T) {
	boqID := uuid.New()
	stored := &model.BOQ{
		ID:     boqID,
		Status: model.BOQStatusDraft,
		Items: []model.BOQItem{
			{Description: "Excavation", Quantity: decimal.NewFromInt(1), UnitRate: decimal.NewFromInt(10)},
		},
	}

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, _ := newBOQServiceForTest(boqRepo, projectRepo)

	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(stored, nil)

	bogus := "ARCHIVED"
	_, err := svc.UpdateBOQ(context.Background(), boqID.String(), UpdateBOQRequest{Status: &bogus}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestDeleteBOQ_RecordsAudit(t *testing.T) {
	boqID := uuid.New()

	boqRepo := new(mockBOQRepo)
	projectRepo := new(mockProjectRepo)
	svc, audit := newBOQServiceForTest(boqRepo, projectRepo)

	boqRepo.On("FindByIDWithItems", mock.Anything, boqID).Return(&model.BOQ{ID: boqID, BOQNumber: "BOQ-20260801-0001"}, nil)
	boqRepo.On("Delete", mock.Anything, boqID).Return(nil)

	require.NoError(t, svc.DeleteBOQ(context.Background(), boqID.String(), uuid.New().String()))
	assert.Equal(t, []string{model.ActionDeleteBOQ}, audit.actions)
}
