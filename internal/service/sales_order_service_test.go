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

type salesOrderFixture struct {
	svc         SalesOrderService
	orderRepo   *mockSalesOrderRepo
	partnerRepo *mockPartnerRepo
	projectRepo *mockProjectRepo
	tax         *mockTaxService
	audit       *recordingAudit
}

func newSalesOrderFixture() *salesOrderFixture {
	f := &salesOrderFixture{
		orderRepo:   new(mockSalesOrderRepo),
		partnerRepo: new(mockPartnerRepo),
		projectRepo: new(mockProjectRepo),
		tax:         new(mockTaxService),
		audit:       &recordingAudit{},
	}
	f.svc = NewSalesOrderService(f.orderRepo, f.partnerRepo, f.projectRepo, f.tax, passthroughTx{}, f.audit, ws.NewHub())
	return f
}

func TestCreateSalesOrder_AppliesDiscountAndGST(t *testing.T) {
	customerID := uuid.New()
	orderID := uuid.New()
	f := newSalesOrderFixture()

	f.partnerRepo.On("FindByID", mock.Anything, customerID).Return(&model.Partner{ID: customerID, Type: model.PartnerTypeCustomer}, nil)
	f.tax.On("ResolveRate", mock.Anything, model.TaxTypeGST, mock.AnythingOfType("time.Time"), defaultGSTRatePercent).
		Return(decimal.NewFromInt(18), nil)
	f.orderRepo.On("CountByPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)

	var saved *model.SalesOrder
	f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.SalesOrder")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.SalesOrder)
		saved.ID = orderID
	}).Return(nil)
	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{ID: orderID, CustomerID: customerID, OrderDate: time.Now()}, nil)

	_, err := f.svc.CreateSalesOrder(context.Background(), CreateSalesOrderRequest{
		CustomerID:      customerID.String(),
		OrderDate:       "2026-08-15",
		DiscountPercent: "5",
		Items: []SalesOrderItemInput{
			{Description: "Steel supply", Quantity: "10", UnitRate: "100", DiscountPercent: "10"},
			{Description: "Delivery", Quantity: "2", UnitRate: "50"},
		},
	}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	// 900 (after 10% item discount) + 100 = 1000 subtotal; 5% order
	// discount = 50; GST 18% on the 950 remainder = 171.
	assert.True(t, saved.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal was %s", saved.Subtotal)
	assert.True(t, saved.DiscountAmount.Equal(decimal.NewFromInt(50)), "discount was %s", saved.DiscountAmount)
	assert.True(t, saved.GSTAmount.Equal(decimal.NewFromInt(171)), "gst was %s", saved.GSTAmount)
	assert.True(t, saved.Total.Equal(decimal.NewFromInt(1121)), "total was %s", saved.Total)
	assert.Equal(t, model.SalesOrderStatusDraft, saved.Status)
	assert.True(t, saved.GSTRatePercent.Equal(decimal.NewFromInt(18)))

	f.tax.AssertExpectations(t)
}

func TestCreateSalesOrder_RejectsVendorPartner(t *testing.T) {
	vendorID := uuid.New()
	f := newSalesOrderFixture()

	f.partnerRepo.On("FindByID", mock.Anything, vendorID).Return(&model.Partner{ID: vendorID, Type: model.PartnerTypeVendor}, nil)

	_, err := f.svc.CreateSalesOrder(context.Background(), CreateSalesOrderRequest{
		CustomerID: vendorID.String(),
		Items:      []SalesOrderItemInput{{Description: "Steel", Quantity: "1", UnitRate: "10"}},
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a customer")
	f.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateSalesOrder_OnlyDraftEditable(t *testing.T) {
	orderID := uuid.New()
	f := newSalesOrderFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:     orderID,
		Status: model.SalesOrderStatusConfirmed,
	}, nil)

	notes := "revised"
	_, err := f.svc.UpdateSalesOrder(context.Background(), orderID.String(), UpdateSalesOrderRequest{Notes: &notes}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only DRAFT orders can be edited")
}

func TestUpdateSalesOrder_DateChangeReresolvesGST(t *testing.T) {
	orderID := uuid.New()
	f := newSalesOrderFixture()

	stored := &model.SalesOrder{
		ID:             orderID,
		OrderNumber:    "SO-20260801-0001",
		Status:         model.SalesOrderStatusDraft,
		GSTRatePercent: decimal.NewFromInt(18),
		Items: []model.SalesOrderItem{
			{Description: "Steel supply", Quantity: decimal.NewFromInt(10), UnitRate: decimal.NewFromInt(100)},
		},
	}
	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(stored, nil)

	newRate := decimal.RequireFromString("12")
	f.tax.On("ResolveRate", mock.Anything, model.TaxTypeGST, mock.AnythingOfType("time.Time"), defaultGSTRatePercent).
		Return(newRate, nil)

	var updated *model.SalesOrder
	f.orderRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.SalesOrder")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*model.SalesOrder)
	}).Return(nil)
	f.orderRepo.On("ReplaceItems", mock.Anything, orderID, mock.AnythingOfType("[]model.SalesOrderItem")).Return(nil)

	newDate := "2026-09-01"
	_, err := f.svc.UpdateSalesOrder(context.Background(), orderID.String(), UpdateSalesOrderRequest{OrderDate: &newDate}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.True(t, updated.GSTRatePercent.Equal(newRate))
	assert.True(t, updated.GSTAmount.Equal(decimal.NewFromInt(120)), "gst was %s", updated.GSTAmount)
	f.tax.AssertExpectations(t)
}

func TestConfirmSalesOrder_FromDraft(t *testing.T) {
	orderID := uuid.New()
	f := newSalesOrderFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:          orderID,
		OrderNumber: "SO-20260801-0001",
		Status:      model.SalesOrderStatusDraft,
	}, nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, orderID, model.SalesOrderStatusConfirmed).Return(nil)

	_, err := f.svc.ConfirmSalesOrder(context.Background(), orderID.String(), uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, []string{model.ActionConfirmSO}, f.audit.actions)
	f.orderRepo.AssertExpectations(t)
}

func TestConfirmSalesOrder_RejectsNonDraft(t *testing.T) {
	orderID := uuid.New()
	f := newSalesOrderFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:     orderID,
		Status: model.SalesOrderStatusCancelled,
	}, nil)

	_, err := f.svc.ConfirmSalesOrder(context.Background(), orderID.String(), uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only DRAFT orders can be confirmed")
	f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelSalesOrder_AlreadyCancelled(t *testing.T) {
	orderID := uuid.New()
	f := newSalesOrderFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:     orderID,
		Status: model.SalesOrderStatusCancelled,
	}, nil)

	_, err := f.svc.CancelSalesOrder(context.Background(), orderID.String(), uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already cancelled")
}
