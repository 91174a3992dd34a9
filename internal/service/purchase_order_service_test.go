package service

import (
	"context"
	"testing"

	"erpledger/internal/model"
	ws "erpledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type purchaseOrderFixture struct {
	svc         PurchaseOrderService
	orderRepo   *mockPurchaseOrderRepo
	partnerRepo *mockPartnerRepo
	projectRepo *mockProjectRepo
	audit       *recordingAudit
}

func newPurchaseOrderFixture() *purchaseOrderFixture {
	f := &purchaseOrderFixture{
		orderRepo:   new(mockPurchaseOrderRepo),
		partnerRepo: new(mockPartnerRepo),
		projectRepo: new(mockProjectRepo),
		audit:       &recordingAudit{},
	}
	f.svc = NewPurchaseOrderService(f.orderRepo, f.partnerRepo, f.projectRepo, passthroughTx{}, f.audit, ws.NewHub())
	return f
}

func TestCreatePurchaseOrder_AdditiveTax(t *testing.T) {
	vendorID := uuid.New()
	orderID := uuid.New()
	f := newPurchaseOrderFixture()

	f.partnerRepo.On("FindByID", mock.Anything, vendorID).Return(&model.Partner{ID: vendorID, Type: model.PartnerTypeVendor}, nil)
	f.orderRepo.On("CountByPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)

	var saved *model.PurchaseOrder
	f.orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.PurchaseOrder")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.PurchaseOrder)
		saved.ID = orderID
	}).Return(nil)
	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.PurchaseOrder{ID: orderID, VendorID: vendorID}, nil)

	_, err := f.svc.CreatePurchaseOrder(context.Background(), CreatePurchaseOrderRequest{
		VendorID:       vendorID.String(),
		PODate:         "2026-08-10",
		TaxRatePercent: "18",
		Items: []PurchaseOrderItemInput{
			{Description: "Cement bags", Quantity: "100", UnitRate: "8.50"},
		},
	}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.True(t, saved.Subtotal.Equal(decimal.NewFromInt(850)), "subtotal was %s", saved.Subtotal)
	assert.True(t, saved.TaxAmount.Equal(decimal.NewFromInt(153)), "tax was %s", saved.TaxAmount)
	assert.True(t, saved.Total.Equal(decimal.NewFromInt(1003)), "total was %s", saved.Total)
	assert.Equal(t, model.PurchaseOrderStatusDraft, saved.Status)
}

func TestCreatePurchaseOrder_RejectsCustomerPartner(t *testing.T) {
	customerID := uuid.New()
	f := newPurchaseOrderFixture()

	f.partnerRepo.On("FindByID", mock.Anything, customerID).Return(&model.Partner{ID: customerID, Type: model.PartnerTypeCustomer}, nil)

	_, err := f.svc.CreatePurchaseOrder(context.Background(), CreatePurchaseOrderRequest{
		VendorID: customerID.String(),
		Items:    []PurchaseOrderItemInput{{Description: "Cement", Quantity: "1", UnitRate: "10"}},
	}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a vendor")
}

func TestPurchaseOrderStatusFlow(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		call    func(f *purchaseOrderFixture, id string) error
		to      string
		wantErr string
	}{
		{
			name: "send from draft",
			from: model.PurchaseOrderStatusDraft,
			call: func(f *purchaseOrderFixture, id string) error {
				_, err := f.svc.SendPurchaseOrder(context.Background(), id, uuid.New().String())
				return err
			},
			to: model.PurchaseOrderStatusSent,
		},
		{
			name: "close from sent",
			from: model.PurchaseOrderStatusSent,
			call: func(f *purchaseOrderFixture, id string) error {
				_, err := f.svc.ClosePurchaseOrder(context.Background(), id, uuid.New().String())
				return err
			},
			to: model.PurchaseOrderStatusClosed,
		},
		{
			name: "send from sent fails",
			from: model.PurchaseOrderStatusSent,
			call: func(f *purchaseOrderFixture, id string) error {
				_, err := f.svc.SendPurchaseOrder(context.Background(), id, uuid.New().String())
				return err
			},
			wantErr: "only DRAFT",
		},
		{
			name: "close from draft fails",
			from: model.PurchaseOrderStatusDraft,
			call: func(f *purchaseOrderFixture, id string) error {
				_, err := f.svc.ClosePurchaseOrder(context.Background(), id, uuid.New().String())
				return err
			},
			wantErr: "only SENT",
		},
		{
			name: "cancel closed fails",
			from: model.PurchaseOrderStatusClosed,
			call: func(f *purchaseOrderFixture, id string) error {
				_, err := f.svc.CancelPurchaseOrder(context.Background(), id, uuid.New().String())
				return err
			},
			wantErr: "cannot cancel",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orderID := uuid.New()
			f := newPurchaseOrderFixture()

			f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.PurchaseOrder{
				ID:       orderID,
				PONumber: "PO-20260801-0001",
				Status:   tc.from,
			}, nil)
			if tc.wantErr == "" {
				f.orderRepo.On("UpdateStatus", mock.Anything, orderID, tc.to).Return(nil)
			}

			err := tc.call(f, orderID.String())
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				f.orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			f.orderRepo.AssertExpectations(t)
		})
	}
}
