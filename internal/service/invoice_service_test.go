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

type invoiceFixture struct {
	svc         InvoiceService
	invoiceRepo *mockInvoiceRepo
	paymentRepo *mockPaymentRepo
	orderRepo   *mockSalesOrderRepo
	audit       *recordingAudit
}

func newInvoiceFixture() *invoiceFixture {
	f := &invoiceFixture{
		invoiceRepo: new(mockInvoiceRepo),
		paymentRepo: new(mockPaymentRepo),
		orderRepo:   new(mockSalesOrderRepo),
		audit:       &recordingAudit{},
	}
	f.svc = NewInvoiceService(f.invoiceRepo, f.paymentRepo, f.orderRepo, passthroughTx{}, f.audit, ws.NewHub())
	return f
}

func TestCreateInvoice_FreezesOrderAmounts(t *testing.T) {
	orderID := uuid.New()
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:             orderID,
		OrderNumber:    "SO-20260801-0001",
		Status:         model.SalesOrderStatusConfirmed,
		Subtotal:       decimal.NewFromInt(1000),
		DiscountAmount: decimal.NewFromInt(50),
		GSTAmount:      decimal.NewFromInt(171),
		Total:          decimal.NewFromInt(1121),
	}, nil)
	f.invoiceRepo.On("CountByPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)

	var saved *model.Invoice
	f.invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Invoice")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.Invoice)
		saved.ID = invoiceID
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithOrder", mock.Anything, invoiceID).Return(&model.Invoice{ID: invoiceID, SalesOrderID: orderID}, nil)

	_, err := f.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{SalesOrderID: orderID.String()}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.True(t, saved.Total.Equal(decimal.NewFromInt(1121)))
	assert.Equal(t, model.ApprovalPending, saved.ApprovalStatus)
	wantNumber := "INV-" + time.Now().Format("20060102") + "-0001"
	assert.Equal(t, wantNumber, saved.InvoiceNo)
}

func TestCreateInvoice_RequiresConfirmedOrder(t *testing.T) {
	orderID := uuid.New()
	f := newInvoiceFixture()

	f.orderRepo.On("FindByIDWithItems", mock.Anything, orderID).Return(&model.SalesOrder{
		ID:     orderID,
		Status: model.SalesOrderStatusDraft,
	}, nil)

	_, err := f.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{SalesOrderID: orderID.String()}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only CONFIRMED orders can be invoiced")
	f.invoiceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDecideInvoice_Approve(t *testing.T) {
	invoiceID := uuid.New()
	approverID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		InvoiceNo:      "INV-20260801-0001",
		ApprovalStatus: model.ApprovalPending,
	}, nil)

	var updated *model.Invoice
	f.invoiceRepo.On("UpdateApproval", mock.Anything, mock.AnythingOfType("*model.Invoice")).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*model.Invoice)
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithOrder", mock.Anything, invoiceID).Return(&model.Invoice{ID: invoiceID, ApprovalStatus: model.ApprovalApproved}, nil)

	_, err := f.svc.DecideInvoice(context.Background(), invoiceID.String(), ApproveInvoiceRequest{Approve: true}, approverID.String())
	require.NoError(t, err)

	require.NotNil(t, updated)
	assert.Equal(t, model.ApprovalApproved, updated.ApprovalStatus)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, approverID, *updated.ApprovedBy)
	assert.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, []string{model.ActionApproveInv}, f.audit.actions)
}

func TestDecideInvoice_AlreadyDecided(t *testing.T) {
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		ApprovalStatus: model.ApprovalRejected,
	}, nil)

	_, err := f.svc.DecideInvoice(context.Background(), invoiceID.String(), ApproveInvoiceRequest{Approve: true}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already decided")
}

func TestRecordPayment_RejectsOverpayment(t *testing.T) {
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		InvoiceNo:      "INV-20260801-0001",
		ApprovalStatus: model.ApprovalApproved,
		Total:          decimal.NewFromInt(1000),
	}, nil)
	f.paymentRepo.On("SumByInvoice", mock.Anything, invoiceID).Return(decimal.NewFromInt(800), nil)

	_, err := f.svc.RecordPayment(context.Background(), invoiceID.String(), RecordPaymentRequest{Amount: "300"}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds outstanding amount of 200.00")
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordPayment_OnlyApprovedInvoices(t *testing.T) {
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		ApprovalStatus: model.ApprovalPending,
	}, nil)

	_, err := f.svc.RecordPayment(context.Background(), invoiceID.String(), RecordPaymentRequest{Amount: "100"}, uuid.New().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPROVED invoices")
}

func TestRecordPayment_SettlesInvoice(t *testing.T) {
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		InvoiceNo:      "INV-20260801-0001",
		ApprovalStatus: model.ApprovalApproved,
		Total:          decimal.NewFromInt(1000),
	}, nil)
	f.paymentRepo.On("SumByInvoice", mock.Anything, invoiceID).Return(decimal.NewFromInt(800), nil)

	var saved *model.Payment
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.Payment)
	}).Return(nil)
	var settled *model.Invoice
	f.invoiceRepo.On("UpdateApproval", mock.Anything, mock.AnythingOfType("*model.Invoice")).Run(func(args mock.Arguments) {
		settled = args.Get(1).(*model.Invoice)
	}).Return(nil)
	f.invoiceRepo.On("FindByIDWithOrder", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		ApprovalStatus: model.ApprovalPaid,
		Total:          decimal.NewFromInt(1000),
		Payments: []model.Payment{
			{Amount: decimal.NewFromInt(800), ReceivedAt: time.Now()},
			{Amount: decimal.NewFromInt(200), ReceivedAt: time.Now()},
		},
	}, nil)

	res, err := f.svc.RecordPayment(context.Background(), invoiceID.String(), RecordPaymentRequest{Amount: "200", ReceivedAt: "2026-08-20"}, uuid.New().String())
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.True(t, saved.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "BANK_TRANSFER", saved.Method)
	assert.Equal(t, "2026-08-20", saved.ReceivedAt.Format("2006-01-02"))

	require.NotNil(t, settled)
	assert.Equal(t, model.ApprovalPaid, settled.ApprovalStatus)

	assert.Equal(t, "1000.00", res.PaidAmount)
	assert.Equal(t, "0.00", res.Outstanding)
	assert.Equal(t, model.ApprovalPaid, res.ApprovalStatus)
	assert.Equal(t, []string{model.ActionRecordPayment}, f.audit.actions)
}

func TestRecordPayment_PartialPaymentStaysApproved(t *testing.T) {
	invoiceID := uuid.New()
	f := newInvoiceFixture()

	f.invoiceRepo.On("FindByID", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		InvoiceNo:      "INV-20260801-0001",
		ApprovalStatus: model.ApprovalApproved,
		Total:          decimal.NewFromInt(1000),
	}, nil)
	f.paymentRepo.On("SumByInvoice", mock.Anything, invoiceID).Return(decimal.Zero, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil)
	f.invoiceRepo.On("FindByIDWithOrder", mock.Anything, invoiceID).Return(&model.Invoice{
		ID:             invoiceID,
		ApprovalStatus: model.ApprovalApproved,
		Total:          decimal.NewFromInt(1000),
		Payments:       []model.Payment{{Amount: decimal.NewFromInt(400), ReceivedAt: time.Now()}},
	}, nil)

	res, err := f.svc.RecordPayment(context.Background(), invoiceID.String(), RecordPaymentRequest{Amount: "400"}, uuid.New().String())
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalApproved, res.ApprovalStatus)
	assert.Equal(t, "600.00", res.Outstanding)
	f.invoiceRepo.AssertNotCalled(t, "UpdateApproval", mock.Anything, mock.Anything)
}
