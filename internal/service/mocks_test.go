package service

import (
	"context"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Mock objects shared across the service tests.

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// recordingAudit captures the actions a flow emits so tests can assert
// the trail without a database.
type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(_ context.Context, _, action, _, _ string, _ interface{}) {
	a.actions = append(a.actions, action)
}

func (a *recordingAudit) GetAuditLogs(_ context.Context, _ string, _, _ int) ([]AuditLogResponse, int64, error) {
	return nil, 0, nil
}

type mockTaxService struct {
	mock.Mock
}

func (m *mockTaxService) GetTaxRules(ctx context.Context, page, limit int) ([]TaxRuleResponse, int64, error) {
	args := m.Called(ctx, page, limit)
	return nil, 0, args.Error(2)
}

func (m *mockTaxService) CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	args := m.Called(ctx, req, userID)
	return args.Get(0).(TaxRuleResponse), args.Error(1)
}

func (m *mockTaxService) UpdateTaxRule(ctx context.Context, id string, req UpdateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	args := m.Called(ctx, id, req, userID)
	return args.Get(0).(TaxRuleResponse), args.Error(1)
}

func (m *mockTaxService) DeleteTaxRule(ctx context.Context, id string, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockTaxService) ResolveRate(ctx context.Context, taxType string, targetDate time.Time, fallback decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, taxType, targetDate, fallback)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *mockProjectRepo) Update(ctx context.Context, project *model.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjectRepo) FindByCode(ctx context.Context, code string) (*model.Project, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *mockProjectRepo) List(ctx context.Context, status string, page, limit int) ([]model.Project, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.Project), args.Get(1).(int64), args.Error(2)
}

type mockPartnerRepo struct {
	mock.Mock
}

func (m *mockPartnerRepo) Create(ctx context.Context, partner *model.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

func (m *mockPartnerRepo) Update(ctx context.Context, partner *model.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

func (m *mockPartnerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Partner), args.Error(1)
}

func (m *mockPartnerRepo) List(ctx context.Context, partnerType, search string, page, limit int) ([]model.Partner, int64, error) {
	args := m.Called(ctx, partnerType, search, page, limit)
	return args.Get(0).([]model.Partner), args.Get(1).(int64), args.Error(2)
}

type mockBOQRepo struct {
	mock.Mock
}

func (m *mockBOQRepo) Create(ctx context.Context, boq *model.BOQ) error {
	return m.Called(ctx, boq).Error(0)
}

func (m *mockBOQRepo) Update(ctx context.Context, boq *model.BOQ) error {
	return m.Called(ctx, boq).Error(0)
}

func (m *mockBOQRepo) ReplaceItems(ctx context.Context, boqID uuid.UUID, items []model.BOQItem) error {
	return m.Called(ctx, boqID, items).Error(0)
}

func (m *mockBOQRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBOQRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.BOQ, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BOQ), args.Error(1)
}

func (m *mockBOQRepo) List(ctx context.Context, filter repository.BOQListFilter) ([]model.BOQ, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.BOQ), args.Get(1).(int64), args.Error(2)
}

func (m *mockBOQRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockSalesOrderRepo struct {
	mock.Mock
}

func (m *mockSalesOrderRepo) Create(ctx context.Context, order *model.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockSalesOrderRepo) Update(ctx context.Context, order *model.SalesOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockSalesOrderRepo) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.SalesOrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *mockSalesOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockSalesOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSalesOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SalesOrder), args.Error(1)
}

func (m *mockSalesOrderRepo) List(ctx context.Context, filter repository.SalesOrderListFilter) ([]model.SalesOrder, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.SalesOrder), args.Get(1).(int64), args.Error(2)
}

func (m *mockSalesOrderRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockPurchaseOrderRepo struct {
	mock.Mock
}

func (m *mockPurchaseOrderRepo) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockPurchaseOrderRepo) Update(ctx context.Context, order *model.PurchaseOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockPurchaseOrderRepo) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.PurchaseOrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *mockPurchaseOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockPurchaseOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPurchaseOrderRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepo) List(ctx context.Context, filter repository.PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *mockPurchaseOrderRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockInvoiceRepo struct {
	mock.Mock
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) FindByIDWithOrder(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter repository.InvoiceListFilter) ([]model.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceRepo) UpdateApproval(ctx context.Context, invoice *model.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]model.Payment), args.Error(1)
}

func (m *mockPaymentRepo) SumByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockTaxRuleRepo struct {
	mock.Mock
}

func (m *mockTaxRuleRepo) Create(ctx context.Context, rule *model.TaxRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockTaxRuleRepo) Update(ctx context.Context, rule *model.TaxRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockTaxRuleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTaxRuleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaxRule), args.Error(1)
}

func (m *mockTaxRuleRepo) List(ctx context.Context, page, limit int) ([]model.TaxRule, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]model.TaxRule), args.Get(1).(int64), args.Error(2)
}

func (m *mockTaxRuleRepo) FindActiveByType(ctx context.Context, taxType string, targetDate time.Time) (*model.TaxRule, error) {
	args := m.Called(ctx, taxType, targetDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TaxRule), args.Error(1)
}

func (m *mockTaxRuleRepo) CountOverlapping(ctx context.Context, candidate model.TaxRule) (int64, error) {
	args := m.Called(ctx, candidate)
	return args.Get(0).(int64), args.Error(1)
}
