package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"
	ws "erpledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	SalesOrderID string `json:"sales_order_id" binding:"required"`
	Note         string `json:"note"`
}

type ApproveInvoiceRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

type RecordPaymentRequest struct {
	Amount     string `json:"amount" binding:"required"`
	Method     string `json:"method"`
	Reference  string `json:"reference"`
	ReceivedAt string `json:"received_at"` // YYYY-MM-DD, defaults to today
	Note       string `json:"note"`
}

type InvoiceFilter struct {
	ApprovalStatus string
	SalesOrderID   string
	Page           int
	Limit          int
}

type PaymentResponse struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Method     string `json:"method"`
	Reference  string `json:"reference,omitempty"`
	ReceivedAt string `json:"received_at"`
	Note       string `json:"note,omitempty"`
}

type InvoiceResponse struct {
	ID             string            `json:"id"`
	InvoiceNo      string            `json:"invoice_no"`
	SalesOrderID   string            `json:"sales_order_id"`
	OrderNumber    string            `json:"order_number,omitempty"`
	CustomerName   string            `json:"customer_name,omitempty"`
	Subtotal       string            `json:"subtotal"`
	DiscountAmount string            `json:"discount_amount"`
	GSTAmount      string            `json:"gst_amount"`
	Total          string            `json:"total"`
	PaidAmount     string            `json:"paid_amount"`
	Outstanding    string            `json:"outstanding"`
	ApprovalStatus string            `json:"approval_status"`
	ApprovedBy     string            `json:"approved_by,omitempty"`
	ApprovedAt     string            `json:"approved_at,omitempty"`
	Note           string            `json:"note,omitempty"`
	Payments       []PaymentResponse `json:"payments,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest, userID string) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	DecideInvoice(ctx context.Context, id string, req ApproveInvoiceRequest, approverID string) (InvoiceResponse, error)
	RecordPayment(ctx context.Context, invoiceID string, req RecordPaymentRequest, userID string) (InvoiceResponse, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	orderRepo   repository.SalesOrderRepository
	txManager   repository.TransactionManager
	audit       AuditService
	hub         *ws.Hub
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.SalesOrderRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	hub *ws.Hub,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		txManager:   txManager,
		audit:       audit,
		hub:         hub,
	}
}

// --- Implementation ---

// CreateInvoice freezes the order's current amounts into a new invoice.
// Later edits to the order never touch an already raised invoice.
func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest, userID string) (InvoiceResponse, error) {
	orderID, err := uuid.Parse(req.SalesOrderID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid sales_order_id: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("sales order not found: %w", err)
	}
	if order.Status != model.SalesOrderStatusConfirmed {
		return InvoiceResponse{}, fmt.Errorf("only CONFIRMED orders can be invoiced, current status is %s", order.Status)
	}

	invoice := model.Invoice{
		SalesOrderID:   orderID,
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		GSTAmount:      order.GSTAmount,
		Total:          order.Total,
		ApprovalStatus: model.ApprovalPending,
		Note:           req.Note,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateInvoiceNo(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate invoice number: %w", numErr)
		}
		invoice.InvoiceNo = number

		if createErr := s.invoiceRepo.Create(txCtx, &invoice); createErr != nil {
			return fmt.Errorf("failed to create invoice: %w", createErr)
		}

		s.audit.Record(txCtx, userID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.hub.Publish(ws.EventInvoiceCreated, invoice.ID.String(), invoice.InvoiceNo)

	return s.GetInvoice(ctx, invoice.ID.String())
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	invoice, err := s.invoiceRepo.FindByIDWithOrder(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}
	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.InvoiceListFilter{
		ApprovalStatus: filter.ApprovalStatus,
		Page:           filter.Page,
		Limit:          filter.Limit,
	}
	if filter.SalesOrderID != "" {
		oid, err := uuid.Parse(filter.SalesOrderID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid sales_order_id: %w", err)
		}
		repoFilter.SalesOrderID = &oid
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		res = append(res, toInvoiceResponse(inv))
	}
	return res, total, nil
}

func (s *invoiceService) DecideInvoice(ctx context.Context, id string, req ApproveInvoiceRequest, approverID string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}
	approver, err := uuid.Parse(approverID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid approver id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}
	if invoice.ApprovalStatus != model.ApprovalPending {
		return InvoiceResponse{}, fmt.Errorf("invoice already decided, status is %s", invoice.ApprovalStatus)
	}

	now := time.Now()
	action := model.ActionApproveInv
	if req.Approve {
		invoice.ApprovalStatus = model.ApprovalApproved
	} else {
		invoice.ApprovalStatus = model.ApprovalRejected
		action = model.ActionRejectInv
	}
	invoice.ApprovedBy = &approver
	invoice.ApprovedAt = &now
	if req.Note != "" {
		invoice.Note = req.Note
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.invoiceRepo.UpdateApproval(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}
		s.audit.Record(txCtx, approverID, action, invoice.ID.String(), invoice.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	if invoice.ApprovalStatus == model.ApprovalApproved {
		s.hub.Publish(ws.EventInvoiceApproved, invoice.ID.String(), invoice.InvoiceNo)
	}

	return s.GetInvoice(ctx, id)
}

func (s *invoiceService) RecordPayment(ctx context.Context, invoiceID string, req RecordPaymentRequest, userID string) (InvoiceResponse, error) {
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}
	if invoice.ApprovalStatus != model.ApprovalApproved {
		return InvoiceResponse{}, errors.New("payments can only be recorded against APPROVED invoices")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return InvoiceResponse{}, errors.New("payment amount must be positive")
	}

	receivedAt, err := parseDateOrToday(req.ReceivedAt)
	if err != nil {
		return InvoiceResponse{}, err
	}

	method := req.Method
	if method == "" {
		method = "BANK_TRANSFER"
	}

	payment := model.Payment{
		InvoiceID:  id,
		Amount:     amount,
		Method:     method,
		Reference:  req.Reference,
		ReceivedAt: receivedAt,
		Note:       req.Note,
	}

	settled := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// The outstanding check must share the transaction with the
		// insert, otherwise two concurrent payments can both pass it.
		paid, sumErr := s.paymentRepo.SumByInvoice(txCtx, id)
		if sumErr != nil {
			return fmt.Errorf("failed to sum payments: %w", sumErr)
		}
		settledAmount := paid.Add(amount)
		if settledAmount.GreaterThan(invoice.Total) {
			return fmt.Errorf("payment exceeds outstanding amount of %s", invoice.Total.Sub(paid).StringFixed(2))
		}

		if createErr := s.paymentRepo.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to record payment: %w", createErr)
		}

		if settledAmount.Equal(invoice.Total) {
			invoice.ApprovalStatus = model.ApprovalPaid
			if updateErr := s.invoiceRepo.UpdateApproval(txCtx, invoice); updateErr != nil {
				return fmt.Errorf("failed to mark invoice as paid: %w", updateErr)
			}
			settled = true
		}

		s.audit.Record(txCtx, userID, model.ActionRecordPayment, invoice.ID.String(), invoice.InvoiceNo, req)
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.hub.Publish(ws.EventPaymentReceived, invoice.ID.String(), invoice.InvoiceNo)
	if settled {
		s.hub.Publish(ws.EventInvoicePaid, invoice.ID.String(), invoice.InvoiceNo)
	}

	return s.GetInvoice(ctx, invoiceID)
}

func (s *invoiceService) generateInvoiceNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// --- Helpers ---

func toInvoiceResponse(invoice model.Invoice) InvoiceResponse {
	paid := decimal.Zero
	payments := make([]PaymentResponse, 0, len(invoice.Payments))
	for _, p := range invoice.Payments {
		paid = paid.Add(p.Amount)
		payments = append(payments, PaymentResponse{
			ID:         p.ID.String(),
			Amount:     p.Amount.StringFixed(2),
			Method:     p.Method,
			Reference:  p.Reference,
			ReceivedAt: p.ReceivedAt.Format("2006-01-02"),
			Note:       p.Note,
		})
	}

	res := InvoiceResponse{
		ID:             invoice.ID.String(),
		InvoiceNo:      invoice.InvoiceNo,
		SalesOrderID:   invoice.SalesOrderID.String(),
		Subtotal:       invoice.Subtotal.StringFixed(2),
		DiscountAmount: invoice.DiscountAmount.StringFixed(2),
		GSTAmount:      invoice.GSTAmount.StringFixed(2),
		Total:          invoice.Total.StringFixed(2),
		PaidAmount:     paid.StringFixed(2),
		Outstanding:    invoice.Total.Sub(paid).StringFixed(2),
		ApprovalStatus: invoice.ApprovalStatus,
		Note:           invoice.Note,
		Payments:       payments,
		CreatedAt:      invoice.CreatedAt.Format(time.RFC3339),
	}
	if invoice.SalesOrder != nil {
		res.OrderNumber = invoice.SalesOrder.OrderNumber
		if invoice.SalesOrder.Customer != nil {
			res.CustomerName = invoice.SalesOrder.Customer.Name
		}
	}
	if invoice.ApprovedBy != nil {
		res.ApprovedBy = invoice.ApprovedBy.String()
	}
	if invoice.ApprovedAt != nil {
		res.ApprovedAt = invoice.ApprovedAt.Format(time.RFC3339)
	}
	return res
}
