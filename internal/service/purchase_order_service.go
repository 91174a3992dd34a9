package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/ledger"
	"erpledger/internal/model"
	"erpledger/internal/repository"
	ws "erpledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type PurchaseOrderItemInput struct {
	ItemCode    string `json:"item_code"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
	UnitRate    string `json:"unit_rate"`
}

type CreatePurchaseOrderRequest struct {
	VendorID         string                   `json:"vendor_id" binding:"required"`
	ProjectID        string                   `json:"project_id"`
	PODate           string                   `json:"po_date"` // YYYY-MM-DD, defaults to today
	DeliveryDate     string                   `json:"delivery_date"`
	DeliveryLocation string                   `json:"delivery_location"`
	PaymentTerms     string                   `json:"payment_terms"`
	TaxRatePercent   string                   `json:"tax_rate_percent"`
	Notes            string                   `json:"notes"`
	Items            []PurchaseOrderItemInput `json:"items"`
}

type UpdatePurchaseOrderRequest struct {
	PODate           *string                  `json:"po_date"`
	DeliveryDate     *string                  `json:"delivery_date"`
	DeliveryLocation *string                  `json:"delivery_location"`
	PaymentTerms     *string                  `json:"payment_terms"`
	TaxRatePercent   *string                  `json:"tax_rate_percent"`
	Notes            *string                  `json:"notes"`
	Items            []PurchaseOrderItemInput `json:"items"` // nil = keep existing rows
}

type PurchaseOrderFilter struct {
	VendorID  string
	ProjectID string
	Status    string
	Page      int
	Limit     int
}

type PurchaseOrderItemResponse struct {
	ID          string `json:"id"`
	ItemCode    string `json:"item_code"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
	UnitRate    string `json:"unit_rate"`
	Amount      string `json:"amount"`
}

type PurchaseOrderResponse struct {
	ID               string                      `json:"id"`
	PONumber         string                      `json:"po_number"`
	VendorID         string                      `json:"vendor_id"`
	VendorName       string                      `json:"vendor_name,omitempty"`
	ProjectID        string                      `json:"project_id,omitempty"`
	PODate           string                      `json:"po_date"`
	DeliveryDate     string                      `json:"delivery_date,omitempty"`
	DeliveryLocation string                      `json:"delivery_location,omitempty"`
	PaymentTerms     string                      `json:"payment_terms,omitempty"`
	TaxRatePercent   string                      `json:"tax_rate_percent"`
	Subtotal         string                      `json:"subtotal"`
	TaxAmount        string                      `json:"tax_amount"`
	Total            string                      `json:"total"`
	Status           string                      `json:"status"`
	Notes            string                      `json:"notes,omitempty"`
	Items            []PurchaseOrderItemResponse `json:"items,omitempty"`
	CreatedAt        string                      `json:"created_at"`
}

// --- Interface ---

type PurchaseOrderService interface {
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest, userID string) (PurchaseOrderResponse, error)
	UpdatePurchaseOrder(ctx context.Context, id string, req UpdatePurchaseOrderRequest, userID string) (PurchaseOrderResponse, error)
	GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrderResponse, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrderResponse, int64, error)
	SendPurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error)
	ClosePurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error)
	CancelPurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error)
}

type purchaseOrderService struct {
	orderRepo   repository.PurchaseOrderRepository
	partnerRepo repository.PartnerRepository
	projectRepo repository.ProjectRepository
	txManager   repository.TransactionManager
	audit       AuditService
	hub         *ws.Hub
}

func NewPurchaseOrderService(
	orderRepo repository.PurchaseOrderRepository,
	partnerRepo repository.PartnerRepository,
	projectRepo repository.ProjectRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	hub *ws.Hub,
) PurchaseOrderService {
	return &purchaseOrderService{
		orderRepo:   orderRepo,
		partnerRepo: partnerRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		audit:       audit,
		hub:         hub,
	}
}

// --- Implementation ---

func buildPurchaseOrderLedger(items []PurchaseOrderItemInput, taxRatePercent string) (*ledger.Ledger, error) {
	led := ledger.New(ledger.PurchaseOrderConfig(ledger.ParsePercent(taxRatePercent)))
	for i, in := range items {
		led.AddItem()
		if err := led.UpdateItem(i, ledger.FieldDescription, in.Description); err != nil {
			return nil, err
		}
		if err := led.UpdateItem(i, ledger.FieldQuantity, in.Quantity); err != nil {
			return nil, err
		}
		if err := led.UpdateItem(i, ledger.FieldUnitRate, in.UnitRate); err != nil {
			return nil, err
		}
		if in.ItemCode != "" {
			if err := led.UpdateItem(i, ledger.FieldItemCode, in.ItemCode); err != nil {
				return nil, err
			}
		}
		if in.Unit != "" {
			if err := led.UpdateItem(i, ledger.FieldUnit, in.Unit); err != nil {
				return nil, err
			}
		}
	}
	return led, nil
}

func purchaseOrderItemsFromLedger(led *ledger.Ledger) []model.PurchaseOrderItem {
	rows := led.Items()
	items := make([]model.PurchaseOrderItem, 0, len(rows))
	for i, row := range rows {
		items = append(items, model.PurchaseOrderItem{
			Position:    i,
			ItemCode:    row.ItemCode,
			Description: row.Description,
			Unit:        row.Unit,
			Quantity:    row.Quantity,
			UnitRate:    row.UnitRate,
			Amount:      row.Amount,
		})
	}
	return items
}

func (s *purchaseOrderService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest, userID string) (PurchaseOrderResponse, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid vendor_id: %w", err)
	}
	vendor, err := s.partnerRepo.FindByID(ctx, vendorID)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("vendor not found: %w", err)
	}
	if vendor.Type != model.PartnerTypeVendor {
		return PurchaseOrderResponse{}, errors.New("partner is not a vendor")
	}

	var projectID *uuid.UUID
	if req.ProjectID != "" {
		pid, parseErr := uuid.Parse(req.ProjectID)
		if parseErr != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid project_id: %w", parseErr)
		}
		if _, findErr := s.projectRepo.FindByID(ctx, pid); findErr != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("referenced project not found: %w", findErr)
		}
		projectID = &pid
	}

	poDate, err := parseDateOrToday(req.PODate)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	var deliveryDate *time.Time
	if req.DeliveryDate != "" {
		d, parseErr := time.Parse("2006-01-02", req.DeliveryDate)
		if parseErr != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid delivery_date: %w", parseErr)
		}
		deliveryDate = &d
	}

	led, err := buildPurchaseOrderLedger(req.Items, req.TaxRatePercent)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid line items: %w", err)
	}
	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return PurchaseOrderResponse{}, errors.New("at least one order item is required")
		}
		return PurchaseOrderResponse{}, err
	}

	totals := led.Totals()
	order := model.PurchaseOrder{
		VendorID:         vendorID,
		ProjectID:        projectID,
		PODate:           poDate,
		DeliveryDate:     deliveryDate,
		DeliveryLocation: req.DeliveryLocation,
		PaymentTerms:     req.PaymentTerms,
		TaxRatePercent:   ledger.ParsePercent(req.TaxRatePercent),
		Subtotal:         totals.Subtotal,
		TaxAmount:        totals.TaxAmount,
		Total:            totals.Total,
		Status:           model.PurchaseOrderStatusDraft,
		Notes:            req.Notes,
		Items:            purchaseOrderItemsFromLedger(led),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generatePONumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate PO number: %w", numErr)
		}
		order.PONumber = number

		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create purchase order: %w", createErr)
		}

		s.audit.Record(txCtx, userID, model.ActionCreatePO, order.ID.String(), order.PONumber, req)
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	s.hub.Publish(ws.EventPOCreated, order.ID.String(), order.PONumber)

	return s.GetPurchaseOrder(ctx, order.ID.String())
}

func (s *purchaseOrderService) UpdatePurchaseOrder(ctx context.Context, id string, req UpdatePurchaseOrderRequest, userID string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("purchase order not found: %w", err)
	}
	if order.Status != model.PurchaseOrderStatusDraft {
		return PurchaseOrderResponse{}, fmt.Errorf("only DRAFT purchase orders can be edited, current status is %s", order.Status)
	}

	if req.PODate != nil {
		poDate, dateErr := time.Parse("2006-01-02", *req.PODate)
		if dateErr != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid po_date: %w", dateErr)
		}
		order.PODate = poDate
	}
	if req.DeliveryDate != nil {
		if *req.DeliveryDate == "" {
			order.DeliveryDate = nil
		} else {
			d, dateErr := time.Parse("2006-01-02", *req.DeliveryDate)
			if dateErr != nil {
				return PurchaseOrderResponse{}, fmt.Errorf("invalid delivery_date: %w", dateErr)
			}
			order.DeliveryDate = &d
		}
	}
	if req.DeliveryLocation != nil {
		order.DeliveryLocation = *req.DeliveryLocation
	}
	if req.PaymentTerms != nil {
		order.PaymentTerms = *req.PaymentTerms
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.TaxRatePercent != nil {
		order.TaxRatePercent = ledger.ParsePercent(*req.TaxRatePercent)
	}

	var led *ledger.Ledger
	if req.Items != nil {
		led, err = buildPurchaseOrderLedger(req.Items, order.TaxRatePercent.String())
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid line items: %w", err)
		}
	} else {
		seed := make([]ledger.Item, 0, len(order.Items))
		for _, it := range order.Items {
			seed = append(seed, ledger.Item{
				ItemCode:    it.ItemCode,
				Description: it.Description,
				Unit:        it.Unit,
				Quantity:    it.Quantity,
				UnitRate:    it.UnitRate,
			})
		}
		led = ledger.FromItems(ledger.PurchaseOrderConfig(order.TaxRatePercent), seed, decimal.Zero)
	}

	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return PurchaseOrderResponse{}, errors.New("at least one order item is required")
		}
		return PurchaseOrderResponse{}, err
	}

	totals := led.Totals()
	order.Subtotal = totals.Subtotal
	order.TaxAmount = totals.TaxAmount
	order.Total = totals.Total

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return fmt.Errorf("failed to update purchase order: %w", updateErr)
		}
		if replaceErr := s.orderRepo.ReplaceItems(txCtx, order.ID, purchaseOrderItemsFromLedger(led)); replaceErr != nil {
			return fmt.Errorf("failed to update order items: %w", replaceErr)
		}
		s.audit.Record(txCtx, userID, model.ActionUpdatePO, order.ID.String(), order.PONumber, req)
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	return s.GetPurchaseOrder(ctx, order.ID.String())
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("purchase order not found: %w", err)
	}
	return toPurchaseOrderResponse(*order, true), nil
}

func (s *purchaseOrderService) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.PurchaseOrderListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.VendorID != "" {
		vid, err := uuid.Parse(filter.VendorID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid vendor_id: %w", err)
		}
		repoFilter.VendorID = &vid
	}
	if filter.ProjectID != "" {
		pid, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid project_id: %w", err)
		}
		repoFilter.ProjectID = &pid
	}

	orders, total, err := s.orderRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PurchaseOrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toPurchaseOrderResponse(o, false))
	}
	return res, total, nil
}

func (s *purchaseOrderService) SendPurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error) {
	return s.transitionStatus(ctx, id, userID, model.PurchaseOrderStatusSent)
}

func (s *purchaseOrderService) ClosePurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error) {
	return s.transitionStatus(ctx, id, userID, model.PurchaseOrderStatusClosed)
}

func (s *purchaseOrderService) CancelPurchaseOrder(ctx context.Context, id string, userID string) (PurchaseOrderResponse, error) {
	return s.transitionStatus(ctx, id, userID, model.PurchaseOrderStatusCancelled)
}

func (s *purchaseOrderService) transitionStatus(ctx context.Context, id, userID, target string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("purchase order not found: %w", err)
	}

	var action string
	var event string
	switch target {
	case model.PurchaseOrderStatusSent:
		if order.Status != model.PurchaseOrderStatusDraft {
			return PurchaseOrderResponse{}, fmt.Errorf("only DRAFT purchase orders can be sent, current status is %s", order.Status)
		}
		action, event = model.ActionSendPO, ws.EventPOSent
	case model.PurchaseOrderStatusClosed:
		if order.Status != model.PurchaseOrderStatusSent {
			return PurchaseOrderResponse{}, fmt.Errorf("only SENT purchase orders can be closed, current status is %s", order.Status)
		}
		action = model.ActionClosePO
	case model.PurchaseOrderStatusCancelled:
		if order.Status == model.PurchaseOrderStatusClosed || order.Status == model.PurchaseOrderStatusCancelled {
			return PurchaseOrderResponse{}, fmt.Errorf("cannot cancel a %s purchase order", order.Status)
		}
		action = model.ActionCancelPO
	default:
		return PurchaseOrderResponse{}, fmt.Errorf("unsupported status transition to %s", target)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.UpdateStatus(txCtx, orderID, target); updateErr != nil {
			return fmt.Errorf("failed to update purchase order status: %w", updateErr)
		}
		s.audit.Record(txCtx, userID, action, order.ID.String(), order.PONumber, map[string]string{"from": order.Status, "to": target})
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	if event != "" {
		s.hub.Publish(event, order.ID.String(), order.PONumber)
	}

	return s.GetPurchaseOrder(ctx, id)
}

func (s *purchaseOrderService) generatePONumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "PO-" + today + "-"

	count, err := s.orderRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// --- Helpers ---

func toPurchaseOrderResponse(order model.PurchaseOrder, withItems bool) PurchaseOrderResponse {
	res := PurchaseOrderResponse{
		ID:               order.ID.String(),
		PONumber:         order.PONumber,
		VendorID:         order.VendorID.String(),
		PODate:           order.PODate.Format("2006-01-02"),
		DeliveryLocation: order.DeliveryLocation,
		PaymentTerms:     order.PaymentTerms,
		TaxRatePercent:   order.TaxRatePercent.String(),
		Subtotal:         order.Subtotal.StringFixed(2),
		TaxAmount:        order.TaxAmount.StringFixed(2),
		Total:            order.Total.StringFixed(2),
		Status:           order.Status,
		Notes:            order.Notes,
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}
	if order.Vendor != nil {
		res.VendorName = order.Vendor.Name
	}
	if order.ProjectID != nil {
		res.ProjectID = order.ProjectID.String()
	}
	if order.DeliveryDate != nil {
		res.DeliveryDate = order.DeliveryDate.Format("2006-01-02")
	}
	if withItems {
		items := make([]PurchaseOrderItemResponse, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, PurchaseOrderItemResponse{
				ID:          it.ID.String(),
				ItemCode:    it.ItemCode,
				Description: it.Description,
				Unit:        it.Unit,
				Quantity:    it.Quantity.String(),
				UnitRate:    it.UnitRate.StringFixed(2),
				Amount:      it.Amount.StringFixed(2),
			})
		}
		res.Items = items
	}
	return res
}
