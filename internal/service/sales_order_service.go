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

// defaultGSTRatePercent applies when no tax rule covers the order date.
var defaultGSTRatePercent = decimal.NewFromInt(18)

// --- DTOs ---

type SalesOrderItemInput struct {
	ItemCode        string `json:"item_code"`
	Description     string `json:"description"`
	Unit            string `json:"unit"`
	Quantity        string `json:"quantity"`
	UnitRate        string `json:"unit_rate"`
	DiscountPercent string `json:"discount_percent"`
}

type CreateSalesOrderRequest struct {
	CustomerID      string                `json:"customer_id" binding:"required"`
	ProjectID       string                `json:"project_id"`
	OrderDate       string                `json:"order_date"` // YYYY-MM-DD, defaults to today
	DiscountPercent string                `json:"discount_percent"`
	Notes           string                `json:"notes"`
	Items           []SalesOrderItemInput `json:"items"`
}

type UpdateSalesOrderRequest struct {
	OrderDate       *string               `json:"order_date"`
	DiscountPercent *string               `json:"discount_percent"`
	Notes           *string               `json:"notes"`
	Items           []SalesOrderItemInput `json:"items"` // nil = keep existing rows
}

type SalesOrderFilter struct {
	CustomerID string
	ProjectID  string
	Status     string
	Page       int
	Limit      int
}

type SalesOrderItemResponse struct {
	ID              string `json:"id"`
	ItemCode        string `json:"item_code"`
	Description     string `json:"description"`
	Unit            string `json:"unit"`
	Quantity        string `json:"quantity"`
	UnitRate        string `json:"unit_rate"`
	DiscountPercent string `json:"discount_percent"`
	Amount          string `json:"amount"`
}

type SalesOrderResponse struct {
	ID              string                   `json:"id"`
	OrderNumber     string                   `json:"order_number"`
	CustomerID      string                   `json:"customer_id"`
	CustomerName    string                   `json:"customer_name,omitempty"`
	ProjectID       string                   `json:"project_id,omitempty"`
	OrderDate       string                   `json:"order_date"`
	DiscountPercent string                   `json:"discount_percent"`
	GSTRatePercent  string                   `json:"gst_rate_percent"`
	Subtotal        string                   `json:"subtotal"`
	DiscountAmount  string                   `json:"discount_amount"`
	GSTAmount       string                   `json:"gst_amount"`
	Total           string                   `json:"total"`
	Status          string                   `json:"status"`
	Notes           string                   `json:"notes,omitempty"`
	Items           []SalesOrderItemResponse `json:"items,omitempty"`
	CreatedAt       string                   `json:"created_at"`
}

// --- Interface ---

type SalesOrderService interface {
	CreateSalesOrder(ctx context.Context, req CreateSalesOrderRequest, userID string) (SalesOrderResponse, error)
	UpdateSalesOrder(ctx context.Context, id string, req UpdateSalesOrderRequest, userID string) (SalesOrderResponse, error)
	GetSalesOrder(ctx context.Context, id string) (SalesOrderResponse, error)
	ListSalesOrders(ctx context.Context, filter SalesOrderFilter) ([]SalesOrderResponse, int64, error)
	ConfirmSalesOrder(ctx context.Context, id string, userID string) (SalesOrderResponse, error)
	CancelSalesOrder(ctx context.Context, id string, userID string) (SalesOrderResponse, error)
}

type salesOrderService struct {
	orderRepo   repository.SalesOrderRepository
	partnerRepo repository.PartnerRepository
	projectRepo repository.ProjectRepository
	taxService  TaxService
	txManager   repository.TransactionManager
	audit       AuditService
	hub         *ws.Hub
}

func NewSalesOrderService(
	orderRepo repository.SalesOrderRepository,
	partnerRepo repository.PartnerRepository,
	projectRepo repository.ProjectRepository,
	taxService TaxService,
	txManager repository.TransactionManager,
	audit AuditService,
	hub *ws.Hub,
) SalesOrderService {
	return &salesOrderService{
		orderRepo:   orderRepo,
		partnerRepo: partnerRepo,
		projectRepo: projectRepo,
		taxService:  taxService,
		txManager:   txManager,
		audit:       audit,
		hub:         hub,
	}
}

// --- Implementation ---

func buildSalesOrderLedger(items []SalesOrderItemInput, discountPercent string, gstRate decimal.Decimal) (*ledger.Ledger, error) {
	led := ledger.New(ledger.SalesOrderConfig(gstRate))
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
		if err := led.UpdateItem(i, ledger.FieldDiscountPercent, in.DiscountPercent); err != nil {
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
	led.SetAdjustmentPercent(discountPercent)
	return led, nil
}

func salesOrderItemsFromLedger(led *ledger.Ledger) []model.SalesOrderItem {
	rows := led.Items()
	items := make([]model.SalesOrderItem, 0, len(rows))
	for i, row := range rows {
		items = append(items, model.SalesOrderItem{
			Position:        i,
			ItemCode:        row.ItemCode,
			Description:     row.Description,
			Unit:            row.Unit,
			Quantity:        row.Quantity,
			UnitRate:        row.UnitRate,
			DiscountPercent: row.DiscountPercent,
			Amount:          row.Amount,
		})
	}
	return items
}

func (s *salesOrderService) CreateSalesOrder(ctx context.Context, req CreateSalesOrderRequest, userID string) (SalesOrderResponse, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("invalid customer_id: %w", err)
	}
	customer, err := s.partnerRepo.FindByID(ctx, customerID)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("customer not found: %w", err)
	}
	if customer.Type != model.PartnerTypeCustomer {
		return SalesOrderResponse{}, errors.New("partner is not a customer")
	}

	var projectID *uuid.UUID
	if req.ProjectID != "" {
		pid, parseErr := uuid.Parse(req.ProjectID)
		if parseErr != nil {
			return SalesOrderResponse{}, fmt.Errorf("invalid project_id: %w", parseErr)
		}
		if _, findErr := s.projectRepo.FindByID(ctx, pid); findErr != nil {
			return SalesOrderResponse{}, fmt.Errorf("referenced project not found: %w", findErr)
		}
		projectID = &pid
	}

	orderDate, err := parseDateOrToday(req.OrderDate)
	if err != nil {
		return SalesOrderResponse{}, err
	}

	gstRate, err := s.taxService.ResolveRate(ctx, model.TaxTypeGST, orderDate, defaultGSTRatePercent)
	if err != nil {
		return SalesOrderResponse{}, err
	}

	led, err := buildSalesOrderLedger(req.Items, req.DiscountPercent, gstRate)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("invalid line items: %w", err)
	}
	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return SalesOrderResponse{}, errors.New("at least one order item is required")
		}
		return SalesOrderResponse{}, err
	}

	totals := led.Totals()
	order := model.SalesOrder{
		CustomerID:      customerID,
		ProjectID:       projectID,
		OrderDate:       orderDate,
		DiscountPercent: led.AdjustmentPercent(),
		GSTRatePercent:  gstRate,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.AdjustmentAmount,
		GSTAmount:       totals.TaxAmount,
		Total:           totals.Total,
		Status:          model.SalesOrderStatusDraft,
		Notes:           req.Notes,
		Items:           salesOrderItemsFromLedger(led),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateOrderNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate order number: %w", numErr)
		}
		order.OrderNumber = number

		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			return fmt.Errorf("failed to create sales order: %w", createErr)
		}

		s.audit.Record(txCtx, userID, model.ActionCreateSO, order.ID.String(), order.OrderNumber, req)
		return nil
	})
	if err != nil {
		return SalesOrderResponse{}, err
	}

	s.hub.Publish(ws.EventSOCreated, order.ID.String(), order.OrderNumber)

	return s.GetSalesOrder(ctx, order.ID.String())
}

func (s *salesOrderService) UpdateSalesOrder(ctx context.Context, id string, req UpdateSalesOrderRequest, userID string) (SalesOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("invalid sales order id: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("sales order not found: %w", err)
	}
	if order.Status != model.SalesOrderStatusDraft {
		return SalesOrderResponse{}, fmt.Errorf("only DRAFT orders can be edited, current status is %s", order.Status)
	}

	if req.OrderDate != nil {
		orderDate, dateErr := time.Parse("2006-01-02", *req.OrderDate)
		if dateErr != nil {
			return SalesOrderResponse{}, fmt.Errorf("invalid order_date: %w", dateErr)
		}
		order.OrderDate = orderDate
		// A moved date may fall under a different tax rule.
		gstRate, rateErr := s.taxService.ResolveRate(ctx, model.TaxTypeGST, orderDate, defaultGSTRatePercent)
		if rateErr != nil {
			return SalesOrderResponse{}, rateErr
		}
		order.GSTRatePercent = gstRate
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	discount := order.DiscountPercent.String()
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}

	var led *ledger.Ledger
	if req.Items != nil {
		led, err = buildSalesOrderLedger(req.Items, discount, order.GSTRatePercent)
		if err != nil {
			return SalesOrderResponse{}, fmt.Errorf("invalid line items: %w", err)
		}
	} else {
		seed := make([]ledger.Item, 0, len(order.Items))
		for _, it := range order.Items {
			seed = append(seed, ledger.Item{
				ItemCode:        it.ItemCode,
				Description:     it.Description,
				Unit:            it.Unit,
				Quantity:        it.Quantity,
				UnitRate:        it.UnitRate,
				DiscountPercent: it.DiscountPercent,
			})
		}
		led = ledger.FromItems(ledger.SalesOrderConfig(order.GSTRatePercent), seed, ledger.ParsePercent(discount))
	}

	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return SalesOrderResponse{}, errors.New("at least one order item is required")
		}
		return SalesOrderResponse{}, err
	}

	totals := led.Totals()
	order.DiscountPercent = led.AdjustmentPercent()
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.AdjustmentAmount
	order.GSTAmount = totals.TaxAmount
	order.Total = totals.Total

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.Update(txCtx, order); updateErr != nil {
			return fmt.Errorf("failed to update sales order: %w", updateErr)
		}
		if replaceErr := s.orderRepo.ReplaceItems(txCtx, order.ID, salesOrderItemsFromLedger(led)); replaceErr != nil {
			return fmt.Errorf("failed to update order items: %w", replaceErr)
		}
		s.audit.Record(txCtx, userID, model.ActionUpdateSO, order.ID.String(), order.OrderNumber, req)
		return nil
	})
	if err != nil {
		return SalesOrderResponse{}, err
	}

	return s.GetSalesOrder(ctx, order.ID.String())
}

func (s *salesOrderService) GetSalesOrder(ctx context.Context, id string) (SalesOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("invalid sales order id: %w", err)
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("sales order not found: %w", err)
	}
	return toSalesOrderResponse(*order, true), nil
}

func (s *salesOrderService) ListSalesOrders(ctx context.Context, filter SalesOrderFilter) ([]SalesOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.SalesOrderListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.CustomerID != "" {
		cid, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid customer_id: %w", err)
		}
		repoFilter.CustomerID = &cid
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

	res := make([]SalesOrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, toSalesOrderResponse(o, false))
	}
	return res, total, nil
}

func (s *salesOrderService) ConfirmSalesOrder(ctx context.Context, id string, userID string) (SalesOrderResponse, error) {
	return s.transitionStatus(ctx, id, userID, model.SalesOrderStatusConfirmed)
}

func (s *salesOrderService) CancelSalesOrder(ctx context.Context, id string, userID string) (SalesOrderResponse, error) {
	return s.transitionStatus(ctx, id, userID, model.SalesOrderStatusCancelled)
}

func (s *salesOrderService) transitionStatus(ctx context.Context, id, userID, target string) (SalesOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("invalid sales order id: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return SalesOrderResponse{}, fmt.Errorf("sales order not found: %w", err)
	}

	var action, event string
	switch target {
	case model.SalesOrderStatusConfirmed:
		if order.Status != model.SalesOrderStatusDraft {
			return SalesOrderResponse{}, fmt.Errorf("only DRAFT orders can be confirmed, current status is %s", order.Status)
		}
		action, event = model.ActionConfirmSO, ws.EventSOConfirmed
	case model.SalesOrderStatusCancelled:
		if order.Status == model.SalesOrderStatusCancelled {
			return SalesOrderResponse{}, errors.New("order is already cancelled")
		}
		action, event = model.ActionCancelSO, ws.EventSOCancelled
	default:
		return SalesOrderResponse{}, fmt.Errorf("unsupported status transition to %s", target)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.orderRepo.UpdateStatus(txCtx, orderID, target); updateErr != nil {
			return fmt.Errorf("failed to update order status: %w", updateErr)
		}
		s.audit.Record(txCtx, userID, action, order.ID.String(), order.OrderNumber, map[string]string{"from": order.Status, "to": target})
		return nil
	})
	if err != nil {
		return SalesOrderResponse{}, err
	}

	s.hub.Publish(event, order.ID.String(), order.OrderNumber)

	return s.GetSalesOrder(ctx, id)
}

func (s *salesOrderService) generateOrderNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "SO-" + today + "-"

	count, err := s.orderRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// --- Helpers ---

func toSalesOrderResponse(order model.SalesOrder, withItems bool) SalesOrderResponse {
	res := SalesOrderResponse{
		ID:              order.ID.String(),
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID.String(),
		OrderDate:       order.OrderDate.Format("2006-01-02"),
		DiscountPercent: order.DiscountPercent.String(),
		GSTRatePercent:  order.GSTRatePercent.String(),
		Subtotal:        order.Subtotal.StringFixed(2),
		DiscountAmount:  order.DiscountAmount.StringFixed(2),
		GSTAmount:       order.GSTAmount.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		Status:          order.Status,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
	}
	if order.Customer != nil {
		res.CustomerName = order.Customer.Name
	}
	if order.ProjectID != nil {
		res.ProjectID = order.ProjectID.String()
	}
	if withItems {
		items := make([]SalesOrderItemResponse, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, SalesOrderItemResponse{
				ID:              it.ID.String(),
				ItemCode:        it.ItemCode,
				Description:     it.Description,
				Unit:            it.Unit,
				Quantity:        it.Quantity.String(),
				UnitRate:        it.UnitRate.StringFixed(2),
				DiscountPercent: it.DiscountPercent.String(),
				Amount:          it.Amount.StringFixed(2),
			})
		}
		res.Items = items
	}
	return res
}
