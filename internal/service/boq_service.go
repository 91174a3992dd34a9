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
)

// --- DTOs ---

// BOQItemInput carries one form row. Numeric fields arrive as raw
// strings and go through the ledger's parse-or-zero rules, matching the
// form behavior where a bad keystroke never blocks editing.
type BOQItemInput struct {
	ItemCode        string `json:"item_code"`
	Description     string `json:"description"`
	Specification   string `json:"specification"`
	Unit            string `json:"unit"`
	Quantity        string `json:"quantity"`
	UnitRate        string `json:"unit_rate"`
	ProgressPercent string `json:"progress_percent"`
}

type CreateBOQRequest struct {
	ProjectID          string         `json:"project_id" binding:"required"`
	ContractorName     string         `json:"contractor_name" binding:"required"`
	ContractorContact  string         `json:"contractor_contact"`
	BOQDate            string         `json:"boq_date"` // YYYY-MM-DD, defaults to today
	ContingencyPercent string         `json:"contingency_percent"`
	Items              []BOQItemInput `json:"items"`
}

type UpdateBOQRequest struct {
	ContractorName     *string        `json:"contractor_name"`
	ContractorContact  *string        `json:"contractor_contact"`
	BOQDate            *string        `json:"boq_date"`
	ContingencyPercent *string        `json:"contingency_percent"`
	Status             *string        `json:"status"`
	Items              []BOQItemInput `json:"items"` // nil = keep existing rows
}

type BOQFilter struct {
	ProjectID string
	Status    string
	Page      int
	Limit     int
}

type BOQItemResponse struct {
	ID              string `json:"id"`
	ItemCode        string `json:"item_code"`
	Description     string `json:"description"`
	Specification   string `json:"specification"`
	Unit            string `json:"unit"`
	Quantity        string `json:"quantity"`
	UnitRate        string `json:"unit_rate"`
	Amount          string `json:"amount"`
	ProgressPercent string `json:"progress_percent"`
}

type BOQResponse struct {
	ID                 string            `json:"id"`
	BOQNumber          string            `json:"boq_number"`
	ProjectID          string            `json:"project_id"`
	ProjectCode        string            `json:"project_code,omitempty"`
	ProjectName        string            `json:"project_name,omitempty"`
	ContractorName     string            `json:"contractor_name"`
	ContractorContact  string            `json:"contractor_contact"`
	BOQDate            string            `json:"boq_date"`
	ContingencyPercent string            `json:"contingency_percent"`
	Subtotal           string            `json:"subtotal"`
	ContingencyAmount  string            `json:"contingency_amount"`
	Total              string            `json:"total"`
	Status             string            `json:"status"`
	Items              []BOQItemResponse `json:"items,omitempty"`
	CreatedAt          string            `json:"created_at"`
}

// --- Interface ---

type BOQService interface {
	CreateBOQ(ctx context.Context, req CreateBOQRequest, userID string) (BOQResponse, error)
	UpdateBOQ(ctx context.Context, id string, req UpdateBOQRequest, userID string) (BOQResponse, error)
	GetBOQ(ctx context.Context, id string) (BOQResponse, error)
	ListBOQs(ctx context.Context, filter BOQFilter) ([]BOQResponse, int64, error)
	DeleteBOQ(ctx context.Context, id string, userID string) error
	ImportFromExcel(ctx context.Context, req ImportBOQRequest, userID string) (BOQResponse, *BOQImportReport, error)
	ExportToExcel(ctx context.Context, id string) ([]byte, string, error)
}

type boqService struct {
	boqRepo     repository.BOQRepository
	projectRepo repository.ProjectRepository
	txManager   repository.TransactionManager
	audit       AuditService
	hub         *ws.Hub
}

func NewBOQService(
	boqRepo repository.BOQRepository,
	projectRepo repository.ProjectRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	hub *ws.Hub,
) BOQService {
	return &boqService{
		boqRepo:     boqRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		audit:       audit,
		hub:         hub,
	}
}

// --- Implementation ---

// buildBOQLedger replays form rows through the ledger engine so that all
// derived amounts come out of one code path, identical to what the entry
// form shows the user.
func buildBOQLedger(items []BOQItemInput, contingencyPercent string) (*ledger.Ledger, error) {
	led := ledger.New(ledger.BOQConfig())
	for i, in := range items {
		led.AddItem()
		if err := applyItemInput(led, i, in); err != nil {
			return nil, err
		}
	}
	led.SetAdjustmentPercent(contingencyPercent)
	return led, nil
}

func applyItemInput(led *ledger.Ledger, index int, in BOQItemInput) error {
	if err := led.UpdateItem(index, ledger.FieldDescription, in.Description); err != nil {
		return err
	}
	if err := led.UpdateItem(index, ledger.FieldSpecification, in.Specification); err != nil {
		return err
	}
	if err := led.UpdateItem(index, ledger.FieldQuantity, in.Quantity); err != nil {
		return err
	}
	if err := led.UpdateItem(index, ledger.FieldUnitRate, in.UnitRate); err != nil {
		return err
	}
	if in.ItemCode != "" {
		if err := led.UpdateItem(index, ledger.FieldItemCode, in.ItemCode); err != nil {
			return err
		}
	}
	if in.Unit != "" {
		if err := led.UpdateItem(index, ledger.FieldUnit, in.Unit); err != nil {
			return err
		}
	}
	return nil
}

func boqItemsFromLedger(led *ledger.Ledger, inputs []BOQItemInput) []model.BOQItem {
	rows := led.Items()
	items := make([]model.BOQItem, 0, len(rows))
	for i, row := range rows {
		progress := ledger.ParsePercent(inputs[i].ProgressPercent)
		items = append(items, model.BOQItem{
			Position:        i,
			ItemCode:        row.ItemCode,
			Description:     row.Description,
			Specification:   row.Specification,
			Unit:            row.Unit,
			Quantity:        row.Quantity,
			UnitRate:        row.UnitRate,
			Amount:          row.Amount,
			ProgressPercent: progress,
		})
	}
	return items
}

func (s *boqService) CreateBOQ(ctx context.Context, req CreateBOQRequest, userID string) (BOQResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("invalid project_id: %w", err)
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return BOQResponse{}, fmt.Errorf("referenced project not found: %w", err)
	}

	boqDate, err := parseDateOrToday(req.BOQDate)
	if err != nil {
		return BOQResponse{}, err
	}

	led, err := buildBOQLedger(req.Items, req.ContingencyPercent)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("invalid line items: %w", err)
	}
	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return BOQResponse{}, errors.New("at least one BOQ item is required")
		}
		return BOQResponse{}, err
	}

	totals := led.Totals()
	boq := model.BOQ{
		ProjectID:          projectID,
		ContractorName:     req.ContractorName,
		ContractorContact:  req.ContractorContact,
		BOQDate:            boqDate,
		ContingencyPercent: led.AdjustmentPercent(),
		Subtotal:           totals.Subtotal,
		ContingencyAmount:  totals.AdjustmentAmount,
		Total:              totals.Total,
		Status:             model.BOQStatusDraft,
		Items:              boqItemsFromLedger(led, req.Items),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, numErr := s.generateBOQNumber(txCtx)
		if numErr != nil {
			return fmt.Errorf("failed to generate BOQ number: %w", numErr)
		}
		boq.BOQNumber = number

		if createErr := s.boqRepo.Create(txCtx, &boq); createErr != nil {
			return fmt.Errorf("failed to create BOQ: %w", createErr)
		}

		s.audit.Record(txCtx, userID, model.ActionCreateBOQ, boq.ID.String(), boq.BOQNumber, req)
		return nil
	})
	if err != nil {
		return BOQResponse{}, err
	}

	s.hub.Publish(ws.EventBOQCreated, boq.ID.String(), boq.BOQNumber)

	reloaded, err := s.boqRepo.FindByIDWithItems(ctx, boq.ID)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("failed to reload BOQ: %w", err)
	}
	return toBOQResponse(*reloaded, true), nil
}

func (s *boqService) UpdateBOQ(ctx context.Context, id string, req UpdateBOQRequest, userID string) (BOQResponse, error) {
	boqID, err := uuid.Parse(id)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("invalid BOQ id: %w", err)
	}

	boq, err := s.boqRepo.FindByIDWithItems(ctx, boqID)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("BOQ not found: %w", err)
	}

	if req.ContractorName != nil {
		if *req.ContractorName == "" {
			return BOQResponse{}, errors.New("contractor name cannot be blank")
		}
		boq.ContractorName = *req.ContractorName
	}
	if req.ContractorContact != nil {
		boq.ContractorContact = *req.ContractorContact
	}
	if req.BOQDate != nil {
		boqDate, dateErr := time.Parse("2006-01-02", *req.BOQDate)
		if dateErr != nil {
			return BOQResponse{}, fmt.Errorf("invalid boq_date: %w", dateErr)
		}
		boq.BOQDate = boqDate
	}
	if req.Status != nil {
		if !isValidBOQStatus(*req.Status) {
			return BOQResponse{}, fmt.Errorf("invalid status %q", *req.Status)
		}
		boq.Status = *req.Status
	}

	// Rebuild the ledger from the incoming rows (or the stored ones when
	// only the contingency changed) so totals stay consistent with items.
	itemInputs := req.Items
	var led *ledger.Ledger
	if itemInputs != nil {
		contingency := boq.ContingencyPercent.String()
		if req.ContingencyPercent != nil {
			contingency = *req.ContingencyPercent
		}
		led, err = buildBOQLedger(itemInputs, contingency)
		if err != nil {
			return BOQResponse{}, fmt.Errorf("invalid line items: %w", err)
		}
	} else {
		seed := make([]ledger.Item, 0, len(boq.Items))
		itemInputs = make([]BOQItemInput, 0, len(boq.Items))
		for _, it := range boq.Items {
			seed = append(seed, ledger.Item{
				ItemCode:      it.ItemCode,
				Description:   it.Description,
				Specification: it.Specification,
				Unit:          it.Unit,
				Quantity:      it.Quantity,
				UnitRate:      it.UnitRate,
			})
			itemInputs = append(itemInputs, BOQItemInput{ProgressPercent: it.ProgressPercent.String()})
		}
		contingency := boq.ContingencyPercent
		if req.ContingencyPercent != nil {
			contingency = ledger.ParsePercent(*req.ContingencyPercent)
		}
		led = ledger.FromItems(ledger.BOQConfig(), seed, contingency)
	}

	if err := led.Validate(); err != nil {
		if errors.Is(err, ledger.ErrNoItems) {
			return BOQResponse{}, errors.New("at least one BOQ item is required")
		}
		return BOQResponse{}, err
	}

	totals := led.Totals()
	boq.ContingencyPercent = led.AdjustmentPercent()
	boq.Subtotal = totals.Subtotal
	boq.ContingencyAmount = totals.AdjustmentAmount
	boq.Total = totals.Total

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.boqRepo.Update(txCtx, boq); updateErr != nil {
			return fmt.Errorf("failed to update BOQ: %w", updateErr)
		}
		if replaceErr := s.boqRepo.ReplaceItems(txCtx, boq.ID, boqItemsFromLedger(led, itemInputs)); replaceErr != nil {
			return fmt.Errorf("failed to update BOQ items: %w", replaceErr)
		}
		s.audit.Record(txCtx, userID, model.ActionUpdateBOQ, boq.ID.String(), boq.BOQNumber, req)
		return nil
	})
	if err != nil {
		return BOQResponse{}, err
	}

	s.hub.Publish(ws.EventBOQUpdated, boq.ID.String(), boq.BOQNumber)

	reloaded, err := s.boqRepo.FindByIDWithItems(ctx, boq.ID)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("failed to reload BOQ: %w", err)
	}
	return toBOQResponse(*reloaded, true), nil
}

func (s *boqService) GetBOQ(ctx context.Context, id string) (BOQResponse, error) {
	boqID, err := uuid.Parse(id)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("invalid BOQ id: %w", err)
	}
	boq, err := s.boqRepo.FindByIDWithItems(ctx, boqID)
	if err != nil {
		return BOQResponse{}, fmt.Errorf("BOQ not found: %w", err)
	}
	return toBOQResponse(*boq, true), nil
}

func (s *boqService) ListBOQs(ctx context.Context, filter BOQFilter) ([]BOQResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.BOQListFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ProjectID != "" {
		projectID, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid project_id: %w", err)
		}
		repoFilter.ProjectID = &projectID
	}

	boqs, total, err := s.boqRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]BOQResponse, 0, len(boqs))
	for _, b := range boqs {
		res = append(res, toBOQResponse(b, false))
	}
	return res, total, nil
}

func (s *boqService) DeleteBOQ(ctx context.Context, id string, userID string) error {
	boqID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid BOQ id: %w", err)
	}
	boq, err := s.boqRepo.FindByIDWithItems(ctx, boqID)
	if err != nil {
		return fmt.Errorf("BOQ not found: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.boqRepo.Delete(txCtx, boqID); deleteErr != nil {
			return fmt.Errorf("failed to delete BOQ: %w", deleteErr)
		}
		s.audit.Record(txCtx, userID, model.ActionDeleteBOQ, boqID.String(), boq.BOQNumber, nil)
		return nil
	})
}

func (s *boqService) generateBOQNumber(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "BOQ-" + today + "-"

	count, err := s.boqRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// --- Helpers ---

func isValidBOQStatus(status string) bool {
	switch status {
	case model.BOQStatusDraft, model.BOQStatusSubmitted, model.BOQStatusApproved:
		return true
	}
	return false
}

func parseDateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

func toBOQResponse(boq model.BOQ, withItems bool) BOQResponse {
	res := BOQResponse{
		ID:                 boq.ID.String(),
		BOQNumber:          boq.BOQNumber,
		ProjectID:          boq.ProjectID.String(),
		ContractorName:     boq.ContractorName,
		ContractorContact:  boq.ContractorContact,
		BOQDate:            boq.BOQDate.Format("2006-01-02"),
		ContingencyPercent: boq.ContingencyPercent.String(),
		Subtotal:           boq.Subtotal.StringFixed(2),
		ContingencyAmount:  boq.ContingencyAmount.StringFixed(2),
		Total:              boq.Total.StringFixed(2),
		Status:             boq.Status,
		CreatedAt:          boq.CreatedAt.Format(time.RFC3339),
	}
	if boq.Project != nil {
		res.ProjectCode = boq.Project.Code
		res.ProjectName = boq.Project.Name
	}
	if withItems {
		items := make([]BOQItemResponse, 0, len(boq.Items))
		for _, it := range boq.Items {
			items = append(items, BOQItemResponse{
				ID:              it.ID.String(),
				ItemCode:        it.ItemCode,
				Description:     it.Description,
				Specification:   it.Specification,
				Unit:            it.Unit,
				Quantity:        it.Quantity.String(),
				UnitRate:        it.UnitRate.StringFixed(2),
				Amount:          it.Amount.StringFixed(2),
				ProgressPercent: it.ProgressPercent.String(),
			})
		}
		res.Items = items
	}
	return res
}
