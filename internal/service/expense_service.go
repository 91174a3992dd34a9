package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpledger/internal/model"
	"erpledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	VendorID    string `json:"vendor_id"`
	Category    string `json:"category"`
	Amount      string `json:"amount" binding:"required"`
	IncurredOn  string `json:"incurred_on"` // YYYY-MM-DD, defaults to today
	Description string `json:"description"`
}

type UpdateExpenseRequest struct {
	Category    *string `json:"category"`
	Amount      *string `json:"amount"`
	IncurredOn  *string `json:"incurred_on"`
	Description *string `json:"description"`
}

type ExpenseFilter struct {
	ProjectID string
	Category  string
	Page      int
	Limit     int
}

type ExpenseResponse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	ProjectCode string `json:"project_code,omitempty"`
	VendorID    string `json:"vendor_id,omitempty"`
	VendorName  string `json:"vendor_name,omitempty"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	IncurredOn  string `json:"incurred_on"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, req CreateExpenseRequest, userID string) (ExpenseResponse, error)
	UpdateExpense(ctx context.Context, id string, req UpdateExpenseRequest, userID string) (ExpenseResponse, error)
	GetExpense(ctx context.Context, id string) (ExpenseResponse, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]ExpenseResponse, int64, error)
	DeleteExpense(ctx context.Context, id string, userID string) error
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	projectRepo repository.ProjectRepository
	partnerRepo repository.PartnerRepository
	audit       AuditService
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	projectRepo repository.ProjectRepository,
	partnerRepo repository.PartnerRepository,
	audit AuditService,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		projectRepo: projectRepo,
		partnerRepo: partnerRepo,
		audit:       audit,
	}
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, req CreateExpenseRequest, userID string) (ExpenseResponse, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid project_id: %w", err)
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return ExpenseResponse{}, fmt.Errorf("referenced project not found: %w", err)
	}

	var vendorID *uuid.UUID
	if req.VendorID != "" {
		vid, parseErr := uuid.Parse(req.VendorID)
		if parseErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid vendor_id: %w", parseErr)
		}
		vendor, findErr := s.partnerRepo.FindByID(ctx, vid)
		if findErr != nil {
			return ExpenseResponse{}, fmt.Errorf("vendor not found: %w", findErr)
		}
		if vendor.Type != model.PartnerTypeVendor {
			return ExpenseResponse{}, errors.New("partner is not a vendor")
		}
		vendorID = &vid
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return ExpenseResponse{}, errors.New("expense amount must be positive")
	}

	category := req.Category
	if category == "" {
		category = model.ExpenseCategoryOther
	}
	if !isValidExpenseCategory(category) {
		return ExpenseResponse{}, fmt.Errorf("invalid category %q", category)
	}

	incurredOn, err := parseDateOrToday(req.IncurredOn)
	if err != nil {
		return ExpenseResponse{}, err
	}

	expense := model.Expense{
		ProjectID:   projectID,
		VendorID:    vendorID,
		Category:    category,
		Amount:      amount.Round(2),
		IncurredOn:  incurredOn,
		Description: req.Description,
	}

	if err := s.expenseRepo.Create(ctx, &expense); err != nil {
		return ExpenseResponse{}, fmt.Errorf("failed to create expense: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionCreateExpense, expense.ID.String(), category, req)

	return s.GetExpense(ctx, expense.ID.String())
}

func (s *expenseService) UpdateExpense(ctx context.Context, id string, req UpdateExpenseRequest, userID string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}

	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("expense not found: %w", err)
	}

	if req.Category != nil {
		if !isValidExpenseCategory(*req.Category) {
			return ExpenseResponse{}, fmt.Errorf("invalid category %q", *req.Category)
		}
		expense.Category = *req.Category
	}
	if req.Amount != nil {
		amount, amountErr := decimal.NewFromString(*req.Amount)
		if amountErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid amount: %w", amountErr)
		}
		if !amount.IsPositive() {
			return ExpenseResponse{}, errors.New("expense amount must be positive")
		}
		expense.Amount = amount.Round(2)
	}
	if req.IncurredOn != nil {
		d, dateErr := time.Parse("2006-01-02", *req.IncurredOn)
		if dateErr != nil {
			return ExpenseResponse{}, fmt.Errorf("invalid incurred_on: %w", dateErr)
		}
		expense.IncurredOn = d
	}
	if req.Description != nil {
		expense.Description = *req.Description
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return ExpenseResponse{}, fmt.Errorf("failed to update expense: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionUpdateExpense, expense.ID.String(), expense.Category, req)

	return s.GetExpense(ctx, id)
}

func (s *expenseService) GetExpense(ctx context.Context, id string) (ExpenseResponse, error) {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, fmt.Errorf("expense not found: %w", err)
	}
	return toExpenseResponse(*expense), nil
}

func (s *expenseService) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]ExpenseResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.ExpenseListFilter{
		Category: filter.Category,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	if filter.ProjectID != "" {
		pid, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid project_id: %w", err)
		}
		repoFilter.ProjectID = &pid
	}

	expenses, total, err := s.expenseRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		res = append(res, toExpenseResponse(e))
	}
	return res, total, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, id string, userID string) error {
	expenseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid expense id: %w", err)
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return fmt.Errorf("expense not found: %w", err)
	}

	if err := s.expenseRepo.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.audit.Record(ctx, userID, model.ActionDeleteExpense, expense.ID.String(), expense.Category, nil)

	return nil
}

// --- Helpers ---

func isValidExpenseCategory(category string) bool {
	switch category {
	case model.ExpenseCategoryMaterial, model.ExpenseCategoryLabour, model.ExpenseCategoryEquipment,
		model.ExpenseCategoryOverhead, model.ExpenseCategoryOther:
		return true
	}
	return false
}

func toExpenseResponse(expense model.Expense) ExpenseResponse {
	res := ExpenseResponse{
		ID:          expense.ID.String(),
		ProjectID:   expense.ProjectID.String(),
		Category:    expense.Category,
		Amount:      expense.Amount.StringFixed(2),
		IncurredOn:  expense.IncurredOn.Format("2006-01-02"),
		Description: expense.Description,
		CreatedAt:   expense.CreatedAt.Format(time.RFC3339),
	}
	if expense.Project != nil {
		res.ProjectCode = expense.Project.Code
	}
	if expense.VendorID != nil {
		res.VendorID = expense.VendorID.String()
	}
	if expense.Vendor != nil {
		res.VendorName = expense.Vendor.Name
	}
	return res
}
