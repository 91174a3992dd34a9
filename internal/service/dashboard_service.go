package service

import (
	"context"
	"time"

	"erpledger/internal/model"

	"gorm.io/gorm"
)

type DashboardService interface {
	GetDashboard(ctx context.Context, startDate, endDate time.Time) (model.DashboardResponse, error)
}

type dashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &dashboardService{db: db}
}

// GetDashboard aggregates the headline numbers across BOQs, orders,
// invoices, payments and expenses inside the given time bracket.
func (s *dashboardService) GetDashboard(ctx context.Context, startDate, endDate time.Time) (model.DashboardResponse, error) {
	var response model.DashboardResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Total contract value: approved BOQs
	var contract struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("boqs").
		Select("COALESCE(SUM(total), 0) as value").
		Where("status = ? AND deleted_at IS NULL AND created_at >= ? AND created_at <= ?", model.BOQStatusApproved, startDate, endDate).
		Scan(&contract)
	response.TotalContractValue = contract.Value

	// Total sales value: confirmed orders
	var sales struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("sales_orders").
		Select("COALESCE(SUM(total), 0) as value").
		Where("status = ? AND deleted_at IS NULL AND created_at >= ? AND created_at <= ?", model.SalesOrderStatusConfirmed, startDate, endDate).
		Scan(&sales)
	response.TotalSalesValue = sales.Value

	// Total invoiced value: approved invoices, including fully settled ones
	invoicedStatuses := []string{model.ApprovalApproved, model.ApprovalPaid}
	var invoiced struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("invoices").
		Select("COALESCE(SUM(total), 0) as value").
		Where("approval_status IN ? AND created_at >= ? AND created_at <= ?", invoicedStatuses, startDate, endDate).
		Scan(&invoiced)
	response.TotalInvoicedValue = invoiced.Value

	// Total collected: payments against approved invoices
	var collected struct {
		Value float64
	}
	s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(payments.amount), 0) as value").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("invoices.approval_status IN ? AND payments.received_at >= ? AND payments.received_at <= ?", invoicedStatuses, startDate, endDate).
		Scan(&collected)
	response.TotalCollectedValue = collected.Value

	if response.TotalInvoicedValue > 0 {
		response.CollectionRate = response.TotalCollectedValue / response.TotalInvoicedValue * 100
	}

	s.db.WithContext(ctx).Table("purchase_orders").
		Where("status IN ? AND deleted_at IS NULL", []string{model.PurchaseOrderStatusDraft, model.PurchaseOrderStatusSent}).
		Count(&response.OpenPurchaseOrders)

	s.db.WithContext(ctx).Table("invoices").
		Where("approval_status = ?", model.ApprovalPending).
		Count(&response.PendingInvoices)

	// Budget variance per project: contract value from approved BOQs,
	// actual spend from expenses plus non-cancelled purchase orders.
	var variances []model.ProjectVariance
	s.db.WithContext(ctx).Table("projects").
		Select(`projects.id as project_id, projects.code as project_code, projects.name as project_name,
			projects.budget as budget,
			COALESCE((SELECT SUM(total) FROM boqs WHERE boqs.project_id = projects.id AND boqs.status = 'APPROVED' AND boqs.deleted_at IS NULL), 0) as contract_value,
			COALESCE((SELECT SUM(amount) FROM expenses WHERE expenses.project_id = projects.id AND expenses.deleted_at IS NULL), 0)
			+ COALESCE((SELECT SUM(total) FROM purchase_orders WHERE purchase_orders.project_id = projects.id AND purchase_orders.status != 'CANCELLED' AND purchase_orders.deleted_at IS NULL), 0) as actual_spend`).
		Where("projects.deleted_at IS NULL").
		Order("projects.code").
		Scan(&variances)
	for i := range variances {
		if variances[i].Budget > 0 {
			variances[i].VariancePercent = (variances[i].ActualSpend - variances[i].Budget) / variances[i].Budget * 100
		}
	}
	response.ProjectVariances = variances

	// Top projects by approved contract value
	var rankings []model.ProjectRanking
	s.db.WithContext(ctx).Table("boqs").
		Select("projects.id as project_id, projects.code as project_code, projects.name as project_name, SUM(boqs.total) as contract_value").
		Joins("JOIN projects ON projects.id = boqs.project_id").
		Where("boqs.status = ? AND boqs.deleted_at IS NULL AND boqs.created_at >= ? AND boqs.created_at <= ?", model.BOQStatusApproved, startDate, endDate).
		Group("projects.id, projects.code, projects.name").
		Order("contract_value DESC").
		Limit(5).
		Scan(&rankings)
	response.TopProjectsByValue = rankings

	return response, nil
}
