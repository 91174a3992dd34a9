package model

import (
	"time"
)

// DashboardResponse aggregates the numbers the ERP dashboard cards render
type DashboardResponse struct {
	TotalContractValue  float64           `json:"total_contract_value"`  // sum of approved BOQ totals
	TotalSalesValue     float64           `json:"total_sales_value"`     // sum of confirmed sales order totals
	TotalInvoicedValue  float64           `json:"total_invoiced_value"`  // sum of approved invoice totals
	TotalCollectedValue float64           `json:"total_collected_value"` // sum of payments against approved invoices
	CollectionRate      float64           `json:"collection_rate"`       // collected / invoiced * 100
	OpenPurchaseOrders  int64             `json:"open_purchase_orders"`  // DRAFT + SENT
	PendingInvoices     int64             `json:"pending_invoices"`      // awaiting approval
	ProjectVariances    []ProjectVariance `json:"project_variances"`
	TopProjectsByValue  []ProjectRanking  `json:"top_projects_by_value"`
	TimeRangeStartDate  time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate    time.Time         `json:"time_range_end_date"`
}

// ProjectVariance compares a project's sanctioned budget against its BOQ
// contract value and actual spend (expenses plus non-cancelled POs)
type ProjectVariance struct {
	ProjectID       string  `json:"project_id"`
	ProjectCode     string  `json:"project_code"`
	ProjectName     string  `json:"project_name"`
	Budget          float64 `json:"budget"`
	ContractValue   float64 `json:"contract_value"`
	ActualSpend     float64 `json:"actual_spend"`
	VariancePercent float64 `json:"variance_percent"` // (actual - budget) / budget * 100
}

// ProjectRanking represents a project ranked by contract value
type ProjectRanking struct {
	ProjectID     string  `json:"project_id"`
	ProjectCode   string  `json:"project_code"`
	ProjectName   string  `json:"project_name"`
	ContractValue float64 `json:"contract_value"`
}
