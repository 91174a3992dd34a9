package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status constants. PENDING invoices await an approval decision;
// an APPROVED invoice moves to PAID when payments cover its total.
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
	ApprovalPaid     = "PAID"
)

// Invoice is raised against a confirmed sales order. Amounts are frozen
// from the order's ledger snapshot at creation time. Only APPROVED and
// PAID invoices count toward revenue and collection statistics.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	SalesOrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	SalesOrder     *SalesOrder     `gorm:"foreignKey:SalesOrderID" json:"sales_order,omitempty"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	GSTAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"gst_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	ApprovalStatus string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"approval_status"`
	ApprovedBy     *uuid.UUID      `gorm:"type:uuid" json:"approved_by"`
	Approver       *User           `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	Note           string          `gorm:"type:text" json:"note"`
	Payments       []Payment       `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Payment is a receipt recorded against an invoice. The sum of payments
// over approved invoice totals is the collection rate on the dashboard.
type Payment struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(30);not null;default:'BANK_TRANSFER'" json:"method"`
	Reference  string          `gorm:"type:varchar(100)" json:"reference"`
	ReceivedAt time.Time       `gorm:"type:date;not null" json:"received_at"`
	Note       string          `gorm:"type:text" json:"note"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
