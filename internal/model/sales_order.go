package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesOrderStatus enum constants
const (
	SalesOrderStatusDraft     = "DRAFT"
	SalesOrderStatusConfirmed = "CONFIRMED"
	SalesOrderStatusCancelled = "CANCELLED"
)

// SalesOrder is a customer booking with discounted line items, a global
// discount percent subtracted from the subtotal, and GST applied to the
// taxable remainder. Only CONFIRMED orders can be invoiced.
type SalesOrder struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_number"`
	CustomerID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer        *Partner         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProjectID       *uuid.UUID       `gorm:"type:uuid;index" json:"project_id"`
	Project         *Project         `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	OrderDate       time.Time        `gorm:"type:date;not null" json:"order_date"`
	DiscountPercent decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	GSTRatePercent  decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:18" json:"gst_rate_percent"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	DiscountAmount  decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	GSTAmount       decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"gst_amount"`
	Total           decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
	Status          string           `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Notes           string           `gorm:"type:text" json:"notes"`
	Items           []SalesOrderItem `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}

// SalesOrderItem is one row of a sales order. Amount is quantity * rate
// less the per-item discount, rounded to 2 decimals.
type SalesOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SalesOrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	Position        int             `gorm:"not null" json:"position"`
	ItemCode        string          `gorm:"type:varchar(30);not null" json:"item_code"`
	Description     string          `gorm:"type:text" json:"description"`
	Unit            string          `gorm:"type:varchar(30)" json:"unit"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"quantity"`
	UnitRate        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_rate"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
}
