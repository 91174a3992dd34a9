package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseOrderStatus enum constants
const (
	PurchaseOrderStatusDraft     = "DRAFT"
	PurchaseOrderStatusSent      = "SENT"
	PurchaseOrderStatusClosed    = "CLOSED"
	PurchaseOrderStatusCancelled = "CANCELLED"
)

// PurchaseOrder is a procurement document issued to a vendor: line items
// summed to a subtotal with tax added on top at the document rate.
type PurchaseOrder struct {
	ID               uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PONumber         string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"po_number"`
	VendorID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor           *Partner            `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	ProjectID        *uuid.UUID          `gorm:"type:uuid;index" json:"project_id"`
	Project          *Project            `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	PODate           time.Time           `gorm:"type:date;not null" json:"po_date"`
	DeliveryDate     *time.Time          `gorm:"type:date" json:"delivery_date"`
	DeliveryLocation string              `gorm:"type:varchar(255)" json:"delivery_location"`
	PaymentTerms     string              `gorm:"type:varchar(255)" json:"payment_terms"`
	TaxRatePercent   decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0" json:"tax_rate_percent"`
	Subtotal         decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	TaxAmount        decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"tax_amount"`
	Total            decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
	Status           string              `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Notes            string              `gorm:"type:text" json:"notes"`
	Items            []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `gorm:"index" json:"-"`
}

// PurchaseOrderItem is one row of a purchase order.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	Position        int             `gorm:"not null" json:"position"`
	ItemCode        string          `gorm:"type:varchar(30);not null" json:"item_code"`
	Description     string          `gorm:"type:text" json:"description"`
	Unit            string          `gorm:"type:varchar(30)" json:"unit"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"quantity"`
	UnitRate        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_rate"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
}
