package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerType enum constants
const (
	PartnerTypeCustomer = "CUSTOMER"
	PartnerTypeVendor   = "VENDOR"
)

// Partner represents a customer or a vendor the company trades with.
// Sales orders reference CUSTOMER partners, purchase orders VENDOR partners.
type Partner struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null" json:"name"`
	Type            string         `gorm:"type:varchar(20);not null;index" json:"type"` // CUSTOMER, VENDOR
	CompanyName     string         `gorm:"type:varchar(255)" json:"company_name"`
	GSTIN           string         `gorm:"type:varchar(50)" json:"gstin"` // tax registration number
	ContactPerson   string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone           string         `gorm:"type:varchar(50)" json:"phone"`
	Email           string         `gorm:"type:varchar(255)" json:"email"`
	BillingAddress  string         `gorm:"type:text" json:"billing_address"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
