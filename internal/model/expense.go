package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseCategory enum constants
const (
	ExpenseCategoryMaterial  = "MATERIAL"
	ExpenseCategoryLabour    = "LABOUR"
	ExpenseCategoryEquipment = "EQUIPMENT"
	ExpenseCategoryOverhead  = "OVERHEAD"
	ExpenseCategoryOther     = "OTHER"
)

// Expense is an actual cost booked against a project. Together with
// closed purchase orders it forms the actual-spend side of the budget
// variance shown on the dashboard.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project     *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	VendorID    *uuid.UUID      `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor      *Partner        `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Category    string          `gorm:"type:varchar(20);not null;default:'OTHER';index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	IncurredOn  time.Time       `gorm:"type:date;not null" json:"incurred_on"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
