package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType enum constants
const (
	TaxTypeGST = "GST"
	TaxTypeVAT = "VAT"
)

// TaxRule stores tax rates with temporal validity. The sales order
// service resolves the GST rate active on the order date; a nil
// EffectiveTo means the rule is currently in force.
type TaxRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxType       string          `gorm:"type:varchar(20);not null;index" json:"tax_type"` // GST, VAT
	RatePercent   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"rate_percent"`  // e.g. 18.00
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`  // Start date
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"`             // End date, nullable = currently active
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
