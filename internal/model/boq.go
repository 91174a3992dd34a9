package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BOQStatus enum constants
const (
	BOQStatusDraft     = "DRAFT"
	BOQStatusSubmitted = "SUBMITTED"
	BOQStatusApproved  = "APPROVED"
)

// BOQ is a bill of quantities for a project: ordered work items with
// quantities and rates, summed with an additive contingency percent to
// the contract value. All money columns hold 2-decimal rounded values
// recomputed by the ledger engine on every write.
type BOQ struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BOQNumber          string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"boq_number"`
	ProjectID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project            *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ContractorName     string          `gorm:"type:varchar(255);not null" json:"contractor_name"`
	ContractorContact  string          `gorm:"type:varchar(100)" json:"contractor_contact"`
	BOQDate            time.Time       `gorm:"type:date;not null" json:"boq_date"`
	ContingencyPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"contingency_percent"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"subtotal"`
	ContingencyAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"contingency_amount"`
	Total              decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total"`
	Status             string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Items              []BOQItem       `gorm:"foreignKey:BOQID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BOQItem is one work-item row of a BOQ. Amount = quantity * unit_rate,
// rounded to 2 decimals; Position preserves display order.
type BOQItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BOQID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"boq_id"`
	Position        int             `gorm:"not null" json:"position"`
	ItemCode        string          `gorm:"type:varchar(30);not null" json:"item_code"`
	Description     string          `gorm:"type:text" json:"description"`
	Specification   string          `gorm:"type:text" json:"specification"`
	Unit            string          `gorm:"type:varchar(30)" json:"unit"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0" json:"quantity"`
	UnitRate        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"unit_rate"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	ProgressPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"progress_percent"`
}
