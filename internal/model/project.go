package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectStatus enum constants
const (
	ProjectStatusPlanning  = "PLANNING"
	ProjectStatusActive    = "ACTIVE"
	ProjectStatusOnHold    = "ON_HOLD"
	ProjectStatusCompleted = "COMPLETED"
)

// Project is the construction project that BOQs, purchase orders and
// expenses hang off. Budget is the sanctioned amount used for variance
// reporting against the BOQ contract value and actual spend.
type Project struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Location  string          `gorm:"type:varchar(255)" json:"location"`
	Budget    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"budget"`
	Status    string          `gorm:"type:varchar(20);not null;default:'PLANNING';index" json:"status"`
	StartDate *time.Time      `gorm:"type:date" json:"start_date"`
	EndDate   *time.Time      `gorm:"type:date" json:"end_date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}
