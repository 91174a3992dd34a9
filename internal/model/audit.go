package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateBOQ     = "CREATE_BOQ"
	ActionUpdateBOQ     = "UPDATE_BOQ"
	ActionDeleteBOQ     = "DELETE_BOQ"
	ActionImportBOQ     = "IMPORT_BOQ"
	ActionCreateSO      = "CREATE_SALES_ORDER"
	ActionUpdateSO      = "UPDATE_SALES_ORDER"
	ActionConfirmSO     = "CONFIRM_SALES_ORDER"
	ActionCancelSO      = "CANCEL_SALES_ORDER"
	ActionCreatePO      = "CREATE_PURCHASE_ORDER"
	ActionUpdatePO      = "UPDATE_PURCHASE_ORDER"
	ActionSendPO        = "SEND_PURCHASE_ORDER"
	ActionClosePO       = "CLOSE_PURCHASE_ORDER"
	ActionCancelPO      = "CANCEL_PURCHASE_ORDER"
	ActionCreateInvoice = "CREATE_INVOICE"
	ActionApproveInv    = "APPROVE_INVOICE"
	ActionRejectInv     = "REJECT_INVOICE"
	ActionRecordPayment = "RECORD_PAYMENT"
	ActionCreateProject = "CREATE_PROJECT"
	ActionUpdateProject = "UPDATE_PROJECT"
	ActionDeleteProject = "DELETE_PROJECT"
	ActionCreatePartner = "CREATE_PARTNER"
	ActionUpdatePartner = "UPDATE_PARTNER"
	ActionDeletePartner = "DELETE_PARTNER"
	ActionCreateExpense = "CREATE_EXPENSE"
	ActionUpdateExpense = "UPDATE_EXPENSE"
	ActionDeleteExpense = "DELETE_EXPENSE"
	ActionCreateTaxRule = "CREATE_TAX_RULE"
	ActionUpdateTaxRule = "UPDATE_TAX_RULE"
	ActionDeleteTaxRule = "DELETE_TAX_RULE"
)

// AuditLog tracks Who, What, and When for document lifecycle changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/document number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
