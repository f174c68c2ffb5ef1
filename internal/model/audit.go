package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreatePartner = "CREATE_PARTNER"
	ActionUpdatePartner = "UPDATE_PARTNER"
	ActionDeletePartner = "DELETE_PARTNER"

	ActionCreateStock = "CREATE_STOCK"
	ActionUpdateStock = "UPDATE_STOCK"
	ActionAdjustStock = "ADJUST_STOCK"
	ActionDeleteStock = "DELETE_STOCK"

	ActionCreateInvoice = "CREATE_INVOICE"
	ActionDeleteInvoice = "DELETE_INVOICE"
	ActionApplyPayment  = "APPLY_PAYMENT"

	// Draft workflow actions
	ActionCreatePerforma  = "CREATE_PERFORMA"
	ActionUpdatePerforma  = "UPDATE_PERFORMA"
	ActionCancelPerforma  = "CANCEL_PERFORMA"
	ActionConvertPerforma = "CONVERT_PERFORMA"
	ActionDeletePerforma  = "DELETE_PERFORMA"

	ActionCreatePurchase = "CREATE_PURCHASE"
	ActionCreateExpense  = "CREATE_EXPENSE"
	ActionDeleteExpense  = "DELETE_EXPENSE"
	ActionCreateBankTx   = "CREATE_BANK_TRANSACTION"
	ActionDeleteBankTx   = "DELETE_BANK_TRANSACTION"
	ActionCreateUser     = "CREATE_USER"
	ActionDeleteUser     = "DELETE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
