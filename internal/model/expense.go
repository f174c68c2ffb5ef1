package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment mode enum constants shared by expenses
const (
	PaymentModeCash = "cash"
	PaymentModeBank = "bank"
	PaymentModeUPI  = "upi"
	PaymentModeCard = "card"
)

// Expense is an operating cost outside vendor bills (rent, utilities, travel).
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	GSTAmount   decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0" json:"gst_amount"`
	VendorID    *uuid.UUID      `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor      *Partner        `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	PaymentMode string          `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_mode"`
	ExpenseDate time.Time       `gorm:"index" json:"expense_date"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedBy   *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Total is the amount including GST.
func (e Expense) Total() decimal.Decimal {
	return e.Amount.Add(e.GSTAmount)
}
