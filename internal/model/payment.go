package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment method enum constants
const (
	PaymentMethodCash   = "cash"
	PaymentMethodBank   = "bank"
	PaymentMethodUPI    = "upi"
	PaymentMethodCard   = "card"
	PaymentMethodCheque = "cheque"
)

// Payment records money received against a sales invoice.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Invoice   *Invoice        `gorm:"foreignKey:InvoiceID" json:"-"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(20);not null;default:'cash'" json:"method"`
	Reference *string         `gorm:"type:varchar(100);uniqueIndex" json:"reference"` // NULL when absent so blanks never collide
	PaidAt    time.Time       `gorm:"index" json:"paid_at"`
	Note      string          `gorm:"type:text" json:"note"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
