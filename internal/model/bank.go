package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bank transaction types
const (
	BankDeposit    = "DEPOSIT"
	BankWithdrawal = "WITHDRAWAL"
)

// BankTransaction is a manual entry in a bank account register.
type BankTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountName     string          `gorm:"type:varchar(255);not null;index" json:"account_name"`
	Type            string          `gorm:"type:varchar(20);not null" json:"type"` // DEPOSIT, WITHDRAWAL
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Reference       string          `gorm:"type:varchar(100)" json:"reference"`
	TransactionDate time.Time       `gorm:"index" json:"transaction_date"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Signed returns the amount as it affects the balance.
func (b BankTransaction) Signed() decimal.Decimal {
	if b.Type == BankWithdrawal {
		return b.Amount.Neg()
	}
	return b.Amount
}
