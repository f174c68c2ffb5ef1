package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus enum constants
const (
	PaymentPending = "pending"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

// Invoice is a finalized sales invoice. After creation it is only mutated by
// payment application, which moves TotalPaid towards Total.
type Invoice struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo             string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	CustomerID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer              *Partner        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	StockID               *uuid.UUID      `gorm:"type:uuid;index" json:"stock_id"`
	Items                 []InvoiceItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Adjustment            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"adjustment"`
	DiscountPercent       decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percent"`
	SubTotal              decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sub_total"`
	GSTTotal              decimal.Decimal `gorm:"column:gst_total;type:decimal(18,4);not null;default:0" json:"gst_total"`
	DiscountAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Total                 decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	TotalPaid             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_paid"`
	PaymentStatus         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	ConvertedFromPerforma *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"converted_from_performa"`
	InvoiceDate           time.Time       `gorm:"index" json:"invoice_date"`
	Note                  string          `gorm:"type:text" json:"note"`
	CreatedBy             *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// Outstanding is the unpaid remainder.
func (i Invoice) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.TotalPaid)
}

// InvoiceItem is a line on a sales invoice.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LineItem  `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeSave keeps the cached line amount in step with the stored values.
func (i *InvoiceItem) BeforeSave(tx *gorm.DB) error {
	i.Refresh()
	return nil
}

// InvoiceLineItems returns the embedded rows of items.
func InvoiceLineItems(items []InvoiceItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.LineItem)
	}
	return out
}
