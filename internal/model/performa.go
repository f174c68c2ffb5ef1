package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Performa status values. Cancelled and Converted to Sales are terminal.
const (
	PerformaPendingApproval  = "Pending Approval"
	PerformaCancelled        = "Cancelled"
	PerformaConvertedToSales = "Converted to Sales"
)

// PerformaInvoice is a draft quotation awaiting conversion to a sales invoice.
// Cached totals are informational; conversion always recomputes them.
type PerformaInvoice struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo          string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer           *Partner        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	StockID            *uuid.UUID      `gorm:"type:uuid;index" json:"stock_id"`
	Items              []PerformaItem  `gorm:"foreignKey:PerformaInvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Adjustment         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"adjustment"`
	DiscountPercent    decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percent"`
	SubTotal           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sub_total"`
	GSTTotal           decimal.Decimal `gorm:"column:gst_total;type:decimal(18,4);not null;default:0" json:"gst_total"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Total              decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	PerformaStatus     string          `gorm:"type:varchar(30);not null;default:'Pending Approval';index" json:"performa_status"`
	ConvertedInvoiceID *uuid.UUID      `gorm:"type:uuid" json:"converted_invoice_id"`
	InvoiceDate        time.Time       `gorm:"index" json:"invoice_date"`
	ValidUntil         *time.Time      `json:"valid_until"`
	Note               string          `gorm:"type:text" json:"note"`
	CreatedBy          *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the draft can no longer change.
func (p PerformaInvoice) IsTerminal() bool {
	return p.PerformaStatus == PerformaCancelled || p.PerformaStatus == PerformaConvertedToSales
}

// PrimaryStockID is the explicit stock reference, else the stock of the
// lowest-positioned item that has one. Item slice order does not matter.
func (p PerformaInvoice) PrimaryStockID() *uuid.UUID {
	if p.StockID != nil {
		return p.StockID
	}
	var first *PerformaItem
	for i := range p.Items {
		it := &p.Items[i]
		if it.StockID != nil && (first == nil || it.Position < first.Position) {
			first = it
		}
	}
	if first == nil {
		return nil
	}
	return first.StockID
}

// PerformaItem is a line on a draft.
type PerformaItem struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PerformaInvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"performa_invoice_id"`
	LineItem          `gorm:"embedded"`
	CreatedAt         time.Time `json:"created_at"`
}

func (i *PerformaItem) BeforeSave(tx *gorm.DB) error {
	i.Refresh()
	return nil
}

// PerformaLineItems returns the embedded rows of items.
func PerformaLineItems(items []PerformaItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.LineItem)
	}
	return out
}
