package model

import (
	"erp/internal/billing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is the priced row shared by sales invoices, drafts and purchases.
// LineAmount is a cache of billing.LineAmount and is refreshed on every save.
type LineItem struct {
	Position   int             `gorm:"type:int;not null;default:0" json:"position"` // order on the document, from 0
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	GSTRate    decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"gst_rate"`
	Discount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	StockID    *uuid.UUID      `gorm:"type:uuid;index" json:"stock_id"`
	LineAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"line_amount"`
}

// BillingLine converts the row into the totals engine's input.
func (l LineItem) BillingLine() billing.Line {
	return billing.Line{
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: l.UnitPrice,
		GSTRate:   l.GSTRate,
		Discount:  l.Discount,
	}
}

// Refresh recomputes the cached line amount.
func (l *LineItem) Refresh() {
	l.LineAmount = billing.LineAmount(l.BillingLine())
}

// BillingLines converts a slice of rows.
func BillingLines(items []LineItem) []billing.Line {
	lines := make([]billing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.BillingLine())
	}
	return lines
}
