package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase is a vendor bill. Saving one receives its quantities into stock.
type Purchase struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseNo      string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"purchase_no"`
	VendorID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor          *Partner        `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Items           []PurchaseItem  `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
	Adjustment      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"adjustment"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"discount_percent"`
	SubTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sub_total"`
	GSTTotal        decimal.Decimal `gorm:"column:gst_total;type:decimal(18,4);not null;default:0" json:"gst_total"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
	PurchaseDate    time.Time       `gorm:"index" json:"purchase_date"`
	Note            string          `gorm:"type:text" json:"note"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PurchaseItem is a line on a vendor bill. StockID is always set.
type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id"`
	LineItem   `gorm:"embedded"`
	CreatedAt  time.Time `json:"created_at"`
}

func (i *PurchaseItem) BeforeSave(tx *gorm.DB) error {
	i.Refresh()
	return nil
}

func PurchaseLineItems(items []PurchaseItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it.LineItem
	}
	return out
}
