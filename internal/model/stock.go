package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stock is one stock-keeping unit. Quantity never goes below zero; every
// change goes through a guarded update and leaves an InventoryTransaction.
type Stock struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU               string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity          int             `gorm:"type:int;default:0;not null;check:quantity >= 0" json:"quantity"`
	SellingPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"selling_price"`
	PurchasePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_price"`
	Unit              string          `gorm:"type:varchar(20);default:'pcs'" json:"unit"`
	LowStockThreshold int             `gorm:"type:int;not null;default:0" json:"low_stock_threshold"`
	LastUpdatedAt     time.Time       `json:"last_updated_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsLow reports whether the quantity on hand is at or below the alert threshold.
func (s Stock) IsLow() bool {
	return s.Quantity <= s.LowStockThreshold
}

// TransactionType Enum Simulation
const (
	TxTypeIn  = "IN"
	TxTypeOut = "OUT"
)

// Stock movement sources
const (
	RefTypeSalesInvoice = "SALES_INVOICE"
	RefTypePurchase     = "PURCHASE"
	RefTypeAdjustment   = "ADJUSTMENT"
)

// InventoryTransaction is the stock ledger: one row per quantity change.
type InventoryTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"stock_id"`
	ReferenceType   string     `gorm:"type:varchar(20);not null;index" json:"reference_type"` // SALES_INVOICE, PURCHASE, ADJUSTMENT
	ReferenceID     *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`                   // Nullable for manual adjustments
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"`     // IN, OUT
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
}
