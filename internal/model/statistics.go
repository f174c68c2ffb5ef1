package model

import "github.com/shopspring/decimal"

// StockRanking is a stock item ranked by quantity sold on sales invoices
type StockRanking struct {
	StockID       string          `json:"stock_id"`
	StockName     string          `json:"stock_name"`
	StockSKU      string          `json:"stock_sku"`
	TotalQuantity int             `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// PaymentStatusCount is the number of sales invoices in one payment status
type PaymentStatusCount struct {
	PaymentStatus string `json:"payment_status"`
	Count         int64  `json:"count"`
}

// SalesSummary aggregates sales invoices over a period
type SalesSummary struct {
	Revenue   decimal.Decimal
	Collected decimal.Decimal
	GSTTotal  decimal.Decimal
	Count     int64
}

// RevenuePeriod is one bucket of the revenue series
type RevenuePeriod struct {
	Period    string          `gorm:"column:period" json:"period"`
	Revenue   decimal.Decimal `gorm:"column:revenue" json:"revenue"`
	Collected decimal.Decimal `gorm:"column:collected" json:"collected"`
	GSTTotal  decimal.Decimal `gorm:"column:gst_total" json:"gst_total"`
	Purchases decimal.Decimal `gorm:"column:purchases" json:"purchases"`
	Expenses  decimal.Decimal `gorm:"column:expenses" json:"expenses"`
}
