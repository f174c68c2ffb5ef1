package repository

import (
	"context"
	"fmt"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	GetSalesSummary(ctx context.Context, rng daterange.Range) (model.SalesSummary, error)
	GetPurchaseTotal(ctx context.Context, rng daterange.Range) (decimal.Decimal, error)
	GetExpenseTotal(ctx context.Context, rng daterange.Range) (decimal.Decimal, error)
	GetPaymentStatusCounts(ctx context.Context, rng daterange.Range) ([]model.PaymentStatusCount, error)
	GetTopStocks(ctx context.Context, rng daterange.Range, limit int) ([]model.StockRanking, error)
	GetLowStocks(ctx context.Context, limit int) ([]model.Stock, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) GetSalesSummary(ctx context.Context, rng daterange.Range) (model.SalesSummary, error) {
	var result struct {
		Revenue   decimal.Decimal
		Collected decimal.Decimal
		GSTTotal  decimal.Decimal `gorm:"column:gst_total"`
		Count     int64
	}
	err := rng.Apply(GetDB(ctx, r.db).Model(&model.Invoice{}), "invoice_date").
		Select("COALESCE(SUM(total), 0) AS revenue, COALESCE(SUM(total_paid), 0) AS collected, " +
			"COALESCE(SUM(gst_total), 0) AS gst_total, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return model.SalesSummary{}, fmt.Errorf("failed to query sales summary: %w", err)
	}
	return model.SalesSummary{
		Revenue:   result.Revenue,
		Collected: result.Collected,
		GSTTotal:  result.GSTTotal,
		Count:     result.Count,
	}, nil
}

func (r *statisticsRepository) GetPurchaseTotal(ctx context.Context, rng daterange.Range) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := rng.Apply(GetDB(ctx, r.db).Model(&model.Purchase{}), "purchase_date").
		Select("COALESCE(SUM(total), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query purchase total: %w", err)
	}
	return result.Total, nil
}

func (r *statisticsRepository) GetExpenseTotal(ctx context.Context, rng daterange.Range) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := rng.Apply(GetDB(ctx, r.db).Model(&model.Expense{}), "expense_date").
		Select("COALESCE(SUM(amount + gst_amount), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query expense total: %w", err)
	}
	return result.Total, nil
}

func (r *statisticsRepository) GetPaymentStatusCounts(ctx context.Context, rng daterange.Range) ([]model.PaymentStatusCount, error) {
	var counts []model.PaymentStatusCount
	err := rng.Apply(GetDB(ctx, r.db).Model(&model.Invoice{}), "invoice_date").
		Select("payment_status, COUNT(*) AS count").
		Group("payment_status").
		Order("payment_status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query payment status counts: %w", err)
	}
	return counts, nil
}

func (r *statisticsRepository) GetTopStocks(ctx context.Context, rng daterange.Range, limit int) ([]model.StockRanking, error) {
	var rankings []model.StockRanking
	query := GetDB(ctx, r.db).Table("invoice_items").
		Select("stocks.id AS stock_id, stocks.name AS stock_name, stocks.sku AS stock_sku, " +
			"SUM(invoice_items.quantity) AS total_quantity, " +
			"SUM(invoice_items.quantity * invoice_items.unit_price) AS total_value").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Joins("JOIN stocks ON stocks.id = invoice_items.stock_id")
	if err := rng.Apply(query, "invoices.invoice_date").
		Group("stocks.id, stocks.name, stocks.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top stocks: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) GetLowStocks(ctx context.Context, limit int) ([]model.Stock, error) {
	var stocks []model.Stock
	if err := GetDB(ctx, r.db).Where("quantity <= low_stock_threshold").
		Order("quantity asc").Limit(limit).Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to query low stocks: %w", err)
	}
	return stocks, nil
}
