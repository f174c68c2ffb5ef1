package repository

import (
	"context"
	"fmt"
	"time"

	"erp/internal/model"
	"erp/pkg/daterange"

	"gorm.io/gorm"
)

type RevenueRepository interface {
	// GetRevenueSeries buckets sales, purchases and expenses by DATE_TRUNC(groupBy).
	GetRevenueSeries(ctx context.Context, groupBy string, rng daterange.Range) ([]model.RevenuePeriod, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

func (r *revenueRepository) GetRevenueSeries(ctx context.Context, groupBy string, rng daterange.Range) ([]model.RevenuePeriod, error) {
	start, end := rng.Start, rng.End
	if rng.IsZero() {
		start = time.Unix(0, 0).UTC()
		end = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	query := `
		SELECT
			TO_CHAR(DATE_TRUNC(?, t.d), 'YYYY-MM-DD') AS period,
			COALESCE(SUM(t.revenue), 0) AS revenue,
			COALESCE(SUM(t.collected), 0) AS collected,
			COALESCE(SUM(t.gst_total), 0) AS gst_total,
			COALESCE(SUM(t.purchases), 0) AS purchases,
			COALESCE(SUM(t.expenses), 0) AS expenses
		FROM (
			SELECT invoice_date AS d, total AS revenue, total_paid AS collected, gst_total, 0 AS purchases, 0 AS expenses
			FROM invoices WHERE invoice_date >= ? AND invoice_date < ?
			UNION ALL
			SELECT purchase_date, 0, 0, 0, total, 0
			FROM purchases WHERE purchase_date >= ? AND purchase_date < ?
			UNION ALL
			SELECT expense_date, 0, 0, 0, 0, amount + gst_amount
			FROM expenses WHERE expense_date >= ? AND expense_date < ?
		) t
		GROUP BY 1
		ORDER BY 1
	`

	var rows []model.RevenuePeriod
	if err := GetDB(ctx, r.db).Raw(query,
		groupBy,
		start, end,
		start, end,
		start, end,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue series: %w", err)
	}

	return rows, nil
}
