package repository

import (
	"context"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter selects ledger rows of one stock item.
type MovementFilter struct {
	StockID       uuid.UUID
	ReferenceType string // SALES_INVOICE, PURCHASE, ADJUSTMENT; empty for all
	Range         daterange.Range
	Page          int
	Limit         int
}

// InventoryTxRepository is the append-only stock ledger. Rows are written in
// the same transaction as the quantity change they describe.
type InventoryTxRepository interface {
	Create(ctx context.Context, tx *model.InventoryTransaction) error
	ListByStock(ctx context.Context, filter MovementFilter) ([]model.InventoryTransaction, int64, error)
}

type inventoryTxRepository struct {
	db *gorm.DB
}

func NewInventoryTxRepository(db *gorm.DB) InventoryTxRepository {
	return &inventoryTxRepository{db: db}
}

func (r *inventoryTxRepository) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *inventoryTxRepository) ListByStock(ctx context.Context, filter MovementFilter) ([]model.InventoryTransaction, int64, error) {
	q := GetDB(ctx, r.db).Model(&model.InventoryTransaction{}).Where("stock_id = ?", filter.StockID)
	if filter.ReferenceType != "" {
		q = q.Where("reference_type = ?", filter.ReferenceType)
	}
	q = filter.Range.Apply(q, "created_at")

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]model.InventoryTransaction, 0)
	// Ties on created_at happen inside one invoice; stock_after keeps them readable.
	err := q.Scopes(paginate(filter.Page, filter.Limit)).
		Order("created_at desc, stock_after asc").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
