package repository

import (
	"context"
	"time"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockFilter narrows stock listings.
type StockFilter struct {
	Search  string
	LowOnly bool
	Page    int
	Limit   int
}

func (f StockFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		like := "%" + f.Search + "%"
		db = db.Where("name ILIKE ? OR sku ILIKE ?", like, like)
	}
	if f.LowOnly {
		db = db.Where("quantity <= low_stock_threshold")
	}
	return db
}

type StockRepository interface {
	Create(ctx context.Context, stock *model.Stock) error
	Update(ctx context.Context, stock *model.Stock) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Stock, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Stock, error)
	List(ctx context.Context, filter StockFilter) ([]model.Stock, int64, error)
	// Decrement subtracts qty only while quantity >= qty and returns the rows affected.
	Decrement(ctx context.Context, id uuid.UUID, qty int, at time.Time) (int64, error)
	Increment(ctx context.Context, id uuid.UUID, qty int, at time.Time) error
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Create(stock).Error
}

// Update writes metadata only. Quantity moves through Decrement/Increment.
func (r *stockRepository) Update(ctx context.Context, stock *model.Stock) error {
	return GetDB(ctx, r.db).Model(stock).
		Select("sku", "name", "selling_price", "purchase_price", "unit", "low_stock_threshold").
		Updates(stock).Error
}

func (r *stockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Stock{}).Error
}

func (r *stockRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := GetDB(ctx, r.db).First(&stock, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) List(ctx context.Context, filter StockFilter) ([]model.Stock, int64, error) {
	var stocks []model.Stock
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Stock{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at desc"
	if filter.LowOnly {
		order = "quantity asc"
	}
	if err := db.Scopes(filter.scope, paginate(filter.Page, filter.Limit)).Order(order).Find(&stocks).Error; err != nil {
		return nil, 0, err
	}

	return stocks, total, nil
}

func (r *stockRepository) Decrement(ctx context.Context, id uuid.UUID, qty int, at time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Stock{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]interface{}{
			"quantity":        gorm.Expr("quantity - ?", qty),
			"last_updated_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *stockRepository) Increment(ctx context.Context, id uuid.UUID, qty int, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Stock{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":        gorm.Expr("quantity + ?", qty),
			"last_updated_at": at,
		}).Error
}
