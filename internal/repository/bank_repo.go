package repository

import (
	"context"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BankFilter narrows bank register listings.
type BankFilter struct {
	AccountName string
	Type        string
	Range       daterange.Range
	Page        int
	Limit       int
}

func (f BankFilter) scope(db *gorm.DB) *gorm.DB {
	if f.AccountName != "" {
		db = db.Where("account_name = ?", f.AccountName)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	return f.Range.Apply(db, "transaction_date")
}

type BankRepository interface {
	Create(ctx context.Context, tx *model.BankTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BankTransaction, error)
	List(ctx context.Context, filter BankFilter) ([]model.BankTransaction, int64, error)
	// Balance sums deposits minus withdrawals over the filter, ignoring pagination.
	Balance(ctx context.Context, filter BankFilter) (decimal.Decimal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) Create(ctx context.Context, tx *model.BankTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *bankRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BankTransaction, error) {
	var tx model.BankTransaction
	if err := GetDB(ctx, r.db).First(&tx, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *bankRepository) List(ctx context.Context, filter BankFilter) ([]model.BankTransaction, int64, error) {
	var rows []model.BankTransaction
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.BankTransaction{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter.scope, paginate(filter.Page, filter.Limit)).
		Order("transaction_date desc, created_at desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *bankRepository) Balance(ctx context.Context, filter BankFilter) (decimal.Decimal, error) {
	var result struct {
		Balance decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.BankTransaction{}).Scopes(filter.scope).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0) AS balance", model.BankWithdrawal).
		Scan(&result).Error
	return result.Balance, err
}

func (r *bankRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BankTransaction{}).Error
}
