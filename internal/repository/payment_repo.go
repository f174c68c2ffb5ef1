package repository

import (
	"context"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	InvoiceID *uuid.UUID
	Method    string
	Range     daterange.Range
	Page      int
	Limit     int
}

func (f PaymentFilter) scope(db *gorm.DB) *gorm.DB {
	if f.InvoiceID != nil {
		db = db.Where("invoice_id = ?", *f.InvoiceID)
	}
	if f.Method != "" {
		db = db.Where("method = ?", f.Method)
	}
	return f.Range.Apply(db, "paid_at")
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit("Invoice").Create(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payment{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(filter.scope, paginate(filter.Page, filter.Limit)).Order("paid_at desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
