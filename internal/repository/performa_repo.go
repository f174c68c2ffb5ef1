package repository

import (
	"context"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerformaFilter narrows draft listings.
type PerformaFilter struct {
	Status     string
	CustomerID *uuid.UUID
	Search     string
	Range      daterange.Range
	Page       int
	Limit      int
}

func (f PerformaFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("performa_status = ?", f.Status)
	}
	if f.CustomerID != nil {
		db = db.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Search != "" {
		db = db.Where("invoice_no ILIKE ?", "%"+f.Search+"%")
	}
	return f.Range.Apply(db, "invoice_date")
}

type PerformaRepository interface {
	Create(ctx context.Context, performa *model.PerformaInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error)
	// FindByIDForUpdate locks the draft row and loads its items.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error)
	List(ctx context.Context, filter PerformaFilter) ([]model.PerformaInvoice, int64, error)
	// Update rewrites the header and replaces every item.
	Update(ctx context.Context, performa *model.PerformaInvoice) error
	// CompareAndSetStatus moves the draft from one status to another and
	// returns 0 when the stored status no longer equals from.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to string, convertedInvoiceID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type performaRepository struct {
	db *gorm.DB
}

func NewPerformaRepository(db *gorm.DB) PerformaRepository {
	return &performaRepository{db: db}
}

func (r *performaRepository) Create(ctx context.Context, performa *model.PerformaInvoice) error {
	return GetDB(ctx, r.db).Omit("Customer").Create(performa).Error
}

func (r *performaRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error) {
	var performa model.PerformaInvoice
	if err := GetDB(ctx, r.db).Preload("Items", itemsInOrder).Preload("Customer").First(&performa, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &performa, nil
}

func (r *performaRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PerformaInvoice, error) {
	var performa model.PerformaInvoice
	db := GetDB(ctx, r.db)
	if err := forUpdate(db).Where("id = ?", id).First(&performa).Error; err != nil {
		return nil, err
	}
	if err := db.Where("performa_invoice_id = ?", id).Scopes(itemsInOrder).Find(&performa.Items).Error; err != nil {
		return nil, err
	}
	return &performa, nil
}

func (r *performaRepository) List(ctx context.Context, filter PerformaFilter) ([]model.PerformaInvoice, int64, error) {
	var drafts []model.PerformaInvoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.PerformaInvoice{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Items", itemsInOrder).Preload("Customer").Scopes(filter.scope, paginate(filter.Page, filter.Limit)).
		Order("invoice_date desc, created_at desc").Find(&drafts).Error; err != nil {
		return nil, 0, err
	}

	return drafts, total, nil
}

func (r *performaRepository) Update(ctx context.Context, performa *model.PerformaInvoice) error {
	db := GetDB(ctx, r.db)
	if err := db.Omit("Items", "Customer").Save(performa).Error; err != nil {
		return err
	}
	if err := db.Where("performa_invoice_id = ?", performa.ID).Delete(&model.PerformaItem{}).Error; err != nil {
		return err
	}
	if len(performa.Items) == 0 {
		return nil
	}
	for i := range performa.Items {
		performa.Items[i].ID = uuid.Nil
		performa.Items[i].PerformaInvoiceID = performa.ID
	}
	return db.Create(&performa.Items).Error
}

func (r *performaRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to string, convertedInvoiceID *uuid.UUID) (int64, error) {
	updates := map[string]interface{}{"performa_status": to}
	if convertedInvoiceID != nil {
		updates["converted_invoice_id"] = *convertedInvoiceID
	}
	res := GetDB(ctx, r.db).Model(&model.PerformaInvoice{}).
		Where("id = ? AND performa_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *performaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("performa_invoice_id = ?", id).Delete(&model.PerformaItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.PerformaInvoice{}).Error
}
