package repository

import (
	"context"

	"erp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerFilter narrows partner listings. Types is OR-ed.
type PartnerFilter struct {
	Types    []string
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

func (f PartnerFilter) scope(db *gorm.DB) *gorm.DB {
	if len(f.Types) > 0 {
		db = db.Where("type IN ?", f.Types)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		db = db.Where("name ILIKE ? OR company_name ILIKE ? OR phone ILIKE ? OR email ILIKE ? OR tax_code ILIKE ?",
			like, like, like, like, like)
	}
	return db
}

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	Update(ctx context.Context, partner *model.Partner) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	List(ctx context.Context, filter PartnerFilter) ([]model.Partner, int64, error)
	ReplaceAddresses(ctx context.Context, partnerID uuid.UUID, addresses []model.PartnerAddress) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Create(partner).Error
}

// Update saves scalar columns only; addresses go through ReplaceAddresses.
func (r *partnerRepository) Update(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Omit("Addresses").Save(partner).Error
}

func (r *partnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Partner{}).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).Preload("Addresses").First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) List(ctx context.Context, filter PartnerFilter) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Partner{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Model(&model.Partner{}).Preload("Addresses").Scopes(filter.scope, paginate(filter.Page, filter.Limit)).
		Order("created_at DESC").Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}

func (r *partnerRepository) ReplaceAddresses(ctx context.Context, partnerID uuid.UUID, addresses []model.PartnerAddress) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("partner_id = ?", partnerID).Delete(&model.PartnerAddress{}).Error; err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		addresses[i].PartnerID = partnerID
	}
	return db.Create(&addresses).Error
}
