package repository

import (
	"context"

	"erp/internal/model"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows audit log listings. Zero fields match everything.
type AuditFilter struct {
	Action   string
	EntityID string
	UserID   *uuid.UUID
	Range    daterange.Range
	Page     int
	Limit    int
}

func (f AuditFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Action != "" {
		db = db.Where("action = ?", f.Action)
	}
	if f.EntityID != "" {
		db = db.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	return f.Range.Apply(db, "audit_logs.created_at")
}

// AuditRepository is append-only: entries are never updated or removed.
type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log joins the caller's transaction when there is one, so an entry is
// committed or rolled back with the change it records.
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	var (
		entries []model.AuditLog
		total   int64
	)
	q := GetDB(ctx, r.db).Model(&model.AuditLog{}).Scopes(filter.scope)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return entries, 0, nil
	}

	err := q.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped().Select("id", "username")
	}).Scopes(paginate(filter.Page, filter.Limit)).
		Order("audit_logs.created_at desc").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
