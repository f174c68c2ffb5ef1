package repository

import (
	"context"
	"fmt"
	"time"

	"erp/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentKind selects a numbering sequence.
type DocumentKind string

const (
	DocSalesInvoice    DocumentKind = "INV"
	DocPerformaInvoice DocumentKind = "PI"
	DocPurchase        DocumentKind = "PUR"
)

var documentColumns = map[DocumentKind]struct{ table, column string }{
	DocSalesInvoice:    {"invoices", "invoice_no"},
	DocPerformaInvoice: {"performa_invoices", "invoice_no"},
	DocPurchase:        {"purchases", "purchase_no"},
}

// DocumentNumberer allocates numbers of the form PREFIX-YYYYMMDD-NNNNN.
type DocumentNumberer interface {
	// Next must be called inside RunInTx; the allocation is serialized per
	// prefix until that transaction ends, and the unique index on the number
	// column rejects anything that slips through.
	Next(ctx context.Context, kind DocumentKind, now time.Time) (string, error)
}

type documentNumberer struct {
	db *gorm.DB
}

func NewDocumentNumberer(db *gorm.DB) DocumentNumberer {
	return &documentNumberer{db: db}
}

func (r *documentNumberer) Next(ctx context.Context, kind DocumentKind, now time.Time) (string, error) {
	target, ok := documentColumns[kind]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	prefix := DocumentPrefix(kind, now)

	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return "", fmt.Errorf("failed to lock %s sequence: %w", prefix, err)
	}

	var issued int64
	if err := db.Model(&model.DocumentSequence{}).Where("prefix = ?", prefix).
		Select("last_value").Scan(&issued).Error; err != nil {
		return "", fmt.Errorf("failed to read %s sequence: %w", prefix, err)
	}
	// Live rows seed the sequence for days numbered before it existed.
	var live int64
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(CAST(SUBSTRING(%s FROM ?) AS INTEGER)), 0) FROM %s WHERE %s LIKE ?",
		target.column, target.table, target.column,
	)
	if err := db.Raw(query, len(prefix)+1, prefix+"%").Scan(&live).Error; err != nil {
		return "", fmt.Errorf("failed to scan %s numbers: %w", prefix, err)
	}

	next := nextSequence(issued, live)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefix"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_value", "updated_at"}),
	}).Create(&model.DocumentSequence{Prefix: prefix, LastValue: next}).Error
	if err != nil {
		return "", fmt.Errorf("failed to advance %s sequence: %w", prefix, err)
	}
	return FormatDocumentNo(prefix, next), nil
}

// nextSequence is one past the highest number ever issued or still stored.
func nextSequence(issued, live int64) int64 {
	if live > issued {
		return live + 1
	}
	return issued + 1
}

// DocumentPrefix returns e.g. "INV-20240313-".
func DocumentPrefix(kind DocumentKind, now time.Time) string {
	return string(kind) + "-" + now.Format("20060102") + "-"
}

// FormatDocumentNo appends the zero-padded sequence to prefix.
func FormatDocumentNo(prefix string, seq int64) string {
	return fmt.Sprintf("%s%05d", prefix, seq)
}
