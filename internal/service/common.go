package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"erp/internal/apperror"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/daterange"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dashboard event names pushed over the websocket hub.
const (
	EventStockUpdated     = "stock_updated"
	EventInvoiceCreated   = "invoice_created"
	EventPerformaChanged  = "performa_changed"
	EventPaymentApplied   = "payment_applied"
	EventPurchaseReceived = "purchase_received"
)

// EventPublisher pushes dashboard events. Publishing must not block.
type EventPublisher interface {
	Publish(event string, data interface{})
}

// ListQuery carries the filters every list endpoint shares.
type ListQuery struct {
	Search     string
	DateRange  string // today, this_week, last_month, custom, ...
	CustomDate string // YYYY-MM-DD, only for DateRange=custom
	Page       int
	Limit      int
}

func (q ListQuery) resolveRange(now time.Time) (daterange.Range, error) {
	rng, err := daterange.Resolve(q.DateRange, q.CustomDate, now)
	if err != nil {
		return daterange.Range{}, apperror.Validation("date_range", err.Error())
	}
	return rng, nil
}

func publish(p EventPublisher, event string, data interface{}) {
	if p != nil {
		p.Publish(event, data)
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperror.Validation(field, "must be a valid UUID")
	}
	return id, nil
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339; empty input yields fallback.
// A bare day is midnight in fallback's location, the same zone daterange
// builds its boundaries in.
func parseDate(field, raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.ParseInLocation(daterange.DateLayout, raw, fallback.Location()); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperror.Validation(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

// repoError classifies a repository error for entity id.
func repoError(err error, entity, id string) error {
	var appErr *apperror.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict(fmt.Sprintf("%s already exists", entity))
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperror.Conflict(fmt.Sprintf("%s is still referenced by other records", entity))
	default:
		return apperror.Unexpected(fmt.Sprintf("%s query failed", entity), err)
	}
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, payload interface{}) error {
	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}
	entry := &model.AuditLog{
		UserID:     actorID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := repo.Log(ctx, entry); err != nil {
		return apperror.Unexpected("failed to write audit log", err)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
