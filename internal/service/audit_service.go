package service

import (
	"context"
	"encoding/json"
	"time"

	"erp/internal/apperror"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"
)

// systemActor names entries written without an authenticated user, such as
// the bootstrap admin.
const systemActor = "System"

type AuditLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id,omitempty"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name,omitempty"`
	Details    json.RawMessage `json:"details,omitempty" swaggertype:"object"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AuditListQuery struct {
	Action     string
	EntityID   string
	UserID     string
	DateRange  string
	CustomDate string
	Page       int
	Limit      int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, query AuditListQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	now       func() time.Time
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo, now: time.Now}
}

func (s *auditService) GetAuditLogs(ctx context.Context, query AuditListQuery) ([]AuditLogResponse, int64, error) {
	userID, err := parseOptionalID("user_id", query.UserID)
	if err != nil {
		return nil, 0, err
	}
	rng, err := ListQuery{DateRange: query.DateRange, CustomDate: query.CustomDate}.resolveRange(s.now())
	if err != nil {
		return nil, 0, err
	}

	p := pagination.Normalize(query.Page, query.Limit)
	entries, total, err := s.auditRepo.List(ctx, repository.AuditFilter{
		Action:   query.Action,
		EntityID: query.EntityID,
		UserID:   userID,
		Range:    rng,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch audit logs", err)
	}

	res := make([]AuditLogResponse, len(entries))
	for i := range entries {
		res[i] = auditToResponse(&entries[i])
	}
	return res, total, nil
}

func auditToResponse(e *model.AuditLog) AuditLogResponse {
	out := AuditLogResponse{
		ID:         e.ID.String(),
		Username:   systemActor,
		Action:     e.Action,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		CreatedAt:  e.CreatedAt,
	}
	if e.UserID != nil {
		out.UserID = e.UserID.String()
	}
	if e.User != nil {
		out.Username = e.User.Username
	}
	if e.Details != "" && json.Valid([]byte(e.Details)) {
		out.Details = json.RawMessage(e.Details)
	}
	return out
}
