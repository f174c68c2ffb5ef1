package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"erp/internal/apperror"
	"erp/internal/model"

	"github.com/google/uuid"
)

func TestGetAuditLogs(t *testing.T) {
	db := newFixture(t).db
	repo := &fakeAuditRepo{db: db}
	svc := NewAuditService(repo)
	ctx := context.Background()

	actor := uuid.New()
	actorName := "maria"
	db.audits = append(db.audits,
		model.AuditLog{ID: uuid.New(), UserID: &actor, User: &model.User{ID: actor, Username: actorName},
			Action: model.ActionConvertPerforma, EntityID: "PI-1", Details: `{"invoice_no":"INV-1"}`, CreatedAt: time.Now()},
		model.AuditLog{ID: uuid.New(), Action: model.ActionCreateUser, EntityID: "u-1", Details: "not json", CreatedAt: time.Now()},
	)

	all, total, err := svc.GetAuditLogs(ctx, AuditListQuery{})
	if err != nil {
		t.Fatalf("GetAuditLogs: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(all))
	}
	if all[0].Username != actorName || string(all[0].Details) != `{"invoice_no":"INV-1"}` {
		t.Errorf("first entry = %+v", all[0])
	}
	if all[1].Username != systemActor || all[1].UserID != "" || all[1].Details != nil {
		t.Errorf("system entry = %+v", all[1])
	}

	mine, total, err := svc.GetAuditLogs(ctx, AuditListQuery{UserID: actor.String()})
	if err != nil || total != 1 || mine[0].Action != model.ActionConvertPerforma {
		t.Errorf("user filter = %+v, %d, %v", mine, total, err)
	}
}

func TestGetAuditLogsRejectsBadFilters(t *testing.T) {
	svc := NewAuditService(&fakeAuditRepo{db: newFixture(t).db})
	tests := []struct {
		name  string
		query AuditListQuery
		field string
	}{
		{"user id", AuditListQuery{UserID: "nope"}, "user_id"},
		{"date range", AuditListQuery{DateRange: "fortnight"}, "date_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.GetAuditLogs(context.Background(), tt.query)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) || appErr.Field != tt.field {
				t.Errorf("err = %v, want validation on %s", err, tt.field)
			}
		})
	}
}
