package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"erp/internal/apperror"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeExpenseRepo struct {
	rows map[uuid.UUID]model.Expense
}

func (r *fakeExpenseRepo) Create(ctx context.Context, e *model.Expense) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.rows[e.ID] = *e
	return nil
}

func (r *fakeExpenseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	e, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *fakeExpenseRepo) List(ctx context.Context, filter repository.ExpenseFilter) ([]model.Expense, int64, error) {
	var out []model.Expense
	for _, e := range r.rows {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeExpenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.rows, id)
	return nil
}

func newExpenseFixture(t *testing.T) (*fixture, ExpenseService) {
	t.Helper()
	f := newFixture(t)
	svc := NewExpenseService(&fakeExpenseRepo{rows: map[uuid.UUID]model.Expense{}},
		&fakePartnerRepo{db: f.db}, &fakeAuditRepo{db: f.db}, f.tx)
	return f, svc
}

func TestCreateExpense(t *testing.T) {
	f, svc := newExpenseFixture(t)
	ctx := context.Background()
	vendor := f.addPartner(t, "Power Co", model.PartnerTypeSupplier)

	got, err := svc.CreateExpense(ctx, "", CreateExpenseRequest{
		Category: " Utilities ", Amount: "1000", GSTAmount: "180", VendorID: vendor.ID.String(),
		PaymentMode: "UPI", ExpenseDate: "2026-10-05",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if got.Category != "Utilities" || got.Total != "1180.00" || got.PaymentMode != model.PaymentModeUPI {
		t.Errorf("expense = %+v", got)
	}
	if got.VendorName != "Power Co" || got.ExpenseDate != "2026-10-05" {
		t.Errorf("vendor/date = %q %q", got.VendorName, got.ExpenseDate)
	}

	list, total, err := svc.GetExpenses(ctx, ExpenseListQuery{Category: "Utilities"})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("GetExpenses = %d, %v", total, err)
	}
	if err := svc.DeleteExpense(ctx, "", got.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := svc.DeleteExpense(ctx, "", got.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete err = %v, want NotFound", err)
	}
}

func TestCreateExpenseRejects(t *testing.T) {
	f, svc := newExpenseFixture(t)
	customer := f.addPartner(t, "Shopper", model.PartnerTypeCustomer)
	base := CreateExpenseRequest{Category: "Rent", Amount: "500"}

	tests := []struct {
		name   string
		mutate func(*CreateExpenseRequest)
		want   error
	}{
		{"negative gst", func(r *CreateExpenseRequest) { r.GSTAmount = "-1" }, apperror.ErrValidation},
		{"zero amount", func(r *CreateExpenseRequest) { r.Amount = "0" }, apperror.ErrValidation},
		{"unknown mode", func(r *CreateExpenseRequest) { r.PaymentMode = "barter" }, apperror.ErrValidation},
		{"customer as vendor", func(r *CreateExpenseRequest) { r.VendorID = customer.ID.String() }, apperror.ErrValidation},
		{"missing vendor", func(r *CreateExpenseRequest) { r.VendorID = uuid.NewString() }, apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			if _, err := svc.CreateExpense(context.Background(), "", req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(f.db.audits) != 0 {
		t.Errorf("rejected expenses wrote %d audit entries", len(f.db.audits))
	}
}
