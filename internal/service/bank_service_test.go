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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeBankRepo struct {
	rows []model.BankTransaction
}

func (r *fakeBankRepo) Create(ctx context.Context, tx *model.BankTransaction) error {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	r.rows = append(r.rows, *tx)
	return nil
}

func (r *fakeBankRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BankTransaction, error) {
	for i := range r.rows {
		if r.rows[i].ID == id {
			row := r.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBankRepo) matching(filter repository.BankFilter) []model.BankTransaction {
	var out []model.BankTransaction
	for _, row := range r.rows {
		if filter.AccountName != "" && row.AccountName != filter.AccountName {
			continue
		}
		if filter.Type != "" && row.Type != filter.Type {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (r *fakeBankRepo) List(ctx context.Context, filter repository.BankFilter) ([]model.BankTransaction, int64, error) {
	out := r.matching(filter)
	return out, int64(len(out)), nil
}

func (r *fakeBankRepo) Balance(ctx context.Context, filter repository.BankFilter) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, row := range r.matching(filter) {
		sum = sum.Add(row.Signed())
	}
	return sum, nil
}

func (r *fakeBankRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestBankTransactions(t *testing.T) {
	f := newFixture(t)
	bank := &fakeBankRepo{}
	svc := NewBankService(bank, &fakeAuditRepo{db: f.db}, &fakeTxManager{db: f.db})
	ctx := context.Background()

	deposit, err := svc.CreateTransaction(ctx, "", CreateBankTransactionRequest{
		AccountName: "Current", Type: "deposit", Amount: "1000", TransactionDate: "2026-10-01",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if deposit.Type != model.BankDeposit || deposit.TransactionDate != "2026-10-01" {
		t.Errorf("deposit = %+v", deposit)
	}
	if _, err := svc.CreateTransaction(ctx, "", CreateBankTransactionRequest{
		AccountName: "Current", Type: model.BankWithdrawal, Amount: "250.5",
	}); err != nil {
		t.Fatalf("withdrawal: %v", err)
	}

	list, total, err := svc.ListTransactions(ctx, BankListQuery{AccountName: "Current"})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 2 || list.Balance != "749.50" {
		t.Errorf("total = %d, balance = %s", total, list.Balance)
	}

	if err := svc.DeleteTransaction(ctx, "", deposit.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if list, _, _ := svc.ListTransactions(ctx, BankListQuery{}); list.Balance != "-250.50" {
		t.Errorf("balance after delete = %s", list.Balance)
	}
	if err := svc.DeleteTransaction(ctx, "", deposit.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete err = %v, want NotFound", err)
	}
	if n := len(f.db.audits); n != 3 {
		t.Errorf("audit entries = %d, want 3", n)
	}
}

func TestCreateBankTransactionValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewBankService(&fakeBankRepo{}, &fakeAuditRepo{db: f.db}, &fakeTxManager{db: f.db})
	base := CreateBankTransactionRequest{AccountName: "Current", Type: model.BankDeposit, Amount: "10"}

	tests := []struct {
		name   string
		mutate func(*CreateBankTransactionRequest)
		field  string
	}{
		{"blank account", func(r *CreateBankTransactionRequest) { r.AccountName = "  " }, "account_name"},
		{"unknown type", func(r *CreateBankTransactionRequest) { r.Type = "TRANSFER" }, "type"},
		{"zero amount", func(r *CreateBankTransactionRequest) { r.Amount = "0" }, "amount"},
		{"not a number", func(r *CreateBankTransactionRequest) { r.Amount = "ten" }, "amount"},
		{"bad date", func(r *CreateBankTransactionRequest) { r.TransactionDate = "01/10/2026" }, "transaction_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.CreateTransaction(context.Background(), "", req)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) || appErr.Field != tt.field {
				t.Errorf("err = %v, want validation on %s", err, tt.field)
			}
		})
	}
}
