package service

import (
	"context"
	"errors"
	"testing"

	"erp/internal/apperror"
	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (f *fixture) addInvoice(t *testing.T, total, paid string) model.Invoice {
	t.Helper()
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	inv := model.Invoice{
		ID:            uuid.New(),
		InvoiceNo:     "INV-20240301-" + uuid.NewString()[:5],
		CustomerID:    customer.ID,
		SubTotal:      decimal.RequireFromString(total),
		Total:         decimal.RequireFromString(total),
		TotalPaid:     decimal.RequireFromString(paid),
		PaymentStatus: model.PaymentPending,
	}
	if inv.TotalPaid.IsPositive() {
		inv.PaymentStatus = model.PaymentPartial
	}
	f.db.invoices[inv.ID] = inv
	return inv
}

func TestApplyPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		name       string
		paid       string
		amount     string
		wantPaid   string
		wantStatus string
	}{
		{"partial", "0", "40", "40.00", model.PaymentPartial},
		{"settles exactly", "0", "100", "100.00", model.PaymentPaid},
		{"settles remainder", "60", "40", "100.00", model.PaymentPaid},
		{"second partial", "10", "20.50", "30.50", model.PaymentPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			inv := f.addInvoice(t, "100", tt.paid)

			res, err := f.paymentService.ApplyPayment(context.Background(), "", ApplyPaymentRequest{
				InvoiceID: inv.ID.String(),
				Amount:    tt.amount,
				Method:    "UPI",
			})
			if err != nil {
				t.Fatalf("ApplyPayment: %v", err)
			}
			if res.Invoice.TotalPaid != tt.wantPaid || res.Invoice.PaymentStatus != tt.wantStatus {
				t.Errorf("invoice = %s/%s, want %s/%s", res.Invoice.TotalPaid, res.Invoice.PaymentStatus, tt.wantPaid, tt.wantStatus)
			}
			stored := f.db.invoices[inv.ID]
			if money(stored.TotalPaid) != tt.wantPaid || stored.PaymentStatus != tt.wantStatus {
				t.Errorf("stored = %s/%s", money(stored.TotalPaid), stored.PaymentStatus)
			}
			if res.Payment == nil || res.Payment.Method != model.PaymentMethodUPI {
				t.Errorf("payment = %+v", res.Payment)
			}
			if len(f.db.payments) != 1 || f.events.count(EventPaymentApplied) != 1 {
				t.Errorf("payments = %d, events = %d", len(f.db.payments), f.events.count(EventPaymentApplied))
			}
		})
	}
}

func TestApplyPaymentRejectsOverPayment(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "100", "60")

	_, err := f.paymentService.ApplyPayment(context.Background(), "", ApplyPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    "40.01",
	})
	if !errors.Is(err, apperror.ErrOverPayment) {
		t.Fatalf("err = %v, want OverPayment", err)
	}
	stored := f.db.invoices[inv.ID]
	if money(stored.TotalPaid) != "60.00" || stored.PaymentStatus != model.PaymentPartial {
		t.Errorf("stored = %s/%s", money(stored.TotalPaid), stored.PaymentStatus)
	}
	if len(f.db.payments) != 0 {
		t.Errorf("payments = %d, want 0", len(f.db.payments))
	}
}

func TestApplyPaymentZeroAmount(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "100", "0")

	res, err := f.paymentService.ApplyPayment(context.Background(), "", ApplyPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    "0",
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if res.Payment != nil {
		t.Errorf("payment = %+v, want nil", res.Payment)
	}
	if res.Invoice.PaymentStatus != model.PaymentPending || res.Invoice.TotalPaid != "0.00" {
		t.Errorf("invoice = %s/%s", res.Invoice.TotalPaid, res.Invoice.PaymentStatus)
	}
	if len(f.db.payments) != 0 || f.events.count(EventPaymentApplied) != 0 {
		t.Errorf("zero payment left a trace")
	}
}

func TestApplyPaymentZeroAmountSettlesZeroTotal(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "0", "0")

	res, err := f.paymentService.ApplyPayment(context.Background(), "", ApplyPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    "0",
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if res.Payment != nil || len(f.db.payments) != 0 {
		t.Errorf("zero amount recorded a payment row")
	}
	if res.Invoice.PaymentStatus != model.PaymentPaid {
		t.Errorf("response status = %s, want paid", res.Invoice.PaymentStatus)
	}
	if got := f.db.invoices[inv.ID].PaymentStatus; got != model.PaymentPaid {
		t.Errorf("stored status = %s, want paid", got)
	}
}

func TestApplyPaymentValidation(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "100", "0")

	tests := []struct {
		name      string
		req       ApplyPaymentRequest
		wantField string
	}{
		{"missing amount", ApplyPaymentRequest{InvoiceID: inv.ID.String()}, "amount"},
		{"not a number", ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "ten"}, "amount"},
		{"negative", ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "-5"}, "amount"},
		{"unknown method", ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "5", Method: "barter"}, "method"},
		{"bad invoice id", ApplyPaymentRequest{InvoiceID: "nope", Amount: "5"}, "invoice_id"},
		{"bad date", ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "5", PaidAt: "03/01/2024"}, "paid_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.paymentService.ApplyPayment(context.Background(), "", tt.req)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) || appErr.Kind != apperror.KindValidation {
				t.Fatalf("err = %v, want Validation", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
	if len(f.db.payments) != 0 {
		t.Errorf("payments = %d, want 0", len(f.db.payments))
	}
}

func TestApplyPaymentUnknownInvoice(t *testing.T) {
	f := newFixture(t)
	_, err := f.paymentService.ApplyPayment(context.Background(), "", ApplyPaymentRequest{
		InvoiceID: uuid.NewString(),
		Amount:    "5",
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestApplyPaymentDuplicateReference(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "100", "0")
	req := ApplyPaymentRequest{InvoiceID: inv.ID.String(), Amount: "10", Method: "bank", Reference: "UTR-1"}

	if _, err := f.paymentService.ApplyPayment(context.Background(), "", req); err != nil {
		t.Fatalf("first ApplyPayment: %v", err)
	}
	_, err := f.paymentService.ApplyPayment(context.Background(), "", req)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	if got := money(f.db.invoices[inv.ID].TotalPaid); got != "10.00" {
		t.Errorf("total_paid = %s, want 10.00", got)
	}
}
