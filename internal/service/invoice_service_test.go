package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"erp/internal/apperror"
	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCreateInvoiceReservesStock(t *testing.T) {
	f := newFixture(t)
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	stock := f.addStock(t, "Widget", 10)

	inv, err := f.invoiceService.CreateInvoice(context.Background(), "", CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Items: []LineItemRequest{
			{Name: "Widget", Quantity: 4, UnitPrice: "100", GSTRate: "18", StockID: stock.ID.String()},
			{Name: "Installation", Quantity: 1, UnitPrice: "50"},
		},
		Adjustment: "-0.50",
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if f.quantity(stock.ID) != 6 {
		t.Errorf("stock = %d, want 6", f.quantity(stock.ID))
	}
	// 450 + 72 - 0.50
	if inv.Total != "521.50" || inv.Outstanding != "521.50" {
		t.Errorf("total/outstanding = %s/%s", inv.Total, inv.Outstanding)
	}
	if !strings.HasPrefix(inv.InvoiceNo, "INV-") {
		t.Errorf("invoice_no = %q", inv.InvoiceNo)
	}
	if inv.CustomerName != "Acme" || inv.PaymentStatus != model.PaymentPending {
		t.Errorf("invoice = %+v", inv)
	}
	if len(f.db.ledger) != 1 || f.db.ledger[0].ReferenceType != model.RefTypeSalesInvoice {
		t.Errorf("ledger = %+v", f.db.ledger)
	}
}

func TestCreateInvoiceInsufficientStock(t *testing.T) {
	f := newFixture(t)
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	plenty := f.addStock(t, "Plenty", 10)
	scarce := f.addStock(t, "Scarce", 1)

	_, err := f.invoiceService.CreateInvoice(context.Background(), "", CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Items: []LineItemRequest{
			{Name: "Plenty", Quantity: 2, UnitPrice: "10", StockID: plenty.ID.String()},
			{Name: "Scarce", Quantity: 2, UnitPrice: "10", StockID: scarce.ID.String()},
		},
	})
	if !errors.Is(err, apperror.ErrInsufficientStock) {
		t.Fatalf("err = %v, want InsufficientStock", err)
	}
	if f.quantity(plenty.ID) != 10 || f.quantity(scarce.ID) != 1 {
		t.Errorf("stock changed: plenty=%d scarce=%d", f.quantity(plenty.ID), f.quantity(scarce.ID))
	}
	if len(f.db.invoices) != 0 || len(f.db.ledger) != 0 {
		t.Errorf("invoices=%d ledger=%d, want none", len(f.db.invoices), len(f.db.ledger))
	}
}

func TestCreateInvoiceRejectsVendor(t *testing.T) {
	f := newFixture(t)
	vendor := f.addPartner(t, "Supply Co", model.PartnerTypeSupplier)

	_, err := f.invoiceService.CreateInvoice(context.Background(), "", CreateInvoiceRequest{
		CustomerID: vendor.ID.String(),
		Items:      []LineItemRequest{{Name: "A", Quantity: 1, UnitPrice: "1"}},
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	stock := f.addStock(t, "Widget", 10)

	inv, err := f.invoiceService.CreateInvoice(ctx, "", CreateInvoiceRequest{
		CustomerID: customer.ID.String(),
		Items:      []LineItemRequest{{Name: "Widget", Quantity: 3, UnitPrice: "10", StockID: stock.ID.String()}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if err := f.invoiceService.DeleteInvoice(ctx, "", inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if len(f.db.invoices) != 0 {
		t.Errorf("invoices = %d, want 0", len(f.db.invoices))
	}
	// Deleting does not return reserved stock.
	if f.quantity(stock.ID) != 7 {
		t.Errorf("stock = %d, want 7", f.quantity(stock.ID))
	}
}

func TestDeleteInvoiceWithPayments(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "100", "0")
	stored := f.db.invoices[inv.ID]
	stored.TotalPaid = decimal.NewFromInt(1)
	f.db.invoices[inv.ID] = stored

	err := f.invoiceService.DeleteInvoice(context.Background(), "", inv.ID.String())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	if _, ok := f.db.invoices[inv.ID]; !ok {
		t.Error("invoice with payments was deleted")
	}
}

func TestGetInvoiceNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.invoiceService.GetInvoice(context.Background(), uuid.NewString()); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if _, err := f.invoiceService.GetInvoice(context.Background(), "42"); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("err = %v, want Validation", err)
	}
}
