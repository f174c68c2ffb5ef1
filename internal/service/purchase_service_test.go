package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"erp/internal/apperror"
	"erp/internal/model"
)

func TestCreatePurchaseReceivesStock(t *testing.T) {
	f := newFixture(t)
	vendor := f.addPartner(t, "Supply Co", model.PartnerTypeSupplier)
	stock := f.addStock(t, "Widget", 2)

	resp, err := f.purchaseService.CreatePurchase(context.Background(), "", CreatePurchaseRequest{
		VendorID: vendor.ID.String(),
		Items:    []LineItemRequest{{Name: "Widget", Quantity: 8, UnitPrice: "60", GSTRate: "12", StockID: stock.ID.String()}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if f.quantity(stock.ID) != 10 {
		t.Errorf("stock = %d, want 10", f.quantity(stock.ID))
	}
	if resp.Total != "537.60" || resp.VendorName != "Supply Co" {
		t.Errorf("purchase = %+v", resp)
	}
	if !strings.HasPrefix(resp.PurchaseNo, "PUR-") {
		t.Errorf("purchase_no = %q", resp.PurchaseNo)
	}
	if len(f.db.ledger) != 1 || f.db.ledger[0].ReferenceType != model.RefTypePurchase || f.db.ledger[0].StockAfter != 10 {
		t.Errorf("ledger = %+v", f.db.ledger)
	}
	if f.events.count(EventPurchaseReceived) != 1 || f.events.count(EventStockUpdated) != 1 {
		t.Errorf("events = %+v", f.events.events)
	}
}

func TestCreatePurchaseRejects(t *testing.T) {
	f := newFixture(t)
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	vendor := f.addPartner(t, "Supply Co", model.PartnerTypeBoth)
	stock := f.addStock(t, "Widget", 2)

	tests := []struct {
		name    string
		req     CreatePurchaseRequest
		wantErr error
	}{
		{
			name: "customer as vendor",
			req: CreatePurchaseRequest{VendorID: customer.ID.String(),
				Items: []LineItemRequest{{Name: "Widget", Quantity: 1, UnitPrice: "1", StockID: stock.ID.String()}}},
			wantErr: apperror.ErrValidation,
		},
		{
			name: "line without stock",
			req: CreatePurchaseRequest{VendorID: vendor.ID.String(),
				Items: []LineItemRequest{{Name: "Freight", Quantity: 1, UnitPrice: "1"}}},
			wantErr: apperror.ErrValidation,
		},
		{
			name: "unknown stock",
			req: CreatePurchaseRequest{VendorID: vendor.ID.String(),
				Items: []LineItemRequest{{Name: "Ghost", Quantity: 1, UnitPrice: "1", StockID: "6f1c1f56-7d6c-4b9e-8d5a-0c2e5d9f1a11"}}},
			wantErr: apperror.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.purchaseService.CreatePurchase(context.Background(), "", tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if f.quantity(stock.ID) != 2 || len(f.db.purchases) != 0 {
		t.Errorf("stock = %d, purchases = %d", f.quantity(stock.ID), len(f.db.purchases))
	}
}
