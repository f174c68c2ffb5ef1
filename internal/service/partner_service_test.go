package service

import (
	"context"
	"errors"
	"testing"

	"erp/internal/apperror"
	"erp/internal/model"
)

func TestCreatePartnerDefaultsTypeToRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.partnerService.CreatePartner(ctx, "", RoleCustomer, CreatePartnerRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreatePartner customer: %v", err)
	}
	vendor, err := f.partnerService.CreatePartner(ctx, "", RoleVendor, CreatePartnerRequest{Name: "Supply Co"})
	if err != nil {
		t.Fatalf("CreatePartner vendor: %v", err)
	}
	if customer.Type != model.PartnerTypeCustomer || vendor.Type != model.PartnerTypeSupplier {
		t.Errorf("types = %s/%s", customer.Type, vendor.Type)
	}
	if !customer.IsActive {
		t.Error("new partner is inactive")
	}
}

func TestPartnerRolesSeparateSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.addPartner(t, "Acme", model.PartnerTypeCustomer)
	vendor := f.addPartner(t, "Supply Co", model.PartnerTypeSupplier)
	f.addPartner(t, "Both Ltd", model.PartnerTypeBoth)

	customers, total, err := f.partnerService.GetPartners(ctx, RoleCustomer, PartnerListQuery{})
	if err != nil {
		t.Fatalf("GetPartners: %v", err)
	}
	if total != 2 || customers[0].Name != "Acme" || customers[1].Name != "Both Ltd" {
		t.Errorf("customers = %+v", customers)
	}

	if _, err := f.partnerService.GetPartner(ctx, RoleCustomer, vendor.ID.String()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("vendor via customer endpoint err = %v, want NotFound", err)
	}
	if err := f.partnerService.DeletePartner(ctx, "", RoleVendor, customer.ID.String()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("delete customer via vendor endpoint err = %v, want NotFound", err)
	}
	if _, ok := f.db.partners[customer.ID]; !ok {
		t.Error("customer deleted through vendor endpoint")
	}
}

func TestCreatePartnerValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		role      PartnerRole
		req       CreatePartnerRequest
		wantField string
	}{
		{"blank name", RoleCustomer, CreatePartnerRequest{Name: "  "}, "name"},
		{"unknown type", RoleCustomer, CreatePartnerRequest{Name: "A", Type: "RETAIL"}, "type"},
		{"supplier on customer side", RoleCustomer, CreatePartnerRequest{Name: "A", Type: model.PartnerTypeSupplier}, "type"},
		{"bad email", RoleVendor, CreatePartnerRequest{Name: "A", Email: "not-an-email"}, "email"},
		{
			"bad address type", RoleCustomer,
			CreatePartnerRequest{Name: "A", Addresses: []AddressPayload{
				{AddressType: model.AddressTypeBilling, FullAddress: "1 Main St"},
				{AddressType: "HOME", FullAddress: "2 Main St"},
			}},
			"addresses[1].address_type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.partnerService.CreatePartner(context.Background(), "", tt.role, tt.req)
			var appErr *apperror.Error
			if !errors.As(err, &appErr) || appErr.Kind != apperror.KindValidation {
				t.Fatalf("err = %v, want Validation", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", appErr.Field, tt.wantField)
			}
		})
	}
	if len(f.db.partners) != 0 {
		t.Errorf("partners = %d, want 0", len(f.db.partners))
	}
}
