package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner types. BOTH shows up under customers and vendors alike.
const (
	PartnerTypeCustomer = "CUSTOMER"
	PartnerTypeSupplier = "SUPPLIER"
	PartnerTypeBoth     = "BOTH"
)

// Address kinds. Invoices print the default BILLING address.
const (
	AddressTypeBilling  = "BILLING"
	AddressTypeShipping = "SHIPPING"
	AddressTypeOrigin   = "ORIGIN"
)

// Partner is a counterparty: a customer billed on sales documents, a vendor
// on purchases and expenses, or both.
type Partner struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string           `gorm:"type:varchar(255);not null" json:"name"`
	Type          string           `gorm:"type:varchar(20);not null;index" json:"type"` // CUSTOMER, SUPPLIER, BOTH
	TaxCode       string           `gorm:"type:varchar(50)" json:"tax_code"`            // GSTIN
	CompanyName   string           `gorm:"type:varchar(255)" json:"company_name"`
	BankAccount   string           `gorm:"type:varchar(100)" json:"bank_account"`
	ContactPerson string           `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string           `gorm:"type:varchar(50)" json:"phone"`
	Email         string           `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	Addresses     []PartnerAddress `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// IsCustomer reports whether the partner may be billed on a sales document.
func (p Partner) IsCustomer() bool {
	return p.Type == PartnerTypeCustomer || p.Type == PartnerTypeBoth
}

// IsVendor reports whether the partner may appear on a purchase or expense.
func (p Partner) IsVendor() bool {
	return p.Type == PartnerTypeSupplier || p.Type == PartnerTypeBoth
}

// BillingAddress is the address printed on sales documents.
func (p Partner) BillingAddress() string {
	return p.DefaultAddress(AddressTypeBilling)
}

// DefaultAddress returns the address of the given kind flagged as default,
// else the first of that kind, else "".
func (p Partner) DefaultAddress(kind string) string {
	var fallback *PartnerAddress
	for i := range p.Addresses {
		addr := &p.Addresses[i]
		switch {
		case addr.AddressType != kind:
		case addr.IsDefault:
			return addr.FullAddress
		case fallback == nil:
			fallback = addr
		}
	}
	if fallback == nil {
		return ""
	}
	return fallback.FullAddress
}

// PartnerAddress belongs to exactly one partner and is replaced wholesale on update.
type PartnerAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PartnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"partner_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // BILLING, SHIPPING, ORIGIN
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
