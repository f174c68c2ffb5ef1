package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"erp/internal/apperror"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PartnerRole selects which side of the business a partner endpoint serves.
type PartnerRole string

const (
	RoleCustomer PartnerRole = "customer"
	RoleVendor   PartnerRole = "vendor"
)

// types lists the partner types visible under the role.
func (r PartnerRole) types() []string {
	switch r {
	case RoleCustomer:
		return []string{model.PartnerTypeCustomer, model.PartnerTypeBoth}
	case RoleVendor:
		return []string{model.PartnerTypeSupplier, model.PartnerTypeBoth}
	}
	return nil
}

func (r PartnerRole) defaultType() string {
	if r == RoleVendor {
		return model.PartnerTypeSupplier
	}
	return model.PartnerTypeCustomer
}

func (r PartnerRole) entity() string {
	if r == RoleVendor {
		return "vendor"
	}
	return "customer"
}

func (r PartnerRole) accepts(p model.Partner) bool {
	switch r {
	case RoleCustomer:
		return p.IsCustomer()
	case RoleVendor:
		return p.IsVendor()
	}
	return true
}

// --- Address DTO ---

type AddressPayload struct {
	AddressType string `json:"address_type"`
	FullAddress string `json:"full_address"`
	IsDefault   bool   `json:"is_default"`
}

type AddressResponse struct {
	ID          uuid.UUID `json:"id"`
	PartnerID   uuid.UUID `json:"partner_id"`
	AddressType string    `json:"address_type"`
	FullAddress string    `json:"full_address"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Partner DTOs ---

type CreatePartnerRequest struct {
	Name          string           `json:"name" binding:"required"`
	Type          string           `json:"type"` // defaults to the endpoint's side
	TaxCode       string           `json:"tax_code"`
	CompanyName   string           `json:"company_name"`
	BankAccount   string           `json:"bank_account"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email"`
	Addresses     []AddressPayload `json:"addresses"`
}

type UpdatePartnerRequest struct {
	Name          *string           `json:"name"`
	Type          *string           `json:"type"`
	TaxCode       *string           `json:"tax_code"`
	CompanyName   *string           `json:"company_name"`
	BankAccount   *string           `json:"bank_account"`
	ContactPerson *string           `json:"contact_person"`
	Phone         *string           `json:"phone"`
	Email         *string           `json:"email"`
	IsActive      *bool             `json:"is_active"`
	Addresses     *[]AddressPayload `json:"addresses"` // pointer so nil = not sent, [] = clear all
}

type PartnerListQuery struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

type PartnerResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	TaxCode       string            `json:"tax_code"`
	CompanyName   string            `json:"company_name"`
	BankAccount   string            `json:"bank_account"`
	ContactPerson string            `json:"contact_person"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	IsActive      bool              `json:"is_active"`
	Addresses     []AddressResponse `json:"addresses"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Interface ---

type PartnerService interface {
	CreatePartner(ctx context.Context, userID string, role PartnerRole, req CreatePartnerRequest) (PartnerResponse, error)
	UpdatePartner(ctx context.Context, userID string, role PartnerRole, id string, req UpdatePartnerRequest) (PartnerResponse, error)
	DeletePartner(ctx context.Context, userID string, role PartnerRole, id string) error
	GetPartner(ctx context.Context, role PartnerRole, id string) (PartnerResponse, error)
	GetPartners(ctx context.Context, role PartnerRole, query PartnerListQuery) ([]PartnerResponse, int64, error)
}

// --- Implementation ---

type partnerService struct {
	partnerRepo repository.PartnerRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	log         zerolog.Logger
}

func NewPartnerService(partnerRepo repository.PartnerRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) PartnerService {
	return &partnerService{
		partnerRepo: partnerRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		log:         logger.WithComponent("partner_service"),
	}
}

// --- Validation helpers ---

var validPartnerTypes = map[string]bool{
	model.PartnerTypeCustomer: true,
	model.PartnerTypeSupplier: true,
	model.PartnerTypeBoth:     true,
}

var validAddressTypes = map[string]bool{
	model.AddressTypeBilling:  true,
	model.AddressTypeShipping: true,
	model.AddressTypeOrigin:   true,
}

func validateAddresses(addresses []AddressPayload) error {
	for i, addr := range addresses {
		if !validAddressTypes[addr.AddressType] {
			return apperror.Validation(fmt.Sprintf("addresses[%d].address_type", i), "must be one of: BILLING, SHIPPING, ORIGIN")
		}
		if strings.TrimSpace(addr.FullAddress) == "" {
			return apperror.Validation(fmt.Sprintf("addresses[%d].full_address", i), "is required")
		}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.Validation("email", "invalid email format")
	}
	return nil
}

func toAddressModels(partnerID uuid.UUID, payloads []AddressPayload) []model.PartnerAddress {
	addresses := make([]model.PartnerAddress, 0, len(payloads))
	for _, p := range payloads {
		addresses = append(addresses, model.PartnerAddress{
			PartnerID:   partnerID,
			AddressType: p.AddressType,
			FullAddress: p.FullAddress,
			IsDefault:   p.IsDefault,
		})
	}
	return addresses
}

// checkType validates t and makes sure the partner stays visible under role.
func checkType(role PartnerRole, t string) error {
	if !validPartnerTypes[t] {
		return apperror.Validation("type", "must be one of: CUSTOMER, SUPPLIER, BOTH")
	}
	if !role.accepts(model.Partner{Type: t}) {
		return apperror.Validation("type", fmt.Sprintf("%s is not a valid %s type", t, role.entity()))
	}
	return nil
}

// --- CRUD ---

func (s *partnerService) CreatePartner(ctx context.Context, userID string, role PartnerRole, req CreatePartnerRequest) (PartnerResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return PartnerResponse{}, apperror.Validation("name", "is required")
	}
	if req.Type == "" {
		req.Type = role.defaultType()
	}
	if err := checkType(role, req.Type); err != nil {
		return PartnerResponse{}, err
	}
	if err := validateEmail(req.Email); err != nil {
		return PartnerResponse{}, err
	}
	if err := validateAddresses(req.Addresses); err != nil {
		return PartnerResponse{}, err
	}

	partner := &model.Partner{
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		CompanyName:   req.CompanyName,
		BankAccount:   req.BankAccount,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     toAddressModels(uuid.Nil, req.Addresses), // GORM fills PartnerID on cascade create
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Create(txCtx, partner); err != nil {
			return repoError(err, role.entity(), "")
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreatePartner, partner.ID.String(), partner.Name, req)
	})
	if err != nil {
		return PartnerResponse{}, err
	}
	return toPartnerResponse(*partner), nil
}

// load fetches a partner and hides it when it belongs to the other side.
func (s *partnerService) load(ctx context.Context, role PartnerRole, id string) (*model.Partner, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, repoError(err, role.entity(), id)
	}
	if !role.accepts(*partner) {
		return nil, apperror.NotFound(role.entity(), id)
	}
	return partner, nil
}

func (s *partnerService) GetPartner(ctx context.Context, role PartnerRole, id string) (PartnerResponse, error) {
	partner, err := s.load(ctx, role, id)
	if err != nil {
		return PartnerResponse{}, err
	}
	return toPartnerResponse(*partner), nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, userID string, role PartnerRole, id string, req UpdatePartnerRequest) (PartnerResponse, error) {
	var partner *model.Partner
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		partner, err = s.load(txCtx, role, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return apperror.Validation("name", "cannot be empty")
			}
			partner.Name = *req.Name
		}
		if req.Type != nil {
			if err := checkType(role, *req.Type); err != nil {
				return err
			}
			partner.Type = *req.Type
		}
		if req.Email != nil {
			if err := validateEmail(*req.Email); err != nil {
				return err
			}
			partner.Email = *req.Email
		}
		if req.TaxCode != nil {
			partner.TaxCode = *req.TaxCode
		}
		if req.CompanyName != nil {
			partner.CompanyName = *req.CompanyName
		}
		if req.BankAccount != nil {
			partner.BankAccount = *req.BankAccount
		}
		if req.ContactPerson != nil {
			partner.ContactPerson = *req.ContactPerson
		}
		if req.Phone != nil {
			partner.Phone = *req.Phone
		}
		if req.IsActive != nil {
			partner.IsActive = *req.IsActive
		}
		if req.Addresses != nil {
			if err := validateAddresses(*req.Addresses); err != nil {
				return err
			}
		}

		if err := s.partnerRepo.Update(txCtx, partner); err != nil {
			return repoError(err, role.entity(), id)
		}

		// Replace addresses if provided (delete-all + re-create strategy)
		if req.Addresses != nil {
			addrs := toAddressModels(partner.ID, *req.Addresses)
			if err := s.partnerRepo.ReplaceAddresses(txCtx, partner.ID, addrs); err != nil {
				return apperror.Unexpected("failed to replace addresses", err)
			}
			partner.Addresses = addrs
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdatePartner, id, partner.Name, req)
	})
	if err != nil {
		return PartnerResponse{}, err
	}
	return toPartnerResponse(*partner), nil
}

// DeletePartner soft-deletes; documents keep pointing at the row.
func (s *partnerService) DeletePartner(ctx context.Context, userID string, role PartnerRole, id string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		partner, err := s.load(txCtx, role, id)
		if err != nil {
			return err
		}
		if err := s.partnerRepo.Delete(txCtx, partner.ID); err != nil {
			return repoError(err, role.entity(), id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeletePartner, id, partner.Name, nil)
	})
}

func (s *partnerService) GetPartners(ctx context.Context, role PartnerRole, query PartnerListQuery) ([]PartnerResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	partners, total, err := s.partnerRepo.List(ctx, repository.PartnerFilter{
		Types:    role.types(),
		Search:   query.Search,
		IsActive: query.IsActive,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected(fmt.Sprintf("failed to fetch %ss", role.entity()), err)
	}

	res := make([]PartnerResponse, 0, len(partners))
	for _, pt := range partners {
		res = append(res, toPartnerResponse(pt))
	}
	return res, total, nil
}

// --- Response mappers ---

func toPartnerResponse(p model.Partner) PartnerResponse {
	addresses := make([]AddressResponse, 0, len(p.Addresses))
	for _, a := range p.Addresses {
		addresses = append(addresses, AddressResponse{
			ID:          a.ID,
			PartnerID:   a.PartnerID,
			AddressType: a.AddressType,
			FullAddress: a.FullAddress,
			IsDefault:   a.IsDefault,
			CreatedAt:   a.CreatedAt,
			UpdatedAt:   a.UpdatedAt,
		})
	}

	return PartnerResponse{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		TaxCode:       p.TaxCode,
		CompanyName:   p.CompanyName,
		BankAccount:   p.BankAccount,
		ContactPerson: p.ContactPerson,
		Phone:         p.Phone,
		Email:         p.Email,
		IsActive:      p.IsActive,
		Addresses:     addresses,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
