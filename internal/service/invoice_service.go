package service

import (
	"context"
	"time"

	"erp/internal/apperror"
	"erp/internal/billing"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required"`
	StockID         string            `json:"stock_id"`
	Items           []LineItemRequest `json:"items" binding:"required"`
	Adjustment      string            `json:"adjustment"`
	DiscountPercent string            `json:"discount_percent"`
	InvoiceDate     string            `json:"invoice_date"` // YYYY-MM-DD, defaults to today
	Note            string            `json:"note"`
}

type InvoiceListQuery struct {
	ListQuery
	PaymentStatus string
	CustomerID    string
}

type InvoiceResponse struct {
	ID                    string              `json:"id"`
	InvoiceNo             string              `json:"invoice_no"`
	CustomerID            string              `json:"customer_id"`
	CustomerName          string              `json:"customer_name"`
	CompanyName           string              `json:"company_name"`
	TaxCode               string              `json:"tax_code"`
	BillingAddress        string              `json:"billing_address"`
	StockID               *string             `json:"stock_id"`
	Items                 []LineItemResponse  `json:"items"`
	Adjustment            string              `json:"adjustment"`
	DiscountPercent       string              `json:"discount_percent"`
	SubTotal              string              `json:"sub_total"`
	GSTBreakdown          []GSTBucketResponse `json:"gst_breakdown"`
	GSTTotal              string              `json:"gst_total"`
	DiscountAmount        string              `json:"discount_amount"`
	Total                 string              `json:"total"`
	TotalPaid             string              `json:"total_paid"`
	Outstanding           string              `json:"outstanding"`
	PaymentStatus         string              `json:"payment_status"`
	ConvertedFromPerforma *string             `json:"converted_from_performa"`
	InvoiceDate           string              `json:"invoice_date"`
	Note                  string              `json:"note"`
	CreatedAt             string              `json:"created_at"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, query InvoiceListQuery) ([]InvoiceResponse, int64, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, userID string, id string) error
	PreviewTotals(ctx context.Context, req TotalsRequest) (TotalsResponse, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	partnerRepo repository.PartnerRepository
	stockRepo   repository.StockRepository
	auditRepo   repository.AuditRepository
	numberer    repository.DocumentNumberer
	guard       StockGuard
	txManager   repository.TransactionManager
	events      EventPublisher
	log         zerolog.Logger
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	partnerRepo repository.PartnerRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	numberer repository.DocumentNumberer,
	guard StockGuard,
	txManager repository.TransactionManager,
	events EventPublisher,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		partnerRepo: partnerRepo,
		stockRepo:   stockRepo,
		auditRepo:   auditRepo,
		numberer:    numberer,
		guard:       guard,
		txManager:   txManager,
		events:      events,
		log:         logger.WithComponent("invoice_service"),
	}
}

// --- Implementation ---

// CreateInvoice issues a sales invoice directly, without a draft. Stock for
// every referenced item is reserved in the same transaction.
func (s *invoiceService) CreateInvoice(ctx context.Context, userID string, req CreateInvoiceRequest) (InvoiceResponse, error) {
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	stockID, err := parseOptionalID("stock_id", req.StockID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	doc, err := parsePricedDocument(req.Items, req.Adjustment, req.DiscountPercent)
	if err != nil {
		return InvoiceResponse{}, err
	}
	now := time.Now()
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate, now)
	if err != nil {
		return InvoiceResponse{}, err
	}

	invoice := model.Invoice{
		ID:              uuid.New(),
		CustomerID:      customerID,
		StockID:         stockID,
		Items:           toInvoiceItems(doc.items),
		Adjustment:      doc.adjustment,
		DiscountPercent: doc.discountPercent,
		InvoiceDate:     invoiceDate,
		Note:            req.Note,
		CreatedBy:       actorID(userID),
	}
	applySalesTotals(&invoice, doc.totals)

	var movements []StockMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := resolveCustomer(txCtx, s.partnerRepo, customerID)
		if err != nil {
			return err
		}
		invoice.Customer = customer

		if stockID != nil {
			if _, err := s.stockRepo.FindByID(txCtx, *stockID); err != nil {
				return repoError(err, "stock", stockID.String())
			}
		}

		movements, err = s.guard.Reserve(txCtx, StockRef{Type: model.RefTypeSalesInvoice, ID: &invoice.ID}, stockLinesOf(doc.items))
		if err != nil {
			return err
		}

		invoice.InvoiceNo, err = s.numberer.Next(txCtx, repository.DocSalesInvoice, now)
		if err != nil {
			return apperror.Unexpected("failed to allocate invoice number", err)
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return repoError(err, "invoice", invoice.InvoiceNo)
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateInvoice, invoice.ID.String(), invoice.InvoiceNo, req)
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.log.Info().Str("invoice_no", invoice.InvoiceNo).Str("total", money(invoice.Total)).Msg("sales invoice created")
	resp := toInvoiceResponse(invoice)
	publish(s.events, EventInvoiceCreated, resp)
	publishMovements(s.events, movements)
	return resp, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, query InvoiceListQuery) ([]InvoiceResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	customerID, err := parseOptionalID("customer_id", query.CustomerID)
	if err != nil {
		return nil, 0, err
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		PaymentStatus: query.PaymentStatus,
		CustomerID:    customerID,
		Search:        query.Search,
		Range:         rng,
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch invoices", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toInvoiceResponse(inv))
	}
	return result, total, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, repoError(err, "invoice", id)
	}
	return toInvoiceResponse(*invoice), nil
}

// DeleteInvoice removes an unpaid invoice. Reserved stock is not returned.
func (s *invoiceService) DeleteInvoice(ctx context.Context, userID string, id string) error {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(txCtx, invoiceID)
		if err != nil {
			return repoError(err, "invoice", id)
		}
		if invoice.TotalPaid.IsPositive() {
			return apperror.Conflict("cannot delete an invoice with recorded payments")
		}
		if err := s.invoiceRepo.Delete(txCtx, invoiceID); err != nil {
			return repoError(err, "invoice", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteInvoice, id, invoice.InvoiceNo, nil)
	})
}

func (s *invoiceService) PreviewTotals(ctx context.Context, req TotalsRequest) (TotalsResponse, error) {
	return PreviewTotals(req)
}

// --- Helpers ---

// resolveCustomer loads a partner that may be billed.
func resolveCustomer(ctx context.Context, repo repository.PartnerRepository, id uuid.UUID) (*model.Partner, error) {
	partner, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "customer", id.String())
	}
	if !partner.IsCustomer() {
		return nil, apperror.Validation("customer_id", "partner is not a customer")
	}
	return partner, nil
}

func applySalesTotals(inv *model.Invoice, t billing.Totals) {
	inv.SubTotal = t.SubTotal
	inv.GSTTotal = t.GSTTotal
	inv.DiscountAmount = t.DiscountAmount
	inv.Total = t.GrandTotal
	inv.PaymentStatus = model.PaymentPending
}

func toInvoiceItems(items []model.LineItem) []model.InvoiceItem {
	out := make([]model.InvoiceItem, 0, len(items))
	for _, it := range items {
		it.Refresh()
		out = append(out, model.InvoiceItem{LineItem: it})
	}
	return out
}

func publishMovements(events EventPublisher, movements []StockMovement) {
	for _, m := range movements {
		publish(events, EventStockUpdated, m)
	}
}

// --- Mapping ---

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	items := model.InvoiceLineItems(inv.Items)
	totals := billing.Compute(model.BillingLines(items), inv.Adjustment, inv.DiscountPercent)

	resp := InvoiceResponse{
		ID:                    inv.ID.String(),
		InvoiceNo:             inv.InvoiceNo,
		CustomerID:            inv.CustomerID.String(),
		StockID:               idString(inv.StockID),
		Items:                 toLineItemResponses(items),
		Adjustment:            money(inv.Adjustment),
		DiscountPercent:       money(inv.DiscountPercent),
		SubTotal:              money(inv.SubTotal),
		GSTBreakdown:          toGSTBreakdown(totals.GSTBreakdown),
		GSTTotal:              money(inv.GSTTotal),
		DiscountAmount:        money(inv.DiscountAmount),
		Total:                 money(inv.Total),
		TotalPaid:             money(inv.TotalPaid),
		Outstanding:           money(inv.Outstanding()),
		PaymentStatus:         inv.PaymentStatus,
		ConvertedFromPerforma: idString(inv.ConvertedFromPerforma),
		InvoiceDate:           inv.InvoiceDate.Format("2006-01-02"),
		Note:                  inv.Note,
		CreatedAt:             inv.CreatedAt.Format(time.RFC3339),
	}
	if inv.Customer != nil {
		resp.CustomerName = inv.Customer.Name
		resp.CompanyName = inv.Customer.CompanyName
		resp.TaxCode = inv.Customer.TaxCode
		resp.BillingAddress = inv.Customer.BillingAddress()
	}
	return resp
}
