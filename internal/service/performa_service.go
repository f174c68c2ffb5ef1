package service

import (
	"context"
	"errors"
	"time"

	"erp/internal/apperror"
	"erp/internal/billing"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type PerformaRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required"`
	StockID         string            `json:"stock_id"`
	Items           []LineItemRequest `json:"items" binding:"required"`
	Adjustment      string            `json:"adjustment"`
	DiscountPercent string            `json:"discount_percent"`
	InvoiceDate     string            `json:"invoice_date"`
	ValidUntil      string            `json:"valid_until"`
	Note            string            `json:"note"`
}

type PerformaListQuery struct {
	ListQuery
	Status     string
	CustomerID string
}

type PerformaResponse struct {
	ID                 string              `json:"id"`
	InvoiceNo          string              `json:"invoice_no"`
	CustomerID         string              `json:"customer_id"`
	CustomerName       string              `json:"customer_name"`
	StockID            *string             `json:"stock_id"`
	Items              []LineItemResponse  `json:"items"`
	Adjustment         string              `json:"adjustment"`
	DiscountPercent    string              `json:"discount_percent"`
	SubTotal           string              `json:"sub_total"`
	GSTBreakdown       []GSTBucketResponse `json:"gst_breakdown"`
	GSTTotal           string              `json:"gst_total"`
	DiscountAmount     string              `json:"discount_amount"`
	Total              string              `json:"total"`
	PerformaStatus     string              `json:"performa_status"`
	ConvertedInvoiceID *string             `json:"converted_invoice_id"`
	InvoiceDate        string              `json:"invoice_date"`
	ValidUntil         *string             `json:"valid_until"`
	Note               string              `json:"note"`
	CreatedAt          string              `json:"created_at"`
}

// --- Interface ---

type PerformaService interface {
	CreatePerforma(ctx context.Context, userID string, req PerformaRequest) (PerformaResponse, error)
	UpdatePerforma(ctx context.Context, userID string, id string, req PerformaRequest) (PerformaResponse, error)
	ListPerformas(ctx context.Context, query PerformaListQuery) ([]PerformaResponse, int64, error)
	GetPerforma(ctx context.Context, id string) (PerformaResponse, error)
	CancelPerforma(ctx context.Context, userID string, id string) (PerformaResponse, error)
	// ConvertToSales turns a pending draft into a sales invoice. Stock
	// reservation, invoice creation and the status flip commit together.
	ConvertToSales(ctx context.Context, userID string, id string) (InvoiceResponse, error)
	DeletePerforma(ctx context.Context, userID string, id string) error
}

type performaService struct {
	performaRepo repository.PerformaRepository
	invoiceRepo  repository.InvoiceRepository
	partnerRepo  repository.PartnerRepository
	stockRepo    repository.StockRepository
	auditRepo    repository.AuditRepository
	numberer     repository.DocumentNumberer
	guard        StockGuard
	txManager    repository.TransactionManager
	events       EventPublisher
	log          zerolog.Logger
}

func NewPerformaService(
	performaRepo repository.PerformaRepository,
	invoiceRepo repository.InvoiceRepository,
	partnerRepo repository.PartnerRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	numberer repository.DocumentNumberer,
	guard StockGuard,
	txManager repository.TransactionManager,
	events EventPublisher,
) PerformaService {
	return &performaService{
		performaRepo: performaRepo,
		invoiceRepo:  invoiceRepo,
		partnerRepo:  partnerRepo,
		stockRepo:    stockRepo,
		auditRepo:    auditRepo,
		numberer:     numberer,
		guard:        guard,
		txManager:    txManager,
		events:       events,
		log:          logger.WithComponent("performa_service"),
	}
}

// --- Implementation ---

// parseRequest validates a draft body into p (header fields and items).
func (s *performaService) parseRequest(req PerformaRequest, p *model.PerformaInvoice, now time.Time) error {
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		return err
	}
	stockID, err := parseOptionalID("stock_id", req.StockID)
	if err != nil {
		return err
	}
	doc, err := parsePricedDocument(req.Items, req.Adjustment, req.DiscountPercent)
	if err != nil {
		return err
	}
	invoiceDate, err := parseDate("invoice_date", req.InvoiceDate, now)
	if err != nil {
		return err
	}

	var validUntil *time.Time
	if req.ValidUntil != "" {
		t, err := parseDate("valid_until", req.ValidUntil, now)
		if err != nil {
			return err
		}
		if t.Before(invoiceDate) {
			return apperror.Validation("valid_until", "must not be before invoice_date")
		}
		validUntil = &t
	}

	p.CustomerID = customerID
	p.StockID = stockID
	p.Items = toPerformaItems(doc.items)
	p.Adjustment = doc.adjustment
	p.DiscountPercent = doc.discountPercent
	p.SubTotal = doc.totals.SubTotal
	p.GSTTotal = doc.totals.GSTTotal
	p.DiscountAmount = doc.totals.DiscountAmount
	p.Total = doc.totals.GrandTotal
	p.InvoiceDate = invoiceDate
	p.ValidUntil = validUntil
	p.Note = req.Note
	return nil
}

func (s *performaService) CreatePerforma(ctx context.Context, userID string, req PerformaRequest) (PerformaResponse, error) {
	now := time.Now()
	performa := model.PerformaInvoice{
		PerformaStatus: model.PerformaPendingApproval,
		CreatedBy:      actorID(userID),
	}
	if err := s.parseRequest(req, &performa, now); err != nil {
		return PerformaResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := resolveCustomer(txCtx, s.partnerRepo, performa.CustomerID)
		if err != nil {
			return err
		}
		performa.Customer = customer

		performa.InvoiceNo, err = s.numberer.Next(txCtx, repository.DocPerformaInvoice, now)
		if err != nil {
			return apperror.Unexpected("failed to allocate performa number", err)
		}
		if err := s.performaRepo.Create(txCtx, &performa); err != nil {
			return repoError(err, "performa invoice", performa.InvoiceNo)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreatePerforma, performa.ID.String(), performa.InvoiceNo, req)
	})
	if err != nil {
		return PerformaResponse{}, err
	}

	resp := toPerformaResponse(performa)
	publish(s.events, EventPerformaChanged, resp)
	return resp, nil
}

// UpdatePerforma replaces the body of a pending draft; totals and line
// amounts are recomputed from the new items.
func (s *performaService) UpdatePerforma(ctx context.Context, userID string, id string, req PerformaRequest) (PerformaResponse, error) {
	performaID, err := parseID("id", id)
	if err != nil {
		return PerformaResponse{}, err
	}

	var performa *model.PerformaInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		performa, err = s.performaRepo.FindByIDForUpdate(txCtx, performaID)
		if err != nil {
			return repoError(err, "performa invoice", id)
		}
		if performa.IsTerminal() {
			return apperror.InvalidStateTransition("performa invoice", performa.PerformaStatus, "update")
		}

		if err := s.parseRequest(req, performa, performa.InvoiceDate); err != nil {
			return err
		}
		customer, err := resolveCustomer(txCtx, s.partnerRepo, performa.CustomerID)
		if err != nil {
			return err
		}
		performa.Customer = customer

		if err := s.performaRepo.Update(txCtx, performa); err != nil {
			return repoError(err, "performa invoice", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdatePerforma, id, performa.InvoiceNo, req)
	})
	if err != nil {
		return PerformaResponse{}, err
	}

	resp := toPerformaResponse(*performa)
	publish(s.events, EventPerformaChanged, resp)
	return resp, nil
}

func (s *performaService) ListPerformas(ctx context.Context, query PerformaListQuery) ([]PerformaResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	customerID, err := parseOptionalID("customer_id", query.CustomerID)
	if err != nil {
		return nil, 0, err
	}

	drafts, total, err := s.performaRepo.List(ctx, repository.PerformaFilter{
		Status:     query.Status,
		CustomerID: customerID,
		Search:     query.Search,
		Range:      rng,
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch performa invoices", err)
	}

	result := make([]PerformaResponse, 0, len(drafts))
	for _, d := range drafts {
		result = append(result, toPerformaResponse(d))
	}
	return result, total, nil
}

func (s *performaService) GetPerforma(ctx context.Context, id string) (PerformaResponse, error) {
	performaID, err := parseID("id", id)
	if err != nil {
		return PerformaResponse{}, err
	}
	performa, err := s.performaRepo.FindByID(ctx, performaID)
	if err != nil {
		return PerformaResponse{}, repoError(err, "performa invoice", id)
	}
	return toPerformaResponse(*performa), nil
}

// CancelPerforma moves a pending draft to Cancelled. Drafts never hold
// stock, so there is nothing to release.
func (s *performaService) CancelPerforma(ctx context.Context, userID string, id string) (PerformaResponse, error) {
	performaID, err := parseID("id", id)
	if err != nil {
		return PerformaResponse{}, err
	}

	var performa *model.PerformaInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		performa, err = s.performaRepo.FindByIDForUpdate(txCtx, performaID)
		if err != nil {
			return repoError(err, "performa invoice", id)
		}
		if performa.IsTerminal() {
			return apperror.InvalidStateTransition("performa invoice", performa.PerformaStatus, "cancel")
		}

		rows, err := s.performaRepo.CompareAndSetStatus(txCtx, performaID, model.PerformaPendingApproval, model.PerformaCancelled, nil)
		if err != nil {
			return apperror.Unexpected("failed to cancel performa invoice", err)
		}
		if rows == 0 {
			return apperror.InvalidStateTransition("performa invoice", performa.PerformaStatus, "cancel")
		}
		performa.PerformaStatus = model.PerformaCancelled

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCancelPerforma, id, performa.InvoiceNo, nil)
	})
	if err != nil {
		return PerformaResponse{}, err
	}

	resp := toPerformaResponse(*performa)
	publish(s.events, EventPerformaChanged, resp)
	return resp, nil
}

func (s *performaService) ConvertToSales(ctx context.Context, userID string, id string) (InvoiceResponse, error) {
	performaID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	var (
		invoice   model.Invoice
		movements []StockMovement
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		draft, err := s.performaRepo.FindByIDForUpdate(txCtx, performaID)
		if err != nil {
			return repoError(err, "performa invoice", id)
		}
		if draft.PerformaStatus != model.PerformaPendingApproval {
			return apperror.InvalidStateTransition("performa invoice", draft.PerformaStatus, "convert")
		}

		customer, err := resolveCustomer(txCtx, s.partnerRepo, draft.CustomerID)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindNotFound {
				return apperror.MissingReference("customer", draft.CustomerID.String())
			}
			return err
		}

		primary := draft.PrimaryStockID()
		if primary == nil {
			return apperror.MissingReference("stock", "")
		}
		if _, err := s.stockRepo.FindByID(txCtx, *primary); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.MissingReference("stock", primary.String())
			}
			return repoError(err, "stock", primary.String())
		}

		// Cached totals on the draft are not trusted.
		items := model.PerformaLineItems(draft.Items)
		totals := billing.Compute(model.BillingLines(items), draft.Adjustment, draft.DiscountPercent)

		invoice = model.Invoice{
			ID:                    uuid.New(),
			CustomerID:            draft.CustomerID,
			Customer:              customer,
			StockID:               primary,
			Items:                 toInvoiceItems(items),
			Adjustment:            draft.Adjustment,
			DiscountPercent:       draft.DiscountPercent,
			ConvertedFromPerforma: &draft.ID,
			InvoiceDate:           time.Now(),
			Note:                  draft.Note,
			CreatedBy:             actorID(userID),
		}
		applySalesTotals(&invoice, totals)

		movements, err = s.guard.Reserve(txCtx, StockRef{Type: model.RefTypeSalesInvoice, ID: &invoice.ID}, stockLinesOf(items))
		if err != nil {
			return err
		}

		invoice.InvoiceNo, err = s.numberer.Next(txCtx, repository.DocSalesInvoice, invoice.InvoiceDate)
		if err != nil {
			return apperror.Unexpected("failed to allocate invoice number", err)
		}
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			// converted_from_performa is unique: a concurrent conversion won.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.InvalidStateTransition("performa invoice", model.PerformaConvertedToSales, "convert")
			}
			return repoError(err, "invoice", invoice.InvoiceNo)
		}

		rows, err := s.performaRepo.CompareAndSetStatus(txCtx, draft.ID, model.PerformaPendingApproval, model.PerformaConvertedToSales, &invoice.ID)
		if err != nil {
			return apperror.Unexpected("failed to update performa status", err)
		}
		if rows == 0 {
			return apperror.InvalidStateTransition("performa invoice", model.PerformaConvertedToSales, "convert")
		}

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionConvertPerforma, draft.ID.String(), draft.InvoiceNo,
			map[string]string{"invoice_id": invoice.ID.String(), "invoice_no": invoice.InvoiceNo})
	})
	if err != nil {
		s.log.Warn().Err(err).Str("performa_id", id).Msg("performa conversion failed")
		return InvoiceResponse{}, err
	}

	s.log.Info().Str("performa_id", id).Str("invoice_no", invoice.InvoiceNo).Msg("performa converted to sales invoice")
	resp := toInvoiceResponse(invoice)
	publish(s.events, EventInvoiceCreated, resp)
	publishMovements(s.events, movements)
	return resp, nil
}

// DeletePerforma removes a draft that never became a sale.
func (s *performaService) DeletePerforma(ctx context.Context, userID string, id string) error {
	performaID, err := parseID("id", id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		performa, err := s.performaRepo.FindByIDForUpdate(txCtx, performaID)
		if err != nil {
			return repoError(err, "performa invoice", id)
		}
		if performa.PerformaStatus == model.PerformaConvertedToSales {
			return apperror.InvalidStateTransition("performa invoice", performa.PerformaStatus, "delete")
		}
		if err := s.performaRepo.Delete(txCtx, performaID); err != nil {
			return repoError(err, "performa invoice", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeletePerforma, id, performa.InvoiceNo, nil)
	})
}

// --- Mapping ---

func toPerformaItems(items []model.LineItem) []model.PerformaItem {
	out := make([]model.PerformaItem, 0, len(items))
	for _, it := range items {
		it.Refresh()
		out = append(out, model.PerformaItem{LineItem: it})
	}
	return out
}

func toPerformaResponse(p model.PerformaInvoice) PerformaResponse {
	items := model.PerformaLineItems(p.Items)
	totals := billing.Compute(model.BillingLines(items), p.Adjustment, p.DiscountPercent)

	resp := PerformaResponse{
		ID:                 p.ID.String(),
		InvoiceNo:          p.InvoiceNo,
		CustomerID:         p.CustomerID.String(),
		StockID:            idString(p.StockID),
		Items:              toLineItemResponses(items),
		Adjustment:         money(p.Adjustment),
		DiscountPercent:    money(p.DiscountPercent),
		SubTotal:           money(p.SubTotal),
		GSTBreakdown:       toGSTBreakdown(totals.GSTBreakdown),
		GSTTotal:           money(p.GSTTotal),
		DiscountAmount:     money(p.DiscountAmount),
		Total:              money(p.Total),
		PerformaStatus:     p.PerformaStatus,
		ConvertedInvoiceID: idString(p.ConvertedInvoiceID),
		InvoiceDate:        p.InvoiceDate.Format("2006-01-02"),
		ValidUntil:         timeString(p.ValidUntil),
		Note:               p.Note,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
	if p.Customer != nil {
		resp.CustomerName = p.Customer.Name
	}
	return resp
}
