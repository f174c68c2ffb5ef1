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

type CreatePurchaseRequest struct {
	VendorID        string            `json:"vendor_id" binding:"required"`
	Items           []LineItemRequest `json:"items" binding:"required"`
	Adjustment      string            `json:"adjustment"`
	DiscountPercent string            `json:"discount_percent"`
	PurchaseDate    string            `json:"purchase_date"`
	Note            string            `json:"note"`
}

type PurchaseListQuery struct {
	ListQuery
	VendorID string
}

type PurchaseResponse struct {
	ID              string              `json:"id"`
	PurchaseNo      string              `json:"purchase_no"`
	VendorID        string              `json:"vendor_id"`
	VendorName      string              `json:"vendor_name"`
	Items           []LineItemResponse  `json:"items"`
	Adjustment      string              `json:"adjustment"`
	DiscountPercent string              `json:"discount_percent"`
	SubTotal        string              `json:"sub_total"`
	GSTBreakdown    []GSTBucketResponse `json:"gst_breakdown"`
	GSTTotal        string              `json:"gst_total"`
	DiscountAmount  string              `json:"discount_amount"`
	Total           string              `json:"total"`
	PurchaseDate    string              `json:"purchase_date"`
	Note            string              `json:"note"`
	CreatedAt       string              `json:"created_at"`
}

// --- Interface ---

type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (PurchaseResponse, error)
	ListPurchases(ctx context.Context, query PurchaseListQuery) ([]PurchaseResponse, int64, error)
	GetPurchase(ctx context.Context, id string) (PurchaseResponse, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	partnerRepo  repository.PartnerRepository
	auditRepo    repository.AuditRepository
	numberer     repository.DocumentNumberer
	guard        StockGuard
	txManager    repository.TransactionManager
	events       EventPublisher
	log          zerolog.Logger
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	numberer repository.DocumentNumberer,
	guard StockGuard,
	txManager repository.TransactionManager,
	events EventPublisher,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		partnerRepo:  partnerRepo,
		auditRepo:    auditRepo,
		numberer:     numberer,
		guard:        guard,
		txManager:    txManager,
		events:       events,
		log:          logger.WithComponent("purchase_service"),
	}
}

// --- Implementation ---

// CreatePurchase records a vendor bill and receives every line into stock.
func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (PurchaseResponse, error) {
	vendorID, err := parseID("vendor_id", req.VendorID)
	if err != nil {
		return PurchaseResponse{}, err
	}
	doc, err := parsePricedDocument(req.Items, req.Adjustment, req.DiscountPercent)
	if err != nil {
		return PurchaseResponse{}, err
	}
	if err := requireStockRefs(doc.items); err != nil {
		return PurchaseResponse{}, err
	}
	now := time.Now()
	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate, now)
	if err != nil {
		return PurchaseResponse{}, err
	}

	items := make([]model.PurchaseItem, 0, len(doc.items))
	for _, it := range doc.items {
		items = append(items, model.PurchaseItem{LineItem: it})
	}
	purchase := model.Purchase{
		ID:              uuid.New(),
		VendorID:        vendorID,
		Items:           items,
		Adjustment:      doc.adjustment,
		DiscountPercent: doc.discountPercent,
		SubTotal:        doc.totals.SubTotal,
		GSTTotal:        doc.totals.GSTTotal,
		DiscountAmount:  doc.totals.DiscountAmount,
		Total:           doc.totals.GrandTotal,
		PurchaseDate:    purchaseDate,
		Note:            req.Note,
		CreatedBy:       actorID(userID),
	}

	var movements []StockMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vendor, err := s.partnerRepo.FindByID(txCtx, vendorID)
		if err != nil {
			return repoError(err, "vendor", req.VendorID)
		}
		if !vendor.IsVendor() {
			return apperror.Validation("vendor_id", "partner is not a vendor")
		}
		purchase.Vendor = vendor

		movements, err = s.guard.Receive(txCtx, StockRef{Type: model.RefTypePurchase, ID: &purchase.ID}, stockLinesOf(doc.items))
		if err != nil {
			return err
		}

		purchase.PurchaseNo, err = s.numberer.Next(txCtx, repository.DocPurchase, now)
		if err != nil {
			return apperror.Unexpected("failed to allocate purchase number", err)
		}
		if err := s.purchaseRepo.Create(txCtx, &purchase); err != nil {
			return repoError(err, "purchase", purchase.PurchaseNo)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreatePurchase, purchase.ID.String(), purchase.PurchaseNo, req)
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	s.log.Info().Str("purchase_no", purchase.PurchaseNo).Int("lines", len(items)).Msg("purchase received")
	resp := toPurchaseResponse(purchase)
	publish(s.events, EventPurchaseReceived, resp)
	publishMovements(s.events, movements)
	return resp, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, query PurchaseListQuery) ([]PurchaseResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	vendorID, err := parseOptionalID("vendor_id", query.VendorID)
	if err != nil {
		return nil, 0, err
	}

	purchases, total, err := s.purchaseRepo.List(ctx, repository.PurchaseFilter{
		VendorID: vendorID,
		Search:   query.Search,
		Range:    rng,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch purchases", err)
	}

	result := make([]PurchaseResponse, 0, len(purchases))
	for _, pu := range purchases {
		result = append(result, toPurchaseResponse(pu))
	}
	return result, total, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (PurchaseResponse, error) {
	purchaseID, err := parseID("id", id)
	if err != nil {
		return PurchaseResponse{}, err
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return PurchaseResponse{}, repoError(err, "purchase", id)
	}
	return toPurchaseResponse(*purchase), nil
}

func toPurchaseResponse(p model.Purchase) PurchaseResponse {
	items := model.PurchaseLineItems(p.Items)
	totals := billing.Compute(model.BillingLines(items), p.Adjustment, p.DiscountPercent)

	resp := PurchaseResponse{
		ID:              p.ID.String(),
		PurchaseNo:      p.PurchaseNo,
		VendorID:        p.VendorID.String(),
		Items:           toLineItemResponses(items),
		Adjustment:      money(p.Adjustment),
		DiscountPercent: money(p.DiscountPercent),
		SubTotal:        money(p.SubTotal),
		GSTBreakdown:    toGSTBreakdown(totals.GSTBreakdown),
		GSTTotal:        money(p.GSTTotal),
		DiscountAmount:  money(p.DiscountAmount),
		Total:           money(p.Total),
		PurchaseDate:    p.PurchaseDate.Format("2006-01-02"),
		Note:            p.Note,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
	if p.Vendor != nil {
		resp.VendorName = p.Vendor.Name
	}
	return resp
}
