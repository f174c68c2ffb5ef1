package service

import (
	"context"
	"strings"
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

type CreateStockRequest struct {
	SKU               string `json:"sku" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Quantity          int    `json:"quantity"` // opening quantity
	SellingPrice      string `json:"selling_price"`
	PurchasePrice     string `json:"purchase_price"`
	Unit              string `json:"unit"`
	LowStockThreshold *int   `json:"low_stock_threshold"`
}

type UpdateStockRequest struct {
	SKU               string `json:"sku" binding:"required"`
	Name              string `json:"name" binding:"required"`
	SellingPrice      string `json:"selling_price"`
	PurchasePrice     string `json:"purchase_price"`
	Unit              string `json:"unit"`
	LowStockThreshold *int   `json:"low_stock_threshold"`
}

type AdjustStockRequest struct {
	Delta int    `json:"delta" binding:"required"`
	Note  string `json:"note"`
}

type StockListQuery struct {
	Search  string
	LowOnly bool
	Page    int
	Limit   int
}

type StockResponse struct {
	ID                string `json:"id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	SellingPrice      string `json:"selling_price"`
	PurchasePrice     string `json:"purchase_price"`
	Unit              string `json:"unit"`
	LowStockThreshold int    `json:"low_stock_threshold"`
	IsLow             bool   `json:"is_low"`
	LastUpdatedAt     string `json:"last_updated_at"`
}

type StockTransactionResponse struct {
	ID              string  `json:"id"`
	ReferenceType   string  `json:"reference_type"`
	ReferenceID     *string `json:"reference_id"`
	TransactionType string  `json:"transaction_type"`
	QuantityChanged int     `json:"quantity_changed"`
	StockAfter      int     `json:"stock_after"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

// MovementQuery filters one item's ledger.
type MovementQuery struct {
	ReferenceType string
	DateRange     string
	CustomDate    string
	Page          int
	Limit         int
}

type StockService interface {
	CreateStock(ctx context.Context, userID string, req CreateStockRequest) (StockResponse, error)
	ListStocks(ctx context.Context, query StockListQuery) ([]StockResponse, int64, error)
	GetStock(ctx context.Context, id string) (StockResponse, error)
	UpdateStock(ctx context.Context, userID string, id string, req UpdateStockRequest) (StockResponse, error)
	AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (StockResponse, error)
	DeleteStock(ctx context.Context, userID string, id string) error
	ListMovements(ctx context.Context, id string, query MovementQuery) ([]StockTransactionResponse, int64, error)
}

type stockService struct {
	stockRepo        repository.StockRepository
	ledger           repository.InventoryTxRepository
	auditRepo        repository.AuditRepository
	guard            StockGuard
	txManager        repository.TransactionManager
	events           EventPublisher
	defaultThreshold int
	log              zerolog.Logger
}

func NewStockService(
	stockRepo repository.StockRepository,
	ledger repository.InventoryTxRepository,
	auditRepo repository.AuditRepository,
	guard StockGuard,
	txManager repository.TransactionManager,
	events EventPublisher,
	defaultThreshold int,
) StockService {
	return &stockService{
		stockRepo:        stockRepo,
		ledger:           ledger,
		auditRepo:        auditRepo,
		guard:            guard,
		txManager:        txManager,
		events:           events,
		defaultThreshold: defaultThreshold,
		log:              logger.WithComponent("stock_service"),
	}
}

// --- Implementation ---

type stockFields struct {
	sku, name, unit string
	selling         string
	purchase        string
	threshold       *int
}

func (s *stockService) apply(stock *model.Stock, f stockFields) error {
	sku := strings.TrimSpace(f.sku)
	if sku == "" {
		return apperror.Validation("sku", "is required")
	}
	name := strings.TrimSpace(f.name)
	if name == "" {
		return apperror.Validation("name", "is required")
	}
	selling, err := billing.ParseAmount("selling_price", f.selling)
	if err != nil {
		return err
	}
	if selling.IsNegative() {
		return apperror.Validation("selling_price", "must not be negative")
	}
	purchase, err := billing.ParseAmount("purchase_price", f.purchase)
	if err != nil {
		return err
	}
	if purchase.IsNegative() {
		return apperror.Validation("purchase_price", "must not be negative")
	}

	threshold := s.defaultThreshold
	if f.threshold != nil {
		if *f.threshold < 0 {
			return apperror.Validation("low_stock_threshold", "must not be negative")
		}
		threshold = *f.threshold
	} else if stock.ID != uuid.Nil {
		threshold = stock.LowStockThreshold
	}

	unit := strings.TrimSpace(f.unit)
	if unit == "" {
		unit = "pcs"
	}

	stock.SKU = sku
	stock.Name = name
	stock.SellingPrice = selling
	stock.PurchasePrice = purchase
	stock.Unit = unit
	stock.LowStockThreshold = threshold
	return nil
}

// CreateStock registers a stock item. An opening quantity is booked as an
// adjustment so it appears in the ledger.
func (s *stockService) CreateStock(ctx context.Context, userID string, req CreateStockRequest) (StockResponse, error) {
	if req.Quantity < 0 {
		return StockResponse{}, apperror.Validation("quantity", "must not be negative")
	}
	stock := model.Stock{LastUpdatedAt: time.Now()}
	if err := s.apply(&stock, stockFields{
		sku: req.SKU, name: req.Name, unit: req.Unit,
		selling: req.SellingPrice, purchase: req.PurchasePrice,
		threshold: req.LowStockThreshold,
	}); err != nil {
		return StockResponse{}, err
	}

	var movement *StockMovement
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.stockRepo.Create(txCtx, &stock); err != nil {
			return repoError(err, "stock with this SKU", stock.SKU)
		}
		if req.Quantity > 0 {
			m, err := s.guard.Adjust(txCtx, stock.ID, req.Quantity)
			if err != nil {
				return err
			}
			stock.Quantity = m.After
			movement = &m
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateStock, stock.ID.String(), stock.Name, req)
	})
	if err != nil {
		return StockResponse{}, err
	}

	if movement != nil {
		publish(s.events, EventStockUpdated, *movement)
	}
	return toStockResponse(stock), nil
}

func (s *stockService) ListStocks(ctx context.Context, query StockListQuery) ([]StockResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	stocks, total, err := s.stockRepo.List(ctx, repository.StockFilter{
		Search:  query.Search,
		LowOnly: query.LowOnly,
		Page:    p.Page,
		Limit:   p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch stocks", err)
	}

	res := make([]StockResponse, 0, len(stocks))
	for _, st := range stocks {
		res = append(res, toStockResponse(st))
	}
	return res, total, nil
}

func (s *stockService) GetStock(ctx context.Context, id string) (StockResponse, error) {
	stockID, err := parseID("id", id)
	if err != nil {
		return StockResponse{}, err
	}
	stock, err := s.stockRepo.FindByID(ctx, stockID)
	if err != nil {
		return StockResponse{}, repoError(err, "stock", id)
	}
	return toStockResponse(*stock), nil
}

// UpdateStock edits metadata. Quantity is never written here.
func (s *stockService) UpdateStock(ctx context.Context, userID string, id string, req UpdateStockRequest) (StockResponse, error) {
	stockID, err := parseID("id", id)
	if err != nil {
		return StockResponse{}, err
	}

	var stock *model.Stock
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err = s.stockRepo.FindByIDForUpdate(txCtx, stockID)
		if err != nil {
			return repoError(err, "stock", id)
		}
		if err := s.apply(stock, stockFields{
			sku: req.SKU, name: req.Name, unit: req.Unit,
			selling: req.SellingPrice, purchase: req.PurchasePrice,
			threshold: req.LowStockThreshold,
		}); err != nil {
			return err
		}
		if err := s.stockRepo.Update(txCtx, stock); err != nil {
			return repoError(err, "stock with this SKU", stock.SKU)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateStock, id, stock.Name, req)
	})
	if err != nil {
		return StockResponse{}, err
	}
	return toStockResponse(*stock), nil
}

func (s *stockService) AdjustStock(ctx context.Context, userID string, id string, req AdjustStockRequest) (StockResponse, error) {
	stockID, err := parseID("id", id)
	if err != nil {
		return StockResponse{}, err
	}

	var (
		stock    *model.Stock
		movement StockMovement
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		movement, err = s.guard.Adjust(txCtx, stockID, req.Delta)
		if err != nil {
			return err
		}
		stock, err = s.stockRepo.FindByID(txCtx, stockID)
		if err != nil {
			return repoError(err, "stock", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionAdjustStock, id, stock.Name, req)
	})
	if err != nil {
		return StockResponse{}, err
	}

	s.log.Info().Str("stock_id", id).Int("delta", req.Delta).Int("after", movement.After).Msg("stock adjusted")
	publish(s.events, EventStockUpdated, movement)
	return toStockResponse(*stock), nil
}

func (s *stockService) DeleteStock(ctx context.Context, userID string, id string) error {
	stockID, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.stockRepo.FindByID(txCtx, stockID)
		if err != nil {
			return repoError(err, "stock", id)
		}
		if err := s.stockRepo.Delete(txCtx, stockID); err != nil {
			return repoError(err, "stock", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteStock, id, stock.Name, nil)
	})
}

func (s *stockService) ListMovements(ctx context.Context, id string, query MovementQuery) ([]StockTransactionResponse, int64, error) {
	stockID, err := parseID("id", id)
	if err != nil {
		return nil, 0, err
	}
	switch query.ReferenceType {
	case "", model.RefTypeSalesInvoice, model.RefTypePurchase, model.RefTypeAdjustment:
	default:
		return nil, 0, apperror.Validation("reference_type", "must be SALES_INVOICE, PURCHASE or ADJUSTMENT")
	}
	rng, err := ListQuery{DateRange: query.DateRange, CustomDate: query.CustomDate}.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.stockRepo.FindByID(ctx, stockID); err != nil {
		return nil, 0, repoError(err, "stock", id)
	}

	p := pagination.Normalize(query.Page, query.Limit)
	rows, total, err := s.ledger.ListByStock(ctx, repository.MovementFilter{
		StockID:       stockID,
		ReferenceType: query.ReferenceType,
		Range:         rng,
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch stock movements", err)
	}

	res := make([]StockTransactionResponse, 0, len(rows))
	for _, r := range rows {
		res = append(res, StockTransactionResponse{
			ID:              r.ID.String(),
			ReferenceType:   r.ReferenceType,
			ReferenceID:     idString(r.ReferenceID),
			TransactionType: r.TransactionType,
			QuantityChanged: r.QuantityChanged,
			StockAfter:      r.StockAfter,
			CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}

func toStockResponse(s model.Stock) StockResponse {
	return StockResponse{
		ID:                s.ID.String(),
		SKU:               s.SKU,
		Name:              s.Name,
		Quantity:          s.Quantity,
		SellingPrice:      money(s.SellingPrice),
		PurchasePrice:     money(s.PurchasePrice),
		Unit:              s.Unit,
		LowStockThreshold: s.LowStockThreshold,
		IsLow:             s.IsLow(),
		LastUpdatedAt:     s.LastUpdatedAt.Format(time.RFC3339),
	}
}
