package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"erp/internal/apperror"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StockLine requests a quantity change on one stock item.
type StockLine struct {
	StockID  uuid.UUID
	Quantity int
}

// StockRef identifies the document that caused a movement.
type StockRef struct {
	Type string // model.RefTypeSalesInvoice, RefTypePurchase, RefTypeAdjustment
	ID   *uuid.UUID
}

// StockMovement describes one applied change.
type StockMovement struct {
	StockID  uuid.UUID `json:"stock_id"`
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"` // signed: negative for OUT
	Before   int       `json:"before"`
	After    int       `json:"after"`
	IsLow    bool      `json:"is_low"`
}

// StockGuard is the only writer of Stock.Quantity.
//
// Nothing in the system puts stock back: cancelling a draft never reserved
// any, and deleting a sales invoice leaves the decrement in place. Manual
// corrections go through Adjust.
type StockGuard interface {
	// Reserve decrements every line or none. Requests for the same stock are
	// summed before checking.
	Reserve(ctx context.Context, ref StockRef, lines []StockLine) ([]StockMovement, error)
	// Receive increments every line.
	Receive(ctx context.Context, ref StockRef, lines []StockLine) ([]StockMovement, error)
	// Adjust applies a signed manual correction; the result may not go below zero.
	Adjust(ctx context.Context, stockID uuid.UUID, delta int) (StockMovement, error)
}

type stockGuard struct {
	stockRepo repository.StockRepository
	ledger    repository.InventoryTxRepository
	txManager repository.TransactionManager
	now       func() time.Time
	log       zerolog.Logger
}

func NewStockGuard(
	stockRepo repository.StockRepository,
	ledger repository.InventoryTxRepository,
	txManager repository.TransactionManager,
) StockGuard {
	return &stockGuard{
		stockRepo: stockRepo,
		ledger:    ledger,
		txManager: txManager,
		now:       time.Now,
		log:       logger.WithComponent("stock_guard"),
	}
}

// mergeLines sums quantities per stock and orders them by id so that
// concurrent batches take row locks in the same order.
func mergeLines(lines []StockLine) ([]StockLine, error) {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperror.Validation("quantity", "must be at least 1")
		}
		totals[l.StockID] += l.Quantity
	}

	merged := make([]StockLine, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, StockLine{StockID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].StockID.String() < merged[j].StockID.String()
	})
	return merged, nil
}

func (g *stockGuard) Reserve(ctx context.Context, ref StockRef, lines []StockLine) ([]StockMovement, error) {
	merged, err := mergeLines(lines)
	if err != nil || len(merged) == 0 {
		return nil, err
	}

	var movements []StockMovement
	err = g.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Check everything before touching anything.
		locked := make([]*model.Stock, 0, len(merged))
		for _, l := range merged {
			stock, err := g.stockRepo.FindByIDForUpdate(txCtx, l.StockID)
			if err != nil {
				return repoError(err, "stock", l.StockID.String())
			}
			if stock.Quantity < l.Quantity {
				return apperror.InsufficientStock(stock.Name, stock.Quantity, l.Quantity)
			}
			locked = append(locked, stock)
		}

		at := g.now()
		movements = make([]StockMovement, 0, len(merged))
		for i, l := range merged {
			stock := locked[i]
			rows, err := g.stockRepo.Decrement(txCtx, l.StockID, l.Quantity, at)
			if err != nil {
				return apperror.Unexpected("failed to decrement stock", err)
			}
			if rows == 0 {
				current, findErr := g.stockRepo.FindByID(txCtx, l.StockID)
				if findErr != nil {
					return repoError(findErr, "stock", l.StockID.String())
				}
				return apperror.InsufficientStock(current.Name, current.Quantity, l.Quantity)
			}

			after := stock.Quantity - l.Quantity
			if err := g.record(txCtx, ref, l.StockID, model.TxTypeOut, l.Quantity, after); err != nil {
				return err
			}
			movements = append(movements, StockMovement{
				StockID:  l.StockID,
				Name:     stock.Name,
				Quantity: -l.Quantity,
				Before:   stock.Quantity,
				After:    after,
				IsLow:    after <= stock.LowStockThreshold,
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientStock) {
			g.log.Warn().Err(err).Str("ref_type", ref.Type).Msg("stock reservation rejected")
		}
		return nil, err
	}
	return movements, nil
}

func (g *stockGuard) Receive(ctx context.Context, ref StockRef, lines []StockLine) ([]StockMovement, error) {
	merged, err := mergeLines(lines)
	if err != nil || len(merged) == 0 {
		return nil, err
	}

	var movements []StockMovement
	err = g.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		at := g.now()
		movements = make([]StockMovement, 0, len(merged))
		for _, l := range merged {
			stock, err := g.stockRepo.FindByIDForUpdate(txCtx, l.StockID)
			if err != nil {
				return repoError(err, "stock", l.StockID.String())
			}
			if err := g.stockRepo.Increment(txCtx, l.StockID, l.Quantity, at); err != nil {
				return apperror.Unexpected("failed to increment stock", err)
			}

			after := stock.Quantity + l.Quantity
			if err := g.record(txCtx, ref, l.StockID, model.TxTypeIn, l.Quantity, after); err != nil {
				return err
			}
			movements = append(movements, StockMovement{
				StockID:  l.StockID,
				Name:     stock.Name,
				Quantity: l.Quantity,
				Before:   stock.Quantity,
				After:    after,
				IsLow:    after <= stock.LowStockThreshold,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func (g *stockGuard) Adjust(ctx context.Context, stockID uuid.UUID, delta int) (StockMovement, error) {
	if delta == 0 {
		return StockMovement{}, apperror.Validation("delta", "must not be zero")
	}

	ref := StockRef{Type: model.RefTypeAdjustment}
	var (
		movements []StockMovement
		err       error
	)
	if delta < 0 {
		movements, err = g.Reserve(ctx, ref, []StockLine{{StockID: stockID, Quantity: -delta}})
	} else {
		movements, err = g.Receive(ctx, ref, []StockLine{{StockID: stockID, Quantity: delta}})
	}
	if err != nil {
		return StockMovement{}, err
	}
	return movements[0], nil
}

func (g *stockGuard) record(ctx context.Context, ref StockRef, stockID uuid.UUID, txType string, qty, after int) error {
	entry := &model.InventoryTransaction{
		StockID:         stockID,
		ReferenceType:   ref.Type,
		ReferenceID:     ref.ID,
		TransactionType: txType,
		QuantityChanged: qty,
		StockAfter:      after,
	}
	if err := g.ledger.Create(ctx, entry); err != nil {
		return apperror.Unexpected("failed to write inventory transaction", err)
	}
	return nil
}
