package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"erp/internal/apperror"
	"erp/internal/billing"
	"erp/internal/logger"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// --- DTOs ---

type ApplyPaymentRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	PaidAt    string `json:"paid_at"`
	Note      string `json:"note"`
}

type PaymentListQuery struct {
	ListQuery
	InvoiceID string
	Method    string
}

type PaymentResponse struct {
	ID        string  `json:"id"`
	InvoiceID string  `json:"invoice_id"`
	Amount    string  `json:"amount"`
	Method    string  `json:"method"`
	Reference *string `json:"reference"`
	PaidAt    string  `json:"paid_at"`
	Note      string  `json:"note"`
	CreatedAt string  `json:"created_at"`
}

// PaymentResult is the outcome of ApplyPayment. Payment is nil when a zero
// amount was applied.
type PaymentResult struct {
	Payment *PaymentResponse `json:"payment"`
	Invoice InvoiceResponse  `json:"invoice"`
}

// --- Interface ---

type PaymentService interface {
	ApplyPayment(ctx context.Context, userID string, req ApplyPaymentRequest) (PaymentResult, error)
	ListPayments(ctx context.Context, query PaymentListQuery) ([]PaymentResponse, int64, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	events      EventPublisher
	log         zerolog.Logger
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	invoiceRepo repository.InvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	events EventPublisher,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      events,
		log:         logger.WithComponent("payment_service"),
	}
}

var paymentMethods = map[string]bool{
	model.PaymentMethodCash:   true,
	model.PaymentMethodBank:   true,
	model.PaymentMethodUPI:    true,
	model.PaymentMethodCard:   true,
	model.PaymentMethodCheque: true,
}

// --- Implementation ---

// ApplyPayment records money received against a sales invoice. The invoice
// row is locked for the duration, so concurrent payments serialize and the
// running total can never exceed the invoice total.
func (s *paymentService) ApplyPayment(ctx context.Context, userID string, req ApplyPaymentRequest) (PaymentResult, error) {
	invoiceID, err := parseID("invoice_id", req.InvoiceID)
	if err != nil {
		return PaymentResult{}, err
	}
	if strings.TrimSpace(req.Amount) == "" {
		return PaymentResult{}, apperror.Validation("amount", "is required")
	}
	amount, err := billing.ParseAmount("amount", req.Amount)
	if err != nil {
		return PaymentResult{}, err
	}
	if amount.IsNegative() {
		return PaymentResult{}, apperror.Validation("amount", "must not be negative")
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		method = model.PaymentMethodCash
	}
	if !paymentMethods[method] {
		return PaymentResult{}, apperror.Validation("method", "must be one of cash, bank, upi, card, cheque")
	}

	now := time.Now()
	paidAt, err := parseDate("paid_at", req.PaidAt, now)
	if err != nil {
		return PaymentResult{}, err
	}

	var reference *string
	if ref := strings.TrimSpace(req.Reference); ref != "" {
		reference = &ref
	}

	var (
		invoice *model.Invoice
		payment *model.Payment
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err = s.invoiceRepo.FindByIDForUpdate(txCtx, invoiceID)
		if err != nil {
			return repoError(err, "invoice", req.InvoiceID)
		}

		newPaid := invoice.TotalPaid.Add(amount)
		if newPaid.GreaterThan(invoice.Total) {
			return apperror.OverPayment(money(invoice.Total), money(invoice.TotalPaid), money(amount))
		}

		status := invoice.PaymentStatus
		switch {
		case newPaid.GreaterThanOrEqual(invoice.Total):
			status = model.PaymentPaid
		case newPaid.IsPositive():
			status = model.PaymentPartial
		}

		// A zero amount records no payment, but it still settles an invoice
		// whose total is already covered (e.g. a zero-total invoice).
		if amount.IsZero() {
			if status == invoice.PaymentStatus {
				return nil
			}
			if err := s.invoiceRepo.UpdatePayment(txCtx, invoice.ID, newPaid, status); err != nil {
				return apperror.Unexpected("failed to update invoice payment", err)
			}
			invoice.PaymentStatus = status
			return writeAudit(txCtx, s.auditRepo, userID, model.ActionApplyPayment, invoice.ID.String(), invoice.InvoiceNo, map[string]string{
				"amount":     money(amount),
				"total_paid": money(newPaid),
				"status":     status,
			})
		}

		payment = &model.Payment{
			InvoiceID: invoice.ID,
			Amount:    amount,
			Method:    method,
			Reference: reference,
			PaidAt:    paidAt,
			Note:      req.Note,
			CreatedBy: actorID(userID),
		}
		if err := s.paymentRepo.Create(txCtx, payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("payment reference already recorded")
			}
			return repoError(err, "payment", "")
		}

		if err := s.invoiceRepo.UpdatePayment(txCtx, invoice.ID, newPaid, status); err != nil {
			return apperror.Unexpected("failed to update invoice payment", err)
		}
		invoice.TotalPaid = newPaid
		invoice.PaymentStatus = status

		return writeAudit(txCtx, s.auditRepo, userID, model.ActionApplyPayment, invoice.ID.String(), invoice.InvoiceNo, map[string]string{
			"amount":     money(amount),
			"method":     method,
			"total_paid": money(newPaid),
			"status":     status,
		})
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindOverPayment {
			s.log.Warn().Str("invoice_id", req.InvoiceID).Str("amount", money(amount)).Msg("payment rejected")
		}
		return PaymentResult{}, err
	}

	result := PaymentResult{Invoice: toInvoiceResponse(*invoice)}
	if payment != nil {
		resp := toPaymentResponse(*payment)
		result.Payment = &resp
		s.log.Info().Str("invoice_no", invoice.InvoiceNo).Str("amount", money(amount)).Str("status", invoice.PaymentStatus).Msg("payment applied")
		publish(s.events, EventPaymentApplied, result)
	}
	return result, nil
}

func (s *paymentService) ListPayments(ctx context.Context, query PaymentListQuery) ([]PaymentResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	invoiceID, err := parseOptionalID("invoice_id", query.InvoiceID)
	if err != nil {
		return nil, 0, err
	}

	payments, total, err := s.paymentRepo.List(ctx, repository.PaymentFilter{
		InvoiceID: invoiceID,
		Method:    query.Method,
		Range:     rng,
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch payments", err)
	}

	result := make([]PaymentResponse, 0, len(payments))
	for _, pm := range payments {
		result = append(result, toPaymentResponse(pm))
	}
	return result, total, nil
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Amount:    money(p.Amount),
		Method:    p.Method,
		Reference: p.Reference,
		PaidAt:    p.PaidAt.Format(time.RFC3339),
		Note:      p.Note,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
