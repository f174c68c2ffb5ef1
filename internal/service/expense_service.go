package service

import (
	"context"
	"strings"
	"time"

	"erp/internal/apperror"
	"erp/internal/billing"
	"erp/internal/model"
	"erp/internal/repository"
	"erp/pkg/pagination"
)

// --- DTOs ---

type CreateExpenseRequest struct {
	Category    string `json:"category" binding:"required"`
	Amount      string `json:"amount" binding:"required"` // Decimal string
	GSTAmount   string `json:"gst_amount"`
	VendorID    string `json:"vendor_id"`
	PaymentMode string `json:"payment_mode"`
	ExpenseDate string `json:"expense_date"`
	Description string `json:"description"`
}

type ExpenseListQuery struct {
	ListQuery
	Category string
	VendorID string
}

type ExpenseResponse struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Amount      string  `json:"amount"`
	GSTAmount   string  `json:"gst_amount"`
	Total       string  `json:"total"`
	VendorID    *string `json:"vendor_id"`
	VendorName  string  `json:"vendor_name"`
	PaymentMode string  `json:"payment_mode"`
	ExpenseDate string  `json:"expense_date"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

type ExpenseService interface {
	CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (ExpenseResponse, error)
	GetExpenses(ctx context.Context, query ExpenseListQuery) ([]ExpenseResponse, int64, error)
	DeleteExpense(ctx context.Context, userID string, id string) error
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	partnerRepo repository.PartnerRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		partnerRepo: partnerRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

var paymentModes = map[string]bool{
	model.PaymentModeCash: true,
	model.PaymentModeBank: true,
	model.PaymentModeUPI:  true,
	model.PaymentModeCard: true,
}

// --- Implementation ---

func (s *expenseService) CreateExpense(ctx context.Context, userID string, req CreateExpenseRequest) (ExpenseResponse, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return ExpenseResponse{}, apperror.Validation("category", "is required")
	}
	amount, err := billing.ParseAmount("amount", req.Amount)
	if err != nil {
		return ExpenseResponse{}, err
	}
	if !amount.IsPositive() {
		return ExpenseResponse{}, apperror.Validation("amount", "must be greater than 0")
	}
	gstAmount, err := billing.ParseAmount("gst_amount", req.GSTAmount)
	if err != nil {
		return ExpenseResponse{}, err
	}
	if gstAmount.IsNegative() {
		return ExpenseResponse{}, apperror.Validation("gst_amount", "must not be negative")
	}

	mode := strings.ToLower(strings.TrimSpace(req.PaymentMode))
	if mode == "" {
		mode = model.PaymentModeCash
	}
	if !paymentModes[mode] {
		return ExpenseResponse{}, apperror.Validation("payment_mode", "must be one of cash, bank, upi, card")
	}

	vendorID, err := parseOptionalID("vendor_id", req.VendorID)
	if err != nil {
		return ExpenseResponse{}, err
	}
	expenseDate, err := parseDate("expense_date", req.ExpenseDate, time.Now())
	if err != nil {
		return ExpenseResponse{}, err
	}

	expense := model.Expense{
		Category:    category,
		Amount:      amount,
		GSTAmount:   gstAmount,
		VendorID:    vendorID,
		PaymentMode: mode,
		ExpenseDate: expenseDate,
		Description: req.Description,
		CreatedBy:   actorID(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if vendorID != nil {
			vendor, err := s.partnerRepo.FindByID(txCtx, *vendorID)
			if err != nil {
				return repoError(err, "vendor", req.VendorID)
			}
			if !vendor.IsVendor() {
				return apperror.Validation("vendor_id", "partner is not a vendor")
			}
			expense.Vendor = vendor
		}

		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return repoError(err, "expense", "")
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateExpense, expense.ID.String(), expense.Category, req)
	})
	if err != nil {
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(expense), nil
}

func (s *expenseService) GetExpenses(ctx context.Context, query ExpenseListQuery) ([]ExpenseResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return nil, 0, err
	}
	vendorID, err := parseOptionalID("vendor_id", query.VendorID)
	if err != nil {
		return nil, 0, err
	}

	expenses, total, err := s.expenseRepo.List(ctx, repository.ExpenseFilter{
		Category: query.Category,
		VendorID: vendorID,
		Range:    rng,
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return nil, 0, apperror.Unexpected("failed to fetch expenses", err)
	}

	res := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		res = append(res, toExpenseResponse(e))
	}
	return res, total, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, userID string, id string) error {
	expenseID, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		expense, err := s.expenseRepo.FindByID(txCtx, expenseID)
		if err != nil {
			return repoError(err, "expense", id)
		}
		if err := s.expenseRepo.Delete(txCtx, expenseID); err != nil {
			return repoError(err, "expense", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteExpense, id, expense.Category, nil)
	})
}

func toExpenseResponse(e model.Expense) ExpenseResponse {
	resp := ExpenseResponse{
		ID:          e.ID.String(),
		Category:    e.Category,
		Amount:      money(e.Amount),
		GSTAmount:   money(e.GSTAmount),
		Total:       money(e.Total()),
		VendorID:    idString(e.VendorID),
		PaymentMode: e.PaymentMode,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.Vendor != nil {
		resp.VendorName = e.Vendor.Name
	}
	return resp
}
