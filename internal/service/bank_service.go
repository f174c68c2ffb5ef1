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

type CreateBankTransactionRequest struct {
	AccountName     string `json:"account_name" binding:"required"`
	Type            string `json:"type" binding:"required"` // DEPOSIT or WITHDRAWAL
	Amount          string `json:"amount" binding:"required"`
	Reference       string `json:"reference"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
}

type BankListQuery struct {
	ListQuery
	AccountName string
	Type        string
}

type BankTransactionResponse struct {
	ID              string `json:"id"`
	AccountName     string `json:"account_name"`
	Type            string `json:"type"`
	Amount          string `json:"amount"`
	Reference       string `json:"reference"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	CreatedAt       string `json:"created_at"`
}

// BankListResponse carries the page plus the balance of every matching row.
type BankListResponse struct {
	Transactions []BankTransactionResponse `json:"transactions"`
	Balance      string                    `json:"balance"`
}

type BankService interface {
	CreateTransaction(ctx context.Context, userID string, req CreateBankTransactionRequest) (BankTransactionResponse, error)
	ListTransactions(ctx context.Context, query BankListQuery) (BankListResponse, int64, error)
	DeleteTransaction(ctx context.Context, userID string, id string) error
}

type bankService struct {
	bankRepo  repository.BankRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewBankService(bankRepo repository.BankRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) BankService {
	return &bankService{bankRepo: bankRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *bankService) CreateTransaction(ctx context.Context, userID string, req CreateBankTransactionRequest) (BankTransactionResponse, error) {
	account := strings.TrimSpace(req.AccountName)
	if account == "" {
		return BankTransactionResponse{}, apperror.Validation("account_name", "is required")
	}
	txType := strings.ToUpper(strings.TrimSpace(req.Type))
	if txType != model.BankDeposit && txType != model.BankWithdrawal {
		return BankTransactionResponse{}, apperror.Validation("type", "must be DEPOSIT or WITHDRAWAL")
	}
	amount, err := billing.ParseAmount("amount", req.Amount)
	if err != nil {
		return BankTransactionResponse{}, err
	}
	if !amount.IsPositive() {
		return BankTransactionResponse{}, apperror.Validation("amount", "must be greater than 0")
	}
	date, err := parseDate("transaction_date", req.TransactionDate, time.Now())
	if err != nil {
		return BankTransactionResponse{}, err
	}

	entry := model.BankTransaction{
		AccountName:     account,
		Type:            txType,
		Amount:          amount,
		Reference:       req.Reference,
		TransactionDate: date,
		Description:     req.Description,
		CreatedBy:       actorID(userID),
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.bankRepo.Create(txCtx, &entry); err != nil {
			return repoError(err, "bank transaction", "")
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateBankTx, entry.ID.String(), entry.AccountName, req)
	})
	if err != nil {
		return BankTransactionResponse{}, err
	}
	return toBankTransactionResponse(entry), nil
}

func (s *bankService) ListTransactions(ctx context.Context, query BankListQuery) (BankListResponse, int64, error) {
	p := pagination.Normalize(query.Page, query.Limit)
	rng, err := query.resolveRange(time.Now())
	if err != nil {
		return BankListResponse{}, 0, err
	}
	filter := repository.BankFilter{
		AccountName: query.AccountName,
		Type:        strings.ToUpper(query.Type),
		Range:       rng,
		Page:        p.Page,
		Limit:       p.Limit,
	}

	rows, total, err := s.bankRepo.List(ctx, filter)
	if err != nil {
		return BankListResponse{}, 0, apperror.Unexpected("failed to fetch bank transactions", err)
	}
	balance, err := s.bankRepo.Balance(ctx, filter)
	if err != nil {
		return BankListResponse{}, 0, apperror.Unexpected("failed to compute bank balance", err)
	}

	res := BankListResponse{
		Transactions: make([]BankTransactionResponse, 0, len(rows)),
		Balance:      money(balance),
	}
	for _, r := range rows {
		res.Transactions = append(res.Transactions, toBankTransactionResponse(r))
	}
	return res, total, nil
}

func (s *bankService) DeleteTransaction(ctx context.Context, userID string, id string) error {
	txID, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.bankRepo.FindByID(txCtx, txID)
		if err != nil {
			return repoError(err, "bank transaction", id)
		}
		if err := s.bankRepo.Delete(txCtx, txID); err != nil {
			return repoError(err, "bank transaction", id)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteBankTx, id, entry.AccountName, nil)
	})
}

func toBankTransactionResponse(b model.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:              b.ID.String(),
		AccountName:     b.AccountName,
		Type:            b.Type,
		Amount:          money(b.Amount),
		Reference:       b.Reference,
		TransactionDate: b.TransactionDate.Format("2006-01-02"),
		Description:     b.Description,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}
