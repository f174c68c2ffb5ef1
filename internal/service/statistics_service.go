package service

import (
	"context"
	"time"

	"erp/internal/apperror"
	"erp/internal/model"
	"erp/internal/repository"
)

const (
	topStockLimit = 5
	lowStockLimit = 10
)

type StatisticsQuery struct {
	DateRange  string
	CustomDate string
}

type StockAlert struct {
	ID                string `json:"id"`
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

type StatisticsResponse struct {
	TimeRangeStartDate *string                    `json:"time_range_start_date"`
	TimeRangeEndDate   *string                    `json:"time_range_end_date"`
	Revenue            string                     `json:"revenue"`
	Collected          string                     `json:"collected"`
	Outstanding        string                     `json:"outstanding"`
	GSTCollected       string                     `json:"gst_collected"`
	PurchaseCost       string                     `json:"purchase_cost"`
	Expenses           string                     `json:"expenses"`
	Profit             string                     `json:"profit"`
	InvoiceCount       int64                      `json:"invoice_count"`
	PaymentStatus      []model.PaymentStatusCount `json:"payment_status"`
	TopStocks          []model.StockRanking       `json:"top_stocks"`
	LowStocks          []StockAlert               `json:"low_stocks"`
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, query StatisticsQuery) (StatisticsResponse, error)
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

// GetStatistics aggregates the dashboard over the selected period.
// Profit = revenue - purchases - expenses.
func (s *statisticsService) GetStatistics(ctx context.Context, query StatisticsQuery) (StatisticsResponse, error) {
	rng, err := ListQuery{DateRange: query.DateRange, CustomDate: query.CustomDate}.resolveRange(time.Now())
	if err != nil {
		return StatisticsResponse{}, err
	}

	sales, err := s.statsRepo.GetSalesSummary(ctx, rng)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load sales summary", err)
	}
	purchases, err := s.statsRepo.GetPurchaseTotal(ctx, rng)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load purchase total", err)
	}
	expenses, err := s.statsRepo.GetExpenseTotal(ctx, rng)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load expense total", err)
	}
	counts, err := s.statsRepo.GetPaymentStatusCounts(ctx, rng)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load payment status counts", err)
	}
	top, err := s.statsRepo.GetTopStocks(ctx, rng, topStockLimit)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load top stocks", err)
	}
	low, err := s.statsRepo.GetLowStocks(ctx, lowStockLimit)
	if err != nil {
		return StatisticsResponse{}, apperror.Unexpected("failed to load low stocks", err)
	}

	resp := StatisticsResponse{
		Revenue:       money(sales.Revenue),
		Collected:     money(sales.Collected),
		Outstanding:   money(sales.Revenue.Sub(sales.Collected)),
		GSTCollected:  money(sales.GSTTotal),
		PurchaseCost:  money(purchases),
		Expenses:      money(expenses),
		Profit:        money(sales.Revenue.Sub(purchases).Sub(expenses)),
		InvoiceCount:  sales.Count,
		PaymentStatus: counts,
		TopStocks:     top,
		LowStocks:     make([]StockAlert, 0, len(low)),
	}
	if resp.PaymentStatus == nil {
		resp.PaymentStatus = []model.PaymentStatusCount{}
	}
	if resp.TopStocks == nil {
		resp.TopStocks = []model.StockRanking{}
	}
	if !rng.IsZero() {
		resp.TimeRangeStartDate = timeString(&rng.Start)
		resp.TimeRangeEndDate = timeString(&rng.End)
	}
	for _, st := range low {
		resp.LowStocks = append(resp.LowStocks, StockAlert{
			ID:                st.ID.String(),
			SKU:               st.SKU,
			Name:              st.Name,
			Quantity:          st.Quantity,
			LowStockThreshold: st.LowStockThreshold,
		})
	}
	return resp, nil
}
