package service

import (
	"context"
	"time"

	"erp/internal/apperror"
	"erp/internal/repository"
)

// --- DTOs ---

type RevenueDataPoint struct {
	Period       string `json:"period"`
	Revenue      string `json:"revenue"`
	Collected    string `json:"collected"`
	GSTCollected string `json:"gst_collected"`
	Purchases    string `json:"purchases"`
	Expenses     string `json:"expenses"`
	Profit       string `json:"profit"`
}

type RevenueFilter struct {
	GroupBy    string // week, month, quarter, year
	DateRange  string
	CustomDate string
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
}

func NewRevenueService(revenueRepo repository.RevenueRepository) RevenueService {
	return &revenueService{revenueRepo: revenueRepo}
}

// --- Implementation ---

func (s *revenueService) GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
	case "":
		groupBy = "month"
	default:
		return nil, apperror.Validation("group_by", "must be one of week, month, quarter, year")
	}

	rng, err := ListQuery{DateRange: filter.DateRange, CustomDate: filter.CustomDate}.resolveRange(time.Now())
	if err != nil {
		return nil, err
	}

	rows, err := s.revenueRepo.GetRevenueSeries(ctx, groupBy, rng)
	if err != nil {
		return nil, apperror.Unexpected("failed to query revenue statistics", err)
	}

	result := make([]RevenueDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, RevenueDataPoint{
			Period:       r.Period,
			Revenue:      money(r.Revenue),
			Collected:    money(r.Collected),
			GSTCollected: money(r.GSTTotal),
			Purchases:    money(r.Purchases),
			Expenses:     money(r.Expenses),
			Profit:       money(r.Revenue.Sub(r.Purchases).Sub(r.Expenses)),
		})
	}
	return result, nil
}
