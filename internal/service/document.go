package service

import (
	"fmt"
	"strings"

	"erp/internal/apperror"
	"erp/internal/billing"
	"erp/internal/model"

	"github.com/shopspring/decimal"
)

// LineItemRequest is one row of an invoice, draft or purchase payload.
// Amounts are decimal strings.
type LineItemRequest struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	GSTRate   string `json:"gst_rate"`
	Discount  string `json:"discount"`
	StockID   string `json:"stock_id"`
}

type LineItemResponse struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  string  `json:"unit_price"`
	GSTRate    string  `json:"gst_rate"`
	Discount   string  `json:"discount"`
	StockID    *string `json:"stock_id"`
	LineAmount string  `json:"line_amount"`
}

type GSTBucketResponse struct {
	Rate  string `json:"rate"`
	CGST  string `json:"cgst"`
	SGST  string `json:"sgst"`
	Total string `json:"total"`
}

// TotalsResponse is the totals engine output as rendered to clients.
type TotalsResponse struct {
	SubTotal       string              `json:"sub_total"`
	GSTBreakdown   []GSTBucketResponse `json:"gst_breakdown"`
	GSTTotal       string              `json:"gst_total"`
	DiscountAmount string              `json:"discount_amount"`
	GrandTotal     string              `json:"grand_total"`
}

// TotalsRequest is the input of a totals preview.
type TotalsRequest struct {
	Items           []LineItemRequest `json:"items"`
	Adjustment      string            `json:"adjustment"`
	DiscountPercent string            `json:"discount_percent"`
}

// pricedDocument is a validated, parsed document body.
type pricedDocument struct {
	items           []model.LineItem
	adjustment      decimal.Decimal
	discountPercent decimal.Decimal
	totals          billing.Totals
}

func parsePricedDocument(items []LineItemRequest, adjustment, discountPercent string) (pricedDocument, error) {
	lines, err := parseLineItems(items)
	if err != nil {
		return pricedDocument{}, err
	}

	adj, err := billing.ParseAmount("adjustment", adjustment)
	if err != nil {
		return pricedDocument{}, err
	}
	disc, err := billing.ParseAmount("discount_percent", discountPercent)
	if err != nil {
		return pricedDocument{}, err
	}
	if err := billing.ValidateAdjustments(disc); err != nil {
		return pricedDocument{}, err
	}

	return pricedDocument{
		items:           lines,
		adjustment:      adj,
		discountPercent: disc,
		totals:          billing.Compute(model.BillingLines(lines), adj, disc),
	}, nil
}

func parseLineItems(reqs []LineItemRequest) ([]model.LineItem, error) {
	items := make([]model.LineItem, 0, len(reqs))
	for i, r := range reqs {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		price, err := billing.ParseAmount(field("unit_price"), r.UnitPrice)
		if err != nil {
			return nil, err
		}
		rate, err := billing.ParseAmount(field("gst_rate"), r.GSTRate)
		if err != nil {
			return nil, err
		}
		discount, err := billing.ParseAmount(field("discount"), r.Discount)
		if err != nil {
			return nil, err
		}
		stockID, err := parseOptionalID(field("stock_id"), r.StockID)
		if err != nil {
			return nil, err
		}

		item := model.LineItem{
			Position:  i,
			Name:      strings.TrimSpace(r.Name),
			Quantity:  r.Quantity,
			UnitPrice: price,
			GSTRate:   rate,
			Discount:  discount,
			StockID:   stockID,
		}
		item.Refresh()
		items = append(items, item)
	}

	if err := billing.ValidateLines(model.BillingLines(items)); err != nil {
		return nil, err
	}
	return items, nil
}

// stockLinesOf returns a reservation line for every item that references stock.
func stockLinesOf(items []model.LineItem) []StockLine {
	lines := make([]StockLine, 0, len(items))
	for _, it := range items {
		if it.StockID != nil {
			lines = append(lines, StockLine{StockID: *it.StockID, Quantity: it.Quantity})
		}
	}
	return lines
}

func requireStockRefs(items []model.LineItem) error {
	for i, it := range items {
		if it.StockID == nil {
			return apperror.Validation(fmt.Sprintf("items[%d].stock_id", i), "is required")
		}
	}
	return nil
}

func toLineItemResponses(items []model.LineItem) []LineItemResponse {
	res := make([]LineItemResponse, 0, len(items))
	for _, it := range items {
		res = append(res, LineItemResponse{
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  money(it.UnitPrice),
			GSTRate:    money(it.GSTRate),
			Discount:   money(it.Discount),
			StockID:    idString(it.StockID),
			LineAmount: money(billing.LineAmount(it.BillingLine())),
		})
	}
	return res
}

func toGSTBreakdown(buckets []billing.GSTBucket) []GSTBucketResponse {
	res := make([]GSTBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		res = append(res, GSTBucketResponse{
			Rate:  money(b.Rate),
			CGST:  money(b.CGST),
			SGST:  money(b.SGST),
			Total: money(b.Total),
		})
	}
	return res
}

func toTotalsResponse(t billing.Totals) TotalsResponse {
	return TotalsResponse{
		SubTotal:       money(t.SubTotal),
		GSTBreakdown:   toGSTBreakdown(t.GSTBreakdown),
		GSTTotal:       money(t.GSTTotal),
		DiscountAmount: money(t.DiscountAmount),
		GrandTotal:     money(t.GrandTotal),
	}
}

// PreviewTotals runs the totals engine on an unsaved document.
func PreviewTotals(req TotalsRequest) (TotalsResponse, error) {
	doc, err := parsePricedDocument(req.Items, req.Adjustment, req.DiscountPercent)
	if err != nil {
		return TotalsResponse{}, err
	}
	return toTotalsResponse(doc.totals), nil
}
