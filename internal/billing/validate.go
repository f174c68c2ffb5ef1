package billing

import (
	"fmt"
	"strings"

	"erp/internal/apperror"

	"github.com/shopspring/decimal"
)

// MaxPercent bounds GST rates and discount percentages.
var MaxPercent = decimal.NewFromInt(100)

// ValidateLines checks the caller-side rules Compute does not enforce.
// Errors carry the offending field path, e.g. "items[1].quantity".
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return apperror.Validation("items", "at least one item is required")
	}

	for i, l := range lines {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		if strings.TrimSpace(l.Name) == "" {
			return apperror.Validation(field("name"), "is required")
		}
		if l.Quantity < 1 {
			return apperror.Validation(field("quantity"), "must be at least 1")
		}
		if l.UnitPrice.IsNegative() {
			return apperror.Validation(field("unit_price"), "must not be negative")
		}
		if l.GSTRate.IsNegative() || l.GSTRate.GreaterThan(MaxPercent) {
			return apperror.Validation(field("gst_rate"), "must be between 0 and 100")
		}
		if l.Discount.IsNegative() {
			return apperror.Validation(field("discount"), "must not be negative")
		}
	}
	return nil
}

// ValidateAdjustments checks the invoice-level discount. The adjustment is
// signed and accepted as is.
func ValidateAdjustments(discountPercent decimal.Decimal) error {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(MaxPercent) {
		return apperror.Validation("discount_percent", "must be between 0 and 100")
	}
	return nil
}

// ParseAmount parses a decimal string from a request body. Empty input yields zero.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation(field, "must be a valid number")
	}
	return d, nil
}
