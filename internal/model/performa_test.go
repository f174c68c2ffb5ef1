package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestPrimaryStockIDUsesPosition(t *testing.T) {
	first, second, explicit := uuid.New(), uuid.New(), uuid.New()
	// Rows as a database may hand them back: not in entry order.
	items := []PerformaItem{
		{LineItem: LineItem{Position: 2, StockID: &second}},
		{LineItem: LineItem{Position: 0}},
		{LineItem: LineItem{Position: 1, StockID: &first}},
	}

	tests := []struct {
		name  string
		draft PerformaInvoice
		want  *uuid.UUID
	}{
		{"lowest position with stock", PerformaInvoice{Items: items}, &first},
		{"explicit stock wins", PerformaInvoice{StockID: &explicit, Items: items}, &explicit},
		{"no stock anywhere", PerformaInvoice{Items: items[1:2]}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.draft.PrimaryStockID()
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("got %v, want %v", got, *tt.want)
			}
		})
	}
}
