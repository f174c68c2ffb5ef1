package service

import (
	"testing"
	"time"

	"erp/pkg/daterange"
)

func TestParseDateFollowsCallerZone(t *testing.T) {
	newYork := time.FixedZone("EDT", -4*60*60)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, newYork)

	got, err := parseDate("invoice_date", "2026-10-17", now)
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if want := time.Date(2026, 10, 17, 0, 0, 0, 0, newYork); !got.Equal(want) {
		t.Fatalf("parseDate = %v, want %v", got, want)
	}

	for _, tt := range []struct {
		option, custom string
	}{
		{daterange.Today, ""},
		{daterange.Custom, "2026-10-17"},
		{daterange.ThisMonth, ""},
	} {
		rng, err := daterange.Resolve(tt.option, tt.custom, now)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.option, err)
		}
		if !rng.Contains(got) {
			t.Errorf("%s range %v..%v misses a document dated %v", tt.option, rng.Start, rng.End, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	fallback := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"empty", "  ", fallback, false},
		{"day", "2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339 keeps its offset", "2026-03-01T10:00:00+05:30", time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC), false},
		{"garbage", "01/03/2026", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate("date", tt.raw, fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLineItemsKeepsEntryOrder(t *testing.T) {
	items, err := parseLineItems([]LineItemRequest{
		{Name: "Bolt", Quantity: 10, UnitPrice: "2", GSTRate: "18"},
		{Name: "Nut", Quantity: 10, UnitPrice: "1", GSTRate: "18"},
		{Name: "Washer", Quantity: 5, UnitPrice: "0.5", GSTRate: "5"},
	})
	if err != nil {
		t.Fatalf("parseLineItems: %v", err)
	}
	for i, want := range []string{"Bolt", "Nut", "Washer"} {
		if items[i].Position != i || items[i].Name != want {
			t.Errorf("items[%d] = %s at position %d", i, items[i].Name, items[i].Position)
		}
	}
}
