package daterange

import (
	"errors"
	"testing"
	"time"
)

func TestResolve(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.March, 13, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		option string
		custom string
		want   Range
	}{
		{name: "empty means all", option: "", want: Range{}},
		{name: "all", option: "all", want: Range{}},
		{name: "today", option: "today", want: Range{Start: day(2024, 3, 13), End: day(2024, 3, 14)}},
		{name: "yesterday", option: "yesterday", want: Range{Start: day(2024, 3, 12), End: day(2024, 3, 13)}},
		{name: "this week starts monday", option: "this_week", want: Range{Start: day(2024, 3, 11), End: day(2024, 3, 18)}},
		{name: "last week", option: "last_week", want: Range{Start: day(2024, 3, 4), End: day(2024, 3, 11)}},
		{name: "this month", option: "this_month", want: Range{Start: day(2024, 3, 1), End: day(2024, 4, 1)}},
		{name: "last month", option: "last_month", want: Range{Start: day(2024, 2, 1), End: day(2024, 3, 1)}},
		{name: "this year", option: "this_year", want: Range{Start: day(2024, 1, 1), End: day(2025, 1, 1)}},
		{name: "custom day", option: "custom", custom: "2023-12-31", want: Range{Start: day(2023, 12, 31), End: day(2024, 1, 1)}},
		{name: "case insensitive", option: "Today", want: Range{Start: day(2024, 3, 13), End: day(2024, 3, 14)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.option, tt.custom, now)
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Errorf("Resolve() = [%v, %v), want [%v, %v)", got.Start, got.End, tt.want.Start, tt.want.End)
			}
		})
	}
}

func TestResolveSundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, time.March, 17, 9, 0, 0, 0, time.UTC)
	got, err := Resolve(ThisWeek, "", sunday)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC); !got.Start.Equal(want) {
		t.Errorf("week start = %v, want %v", got.Start, want)
	}
}

func TestResolveErrors(t *testing.T) {
	now := time.Now()
	if _, err := Resolve("fortnight", "", now); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("unknown option error = %v, want ErrUnknownOption", err)
	}
	if _, err := Resolve(Custom, "13/03/2024", now); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad custom date error = %v, want ErrInvalidDate", err)
	}
}

func TestContains(t *testing.T) {
	r := Range{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if !r.Contains(r.Start) {
		t.Error("range should include its start")
	}
	if r.Contains(r.End) {
		t.Error("range should exclude its end")
	}
	if !(Range{}).Contains(time.Now()) {
		t.Error("zero range should match everything")
	}
}
