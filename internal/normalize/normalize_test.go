package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"R$ 1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"(123,45)", "-123.45"},
		{"(123.45)", "-123.45"},
		{"-250,00", "-250"},
		{"10", "10"},
		{"0,00", "0"},
		{"R$ 987,10", "987.1"},
		{"1.000", "1"},
		{"12,5", "12.5"},
		{"abc", "0"},
		{"", "0"},
		{"R$ ", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseAmount(tt.input)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"day month year", "25/12/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"year month day", "2024/12/25", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"single digit parts", "5/3/2023", time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"iso date", "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"dashed brazilian", "25-12-2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"garbage falls back to now", "amanhã", now},
		{"empty falls back to now", "", now},
		{"year too old falls back", "31/12/1850", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input, now)
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
