package locale

import (
	"testing"
	"time"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234.56, "1.234,56 ₺"},
		{0, "0,00 ₺"},
		{5, "5,00 ₺"},
		{999.999, "1.000,00 ₺"},
		{1234567.891, "1.234.567,89 ₺"},
		{-5, "-5,00 ₺"},
		{-0.001, "0,00 ₺"},
		{32.4, "32,40 ₺"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.in); got != c.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(9.999, 3); got != "9,999" {
		t.Errorf("FormatNumber(9.999, 3) = %q", got)
	}
	if got := FormatNumber(12500, 0); got != "12.500" {
		t.Errorf("FormatNumber(12500, 0) = %q", got)
	}
	if got := FormatNumber(100, 1); got != "100,0" {
		t.Errorf("FormatNumber(100, 1) = %q", got)
	}
}

func TestDateHelpers(t *testing.T) {
	d := time.Date(2025, time.March, 9, 14, 5, 0, 0, time.UTC)
	if got := FormatDate(d); got != "09.03.2025" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatDateTime(d); got != "09.03.2025 14:05" {
		t.Errorf("FormatDateTime = %q", got)
	}
	if got := MonthName(d.Month()); got != "Mart" {
		t.Errorf("MonthName = %q", got)
	}
	if got := DayName(d.Weekday()); got != "Pazar" {
		t.Errorf("DayName = %q", got)
	}
	if got := MonthLabel(2025, time.August); got != "Ağustos 2025" {
		t.Errorf("MonthLabel = %q", got)
	}
	if MonthName(13) != "" {
		t.Errorf("MonthName(13) should be empty")
	}
}

func TestUpperCode(t *testing.T) {
	cases := map[string]string{
		"kira":       "KİRA",
		" elektrik ": "ELEKTRİK",
		"hot_drink":  "HOT_DRİNK",
		"ıslak":      "ISLAK",
		"DİĞER":      "DİĞER",
	}
	for in, want := range cases {
		if got := UpperCode(in); got != want {
			t.Errorf("UpperCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"hot_drink": "HOT_DRINK",
		" latte ":   "LATTE",
		"Çay":       "ÇAY",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchOption(t *testing.T) {
	options := []string{"NAKİT", "KART", "HAVALE", "DİĞER"}
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"nakit", "NAKİT", true},
		{"NAKİT", "NAKİT", true},
		{" kart ", "KART", true},
		{"Havale", "HAVALE", true},
		{"diğer", "DİĞER", true},
		{"kripto", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MatchOption(tc.in, options)
		if got != tc.want || ok != tc.ok {
			t.Errorf("MatchOption(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
