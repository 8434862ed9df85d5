// Package locale Türkçe sayı, para ve tarih biçimlendirme.
package locale

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const CurrencySymbol = "₺"

var months = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

var days = [...]string{
	"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi",
}

// FormatNumber binlik ayırıcı "." ve ondalık ayırıcı "," ile biçimler.
// 1234.5, 2 -> "1.234,50"
func FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	s := decimal.NewFromFloat(v).StringFixed(int32(decimals))

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg && strings.Trim(intPart+frac, "0") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// FormatCurrency 1234.56 -> "1.234,56 ₺"
func FormatCurrency(v float64) string {
	return FormatNumber(v, 2) + " " + CurrencySymbol
}

// FormatDate 02.01.2006
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateTime 02.01.2006 15:04
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return months[m-1]
}

func DayName(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return ""
	}
	return days[d]
}

// MonthLabel "Mart 2025"
func MonthLabel(year int, m time.Month) string {
	return MonthName(m) + " " + strconv.Itoa(year)
}

// UpperCode gider kategorisi kodlarını Türkçe kurallarıyla büyük harfe çevirir
// (i -> İ, ı -> I) ve boşlukları kırpar.
func UpperCode(s string) string {
	// Caser goroutine'ler arasında paylaşılamaz
	return cases.Upper(language.Turkish).String(strings.TrimSpace(s))
}

// NormalizeCode ürün ve ürün kategorisi kodlarını dil bağımsız büyük harfe
// çevirir (hot_drink -> HOT_DRINK).
func NormalizeCode(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// MatchOption girilen değeri seçenek listesindeki kanonik yazımına eşler
// ("nakit" -> "NAKİT"). Eşleşme yoksa false döner.
func MatchOption(input string, options []string) (string, bool) {
	up := UpperCode(input)
	for _, o := range options {
		if o == up || strings.EqualFold(o, strings.TrimSpace(input)) {
			return o, true
		}
	}
	return "", false
}
