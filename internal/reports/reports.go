// Package reports satış, gider ve kar raporları, aylık rapor anlık
// görüntüleri ve Excel dışa aktarımı. İade edilmiş satışlar hiçbir rapora
// girmez.
package reports

import (
	"fmt"
	"strings"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/expense"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	MaxTrendCount = 366
)

// DefaultCount periyot için varsayılan kova sayısı
func DefaultCount(period string) int {
	switch period {
	case PeriodWeekly:
		return 8
	case PeriodMonthly:
		return 12
	default:
		return 7
	}
}

// NormalizePeriod boş değeri daily kabul eder; allowed dışındakileri reddeder.
func NormalizePeriod(period string, allowed ...string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "" {
		p = PeriodDaily
	}
	for _, a := range allowed {
		if p == a {
			return p, nil
		}
	}
	return "", apperr.Invalid("period '%s' geçersiz (%s)", period, strings.Join(allowed, ", "))
}

// money kuruş hassasiyetinde toplayıcı
type money struct{ d decimal.Decimal }

func (m *money) add(v float64) { m.d = m.d.Add(decimal.NewFromFloat(v)) }

func (m money) value() float64 { return m.d.Round(2).InexactFloat64() }

// periodStart t'yi içeren periyodun başı. Haftalar pazartesi başlar.
func periodStart(t time.Time, period string) time.Time {
	d := httpx.DayStart(t)
	switch period {
	case PeriodWeekly:
		return d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
	case PeriodMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.Local)
	}
	return d
}

func nextPeriod(t time.Time, period string) time.Time {
	switch period {
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

func periodLabel(t time.Time, period string) string {
	if period == PeriodMonthly {
		return locale.MonthLabel(t.Year(), t.Month())
	}
	return locale.FormatDate(t)
}

// periodStarts [from, to) aralığını kesen periyotların başlangıçları.
// MaxTrendCount'tan fazla periyot üreten aralık reddedilir.
func periodStarts(from, to time.Time, period string) ([]time.Time, error) {
	var out []time.Time
	for t := periodStart(from, period); t.Before(to); t = nextPeriod(t, period) {
		if len(out) == MaxTrendCount {
			return nil, apperr.Invalid("aralık en fazla %d periyot olabilir (%s)", MaxTrendCount, period)
		}
		out = append(out, t)
	}
	return out, nil
}

// loadSales aralıktaki iade edilmemiş satışlar, eskiden yeniye
func loadSales(db *gorm.DB, from, to time.Time) ([]models.Sale, error) {
	var rows []models.Sale
	if err := db.Preload("Item").Preload("Item.Category").
		Where("is_refunded = ? AND sale_date >= ? AND sale_date < ?", false, from, to).
		Order("sale_date asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("satışlar yüklenemedi: %w", err)
	}
	return rows, nil
}

func loadExpenses(db *gorm.DB, from, to time.Time) ([]models.Expense, error) {
	return expense.List(db, expense.Filter{From: from, To: to})
}
