package reports

import (
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"

	"gorm.io/gorm"
)

type TrendPoint struct {
	Start       string  `json:"start"`
	Label       string  `json:"label"`
	SaleCount   int     `json:"sale_count"`
	Quantity    int     `json:"quantity"`
	Revenue     float64 `json:"revenue"`
	Cost        float64 `json:"cost"`
	GrossProfit float64 `json:"gross_profit"`
}

type TrendTotals struct {
	SaleCount      int     `json:"sale_count"`
	Quantity       int     `json:"quantity"`
	Revenue        float64 `json:"revenue"`
	Cost           float64 `json:"cost"`
	GrossProfit    float64 `json:"gross_profit"`
	RevenueDisplay string  `json:"revenue_display"`
}

type SalesTrendReport struct {
	Period string       `json:"period"` // daily | weekly | monthly
	Count  int          `json:"count"`
	From   string       `json:"from"`
	To     string       `json:"to"` // dahil
	Points []TrendPoint `json:"points"`
	Totals TrendTotals  `json:"grand_totals"`
}

// SalesTrend now'ı içeren periyot dahil geriye doğru count periyodun satış
// toplamları. Satışı olmayan periyotlar sıfır değerle döner.
func SalesTrend(db *gorm.DB, period string, count int, now time.Time) (SalesTrendReport, error) {
	period, err := NormalizePeriod(period, PeriodDaily, PeriodWeekly, PeriodMonthly)
	if err != nil {
		return SalesTrendReport{}, err
	}
	if count == 0 {
		count = DefaultCount(period)
	}
	if count < 1 || count > MaxTrendCount {
		return SalesTrendReport{}, apperr.Invalid("count 1-%d arasında olmalı", MaxTrendCount)
	}

	last := periodStart(now, period)
	var first time.Time
	switch period {
	case PeriodWeekly:
		first = last.AddDate(0, 0, -7*(count-1))
	case PeriodMonthly:
		first = last.AddDate(0, -(count - 1), 0)
	default:
		first = last.AddDate(0, 0, -(count - 1))
	}
	end := nextPeriod(last, period)

	rows, err := loadSales(db, first, end)
	if err != nil {
		return SalesTrendReport{}, err
	}

	type agg struct {
		count, qty           int
		revenue, cost, gross money
	}
	starts, err := periodStarts(first, end, period)
	if err != nil {
		return SalesTrendReport{}, err
	}
	index := make(map[int64]int, len(starts))
	aggs := make([]agg, len(starts))
	for i, s := range starts {
		index[s.Unix()] = i
	}

	var total agg
	for _, s := range rows {
		i, ok := index[periodStart(s.SaleDate, period).Unix()]
		if !ok {
			continue
		}
		gross := s.TotalWithTax - s.ProductCost
		for _, a := range []*agg{&aggs[i], &total} {
			a.count++
			a.qty += s.Quantity
			a.revenue.add(s.TotalWithTax)
			a.cost.add(s.ProductCost)
			a.gross.add(gross)
		}
	}

	points := make([]TrendPoint, 0, len(starts))
	for i, s := range starts {
		a := aggs[i]
		points = append(points, TrendPoint{
			Start:       s.Format(httpx.DateLayout),
			Label:       periodLabel(s, period),
			SaleCount:   a.count,
			Quantity:    a.qty,
			Revenue:     a.revenue.value(),
			Cost:        a.cost.value(),
			GrossProfit: a.gross.value(),
		})
	}

	return SalesTrendReport{
		Period: period,
		Count:  count,
		From:   first.Format(httpx.DateLayout),
		To:     end.AddDate(0, 0, -1).Format(httpx.DateLayout),
		Points: points,
		Totals: TrendTotals{
			SaleCount:      total.count,
			Quantity:       total.qty,
			Revenue:        total.revenue.value(),
			Cost:           total.cost.value(),
			GrossProfit:    total.gross.value(),
			RevenueDisplay: locale.FormatCurrency(total.revenue.value()),
		},
	}, nil
}

type ExpenseTrendPoint struct {
	Start string  `json:"start"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type ExpenseTrendReport struct {
	Period       string              `json:"period"` // daily | monthly
	Points       []ExpenseTrendPoint `json:"points"`
	Total        float64             `json:"total"`
	TotalDisplay string              `json:"total_display"`
}

// ExpenseTrend [from, to) aralığındaki giderlerin günlük veya aylık seyri
func ExpenseTrend(db *gorm.DB, from, to time.Time, period string) (ExpenseTrendReport, error) {
	period, err := NormalizePeriod(period, PeriodDaily, PeriodMonthly)
	if err != nil {
		return ExpenseTrendReport{}, err
	}
	starts, err := periodStarts(from, to, period)
	if err != nil {
		return ExpenseTrendReport{}, err
	}
	rows, err := loadExpenses(db, from, to)
	if err != nil {
		return ExpenseTrendReport{}, err
	}

	index := make(map[int64]int, len(starts))
	points := make([]ExpenseTrendPoint, len(starts))
	sums := make([]money, len(starts))
	for i, s := range starts {
		index[s.Unix()] = i
		points[i] = ExpenseTrendPoint{Start: s.Format(httpx.DateLayout), Label: periodLabel(s, period)}
	}

	var total money
	for _, e := range rows {
		i, ok := index[periodStart(e.Date, period).Unix()]
		if !ok {
			continue
		}
		points[i].Count++
		sums[i].add(e.Amount)
		total.add(e.Amount)
	}
	for i := range points {
		points[i].Total = sums[i].value()
	}

	return ExpenseTrendReport{
		Period:       period,
		Points:       points,
		Total:        total.value(),
		TotalDisplay: locale.FormatCurrency(total.value()),
	}, nil
}
