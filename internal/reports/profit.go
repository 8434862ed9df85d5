package reports

import (
	"time"

	"cafe-backend/internal/expense"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/inventory"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/pricing"
	"cafe-backend/internal/sales"

	"gorm.io/gorm"
)

const MaxComparisonMonths = 36

// PeriodMetrics bir aralığın kar/zarar özeti. Brüt kar KDV dahil ciro ile
// malzeme maliyeti farkıdır; net kar brüt kardan giderlerin düşülmüş halidir.
type PeriodMetrics struct {
	Label           string  `json:"label,omitempty"`
	From            string  `json:"from"`
	To              string  `json:"to"` // dahil
	SaleCount       int64   `json:"sale_count"`
	Revenue         float64 `json:"revenue"`
	TaxTotal        float64 `json:"tax_total"`
	DiscountTotal   float64 `json:"discount_total"`
	CostOfGoods     float64 `json:"cost_of_goods"`
	GrossProfit     float64 `json:"gross_profit"`
	Expenses        float64 `json:"expenses"`
	NetProfit       float64 `json:"net_profit"`
	ProfitMarginPct float64 `json:"profit_margin_pct"` // brüt kar / ciro, ciro yoksa 0
	AverageSale     float64 `json:"average_sale"`
	RevenueDisplay  string  `json:"revenue_display"`
	NetDisplay      string  `json:"net_display"`
}

// ProfitAnalysis [from, to) aralığının kar/zarar özeti
func ProfitAnalysis(db *gorm.DB, from, to time.Time) (PeriodMetrics, error) {
	t, err := sales.Report(db, from, to)
	if err != nil {
		return PeriodMetrics{}, err
	}
	exp, err := expense.Total(db, from, to)
	if err != nil {
		return PeriodMetrics{}, err
	}

	gross := pricing.Sub(t.Revenue, t.CostTotal)
	net := pricing.Sub(gross, exp)
	return PeriodMetrics{
		From:            from.Format(httpx.DateLayout),
		To:              to.AddDate(0, 0, -1).Format(httpx.DateLayout),
		SaleCount:       t.SaleCount,
		Revenue:         t.Revenue,
		TaxTotal:        t.TaxTotal,
		DiscountTotal:   t.DiscountTotal,
		CostOfGoods:     t.CostTotal,
		GrossProfit:     gross,
		Expenses:        exp,
		NetProfit:       net,
		ProfitMarginPct: pricing.Percent(gross, t.Revenue),
		AverageSale:     t.AverageTicket,
		RevenueDisplay:  locale.FormatCurrency(t.Revenue),
		NetDisplay:      locale.FormatCurrency(net),
	}, nil
}

type DailyProfitRow struct {
	Date        string  `json:"date"`
	Label       string  `json:"label"`
	DayName     string  `json:"day_name"`
	SaleCount   int     `json:"sale_count"`
	Revenue     float64 `json:"revenue"`
	Cost        float64 `json:"cost"`
	GrossProfit float64 `json:"gross_profit"`
	Expenses    float64 `json:"expenses"`
	NetProfit   float64 `json:"net_profit"`
}

// DailyProfit aralıktaki her gün için ciro, brüt kar, gider ve net kar.
// Hareket olmayan günler sıfırla döner.
func DailyProfit(db *gorm.DB, from, to time.Time) ([]DailyProfitRow, error) {
	days, err := periodStarts(from, to, PeriodDaily)
	if err != nil {
		return nil, err
	}
	saleRows, err := loadSales(db, from, to)
	if err != nil {
		return nil, err
	}
	expRows, err := loadExpenses(db, from, to)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count                   int
		revenue, cost, expenses money
	}
	index := make(map[int64]int, len(days))
	aggs := make([]agg, len(days))
	for i, d := range days {
		index[d.Unix()] = i
	}
	for _, s := range saleRows {
		if i, ok := index[httpx.DayStart(s.SaleDate).Unix()]; ok {
			aggs[i].count++
			aggs[i].revenue.add(s.TotalWithTax)
			aggs[i].cost.add(s.ProductCost)
		}
	}
	for _, e := range expRows {
		if i, ok := index[httpx.DayStart(e.Date).Unix()]; ok {
			aggs[i].expenses.add(e.Amount)
		}
	}

	out := make([]DailyProfitRow, 0, len(days))
	for i, d := range days {
		a := aggs[i]
		gross := pricing.Sub(a.revenue.value(), a.cost.value())
		out = append(out, DailyProfitRow{
			Date:        d.Format(httpx.DateLayout),
			Label:       locale.FormatDate(d),
			DayName:     locale.DayName(d.Weekday()),
			SaleCount:   a.count,
			Revenue:     a.revenue.value(),
			Cost:        a.cost.value(),
			GrossProfit: gross,
			Expenses:    a.expenses.value(),
			NetProfit:   pricing.Sub(gross, a.expenses.value()),
		})
	}
	return out, nil
}

type ProductProfitRow struct {
	ItemID    uint    `json:"item_id"`
	ItemCode  string  `json:"item_code"`
	ItemName  string  `json:"item_name"`
	SaleCount int64   `json:"sale_count"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Profit    float64 `json:"profit"`
	MarginPct float64 `json:"margin_pct"`
}

// ProductProfitability ürün bazında kar ve marj, ciroya göre azalan
func ProductProfitability(db *gorm.DB, from, to time.Time, limit int) ([]ProductProfitRow, error) {
	rows, err := TopProducts(db, from, to, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProductProfitRow, 0, len(rows))
	for _, r := range rows {
		profit := pricing.Sub(r.Revenue, r.Cost)
		out = append(out, ProductProfitRow{
			ItemID:    r.ItemID,
			ItemCode:  r.ItemCode,
			ItemName:  r.ItemName,
			SaleCount: r.SaleCount,
			Quantity:  r.Quantity,
			Revenue:   r.Revenue,
			Cost:      r.Cost,
			Profit:    profit,
			MarginPct: pricing.Percent(profit, r.Revenue),
		})
	}
	return out, nil
}

// MonthlyComparison now'ın ayı dahil son months ayın özetleri, eskiden yeniye
func MonthlyComparison(db *gorm.DB, months int, now time.Time) ([]PeriodMetrics, error) {
	current := periodStart(now, PeriodMonthly)
	out := make([]PeriodMetrics, 0, months)
	for i := months - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		m, err := ProfitAnalysis(db, from, from.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		m.Label = locale.MonthLabel(from.Year(), from.Month())
		out = append(out, m)
	}
	return out, nil
}

type Dashboard struct {
	Today         PeriodMetrics `json:"today"`
	Week          PeriodMetrics `json:"week"`
	Month         PeriodMetrics `json:"month"`
	LowStockCount int           `json:"low_stock_count"`
	GeneratedAt   string        `json:"generated_at"`
}

// Summary bugün, bu hafta (pazartesiden) ve bu ay için özet ve kritik
// stok sayısı
func Summary(db *gorm.DB, now time.Time, lowStockThreshold float64) (Dashboard, error) {
	var d Dashboard
	periods := []struct {
		dst    *PeriodMetrics
		period string
		label  string
	}{
		{&d.Today, PeriodDaily, "Bugün"},
		{&d.Week, PeriodWeekly, "Bu hafta"},
		{&d.Month, PeriodMonthly, "Bu ay"},
	}
	for _, p := range periods {
		from := periodStart(now, p.period)
		m, err := ProfitAnalysis(db, from, nextPeriod(from, p.period))
		if err != nil {
			return Dashboard{}, err
		}
		m.Label = p.label
		*p.dst = m
	}

	low, err := inventory.LowStock(db, lowStockThreshold)
	if err != nil {
		return Dashboard{}, err
	}
	d.LowStockCount = low.Count()
	d.GeneratedAt = locale.FormatDateTime(now)
	return d, nil
}
