package reports

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"cafe-backend/internal/expense"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"
	"cafe-backend/internal/sales"

	"gorm.io/gorm"
)

const uncategorized = "Kategorisiz"

// TopProducts ciroya göre en çok satan limit ürün
func TopProducts(db *gorm.DB, from, to time.Time, limit int) ([]sales.ProductSummaryRow, error) {
	rows, err := sales.ProductSummary(db, from, to)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

type CategorySalesRow struct {
	CategoryID *uint   `json:"category_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	SaleCount  int     `json:"sale_count"`
	Quantity   int     `json:"quantity"`
	Revenue    float64 `json:"revenue"`
	Cost       float64 `json:"cost"`
	SharePct   float64 `json:"share_pct"`
}

// CategorySales ürün kategorisi bazında satışlar, ciroya göre azalan.
// Kategorisiz ürünler tek satırda toplanır.
func CategorySales(db *gorm.DB, from, to time.Time) ([]CategorySalesRow, error) {
	rows, err := loadSales(db, from, to)
	if err != nil {
		return nil, err
	}

	type agg struct {
		row           CategorySalesRow
		revenue, cost money
	}
	byKey := map[uint]*agg{}
	var order []uint
	var grand money
	for _, s := range rows {
		var key uint
		if s.Item.Category != nil {
			key = s.Item.Category.ID
		}
		a, ok := byKey[key]
		if !ok {
			a = &agg{row: CategorySalesRow{Name: uncategorized}}
			if c := s.Item.Category; c != nil {
				id := c.ID
				a.row = CategorySalesRow{CategoryID: &id, Code: c.Code, Name: c.Name}
			}
			byKey[key] = a
			order = append(order, key)
		}
		a.row.SaleCount++
		a.row.Quantity += s.Quantity
		a.revenue.add(s.TotalWithTax)
		a.cost.add(s.ProductCost)
		grand.add(s.TotalWithTax)
	}

	out := make([]CategorySalesRow, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		a.row.Revenue = a.revenue.value()
		a.row.Cost = a.cost.value()
		a.row.SharePct = pricing.Percent(a.row.Revenue, grand.value())
		out = append(out, a.row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out, nil
}

type HourRow struct {
	Hour      int     `json:"hour"`
	Label     string  `json:"label"` // 09:00
	SaleCount int     `json:"sale_count"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// HourlySales yerel saate göre 24 saatlik dağılım; boş saatler de döner.
func HourlySales(db *gorm.DB, from, to time.Time) ([]HourRow, error) {
	rows, err := loadSales(db, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]HourRow, 24)
	sums := make([]money, 24)
	for h := range out {
		out[h] = HourRow{Hour: h, Label: fmt.Sprintf("%02d:00", h)}
	}
	for _, s := range rows {
		h := s.SaleDate.In(time.Local).Hour()
		out[h].SaleCount++
		out[h].Quantity += s.Quantity
		sums[h].add(s.TotalWithTax)
	}
	for h := range out {
		out[h].Revenue = sums[h].value()
	}
	return out, nil
}

type PaymentRow struct {
	Method    string  `json:"method"`
	SaleCount int     `json:"sale_count"`
	Revenue   float64 `json:"revenue"`
	SharePct  float64 `json:"share_pct"`
}

type PaymentBreakdownReport struct {
	Methods      []PaymentRow `json:"methods"`
	Total        float64      `json:"total"`
	TotalDisplay string       `json:"total_display"`
}

// PaymentBreakdown ödeme yöntemi bazında ciro. Tüm yöntemler sabit sırada
// döner.
func PaymentBreakdown(db *gorm.DB, from, to time.Time) (PaymentBreakdownReport, error) {
	rows, err := loadSales(db, from, to)
	if err != nil {
		return PaymentBreakdownReport{}, err
	}
	counts := map[string]int{}
	sums := map[string]*money{}
	for _, m := range models.SalePaymentMethods {
		sums[m] = &money{}
	}
	var total money
	for _, s := range rows {
		acc, ok := sums[s.PaymentMethod]
		if !ok {
			acc = &money{}
			sums[s.PaymentMethod] = acc
		}
		counts[s.PaymentMethod]++
		acc.add(s.TotalWithTax)
		total.add(s.TotalWithTax)
	}

	var extra []string
	for m := range sums {
		if !slices.Contains(models.SalePaymentMethods, m) {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	methods := append(append([]string(nil), models.SalePaymentMethods...), extra...)

	r := PaymentBreakdownReport{Total: total.value(), TotalDisplay: locale.FormatCurrency(total.value())}
	for _, m := range methods {
		rev := sums[m].value()
		r.Methods = append(r.Methods, PaymentRow{
			Method:    m,
			SaleCount: counts[m],
			Revenue:   rev,
			SharePct:  pricing.Percent(rev, r.Total),
		})
	}
	return r, nil
}

type ExpenseBreakdownReport struct {
	Categories   []expense.CategoryTotal `json:"categories"`
	Total        float64                 `json:"total"`
	TotalDisplay string                  `json:"total_display"`
}

func ExpenseBreakdown(db *gorm.DB, from, to time.Time) (ExpenseBreakdownReport, error) {
	cats, err := expense.ByCategory(db, from, to)
	if err != nil {
		return ExpenseBreakdownReport{}, err
	}
	totals := make([]float64, 0, len(cats))
	for _, c := range cats {
		totals = append(totals, c.Total)
	}
	total := pricing.Sum(totals...)
	return ExpenseBreakdownReport{Categories: cats, Total: total, TotalDisplay: locale.FormatCurrency(total)}, nil
}
