package reports

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

type fixture struct {
	db       *gorm.DB
	latte    models.Item
	cookie   models.Item
	saleSeq  int
	rentID   uint
	waterID  uint
	hotDrink uint
}

func (f *fixture) sale(item models.Item, qty int, total, cost float64, method string, when time.Time, refunded bool) {
	f.saleSeq++
	s := models.Sale{
		SaleNumber:    fmt.Sprintf("SAT-%06d", f.saleSeq),
		ItemID:        item.ID,
		Quantity:      qty,
		UnitPrice:     total / float64(qty),
		TotalPrice:    total,
		TotalWithTax:  total,
		ProductCost:   cost,
		GrossProfit:   total - cost,
		NetProfit:     total - cost,
		PaymentMethod: method,
		IsRefunded:    refunded,
		SaleDate:      when,
	}
	if err := f.db.Omit(clause.Associations).Create(&s).Error; err != nil {
		panic(err)
	}
}

func (f *fixture) expense(catID uint, when time.Time, amount float64) {
	e := models.Expense{CategoryID: catID, Date: when, Amount: amount, PaymentMethod: models.ExpensePaymentCash}
	if err := f.db.Omit(clause.Associations).Create(&e).Error; err != nil {
		panic(err)
	}
}

// newFixture: Şubat'ta 1, Mart'ta 3 geçerli ve 1 iade edilmiş satış;
// Şubat'ta 10, Mart'ta 40 TL gider.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	f := &fixture{db: db}

	var hot models.ProductCategory
	db.Where("code = ?", "HOT_DRINK").First(&hot)
	var rent, water models.ExpenseCategory
	db.Where("code = ?", "KİRA").First(&rent)
	db.Where("code = ?", "SU").First(&water)
	f.hotDrink, f.rentID, f.waterID = hot.ID, rent.ID, water.ID

	f.latte = models.Item{Code: "LATTE", Name: "Latte", CategoryID: &hot.ID, Price: 50, TaxRate: 8, Quantity: 100, Unit: units.Piece, MinStockLevel: 5, Status: models.StatusActive}
	f.cookie = models.Item{Code: "KURABIYE", Name: "Kurabiye", Price: 10, TaxRate: 8, Quantity: 100, Unit: units.Piece, MinStockLevel: 5, Status: models.StatusActive}
	for _, it := range []*models.Item{&f.latte, &f.cookie} {
		if err := db.Omit(clause.Associations).Create(it).Error; err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	f.sale(f.latte, 2, 100, 30, models.PaymentCash, at(2025, time.March, 3, 9, 15), false)
	f.sale(f.latte, 1, 50, 15, models.PaymentCard, at(2025, time.March, 4, 14, 30), false)
	f.sale(f.cookie, 3, 30, 6, models.PaymentCash, at(2025, time.March, 4, 14, 10), false)
	f.sale(f.latte, 1, 500, 1, models.PaymentCard, at(2025, time.March, 4, 10, 0), true)
	f.sale(f.cookie, 1, 20, 4, models.PaymentCash, at(2025, time.February, 20, 9, 0), false)

	f.expense(rent.ID, at(2025, time.March, 4, 0, 0), 40)
	f.expense(water.ID, at(2025, time.February, 10, 0, 0), 10)
	return f
}

var (
	march    = at(2025, time.March, 1, 0, 0)
	april    = at(2025, time.April, 1, 0, 0)
	february = at(2025, time.February, 1, 0, 0)
)

func TestSalesTrendDaily(t *testing.T) {
	f := newFixture(t)
	r, err := SalesTrend(f.db, "", 3, at(2025, time.March, 5, 12, 0))
	if err != nil {
		t.Fatalf("SalesTrend: %v", err)
	}
	if r.Period != PeriodDaily || r.From != "2025-03-03" || r.To != "2025-03-05" || len(r.Points) != 3 {
		t.Fatalf("unexpected window %+v", r)
	}
	if r.Points[0].Revenue != 100 || r.Points[1].Revenue != 80 || r.Points[1].SaleCount != 2 || r.Points[2].SaleCount != 0 {
		t.Fatalf("unexpected points %+v", r.Points)
	}
	if r.Totals.Revenue != 180 || r.Totals.SaleCount != 3 || r.Totals.GrossProfit != 129 || r.Totals.Quantity != 6 {
		t.Fatalf("unexpected totals %+v", r.Totals)
	}
	if r.Points[0].Label != "03.03.2025" {
		t.Fatalf("label = %q", r.Points[0].Label)
	}
}

func TestSalesTrendWeeklyAndMonthly(t *testing.T) {
	f := newFixture(t)
	now := at(2025, time.March, 5, 12, 0)

	w, err := SalesTrend(f.db, "weekly", 2, now)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if len(w.Points) != 2 || w.Points[0].Start != "2025-02-24" || w.Points[0].SaleCount != 0 || w.Points[1].Revenue != 180 {
		t.Fatalf("unexpected weekly %+v", w.Points)
	}

	m, err := SalesTrend(f.db, "monthly", 0, now)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if m.Count != 12 || len(m.Points) != 12 {
		t.Fatalf("default monthly count = %d/%d", m.Count, len(m.Points))
	}
	feb, mar := m.Points[10], m.Points[11]
	if feb.Label != "Şubat 2025" || feb.Revenue != 20 || mar.Revenue != 180 || m.Totals.Revenue != 200 {
		t.Fatalf("unexpected monthly %+v %+v", feb, mar)
	}

	if _, err := SalesTrend(f.db, "yearly", 1, now); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("bad period err = %v", err)
	}
	if _, err := SalesTrend(f.db, "daily", MaxTrendCount+1, now); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("bad count err = %v", err)
	}
}

func TestProductAndCategoryBreakdown(t *testing.T) {
	f := newFixture(t)

	top, err := TopProducts(f.db, march, april, 1)
	if err != nil || len(top) != 1 || top[0].ItemCode != "LATTE" || top[0].Revenue != 150 {
		t.Fatalf("TopProducts = %+v, %v", top, err)
	}

	cats, err := CategorySales(f.db, march, april)
	if err != nil || len(cats) != 2 {
		t.Fatalf("CategorySales = %+v, %v", cats, err)
	}
	if cats[0].Code != "HOT_DRINK" || cats[0].Revenue != 150 || cats[0].SharePct != 83.33 || cats[0].Quantity != 3 {
		t.Fatalf("unexpected hot drinks row %+v", cats[0])
	}
	if cats[1].CategoryID != nil || cats[1].Name != uncategorized || cats[1].SharePct != 16.67 {
		t.Fatalf("unexpected uncategorized row %+v", cats[1])
	}

	profit, err := ProductProfitability(f.db, march, april, 20)
	if err != nil || len(profit) != 2 {
		t.Fatalf("ProductProfitability = %+v, %v", profit, err)
	}
	if profit[0].Profit != 105 || profit[0].MarginPct != 70 || profit[1].Profit != 24 || profit[1].MarginPct != 80 {
		t.Fatalf("unexpected profitability %+v", profit)
	}
}

func TestHourlyAndPaymentBreakdown(t *testing.T) {
	f := newFixture(t)

	hours, err := HourlySales(f.db, march, april)
	if err != nil || len(hours) != 24 {
		t.Fatalf("HourlySales = %d rows, %v", len(hours), err)
	}
	if hours[9].Revenue != 100 || hours[14].SaleCount != 2 || hours[14].Revenue != 80 || hours[10].SaleCount != 0 {
		t.Fatalf("unexpected hours 9=%+v 10=%+v 14=%+v", hours[9], hours[10], hours[14])
	}
	if hours[14].Label != "14:00" {
		t.Fatalf("label = %q", hours[14].Label)
	}

	pb, err := PaymentBreakdown(f.db, march, april)
	if err != nil {
		t.Fatalf("PaymentBreakdown: %v", err)
	}
	if pb.Total != 180 || len(pb.Methods) != len(models.SalePaymentMethods) {
		t.Fatalf("unexpected breakdown %+v", pb)
	}
	cash, card := pb.Methods[0], pb.Methods[1]
	if cash.Method != models.PaymentCash || cash.SaleCount != 2 || cash.Revenue != 130 || card.Revenue != 50 || card.SaleCount != 1 {
		t.Fatalf("unexpected methods %+v", pb.Methods)
	}
	if pb.Methods[2].SaleCount != 0 || pb.Methods[2].SharePct != 0 {
		t.Fatalf("unused method not zero: %+v", pb.Methods[2])
	}
}

func TestProfitAnalysis(t *testing.T) {
	f := newFixture(t)

	m, err := ProfitAnalysis(f.db, march, april)
	if err != nil {
		t.Fatalf("ProfitAnalysis: %v", err)
	}
	if m.Revenue != 180 || m.CostOfGoods != 51 || m.GrossProfit != 129 || m.Expenses != 40 || m.NetProfit != 89 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if m.ProfitMarginPct != 71.67 || m.SaleCount != 3 || m.AverageSale != 60 {
		t.Fatalf("unexpected margin/average %+v", m)
	}
	if m.From != "2025-03-01" || m.To != "2025-03-31" {
		t.Fatalf("range = %s..%s", m.From, m.To)
	}

	empty, err := ProfitAnalysis(f.db, at(2024, time.January, 1, 0, 0), at(2024, time.February, 1, 0, 0))
	if err != nil || empty.Revenue != 0 || empty.ProfitMarginPct != 0 {
		t.Fatalf("empty range = %+v, %v", empty, err)
	}
}

func TestDailyProfit(t *testing.T) {
	f := newFixture(t)
	rows, err := DailyProfit(f.db, at(2025, time.March, 3, 0, 0), at(2025, time.March, 6, 0, 0))
	if err != nil || len(rows) != 3 {
		t.Fatalf("DailyProfit = %+v, %v", rows, err)
	}
	if rows[0].DayName != "Pazartesi" || rows[0].GrossProfit != 70 {
		t.Fatalf("unexpected first day %+v", rows[0])
	}
	d := rows[1]
	if d.Date != "2025-03-04" || d.Revenue != 80 || d.Cost != 21 || d.GrossProfit != 59 || d.Expenses != 40 || d.NetProfit != 19 {
		t.Fatalf("unexpected second day %+v", d)
	}
	if rows[2].SaleCount != 0 || rows[2].NetProfit != 0 {
		t.Fatalf("empty day not zero %+v", rows[2])
	}
}

func TestDailyRangeIsBounded(t *testing.T) {
	f := newFixture(t)

	// 2024 artık yıl: 366 gün sınırda kabul edilir
	rows, err := DailyProfit(f.db, at(2024, time.January, 1, 0, 0), at(2025, time.January, 1, 0, 0))
	if err != nil || len(rows) != MaxTrendCount {
		t.Fatalf("DailyProfit 366 gün = %d satır, %v", len(rows), err)
	}
	if _, err := DailyProfit(f.db, at(2024, time.January, 1, 0, 0), at(2025, time.January, 2, 0, 0)); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("DailyProfit 367 gün err = %v", err)
	}

	from, to := at(1000, time.January, 1, 0, 0), at(9000, time.January, 1, 0, 0)
	if _, err := DailyProfit(f.db, from, to); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("DailyProfit uzun aralık err = %v", err)
	}
	if _, err := ExpenseTrend(f.db, from, to, "daily"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("ExpenseTrend daily uzun aralık err = %v", err)
	}
	if _, err := ExpenseTrend(f.db, from, to, "monthly"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("ExpenseTrend monthly uzun aralık err = %v", err)
	}
}

func TestExpenseReports(t *testing.T) {
	f := newFixture(t)

	br, err := ExpenseBreakdown(f.db, february, april)
	if err != nil || br.Total != 50 || len(br.Categories) != 2 || br.Categories[0].Code != "KİRA" {
		t.Fatalf("ExpenseBreakdown = %+v, %v", br, err)
	}

	monthly, err := ExpenseTrend(f.db, february, april, "monthly")
	if err != nil || len(monthly.Points) != 2 || monthly.Points[0].Total != 10 || monthly.Points[1].Total != 40 {
		t.Fatalf("monthly trend = %+v, %v", monthly, err)
	}

	daily, err := ExpenseTrend(f.db, march, at(2025, time.March, 8, 0, 0), "")
	if err != nil || len(daily.Points) != 7 || daily.Points[3].Total != 40 || daily.Total != 40 {
		t.Fatalf("daily trend = %+v, %v", daily, err)
	}

	if _, err := ExpenseTrend(f.db, march, april, "weekly"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("weekly expense trend err = %v", err)
	}
}

func TestMonthlyComparison(t *testing.T) {
	f := newFixture(t)
	rows, err := MonthlyComparison(f.db, 2, at(2025, time.March, 5, 12, 0))
	if err != nil || len(rows) != 2 {
		t.Fatalf("MonthlyComparison = %+v, %v", rows, err)
	}
	if rows[0].Label != "Şubat 2025" || rows[0].Revenue != 20 || rows[0].NetProfit != 6 {
		t.Fatalf("unexpected february %+v", rows[0])
	}
	if rows[1].Label != "Mart 2025" || rows[1].NetProfit != 89 {
		t.Fatalf("unexpected march %+v", rows[1])
	}
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	low := models.Material{Name: "Süt", Unit: units.Liter, Quantity: 1, UnitCost: 30, Status: models.StatusActive}
	if err := f.db.Create(&low).Error; err != nil {
		t.Fatalf("create material: %v", err)
	}

	d, err := Summary(f.db, at(2025, time.March, 4, 18, 0), 10)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if d.Today.Revenue != 80 || d.Today.SaleCount != 2 || d.Today.Expenses != 40 {
		t.Fatalf("unexpected today %+v", d.Today)
	}
	if d.Week.Revenue != 180 || d.Week.From != "2025-03-03" || d.Week.To != "2025-03-09" {
		t.Fatalf("unexpected week %+v", d.Week)
	}
	if d.Month.Revenue != 180 || d.Month.NetProfit != 89 {
		t.Fatalf("unexpected month %+v", d.Month)
	}
	if d.LowStockCount != 1 {
		t.Fatalf("low stock count = %d", d.LowStockCount)
	}
}

func TestSaveMonthlyReportIsIdempotent(t *testing.T) {
	f := newFixture(t)

	r, created, err := SaveMonthlyReport(f.db, 2025, 3, "ayse")
	if err != nil || !created {
		t.Fatalf("SaveMonthlyReport = %v, created=%v", err, created)
	}
	if r.SaleCount != 3 || r.TotalRevenue != 180 || r.TotalExpenses != 40 || r.NetProfit != 89 {
		t.Fatalf("unexpected report %+v", r)
	}

	f.expense(f.rentID, at(2025, time.March, 20, 0, 0), 9)
	again, created, err := SaveMonthlyReport(f.db, 2025, 3, "ayse")
	if err != nil || created {
		t.Fatalf("second save = %v, created=%v", err, created)
	}
	if again.ID != r.ID || again.TotalExpenses != 49 || again.NetProfit != 80 {
		t.Fatalf("snapshot not refreshed %+v", again)
	}

	var n int64
	f.db.Model(&models.MonthlyReport{}).Count(&n)
	if n != 1 {
		t.Fatalf("reports = %d, want 1", n)
	}
	var logs int64
	f.db.Model(&models.AuditLog{}).Where("entity_type = ?", "monthly_report").Count(&logs)
	if logs != 2 {
		t.Fatalf("audit logs = %d, want 2", logs)
	}

	stored, err := GetMonthlyReport(f.db, r.ID)
	if err != nil {
		t.Fatalf("GetMonthlyReport: %v", err)
	}
	d := Detail(stored)
	if len(d.Daily) != 31 || len(d.ExpenseCategories) != 1 || len(d.TopProducts) != 2 || len(d.PaymentMethods) != len(models.SalePaymentMethods) {
		t.Fatalf("unexpected detail %+v", d)
	}

	list, err := ListMonthlyReports(f.db)
	if err != nil || len(list) != 1 || list[0].ReportData != "" {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if _, _, err := SaveMonthlyReport(f.db, 2025, 13, ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("bad month err = %v", err)
	}
	if _, err := GetMonthlyReport(f.db, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing report err = %v", err)
	}
}
