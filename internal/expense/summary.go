package expense

import (
	"fmt"
	"sort"
	"time"

	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"

	"gorm.io/gorm"
)

type CategoryTotal struct {
	CategoryID uint    `json:"category_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Count      int64   `json:"count"`
	Total      float64 `json:"total"`
	SharePct   float64 `json:"share_pct"`
}

type MonthTotal struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	Total     float64 `json:"total"`
}

type Summary struct {
	From              string         `json:"from"`
	To                string         `json:"to"`
	Days              int            `json:"days"`
	Count             int64          `json:"count"`
	Total             float64        `json:"total"`
	TotalDisplay      string         `json:"total_display"`
	AveragePerExpense float64        `json:"average_per_expense"`
	AveragePerDay     float64        `json:"average_per_day"`
	TopCategory       *CategoryTotal `json:"top_category"`
}

// Total aralıktaki giderlerin toplamı
func Total(db *gorm.DB, from, to time.Time) (float64, error) {
	var total float64
	if err := (Filter{From: from, To: to}).apply(db.Model(&models.Expense{})).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("gider toplamı hesaplanamadı: %w", err)
	}
	return pricing.Round(total), nil
}

// ByCategory kategori bazında toplamlar, tutara göre azalan
func ByCategory(db *gorm.DB, from, to time.Time) ([]CategoryTotal, error) {
	type row struct {
		CategoryID uint
		Count      int64
		Total      float64
	}
	var rows []row
	if err := (Filter{From: from, To: to}).apply(db.Model(&models.Expense{})).
		Select("category_id, COUNT(*) AS count, SUM(amount) AS total").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("kategori özeti hesaplanamadı: %w", err)
	}

	// kategori isimlerini çek
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CategoryID)
	}
	catMap := make(map[uint]models.ExpenseCategory, len(ids))
	if len(ids) > 0 {
		var cats []models.ExpenseCategory
		if err := db.Where("id IN ?", ids).Find(&cats).Error; err != nil {
			return nil, fmt.Errorf("kategoriler yüklenemedi: %w", err)
		}
		for _, c := range cats {
			catMap[c.ID] = c
		}
	}

	totals := make([]float64, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, r.Total)
	}
	grand := pricing.Sum(totals...)

	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		cat := catMap[r.CategoryID]
		out = append(out, CategoryTotal{
			CategoryID: r.CategoryID,
			Code:       cat.Code,
			Name:       cat.Name,
			Count:      r.Count,
			Total:      pricing.Round(r.Total),
			SharePct:   pricing.Percent(r.Total, grand),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

// Monthly ay bazında toplamlar, kronolojik. Ay gruplaması veritabanından
// bağımsız olsun diye Go tarafında yapılır; giderin olmadığı aylar dönmez.
func Monthly(db *gorm.DB, from, to time.Time) ([]MonthTotal, error) {
	var rows []models.Expense
	if err := (Filter{From: from, To: to}).apply(db.Model(&models.Expense{})).
		Select("id", "date", "amount").
		Order("date asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("aylık gider özeti hesaplanamadı: %w", err)
	}

	type key struct {
		y int
		m time.Month
	}
	sums := map[key][]float64{}
	var order []key
	for _, e := range rows {
		d := e.Date.In(time.Local)
		k := key{d.Year(), d.Month()}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] = append(sums[k], e.Amount)
	}

	out := make([]MonthTotal, 0, len(order))
	for _, k := range order {
		out = append(out, MonthTotal{
			Year:      k.y,
			Month:     int(k.m),
			MonthName: locale.MonthName(k.m),
			Label:     locale.MonthLabel(k.y, k.m),
			Count:     len(sums[k]),
			Total:     pricing.Sum(sums[k]...),
		})
	}
	return out, nil
}

// Summarize aralık özeti: toplam, adet, ortalamalar ve en yüksek kategori.
// days aralığın gün sayısıdır (en az 1).
func Summarize(db *gorm.DB, from, to time.Time, days int) (Summary, error) {
	if days < 1 {
		days = 1
	}
	cats, err := ByCategory(db, from, to)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Days: days}
	totals := make([]float64, 0, len(cats))
	for _, c := range cats {
		s.Count += c.Count
		totals = append(totals, c.Total)
	}
	s.Total = pricing.Sum(totals...)
	s.TotalDisplay = locale.FormatCurrency(s.Total)
	if s.Count > 0 {
		s.AveragePerExpense = pricing.Round(s.Total / float64(s.Count))
	}
	s.AveragePerDay = pricing.Round(s.Total / float64(days))
	if len(cats) > 0 {
		top := cats[0]
		s.TopCategory = &top
	}
	return s, nil
}
