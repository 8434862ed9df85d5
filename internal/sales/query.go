package sales

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"

	"gorm.io/gorm"
)

type Filter struct {
	From            time.Time
	To              time.Time // hariç
	ItemID          *uint
	PaymentMethod   string
	IncludeRefunded bool
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if !f.From.IsZero() {
		q = q.Where("sale_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("sale_date < ?", f.To)
	}
	if f.ItemID != nil {
		q = q.Where("item_id = ?", *f.ItemID)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if !f.IncludeRefunded {
		q = q.Where("is_refunded = ?", false)
	}
	return q
}

// List filtreye uyan satışları yeniden eskiye döner.
func List(db *gorm.DB, f Filter) ([]models.Sale, error) {
	var rows []models.Sale
	if err := f.apply(db.Model(&models.Sale{}).Preload("Item")).
		Order("sale_date desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("satışlar listelenemedi: %w", err)
	}
	return rows, nil
}

func Get(db *gorm.DB, id uint) (*models.Sale, error) {
	var s models.Sale
	if err := db.Preload("Item").First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: satış #%d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("satış okunamadı: %w", err)
	}
	return &s, nil
}

// Totals satış toplamları
type Totals struct {
	SaleCount     int64   `json:"sale_count"`
	TotalQuantity int64   `json:"total_quantity"`
	Revenue       float64 `json:"revenue"` // KDV dahil
	RevenueNet    float64 `json:"revenue_net"`
	TaxTotal      float64 `json:"tax_total"`
	CostTotal     float64 `json:"cost_total"`
	GrossProfit   float64 `json:"gross_profit"`
	NetProfit     float64 `json:"net_profit"`
	DiscountTotal float64 `json:"discount_total"`
	AverageTicket float64 `json:"average_ticket"`
}

// Report aralıktaki (iade edilmemiş) satışların toplamı
func Report(db *gorm.DB, from, to time.Time) (Totals, error) {
	var r struct {
		SaleCount     int64
		TotalQuantity int64
		Revenue       float64
		RevenueNet    float64
		TaxTotal      float64
		CostTotal     float64
		GrossProfit   float64
		NetProfit     float64
		DiscountTotal float64
	}
	err := Filter{From: from, To: to}.apply(db.Model(&models.Sale{})).
		Select(`COUNT(*) AS sale_count,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(total_with_tax), 0) AS revenue,
			COALESCE(SUM(total_price), 0) AS revenue_net,
			COALESCE(SUM(tax_amount), 0) AS tax_total,
			COALESCE(SUM(product_cost), 0) AS cost_total,
			COALESCE(SUM(gross_profit), 0) AS gross_profit,
			COALESCE(SUM(net_profit), 0) AS net_profit,
			COALESCE(SUM(discount_amount), 0) AS discount_total`).
		Scan(&r).Error
	if err != nil {
		return Totals{}, fmt.Errorf("satış raporu hesaplanamadı: %w", err)
	}

	t := Totals{
		SaleCount:     r.SaleCount,
		TotalQuantity: r.TotalQuantity,
		Revenue:       pricing.Round(r.Revenue),
		RevenueNet:    pricing.Round(r.RevenueNet),
		TaxTotal:      pricing.Round(r.TaxTotal),
		CostTotal:     pricing.Round(r.CostTotal),
		GrossProfit:   pricing.Round(r.GrossProfit),
		NetProfit:     pricing.Round(r.NetProfit),
		DiscountTotal: pricing.Round(r.DiscountTotal),
	}
	if t.SaleCount > 0 {
		t.AverageTicket = pricing.Round(r.Revenue / float64(t.SaleCount))
	}
	return t, nil
}

type ProductSummaryRow struct {
	ItemID      uint    `json:"item_id"`
	ItemCode    string  `json:"item_code"`
	ItemName    string  `json:"item_name"`
	SaleCount   int64   `json:"sale_count"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
	Cost        float64 `json:"cost"`
	GrossProfit float64 `json:"gross_profit"`
	NetProfit   float64 `json:"net_profit"`
	MarginPct   float64 `json:"margin_pct"` // net kar / KDV hariç ciro
}

// ProductSummary ürün bazında satış özeti, ciroya göre azalan sırada
func ProductSummary(db *gorm.DB, from, to time.Time) ([]ProductSummaryRow, error) {
	type row struct {
		ItemID      uint
		SaleCount   int64
		Quantity    int64
		Revenue     float64
		RevenueNet  float64
		Cost        float64
		GrossProfit float64
		NetProfit   float64
	}
	var rows []row
	err := Filter{From: from, To: to}.apply(db.Model(&models.Sale{})).
		Select(`item_id,
			COUNT(*) AS sale_count,
			SUM(quantity) AS quantity,
			SUM(total_with_tax) AS revenue,
			SUM(total_price) AS revenue_net,
			SUM(product_cost) AS cost,
			SUM(gross_profit) AS gross_profit,
			SUM(net_profit) AS net_profit`).
		Group("item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ürün özeti hesaplanamadı: %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ItemID)
	}
	items := make(map[uint]models.Item, len(ids))
	if len(ids) > 0 {
		var list []models.Item
		if err := db.Where("id IN ?", ids).Find(&list).Error; err != nil {
			return nil, fmt.Errorf("ürünler yüklenemedi: %w", err)
		}
		for _, it := range list {
			items[it.ID] = it
		}
	}

	out := make([]ProductSummaryRow, 0, len(rows))
	for _, r := range rows {
		it := items[r.ItemID]
		out = append(out, ProductSummaryRow{
			ItemID:      r.ItemID,
			ItemCode:    it.Code,
			ItemName:    it.Name,
			SaleCount:   r.SaleCount,
			Quantity:    r.Quantity,
			Revenue:     pricing.Round(r.Revenue),
			Cost:        pricing.Round(r.Cost),
			GrossProfit: pricing.Round(r.GrossProfit),
			NetProfit:   pricing.Round(r.NetProfit),
			MarginPct:   pricing.Percent(r.NetProfit, r.RevenueNet),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}
