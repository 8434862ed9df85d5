package inventory

import (
	"fmt"

	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"

	"gorm.io/gorm"
)

// Düşük stok seviyeleri
const (
	LevelCritical = "Kritik"
	LevelLow      = "Düşük"
)

type LowStockMaterial struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
	Level     string  `json:"level"`
}

type LowStockItem struct {
	ID            uint   `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

type LowStockReport struct {
	Threshold float64            `json:"threshold"`
	Materials []LowStockMaterial `json:"materials"`
	Items     []LowStockItem     `json:"items"`
}

// Count raporlanan toplam kalem sayısı
func (r LowStockReport) Count() int {
	return len(r.Materials) + len(r.Items)
}

// LowStock eşiğin altındaki aktif malzemeleri ve minimum seviyesine inmiş
// aktif ürünleri listeler. Eşiğin yarısının altı Kritik sayılır.
func LowStock(db *gorm.DB, threshold float64) (LowStockReport, error) {
	out := LowStockReport{
		Threshold: threshold,
		Materials: []LowStockMaterial{},
		Items:     []LowStockItem{},
	}

	var mats []models.Material
	if err := db.Where("status = ? AND quantity < ?", models.StatusActive, threshold).
		Order("quantity asc, name asc").Find(&mats).Error; err != nil {
		return out, fmt.Errorf("düşük stoklu malzemeler okunamadı: %w", err)
	}
	for _, m := range mats {
		level := LevelLow
		if m.Quantity < threshold/2 {
			level = LevelCritical
		}
		out.Materials = append(out.Materials, LowStockMaterial{
			ID:        m.ID,
			Name:      m.Name,
			Unit:      m.Unit,
			Quantity:  m.Quantity,
			Threshold: threshold,
			Level:     level,
		})
	}

	var items []models.Item
	if err := db.Where("status = ? AND quantity <= min_stock_level", models.StatusActive).
		Order("quantity asc, name asc").Find(&items).Error; err != nil {
		return out, fmt.Errorf("düşük stoklu ürünler okunamadı: %w", err)
	}
	for _, it := range items {
		out.Items = append(out.Items, LowStockItem{
			ID:            it.ID,
			Code:          it.Code,
			Name:          it.Name,
			Quantity:      it.Quantity,
			MinStockLevel: it.MinStockLevel,
		})
	}
	return out, nil
}

type StockValueRow struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Value    float64 `json:"value"`
}

type StockValueReport struct {
	Rows  []StockValueRow `json:"rows"`
	Total float64         `json:"total"`
}

// StockValue aktif malzemelerin eldeki stok değeri (miktar x birim maliyet)
func StockValue(db *gorm.DB) (StockValueReport, error) {
	var mats []models.Material
	if err := db.Where("status = ?", models.StatusActive).Order("name asc").Find(&mats).Error; err != nil {
		return StockValueReport{}, fmt.Errorf("malzemeler okunamadı: %w", err)
	}

	out := StockValueReport{Rows: make([]StockValueRow, 0, len(mats))}
	values := make([]float64, 0, len(mats))
	for _, m := range mats {
		v := m.TotalValue()
		values = append(values, v)
		out.Rows = append(out.Rows, StockValueRow{
			ID:       m.ID,
			Name:     m.Name,
			Unit:     m.Unit,
			Quantity: m.Quantity,
			UnitCost: m.UnitCost,
			Value:    pricing.Round(v),
		})
	}
	out.Total = pricing.Sum(values...)
	return out, nil
}
