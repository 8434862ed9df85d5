package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/metrics"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ürün varsayılanları
const (
	DefaultTaxRate       = 8.0
	DefaultProfitMargin  = 30.0
	DefaultMinStockLevel = 5
)

type ItemInput struct {
	Code          string
	Name          string
	CategoryID    *uint
	Price         float64
	CostPrice     float64
	TaxRate       *float64
	ProfitMargin  *float64
	Quantity      int
	Unit          string
	MinStockLevel *int
	Description   string
	Operator      string
}

// ItemPatch: nil alanlar değişmez. CategoryID 0 kategoriyi kaldırır.
type ItemPatch struct {
	Code          *string
	Name          *string
	CategoryID    *uint
	Price         *float64
	CostPrice     *float64
	TaxRate       *float64
	ProfitMargin  *float64
	Unit          *string
	MinStockLevel *int
	Description   *string
	Operator      string
}

type ItemFilter struct {
	CategoryID      *uint
	Search          string
	IncludeInactive bool
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validTax(v float64) bool {
	return v >= 0 && v <= 100
}

// CreateItem yeni satılabilir ürün ekler.
func CreateItem(db *gorm.DB, tbl *units.Table, in ItemInput) (*models.Item, error) {
	code := locale.NormalizeCode(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperr.Invalid("ürün kodu ve adı zorunlu")
	}
	if !validPrice(in.Price) || !validPrice(in.CostPrice) {
		return nil, apperr.Invalid("fiyat negatif olamaz")
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w (başlangıç: %d)", apperr.ErrInvalidQuantity, in.Quantity)
	}
	if in.CategoryID != nil && *in.CategoryID == 0 {
		in.CategoryID = nil
	}

	it := models.Item{
		Code:          code,
		Name:          name,
		CategoryID:    in.CategoryID,
		Price:         in.Price,
		CostPrice:     in.CostPrice,
		TaxRate:       DefaultTaxRate,
		ProfitMargin:  DefaultProfitMargin,
		Unit:          units.Piece,
		MinStockLevel: DefaultMinStockLevel,
		Description:   strings.TrimSpace(in.Description),
		Status:        models.StatusActive,
	}
	if in.TaxRate != nil {
		it.TaxRate = *in.TaxRate
	}
	if !validTax(it.TaxRate) {
		return nil, apperr.Invalid("KDV oranı 0-100 arasında olmalı")
	}
	if in.ProfitMargin != nil {
		it.ProfitMargin = *in.ProfitMargin
	}
	if u := strings.TrimSpace(in.Unit); u != "" {
		if _, err := tbl.Lookup(u); err != nil {
			return nil, err
		}
		it.Unit = u
	}
	if in.MinStockLevel != nil {
		if *in.MinStockLevel < 0 {
			return nil, apperr.Invalid("minimum stok seviyesi negatif olamaz")
		}
		it.MinStockLevel = *in.MinStockLevel
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureItemCode(tx, code, 0); err != nil {
			return err
		}
		if err := ensureCategory(tx, it.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&it).Error; err != nil {
			return fmt.Errorf("ürün oluşturulamadı: %w", err)
		}
		if in.Quantity > 0 {
			got, err := ledger.ReceiveItem(tx, it.ID, in.Quantity, ledger.Movement{Reason: ReasonOpening, Operator: in.Operator})
			if err != nil {
				return err
			}
			it.Quantity = got.Quantity
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    in.Operator,
			EntityType:  audit.EntityItem,
			EntityID:    it.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Ürün eklendi: %s (%s)", it.Name, it.Code),
			After:       it,
		})
	})
	if err != nil {
		return nil, err
	}
	if in.Quantity > 0 {
		metrics.RecordStockMovement("item", string(models.MovementIn))
	}
	return &it, nil
}

// UpdateItem verilen alanları günceller. Stok miktarı buradan değişmez.
func UpdateItem(db *gorm.DB, tbl *units.Table, id uint, p ItemPatch) (*models.Item, error) {
	var it models.Item
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&it, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
			}
			return fmt.Errorf("ürün okunamadı: %w", err)
		}
		before := it

		updates := map[string]any{}
		if p.Code != nil {
			code := locale.NormalizeCode(*p.Code)
			if code == "" {
				return apperr.Invalid("ürün kodu boş olamaz")
			}
			if code != it.Code {
				if err := ensureItemCode(tx, code, it.ID); err != nil {
					return err
				}
				updates["code"] = code
				it.Code = code
			}
		}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return apperr.Invalid("ürün adı boş olamaz")
			}
			updates["name"] = name
			it.Name = name
		}
		if p.CategoryID != nil {
			if *p.CategoryID == 0 {
				updates["category_id"] = nil
				it.CategoryID = nil
			} else {
				if err := ensureCategory(tx, p.CategoryID); err != nil {
					return err
				}
				cid := *p.CategoryID
				updates["category_id"] = cid
				it.CategoryID = &cid
			}
		}
		if p.Price != nil {
			if !validPrice(*p.Price) {
				return apperr.Invalid("fiyat negatif olamaz")
			}
			updates["price"] = *p.Price
			it.Price = *p.Price
		}
		if p.CostPrice != nil {
			if !validPrice(*p.CostPrice) {
				return apperr.Invalid("maliyet fiyatı negatif olamaz")
			}
			updates["cost_price"] = *p.CostPrice
			it.CostPrice = *p.CostPrice
		}
		if p.TaxRate != nil {
			if !validTax(*p.TaxRate) {
				return apperr.Invalid("KDV oranı 0-100 arasında olmalı")
			}
			updates["tax_rate"] = *p.TaxRate
			it.TaxRate = *p.TaxRate
		}
		if p.ProfitMargin != nil {
			updates["profit_margin"] = *p.ProfitMargin
			it.ProfitMargin = *p.ProfitMargin
		}
		if p.Unit != nil {
			u := strings.TrimSpace(*p.Unit)
			if _, err := tbl.Lookup(u); err != nil {
				return err
			}
			updates["unit"] = u
			it.Unit = u
		}
		if p.MinStockLevel != nil {
			if *p.MinStockLevel < 0 {
				return apperr.Invalid("minimum stok seviyesi negatif olamaz")
			}
			updates["min_stock_level"] = *p.MinStockLevel
			it.MinStockLevel = *p.MinStockLevel
		}
		if p.Description != nil {
			updates["description"] = strings.TrimSpace(*p.Description)
			it.Description = strings.TrimSpace(*p.Description)
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Item{}).Where("id = ?", it.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("ürün güncellenemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    p.Operator,
			EntityType:  audit.EntityItem,
			EntityID:    it.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Ürün güncellendi: %s", it.Name),
			Before:      before,
			After:       it,
		})
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func SetItemStatus(db *gorm.DB, id uint, status models.Status, operator string) (*models.Item, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("durum '%s' geçersiz", status)
	}
	var it models.Item
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&it, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
			}
			return fmt.Errorf("ürün okunamadı: %w", err)
		}
		if it.Status == status {
			return nil
		}
		prev := it.Status
		if err := tx.Model(&models.Item{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return fmt.Errorf("ürün durumu güncellenemedi: %w", err)
		}
		it.Status = status
		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityItem,
			EntityID:    it.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Ürün durumu: %s -> %s (%s)", prev, status, it.Name),
			Before:      map[string]any{"status": prev},
			After:       map[string]any{"status": status},
		})
	})
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// HardDeleteItem satışı olmayan ürünü reçetesi ve stok hareketleriyle
// birlikte siler. Satışı olan ürün yalnızca pasife alınabilir.
func HardDeleteItem(db *gorm.DB, id uint, operator string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var it models.Item
		if err := tx.First(&it, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
			}
			return fmt.Errorf("ürün okunamadı: %w", err)
		}

		var sales int64
		if err := tx.Model(&models.Sale{}).Where("item_id = ?", id).Count(&sales).Error; err != nil {
			return fmt.Errorf("satışlar kontrol edilemedi: %w", err)
		}
		if sales > 0 {
			return fmt.Errorf("%w: %s ürününün %d satışı var, pasife alın", apperr.ErrInUse, it.Name, sales)
		}

		if err := tx.Where("item_id = ?", id).Delete(&models.RecipeLine{}).Error; err != nil {
			return fmt.Errorf("reçete silinemedi: %w", err)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return fmt.Errorf("stok hareketleri silinemedi: %w", err)
		}
		if err := tx.Delete(&models.Item{}, id).Error; err != nil {
			return fmt.Errorf("ürün silinemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityItem,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Ürün silindi: %s (%s)", it.Name, it.Code),
			Before:      it,
		})
	})
}

// GetItem ürünü kategorisi ve reçetesiyle döner.
func GetItem(db *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	err := db.Preload("Category").
		Preload("RecipeLines", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		Preload("RecipeLines.Material").
		First(&it, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("ürün okunamadı: %w", err)
	}
	return &it, nil
}

func ListItems(db *gorm.DB, f ItemFilter) ([]models.Item, error) {
	q := db.Model(&models.Item{}).Preload("Category")
	if !f.IncludeInactive {
		q = q.Where("status = ?", models.StatusActive)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	var rows []models.Item
	if err := q.Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ürünler listelenemedi: %w", err)
	}
	return rows, nil
}

// AdjustItem ürün stoğuna giriş ya da çıkış yapar.
func AdjustItem(db *gorm.DB, id uint, qty int, remove bool, mv ledger.Movement) (*models.Item, error) {
	if mv.Reason == "" {
		mv.Reason = ReasonManual
	}
	var it *models.Item
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if remove {
			it, err = ledger.ConsumeItem(tx, id, qty, mv)
		} else {
			it, err = ledger.ReceiveItem(tx, id, qty, mv)
		}
		return err
	})
	if err != nil {
		recordRejection(err)
		return nil, err
	}
	typ := models.MovementIn
	if remove {
		typ = models.MovementOut
	}
	metrics.RecordStockMovement("item", string(typ))
	return it, nil
}

func CountItem(db *gorm.DB, id uint, counted int, mv ledger.Movement) (*models.Item, error) {
	if mv.Reason == "" {
		mv.Reason = ReasonCount
	}
	var it *models.Item
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		it, err = ledger.CountItem(tx, id, counted, mv)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordStockMovement("item", string(models.MovementCount))
	return it, nil
}

// LineCost reçete satırının tek birim ürün için maliyeti
type LineCost struct {
	LineID       uint    `json:"line_id"`
	MaterialID   uint    `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	UnitCost     float64 `json:"unit_cost"`
	Cost         float64 `json:"cost"`
}

type ItemCost struct {
	ItemID    uint              `json:"item_id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Lines     []LineCost        `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// CostOfItem ürünün reçete maliyetini ve tek birim fiyat dökümünü hesaplar.
func CostOfItem(db *gorm.DB, id uint) (*ItemCost, error) {
	it, err := GetItem(db, id)
	if err != nil {
		return nil, err
	}
	out := &ItemCost{
		ItemID:    it.ID,
		Code:      it.Code,
		Name:      it.Name,
		Lines:     make([]LineCost, 0, len(it.RecipeLines)),
		Breakdown: pricing.ForItem(it),
	}
	for _, l := range it.RecipeLines {
		out.Lines = append(out.Lines, LineCost{
			LineID:       l.ID,
			MaterialID:   l.MaterialID,
			MaterialName: l.Material.Name,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			UnitCost:     l.Material.UnitCost,
			Cost:         pricing.Round(l.Quantity * l.Material.UnitCost),
		})
	}
	return out, nil
}

func ensureItemCode(tx *gorm.DB, code string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Item{}).Where("code = ?", code)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("ürün kodu kontrol edilemedi: %w", err)
	}
	if n > 0 {
		return apperr.Duplicate("ürün kodu", code)
	}
	return nil
}

func ensureCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var cat models.ProductCategory
	if err := tx.First(&cat, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: kategori #%d", apperr.ErrNotFound, *id)
		}
		return fmt.Errorf("kategori okunamadı: %w", err)
	}
	return nil
}
