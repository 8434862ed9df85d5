// Package sales satış kaydı ve iade işlemlerini yürütür.
//
// Bir satış tek transaction içinde çalışır: doğrulama, stok kontrolü (tüm
// malzemeler için, düşümden önce), fiyat hesabı, ürün ve malzeme düşümü,
// kayıt. Herhangi bir adımda hata olursa hiçbir değişiklik kalmaz.
package sales

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/metrics"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"
	"cafe-backend/internal/units"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saleNumberFormat = "SAT-%06d"

type ExecuteRequest struct {
	ItemID         uint
	Quantity       int
	PaymentMethod  string
	DiscountAmount float64
	Notes          string
	Operator       string
}

// Requirement bir malzemeden satış için gereken toplam miktar (kanonik birimde)
type Requirement struct {
	Material *models.Material
	Amount   float64
}

// NormalizePaymentMethod boş değeri NAKİT kabul eder, bilinmeyenleri reddeder.
func NormalizePaymentMethod(method string) (string, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return models.PaymentCash, nil
	}
	if m, ok := locale.MatchOption(method, models.SalePaymentMethods); ok {
		return m, nil
	}
	return "", apperr.Invalid("ödeme yöntemi '%s' geçersiz (%s)", method, strings.Join(models.SalePaymentMethods, ", "))
}

// Requirements reçete satırlarını satış adediyle çarpar ve malzeme bazında
// kanonik birimde toplar. Aynı malzeme birden fazla satırda farklı birimle
// geçebilir.
func Requirements(tbl *units.Table, lines []models.RecipeLine, quantity int) (map[uint]float64, error) {
	out := make(map[uint]float64, len(lines))
	for i := range lines {
		l := &lines[i]
		if l.Material.ID == 0 {
			return nil, fmt.Errorf("%w: #%d", apperr.ErrMaterialNotFound, l.MaterialID)
		}
		amt, err := ledger.Canonical(tbl, &l.Material, l.Quantity*float64(quantity), l.Unit)
		if err != nil {
			return nil, err
		}
		out[l.MaterialID] += amt
	}
	return out, nil
}

// CheckStock ürün ve malzeme stoklarının satış için yeterli olduğunu
// doğrular. Malzemeler id sırasıyla kilitlenir.
func CheckStock(tx *gorm.DB, tbl *units.Table, item *models.Item, quantity int) ([]Requirement, error) {
	if err := ledger.ItemAvailable(item, quantity); err != nil {
		return nil, err
	}

	required, err := Requirements(tbl, item.RecipeLines, quantity)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reqs := make([]Requirement, 0, len(ids))
	for _, id := range ids {
		m, err := ledger.LockMaterial(tx, id)
		if err != nil {
			return nil, err
		}
		if err := ledger.Available(m, required[id]); err != nil {
			return nil, err
		}
		reqs = append(reqs, Requirement{Material: m, Amount: required[id]})
	}
	return reqs, nil
}

// Quote satışın dökümünü stoğa dokunmadan hesaplar.
func Quote(db *gorm.DB, itemID uint, quantity int) (pricing.Breakdown, error) {
	if quantity <= 0 {
		return pricing.Breakdown{}, fmt.Errorf("%w (adet: %d)", apperr.ErrInvalidQuantity, quantity)
	}
	item, err := loadItemWithRecipe(db, itemID, false)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.ForItem(item).Scale(quantity), nil
}

// Execute satışı kaydeder.
func Execute(db *gorm.DB, tbl *units.Table, req ExecuteRequest) (*models.Sale, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w (adet: %d)", apperr.ErrInvalidQuantity, req.Quantity)
	}
	method, err := NormalizePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if req.DiscountAmount < 0 {
		return nil, apperr.Invalid("indirim negatif olamaz")
	}

	var sale models.Sale
	err = db.Transaction(func(tx *gorm.DB) error {
		item, err := loadItemWithRecipe(tx, req.ItemID, true)
		if err != nil {
			return err
		}

		if _, err := CheckStock(tx, tbl, item, req.Quantity); err != nil {
			return err
		}

		b := pricing.ForItem(item).Scale(req.Quantity)
		if req.DiscountAmount > b.PriceInclTax {
			return apperr.Invalid("indirim (%.2f) toplam tutardan (%.2f) büyük olamaz", req.DiscountAmount, b.PriceInclTax)
		}

		sale = models.Sale{
			SaleNumber:     "TMP-" + uuid.NewString(),
			ItemID:         item.ID,
			Quantity:       req.Quantity,
			UnitPrice:      pricing.Round(item.Price),
			TotalPrice:     b.PriceExclTax,
			TaxRate:        b.TaxRate,
			TaxAmount:      b.TaxAmount,
			TotalWithTax:   pricing.Sub(b.PriceInclTax, req.DiscountAmount),
			ProductCost:    b.IngredientCost,
			GrossProfit:    b.GrossProfit,
			NetProfit:      pricing.Sub(b.NetProfit, req.DiscountAmount),
			DiscountAmount: pricing.Round(req.DiscountAmount),
			PaymentMethod:  method,
			Notes:          strings.TrimSpace(req.Notes),
			Operator:       req.Operator,
			SaleDate:       time.Now(),
		}
		if err := tx.Omit(clause.Associations).Create(&sale).Error; err != nil {
			return fmt.Errorf("satış kaydedilemedi: %w", err)
		}
		sale.SaleNumber = fmt.Sprintf(saleNumberFormat, sale.ID)
		if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Update("sale_number", sale.SaleNumber).Error; err != nil {
			return fmt.Errorf("satış numarası atanamadı: %w", err)
		}

		mv := ledger.Movement{Reason: "Satış", Reference: sale.SaleNumber, Operator: req.Operator}
		if _, err := ledger.ConsumeItem(tx, item.ID, req.Quantity, mv); err != nil {
			return err
		}
		for _, l := range item.RecipeLines {
			if _, err := ledger.Consume(tx, tbl, l.MaterialID, l.Quantity*float64(req.Quantity), l.Unit, mv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var ise *apperr.InsufficientStockError
		if errors.As(err, &ise) {
			metrics.RecordStockRejection(ise.Resource)
		}
		return nil, err
	}

	metrics.RecordSale(sale.PaymentMethod, sale.TotalWithTax)
	return &sale, nil
}

// Refund satışı iade eder. Zaten iade edilmiş satış için false döner ve
// hiçbir şey değişmez. restoreMaterials true ise ürünün güncel reçetesine
// göre malzemeler de stoğa geri eklenir (pasif malzemeler atlanır).
func Refund(db *gorm.DB, tbl *units.Table, saleID uint, reason string, restoreMaterials bool, operator string) (bool, error) {
	reason = strings.TrimSpace(reason)
	movementReason := "İade"
	if reason != "" {
		movementReason = "İade - " + reason
	}

	refunded := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: satış #%d", apperr.ErrNotFound, saleID)
			}
			return fmt.Errorf("satış okunamadı: %w", err)
		}
		if sale.IsRefunded {
			return nil
		}

		now := time.Now()
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND is_refunded = ?", sale.ID, false).
			Updates(map[string]any{
				"is_refunded":   true,
				"refund_reason": reason,
				"refunded_at":   now,
			})
		if res.Error != nil {
			return fmt.Errorf("iade kaydedilemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		mv := ledger.Movement{Reason: movementReason, Reference: sale.SaleNumber, Operator: operator}
		if _, err := ledger.ReturnItem(tx, sale.ItemID, sale.Quantity, mv); err != nil {
			return err
		}

		if restoreMaterials {
			var lines []models.RecipeLine
			if err := tx.Preload("Material").Where("item_id = ?", sale.ItemID).Order("id").Find(&lines).Error; err != nil {
				return fmt.Errorf("reçete okunamadı: %w", err)
			}
			for _, l := range lines {
				if !l.Material.IsActive() {
					continue
				}
				if _, err := ledger.Receive(tx, tbl, l.MaterialID, l.Quantity*float64(sale.Quantity), l.Unit, mv); err != nil {
					return err
				}
			}
		}

		refunded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if refunded {
		metrics.RecordRefund()
	}
	return refunded, nil
}

func loadItemWithRecipe(tx *gorm.DB, itemID uint, lock bool) (*models.Item, error) {
	var item *models.Item
	if lock {
		it, err := ledger.LockItem(tx, itemID)
		if err != nil {
			return nil, err
		}
		item = it
	} else {
		var it models.Item
		if err := tx.First(&it, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, itemID)
			}
			return nil, fmt.Errorf("ürün okunamadı: %w", err)
		}
		if !it.IsActive() {
			return nil, fmt.Errorf("%w: %s (pasif)", apperr.ErrItemNotFound, it.Name)
		}
		item = &it
	}

	if err := tx.Preload("Material").Where("item_id = ?", item.ID).Order("id").Find(&item.RecipeLines).Error; err != nil {
		return nil, fmt.Errorf("reçete okunamadı: %w", err)
	}
	return item, nil
}
