package ledger

import (
	"errors"
	"fmt"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockItem ürünü okur (postgres'te FOR UPDATE). Pasif ürün ErrItemNotFound döner.
func LockItem(tx *gorm.DB, id uint) (*models.Item, error) {
	it, err := lockItem(tx, id)
	if err != nil {
		return nil, err
	}
	if !it.IsActive() {
		return nil, fmt.Errorf("%w: %s (pasif)", apperr.ErrItemNotFound, it.Name)
	}
	return it, nil
}

func lockItem(tx *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	if err := forUpdate(tx).First(&it, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("ürün okunamadı: %w", err)
	}
	return &it, nil
}

// ReceiveItem ürünün sayılabilir stoğuna ekler.
func ReceiveItem(tx *gorm.DB, itemID uint, qty int, mv Movement) (*models.Item, error) {
	it, err := LockItem(tx, itemID)
	if err != nil {
		return nil, err
	}
	return receiveItem(tx, it, qty, mv)
}

// ReturnItem iade edilen ürünü stoğa geri koyar. Ürün sonradan pasife
// alınmış olsa bile stok geri yüklenir.
func ReturnItem(tx *gorm.DB, itemID uint, qty int, mv Movement) (*models.Item, error) {
	it, err := lockItem(tx, itemID)
	if err != nil {
		return nil, err
	}
	return receiveItem(tx, it, qty, mv)
}

func receiveItem(tx *gorm.DB, it *models.Item, qty int, mv Movement) (*models.Item, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w (%s: %d)", apperr.ErrInvalidQuantity, it.Name, qty)
	}

	prev := it.Quantity
	if err := tx.Model(&models.Item{}).
		Where("id = ?", it.ID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
		return nil, fmt.Errorf("ürün stoğu güncellenemedi: %w", err)
	}
	if err := reloadItemQuantity(tx, it); err != nil {
		return nil, err
	}
	if err := recordItem(tx, it, models.MovementIn, qty, prev, mv); err != nil {
		return nil, err
	}
	return it, nil
}

// ConsumeItem ürünün sayılabilir stoğundan düşer.
func ConsumeItem(tx *gorm.DB, itemID uint, qty int, mv Movement) (*models.Item, error) {
	it, err := LockItem(tx, itemID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w (%s: %d)", apperr.ErrInvalidQuantity, it.Name, qty)
	}
	if err := ItemAvailable(it, qty); err != nil {
		return nil, err
	}

	prev := it.Quantity
	res := tx.Model(&models.Item{}).
		Where("id = ? AND quantity >= ?", it.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return nil, fmt.Errorf("ürün stoğu güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := reloadItemQuantity(tx, it); err != nil {
			return nil, err
		}
		return nil, ItemAvailable(it, qty)
	}

	if err := reloadItemQuantity(tx, it); err != nil {
		return nil, err
	}
	if err := recordItem(tx, it, models.MovementOut, qty, prev, mv); err != nil {
		return nil, err
	}
	return it, nil
}

// CountItem sayım sonucu ürün stoğunu mutlak değere çeker.
func CountItem(tx *gorm.DB, itemID uint, counted int, mv Movement) (*models.Item, error) {
	it, err := LockItem(tx, itemID)
	if err != nil {
		return nil, err
	}
	if counted < 0 {
		return nil, fmt.Errorf("%w (sayım: %d)", apperr.ErrInvalidQuantity, counted)
	}

	prev := it.Quantity
	if err := tx.Model(&models.Item{}).
		Where("id = ?", it.ID).
		Update("quantity", counted).Error; err != nil {
		return nil, fmt.Errorf("sayım kaydedilemedi: %w", err)
	}
	it.Quantity = counted

	diff := counted - prev
	if diff < 0 {
		diff = -diff
	}
	if err := recordItem(tx, it, models.MovementCount, diff, prev, mv); err != nil {
		return nil, err
	}
	return it, nil
}

// ItemAvailable ürün stoğu qty için yeterli mi?
func ItemAvailable(it *models.Item, qty int) error {
	if qty > it.Quantity {
		return &apperr.InsufficientStockError{
			Resource:  it.Name,
			Unit:      it.Unit,
			Available: float64(it.Quantity),
			Requested: float64(qty),
		}
	}
	return nil
}

// ItemMovements son ürün hareketleri
func ItemMovements(db *gorm.DB, itemID uint, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	q := db.Where("item_id = ?", itemID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hareketler listelenemedi: %w", err)
	}
	return rows, nil
}

func reloadItemQuantity(tx *gorm.DB, it *models.Item) error {
	var fresh models.Item
	if err := tx.Select("id", "quantity").First(&fresh, it.ID).Error; err != nil {
		return fmt.Errorf("ürün okunamadı: %w", err)
	}
	it.Quantity = fresh.Quantity
	return nil
}

func recordItem(tx *gorm.DB, it *models.Item, typ models.MovementType, qty, prev int, mv Movement) error {
	row := models.StockMovement{
		ItemID:           it.ID,
		Type:             typ,
		Quantity:         qty,
		PreviousQuantity: prev,
		NewQuantity:      it.Quantity,
		Reason:           mv.Reason,
		Reference:        mv.Reference,
		Note:             mv.Note,
		Operator:         mv.Operator,
	}
	if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("stok hareketi kaydedilemedi: %w", err)
	}
	return nil
}
