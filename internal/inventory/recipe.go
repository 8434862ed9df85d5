package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipeInput struct {
	MaterialID uint
	Quantity   float64
	Unit       string // boşsa malzemenin birimi
	Operator   string
}

type RecipePatch struct {
	Quantity *float64
	Unit     *string
	Operator string
}

func ListRecipe(db *gorm.DB, itemID uint) ([]models.RecipeLine, error) {
	if err := itemExists(db, itemID); err != nil {
		return nil, err
	}
	var lines []models.RecipeLine
	if err := db.Preload("Material").Where("item_id = ?", itemID).Order("id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("reçete okunamadı: %w", err)
	}
	return lines, nil
}

// AddRecipeLine ürüne reçete satırı ekler. Aynı malzeme bir üründe bir kez
// bulunabilir.
func AddRecipeLine(db *gorm.DB, tbl *units.Table, itemID uint, in RecipeInput) (*models.RecipeLine, error) {
	var line models.RecipeLine
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := itemExists(tx, itemID); err != nil {
			return err
		}
		m, err := ledger.LockMaterial(tx, in.MaterialID)
		if err != nil {
			return err
		}
		unit, err := recipeUnit(tbl, m, in.Quantity, in.Unit)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.RecipeLine{}).
			Where("item_id = ? AND material_id = ?", itemID, m.ID).
			Count(&n).Error; err != nil {
			return fmt.Errorf("reçete kontrol edilemedi: %w", err)
		}
		if n > 0 {
			return apperr.Duplicate("reçete malzemesi", m.Name)
		}

		line = models.RecipeLine{
			ItemID:     itemID,
			MaterialID: m.ID,
			Quantity:   in.Quantity,
			Unit:       unit,
		}
		if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
			return fmt.Errorf("reçete satırı eklenemedi: %w", err)
		}
		line.Material = *m

		return audit.Write(tx, audit.LogOptions{
			Operator:    in.Operator,
			EntityType:  audit.EntityRecipeLine,
			EntityID:    line.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Reçeteye eklendi: ürün #%d, %s %.4f%s", itemID, m.Name, line.Quantity, line.Unit),
			After:       line,
		})
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func UpdateRecipeLine(db *gorm.DB, tbl *units.Table, lineID uint, p RecipePatch) (*models.RecipeLine, error) {
	var line models.RecipeLine
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&line, lineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: reçete satırı #%d", apperr.ErrNotFound, lineID)
			}
			return fmt.Errorf("reçete satırı okunamadı: %w", err)
		}
		before := line

		m, err := ledger.LockMaterial(tx, line.MaterialID)
		if err != nil {
			return err
		}
		qty := line.Quantity
		if p.Quantity != nil {
			qty = *p.Quantity
		}
		unit := line.Unit
		if p.Unit != nil {
			unit = *p.Unit
		}
		if unit, err = recipeUnit(tbl, m, qty, unit); err != nil {
			return err
		}

		if err := tx.Model(&models.RecipeLine{}).Where("id = ?", line.ID).
			Updates(map[string]any{"quantity": qty, "unit": unit}).Error; err != nil {
			return fmt.Errorf("reçete satırı güncellenemedi: %w", err)
		}
		line.Quantity, line.Unit, line.Material = qty, unit, *m

		return audit.Write(tx, audit.LogOptions{
			Operator:    p.Operator,
			EntityType:  audit.EntityRecipeLine,
			EntityID:    line.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Reçete güncellendi: ürün #%d, %s", line.ItemID, m.Name),
			Before:      before,
			After:       line,
		})
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func DeleteRecipeLine(db *gorm.DB, lineID uint, operator string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var line models.RecipeLine
		if err := tx.First(&line, lineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: reçete satırı #%d", apperr.ErrNotFound, lineID)
			}
			return fmt.Errorf("reçete satırı okunamadı: %w", err)
		}
		if err := tx.Delete(&models.RecipeLine{}, line.ID).Error; err != nil {
			return fmt.Errorf("reçete satırı silinemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityRecipeLine,
			EntityID:    line.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Reçeteden çıkarıldı: ürün #%d, malzeme #%d", line.ItemID, line.MaterialID),
			Before:      line,
		})
	})
}

// recipeUnit miktarı ve birimi doğrular, kullanılacak birimi döner.
func recipeUnit(tbl *units.Table, m *models.Material, qty float64, unit string) (string, error) {
	if !(qty > 0) || math.IsInf(qty, 0) {
		return "", fmt.Errorf("%w (%s: %v)", apperr.ErrInvalidQuantity, m.Name, qty)
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return m.Unit, nil
	}
	if !tbl.Valid(unit) {
		return "", fmt.Errorf("%w: %s", apperr.ErrUnknownUnit, unit)
	}
	if !tbl.Compatible(unit, m.Unit) {
		return "", &units.IncompatibleUnitError{From: unit, To: m.Unit}
	}
	return unit, nil
}

func itemExists(db *gorm.DB, id uint) error {
	var n int64
	if err := db.Model(&models.Item{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("ürün okunamadı: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: #%d", apperr.ErrItemNotFound, id)
	}
	return nil
}
