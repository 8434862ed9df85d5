package ledger

import (
	"errors"
	"fmt"
	"math"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate postgres'te satır kilidi ekler. SQLite yazmaları zaten seri
// çalıştırır ve FOR UPDATE sözdizimini desteklemez.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// LockMaterial malzemeyi okur (postgres'te FOR UPDATE). Pasif malzeme de
// ErrMaterialNotFound döner.
func LockMaterial(tx *gorm.DB, id uint) (*models.Material, error) {
	var m models.Material
	if err := forUpdate(tx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", apperr.ErrMaterialNotFound, id)
		}
		return nil, fmt.Errorf("malzeme okunamadı: %w", err)
	}
	if !m.IsActive() {
		return nil, fmt.Errorf("%w: %s (pasif)", apperr.ErrMaterialNotFound, m.Name)
	}
	return &m, nil
}

// Receive malzeme stoğuna giriş yapar.
func Receive(tx *gorm.DB, tbl *units.Table, materialID uint, amount float64, unit string, mv Movement) (*models.Material, error) {
	m, err := LockMaterial(tx, materialID)
	if err != nil {
		return nil, err
	}

	amt, err := Canonical(tbl, m, amount, unit)
	if err != nil {
		return nil, err
	}

	prev := m.Quantity
	if err := tx.Model(&models.Material{}).
		Where("id = ?", m.ID).
		Update("quantity", gorm.Expr("quantity + ?", amt)).Error; err != nil {
		return nil, fmt.Errorf("stok güncellenemedi: %w", err)
	}

	if err := reloadQuantity(tx, m); err != nil {
		return nil, err
	}
	if err := recordMaterial(tx, m, models.MovementIn, amt, amount, unitOr(unit, m.Unit), prev, mv); err != nil {
		return nil, err
	}
	return m, nil
}

// Consume malzeme stoğundan düşer. Kontrol ve düşüm aynı koşullu UPDATE
// içinde yapılır; araya giren başka bir düşüm stoğu eksiye çekemez.
func Consume(tx *gorm.DB, tbl *units.Table, materialID uint, amount float64, unit string, mv Movement) (*models.Material, error) {
	m, err := LockMaterial(tx, materialID)
	if err != nil {
		return nil, err
	}

	amt, err := Canonical(tbl, m, amount, unit)
	if err != nil {
		return nil, err
	}
	if err := Available(m, amt); err != nil {
		return nil, err
	}

	prev := m.Quantity
	res := tx.Model(&models.Material{}).
		Where("id = ? AND quantity >= ?", m.ID, amt).
		Update("quantity", gorm.Expr("quantity - ?", amt))
	if res.Error != nil {
		return nil, fmt.Errorf("stok güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := reloadQuantity(tx, m); err != nil {
			return nil, err
		}
		return nil, &apperr.InsufficientStockError{
			Resource:  m.Name,
			Unit:      m.Unit,
			Available: m.Quantity,
			Requested: amt,
		}
	}

	if err := reloadQuantity(tx, m); err != nil {
		return nil, err
	}
	if err := recordMaterial(tx, m, models.MovementOut, amt, amount, unitOr(unit, m.Unit), prev, mv); err != nil {
		return nil, err
	}
	return m, nil
}

// Count sayım sonucu stoğu mutlak değere çeker.
func Count(tx *gorm.DB, tbl *units.Table, materialID uint, counted float64, unit string, mv Movement) (*models.Material, error) {
	m, err := LockMaterial(tx, materialID)
	if err != nil {
		return nil, err
	}
	if counted < 0 || math.IsNaN(counted) || math.IsInf(counted, 0) {
		return nil, fmt.Errorf("%w (sayım: %v)", apperr.ErrInvalidQuantity, counted)
	}

	target := counted
	if unit != "" && unit != m.Unit {
		if target, err = tbl.Convert(counted, unit, m.Unit); err != nil {
			return nil, err
		}
	}

	prev := m.Quantity
	if err := tx.Model(&models.Material{}).
		Where("id = ?", m.ID).
		Update("quantity", target).Error; err != nil {
		return nil, fmt.Errorf("sayım kaydedilemedi: %w", err)
	}
	m.Quantity = target

	if err := recordMaterial(tx, m, models.MovementCount, math.Abs(target-prev), counted, unitOr(unit, m.Unit), prev, mv); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangeUnit malzemenin kanonik birimini aynı ailedeki başka bir birime
// taşır. Miktar yeni birime çevrilir, birim maliyet stok değeri
// korunacak şekilde ölçeklenir ve bir ayarlama hareketi yazılır. Eski
// birimdeki reçete satırları da yeni birime çevrilir, reçete maliyeti
// değişmez.
func ChangeUnit(tx *gorm.DB, tbl *units.Table, materialID uint, newUnit string, mv Movement) (*models.Material, error) {
	m, err := LockMaterial(tx, materialID)
	if err != nil {
		return nil, err
	}
	if newUnit == m.Unit {
		return m, nil
	}
	if _, err := tbl.Lookup(newUnit); err != nil {
		return nil, err
	}

	qty, err := tbl.Convert(m.Quantity, m.Unit, newUnit)
	if err != nil {
		return nil, err
	}
	cost, err := tbl.Convert(m.UnitCost, newUnit, m.Unit)
	if err != nil {
		return nil, err
	}

	prev := m.Quantity
	oldUnit := m.Unit
	if err := tx.Model(&models.Material{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{"unit": newUnit, "quantity": qty, "unit_cost": cost}).Error; err != nil {
		return nil, fmt.Errorf("birim değiştirilemedi: %w", err)
	}
	m.Unit, m.Quantity, m.UnitCost = newUnit, qty, cost

	if err := convertRecipeLines(tx, tbl, m.ID, oldUnit, newUnit); err != nil {
		return nil, err
	}

	if mv.Note == "" {
		mv.Note = fmt.Sprintf("Birim değişimi: %s -> %s", oldUnit, newUnit)
	}
	// Önceki miktar eski birimde, hareket miktarı yeni birimde
	if err := recordMaterial(tx, m, models.MovementAdjustment, qty, prev, oldUnit, prev, mv); err != nil {
		return nil, err
	}
	return m, nil
}

// convertRecipeLines malzemenin eski birimde yazılmış reçete satırlarını
// yeni birime taşır. Diğer birimlerdeki satırlara dokunulmaz.
func convertRecipeLines(tx *gorm.DB, tbl *units.Table, materialID uint, oldUnit, newUnit string) error {
	var lines []models.RecipeLine
	if err := tx.Where("material_id = ? AND unit = ?", materialID, oldUnit).Find(&lines).Error; err != nil {
		return fmt.Errorf("reçete satırları okunamadı: %w", err)
	}
	for _, l := range lines {
		q, err := tbl.Convert(l.Quantity, oldUnit, newUnit)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.RecipeLine{}).
			Where("id = ?", l.ID).
			Updates(map[string]any{"quantity": q, "unit": newUnit}).Error; err != nil {
			return fmt.Errorf("reçete satırı çevrilemedi: %w", err)
		}
	}
	return nil
}

// MaterialMovements son hareketleri yeniden eskiye döner.
func MaterialMovements(db *gorm.DB, materialID uint, limit int) ([]models.MaterialMovement, error) {
	var rows []models.MaterialMovement
	q := db.Where("material_id = ?", materialID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hareketler listelenemedi: %w", err)
	}
	return rows, nil
}

func reloadQuantity(tx *gorm.DB, m *models.Material) error {
	var fresh models.Material
	if err := tx.Select("id", "quantity").First(&fresh, m.ID).Error; err != nil {
		return fmt.Errorf("malzeme okunamadı: %w", err)
	}
	m.Quantity = fresh.Quantity
	return nil
}

func recordMaterial(tx *gorm.DB, m *models.Material, typ models.MovementType, amt, inputQty float64, inputUnit string, prev float64, mv Movement) error {
	row := models.MaterialMovement{
		MaterialID:       m.ID,
		Type:             typ,
		Quantity:         amt,
		InputQuantity:    inputQty,
		InputUnit:        inputUnit,
		PreviousQuantity: prev,
		NewQuantity:      m.Quantity,
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

func unitOr(unit, def string) string {
	if unit == "" {
		return def
	}
	return unit
}
