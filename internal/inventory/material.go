// Package inventory hammadde, ürün, reçete ve ürün kategorisi yönetimi ile
// stok raporlarını içerir. Stok miktarlarına yalnızca ledger üzerinden
// dokunulur.
package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/metrics"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ReasonOpening = "Açılış stoğu"
	ReasonWaste   = "Zayiat"
	ReasonCount   = "Sayım"
	ReasonManual  = "Manuel"

	minWasteNote = 3
)

type MaterialInput struct {
	Name     string
	Unit     string
	UnitCost float64
	Quantity float64
	Notes    string
	Operator string
}

// MaterialPatch: nil alanlar değişmez
type MaterialPatch struct {
	Name     *string
	Unit     *string
	UnitCost *float64
	Notes    *string
	Operator string
}

type MaterialFilter struct {
	Search          string
	IncludeInactive bool
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CreateMaterial yeni hammadde ekler. Başlangıç miktarı varsa açılış
// stoğu olarak giriş hareketi yazılır.
func CreateMaterial(db *gorm.DB, tbl *units.Table, in MaterialInput) (*models.Material, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return nil, apperr.Invalid("malzeme adı zorunlu")
	}
	if _, err := tbl.Lookup(in.Unit); err != nil {
		return nil, err
	}
	if !validAmount(in.UnitCost) {
		return nil, apperr.Invalid("birim maliyet negatif olamaz")
	}
	if !validAmount(in.Quantity) {
		return nil, fmt.Errorf("%w (başlangıç: %v)", apperr.ErrInvalidQuantity, in.Quantity)
	}

	var m models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureMaterialName(tx, in.Name, 0); err != nil {
			return err
		}

		m = models.Material{
			Name:     in.Name,
			Unit:     in.Unit,
			UnitCost: in.UnitCost,
			Notes:    strings.TrimSpace(in.Notes),
			Status:   models.StatusActive,
		}
		if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
			return fmt.Errorf("malzeme oluşturulamadı: %w", err)
		}

		if in.Quantity > 0 {
			got, err := ledger.Receive(tx, tbl, m.ID, in.Quantity, in.Unit, ledger.Movement{Reason: ReasonOpening, Operator: in.Operator})
			if err != nil {
				return err
			}
			m = *got
		}

		return audit.Write(tx, audit.LogOptions{
			Operator:    in.Operator,
			EntityType:  audit.EntityMaterial,
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Malzeme eklendi: %s (%s)", m.Name, m.Unit),
			After:       m,
		})
	})
	if err != nil {
		return nil, err
	}
	if in.Quantity > 0 {
		metrics.RecordStockMovement("material", string(models.MovementIn))
	}
	return &m, nil
}

// UpdateMaterial verilen alanları günceller. Birim değişimi yalnızca aynı
// aile içinde yapılabilir; miktar ve maliyet yeni birime çevrilir.
func UpdateMaterial(db *gorm.DB, tbl *units.Table, id uint, p MaterialPatch) (*models.Material, error) {
	var m models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		before, err := ledger.LockMaterial(tx, id)
		if err != nil {
			return err
		}
		m = *before

		if p.Unit != nil {
			unit := strings.TrimSpace(*p.Unit)
			if unit != m.Unit {
				if !tbl.Valid(unit) {
					return fmt.Errorf("%w: %s", apperr.ErrUnknownUnit, unit)
				}
				if !tbl.Compatible(m.Unit, unit) {
					return &units.IncompatibleUnitError{From: m.Unit, To: unit}
				}
				changed, err := ledger.ChangeUnit(tx, tbl, m.ID, unit, ledger.Movement{Reason: "Birim değişimi", Operator: p.Operator})
				if err != nil {
					return err
				}
				m = *changed
			}
		}

		updates := map[string]any{}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return apperr.Invalid("malzeme adı boş olamaz")
			}
			if name != m.Name {
				if err := ensureMaterialName(tx, name, m.ID); err != nil {
					return err
				}
				updates["name"] = name
				m.Name = name
			}
		}
		if p.UnitCost != nil {
			if !validAmount(*p.UnitCost) {
				return apperr.Invalid("birim maliyet negatif olamaz")
			}
			updates["unit_cost"] = *p.UnitCost
			m.UnitCost = *p.UnitCost
		}
		if p.Notes != nil {
			updates["notes"] = strings.TrimSpace(*p.Notes)
			m.Notes = strings.TrimSpace(*p.Notes)
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Material{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("malzeme güncellenemedi: %w", err)
			}
		}

		return audit.Write(tx, audit.LogOptions{
			Operator:    p.Operator,
			EntityType:  audit.EntityMaterial,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Malzeme güncellendi: %s", m.Name),
			Before:      before,
			After:       m,
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMaterialStatus malzemeyi pasife alır ya da yeniden aktifleştirir.
// Pasif malzeme reçetelerde kalır ama stoğu değiştirilemez.
func SetMaterialStatus(db *gorm.DB, id uint, status models.Status, operator string) (*models.Material, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("durum '%s' geçersiz", status)
	}
	var m models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: #%d", apperr.ErrMaterialNotFound, id)
			}
			return fmt.Errorf("malzeme okunamadı: %w", err)
		}
		if m.Status == status {
			return nil
		}
		prev := m.Status
		if err := tx.Model(&models.Material{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return fmt.Errorf("malzeme durumu güncellenemedi: %w", err)
		}
		m.Status = status

		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityMaterial,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Malzeme durumu: %s -> %s (%s)", prev, status, m.Name),
			Before:      map[string]any{"status": prev},
			After:       map[string]any{"status": status},
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func GetMaterial(db *gorm.DB, id uint) (*models.Material, error) {
	var m models.Material
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: #%d", apperr.ErrMaterialNotFound, id)
		}
		return nil, fmt.Errorf("malzeme okunamadı: %w", err)
	}
	return &m, nil
}

func ListMaterials(db *gorm.DB, f MaterialFilter) ([]models.Material, error) {
	q := db.Model(&models.Material{})
	if !f.IncludeInactive {
		q = q.Where("status = ?", models.StatusActive)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var rows []models.Material
	if err := q.Order("name asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("malzemeler listelenemedi: %w", err)
	}
	return rows, nil
}

// AdjustMaterial stok ekleme/çıkarma. remove true ise düşüm yapılır.
func AdjustMaterial(db *gorm.DB, tbl *units.Table, id uint, amount float64, unit string, remove bool, mv ledger.Movement) (*models.Material, error) {
	if mv.Reason == "" {
		mv.Reason = ReasonManual
	}
	var m *models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if remove {
			m, err = ledger.Consume(tx, tbl, id, amount, unit, mv)
		} else {
			m, err = ledger.Receive(tx, tbl, id, amount, unit, mv)
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
	metrics.RecordStockMovement("material", string(typ))
	return m, nil
}

// CountMaterial sayım sonucunu kaydeder.
func CountMaterial(db *gorm.DB, tbl *units.Table, id uint, counted float64, unit string, mv ledger.Movement) (*models.Material, error) {
	if mv.Reason == "" {
		mv.Reason = ReasonCount
	}
	var m *models.Material
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = ledger.Count(tx, tbl, id, counted, unit, mv)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordStockMovement("material", string(models.MovementCount))
	return m, nil
}

// WasteMaterial zayiatı stoktan düşer. Not (kim/neden) en az 3 karakter olmalı.
func WasteMaterial(db *gorm.DB, tbl *units.Table, id uint, amount float64, unit, note, operator string) (*models.Material, error) {
	note = strings.TrimSpace(note)
	if len([]rune(note)) < minWasteNote {
		return nil, apperr.Invalid("zayiat notu zorunludur ve en az %d karakter olmalıdır", minWasteNote)
	}
	return AdjustMaterial(db, tbl, id, amount, unit, true, ledger.Movement{
		Reason:   ReasonWaste,
		Note:     note,
		Operator: operator,
	})
}

func ensureMaterialName(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.Material{}).Where("name = ?", name)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("malzeme adı kontrol edilemedi: %w", err)
	}
	if n > 0 {
		return apperr.Duplicate("malzeme", name)
	}
	return nil
}

func recordRejection(err error) {
	var ise *apperr.InsufficientStockError
	if errors.As(err, &ise) {
		metrics.RecordStockRejection(ise.Resource)
	}
}
