// Package expense gider kategorileri, gider kayıtları ve gider özetleri.
package expense

import (
	"errors"
	"fmt"
	"strings"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
)

type CategoryInput struct {
	Code         string
	Name         string
	Description  string
	DisplayOrder int
	Active       *bool
	Operator     string
}

type CategoryPatch struct {
	Code         *string
	Name         *string
	Description  *string
	DisplayOrder *int
	Active       *bool
	Operator     string
}

func ListCategories(db *gorm.DB, includeInactive bool) ([]models.ExpenseCategory, error) {
	q := db.Model(&models.ExpenseCategory{})
	if !includeInactive {
		q = q.Where("status = ?", models.StatusActive)
	}
	var cats []models.ExpenseCategory
	if err := q.Order("display_order asc, name asc").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("kategoriler listelenemedi: %w", err)
	}
	return cats, nil
}

func GetCategory(db *gorm.DB, id uint) (*models.ExpenseCategory, error) {
	var cat models.ExpenseCategory
	if err := db.First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: gider kategorisi #%d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("kategori okunamadı: %w", err)
	}
	return &cat, nil
}

// CreateCategory yeni gider kategorisi ekler. Kod Türkçe kurallarıyla büyük
// harfe çevrilir (kira -> KİRA); boşsa addan türetilir.
func CreateCategory(db *gorm.DB, in CategoryInput) (*models.ExpenseCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("kategori adı zorunlu")
	}
	code := locale.UpperCode(in.Code)
	if code == "" {
		code = locale.UpperCode(name)
	}

	cat := models.ExpenseCategory{
		Code:         code,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		DisplayOrder: in.DisplayOrder,
		Status:       statusOf(in.Active, models.StatusActive),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCode(tx, cat.Code, 0); err != nil {
			return err
		}
		if err := tx.Create(&cat).Error; err != nil {
			return fmt.Errorf("kategori oluşturulamadı: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    in.Operator,
			EntityType:  audit.EntityExpenseCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Gider kategorisi eklendi: %s", cat.Name),
			After:       cat,
		})
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func UpdateCategory(db *gorm.DB, id uint, p CategoryPatch) (*models.ExpenseCategory, error) {
	var cat models.ExpenseCategory
	err := db.Transaction(func(tx *gorm.DB) error {
		got, err := GetCategory(tx, id)
		if err != nil {
			return err
		}
		cat = *got
		before := cat

		if p.Code != nil {
			code := locale.UpperCode(*p.Code)
			if code == "" {
				return apperr.Invalid("kategori kodu boş olamaz")
			}
			if code != cat.Code {
				if err := ensureCode(tx, code, cat.ID); err != nil {
					return err
				}
				cat.Code = code
			}
		}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			if name == "" {
				return apperr.Invalid("kategori adı boş olamaz")
			}
			cat.Name = name
		}
		if p.Description != nil {
			cat.Description = strings.TrimSpace(*p.Description)
		}
		if p.DisplayOrder != nil {
			cat.DisplayOrder = *p.DisplayOrder
		}
		cat.Status = statusOf(p.Active, cat.Status)

		if err := tx.Model(&models.ExpenseCategory{}).Where("id = ?", cat.ID).Updates(map[string]any{
			"code":          cat.Code,
			"name":          cat.Name,
			"description":   cat.Description,
			"display_order": cat.DisplayOrder,
			"status":        cat.Status,
		}).Error; err != nil {
			return fmt.Errorf("kategori güncellenemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    p.Operator,
			EntityType:  audit.EntityExpenseCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Gider kategorisi güncellendi: %s", cat.Name),
			Before:      before,
			After:       cat,
		})
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory giderlerde kullanılmayan kategoriyi siler.
func DeleteCategory(db *gorm.DB, id uint, operator string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		cat, err := GetCategory(tx, id)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Expense{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("kategori giderleri kontrol edilemedi: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: bu kategoride %d gider kaydı var", apperr.ErrInUse, n)
		}

		if err := tx.Delete(&models.ExpenseCategory{}, id).Error; err != nil {
			return fmt.Errorf("kategori silinemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityExpenseCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Gider kategorisi silindi: %s", cat.Name),
			Before:      cat,
		})
	})
}

func ensureCode(tx *gorm.DB, code string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.ExpenseCategory{}).Where("code = ?", code)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("kategori kodu kontrol edilemedi: %w", err)
	}
	if n > 0 {
		return apperr.Duplicate("gider kategorisi kodu", code)
	}
	return nil
}

func statusOf(active *bool, def models.Status) models.Status {
	if active == nil {
		return def
	}
	if *active {
		return models.StatusActive
	}
	return models.StatusDeactivated
}
