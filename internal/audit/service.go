package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
)

// Audit log entity tipleri; geri alınabilenler undoable ile belirlenir
const (
	EntityExpense         = "expense"
	EntityExpenseCategory = "expense_category"
	EntityProductCategory = "product_category"
	EntityMaterial        = "material"
	EntityItem            = "item"
	EntityRecipeLine      = "recipe_line"
	EntityMonthlyReport   = "monthly_report"
)

var ErrAlreadyUndone = errors.New("bu işlem zaten geri alınmış")
var ErrNotUndoable = errors.New("bu işlem türü geri alınamaz")

type LogOptions struct {
	Operator    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func Write(db *gorm.DB, opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		Operator:    opts.Operator,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := db.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// Undo - Bir audit log'u geri alır (create -> sil, update -> eski hale getir,
// delete -> yeniden oluştur). Tek transaction içinde çalışır.
func Undo(db *gorm.DB, logID uint, operator string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var log models.AuditLog
		if err := tx.First(&log, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: log #%d", apperr.ErrNotFound, logID)
			}
			return fmt.Errorf("log okunamadı: %w", err)
		}

		if log.IsUndone {
			return ErrAlreadyUndone
		}
		if !undoable(log.EntityType) {
			return ErrNotUndoable
		}

		newID := log.EntityID
		switch log.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, log.EntityType, log.EntityID); err != nil {
				return fmt.Errorf("entity silinemedi: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, log.EntityType, log.EntityID, log.BeforeData); err != nil {
				return fmt.Errorf("entity geri yüklenemedi: %w", err)
			}
		case models.AuditActionDelete:
			id, err := recreateEntity(tx, log.EntityType, log.BeforeData)
			if err != nil {
				return fmt.Errorf("entity geri oluşturulamadı: %w", err)
			}
			newID = id
		default:
			return ErrNotUndoable
		}

		now := time.Now()
		res := tx.Model(&models.AuditLog{}).
			Where("id = ? AND is_undone = ?", log.ID, false).
			Updates(map[string]any{"is_undone": true, "undone_by": operator, "undone_at": now})
		if res.Error != nil {
			return fmt.Errorf("log güncellenemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyUndone
		}

		undoLog := models.AuditLog{
			Operator:    operator,
			EntityType:  log.EntityType,
			EntityID:    newID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Geri alındı: %s", log.Description),
			BeforeData:  log.AfterData,
			AfterData:   log.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undoLog).Error; err != nil {
			return fmt.Errorf("undo log kaydedilemedi: %w", err)
		}
		return nil
	})
}

func undoable(entityType string) bool {
	switch entityType {
	case EntityExpense, EntityExpenseCategory, EntityProductCategory:
		return true
	}
	return false
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityExpense:
		return tx.Delete(&models.Expense{}, entityID).Error
	case EntityExpenseCategory:
		if err := ensureUnused(tx, &models.Expense{}, "category_id", entityID); err != nil {
			return err
		}
		return tx.Delete(&models.ExpenseCategory{}, entityID).Error
	case EntityProductCategory:
		if err := ensureUnused(tx, &models.Item{}, "category_id", entityID); err != nil {
			return err
		}
		return tx.Delete(&models.ProductCategory{}, entityID).Error
	}
	return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
}

// recreateEntity silinen kaydı eski id'si ile geri koyar
func recreateEntity(tx *gorm.DB, entityType string, dataJSON string) (uint, error) {
	switch entityType {
	case EntityExpense:
		var e models.Expense
		if err := json.Unmarshal([]byte(dataJSON), &e); err != nil {
			return 0, err
		}
		e.Category = models.ExpenseCategory{}
		if err := tx.Omit("Category").Create(&e).Error; err != nil {
			return 0, err
		}
		return e.ID, nil

	case EntityExpenseCategory:
		var cat models.ExpenseCategory
		if err := json.Unmarshal([]byte(dataJSON), &cat); err != nil {
			return 0, err
		}
		if err := tx.Create(&cat).Error; err != nil {
			return 0, err
		}
		return cat.ID, nil

	case EntityProductCategory:
		var cat models.ProductCategory
		if err := json.Unmarshal([]byte(dataJSON), &cat); err != nil {
			return 0, err
		}
		if err := tx.Create(&cat).Error; err != nil {
			return 0, err
		}
		return cat.ID, nil
	}
	return 0, fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case EntityExpense:
		var e models.Expense
		if err := json.Unmarshal([]byte(dataJSON), &e); err != nil {
			return err
		}
		return tx.Model(&models.Expense{}).Where("id = ?", entityID).Updates(map[string]any{
			"category_id":      e.CategoryID,
			"date":             e.Date,
			"amount":           e.Amount,
			"description":      e.Description,
			"payment_method":   e.PaymentMethod,
			"reference_number": e.ReferenceNumber,
			"is_recurring":     e.IsRecurring,
			"recurring_type":   e.RecurringType,
			"notes":            e.Notes,
		}).Error

	case EntityExpenseCategory:
		var cat models.ExpenseCategory
		if err := json.Unmarshal([]byte(dataJSON), &cat); err != nil {
			return err
		}
		return tx.Model(&models.ExpenseCategory{}).Where("id = ?", entityID).Updates(map[string]any{
			"code":          cat.Code,
			"name":          cat.Name,
			"description":   cat.Description,
			"display_order": cat.DisplayOrder,
			"status":        cat.Status,
		}).Error

	case EntityProductCategory:
		var cat models.ProductCategory
		if err := json.Unmarshal([]byte(dataJSON), &cat); err != nil {
			return err
		}
		return tx.Model(&models.ProductCategory{}).Where("id = ?", entityID).Updates(map[string]any{
			"code":          cat.Code,
			"name":          cat.Name,
			"description":   cat.Description,
			"display_order": cat.DisplayOrder,
			"status":        cat.Status,
		}).Error
	}
	return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
}

func ensureUnused(tx *gorm.DB, model any, column string, id uint) error {
	var n int64
	if err := tx.Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d kayıt bu kategoriyi kullanıyor", apperr.ErrInUse, n)
	}
	return nil
}

type Filter struct {
	EntityType string
	EntityID   *uint
	Operator   string
	Limit      int
}

func List(db *gorm.DB, f Filter) ([]models.AuditLog, error) {
	q := db.Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.Operator != "" {
		q = q.Where("operator = ?", f.Operator)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("loglar listelenemedi: %w", err)
	}
	return logs, nil
}
