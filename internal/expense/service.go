package expense

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExpenseInput struct {
	Date            time.Time
	CategoryID      uint
	Description     string
	Amount          float64
	PaymentMethod   string
	ReferenceNumber string
	IsRecurring     bool
	RecurringType   string
	Notes           string
	Operator        string
}

// ExpensePatch: nil alanlar değişmez
type ExpensePatch struct {
	Date            *time.Time
	CategoryID      *uint
	Description     *string
	Amount          *float64
	PaymentMethod   *string
	ReferenceNumber *string
	IsRecurring     *bool
	RecurringType   *string
	Notes           *string
	Operator        string
}

type Filter struct {
	From       time.Time
	To         time.Time // hariç
	CategoryID *uint
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date < ?", f.To)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// NormalizePaymentMethod boş değeri NAKİT kabul eder.
func NormalizePaymentMethod(method string) (string, error) {
	if strings.TrimSpace(method) == "" {
		return models.ExpensePaymentCash, nil
	}
	if m, ok := locale.MatchOption(method, models.ExpensePaymentMethods); ok {
		return m, nil
	}
	return "", apperr.Invalid("ödeme yöntemi '%s' geçersiz (%s)", method, strings.Join(models.ExpensePaymentMethods, ", "))
}

// normalizeRecurring tekrarlayan giderde tip zorunludur; tekrarlamayan
// giderde tip boşaltılır.
func normalizeRecurring(recurring bool, typ string) (string, error) {
	if !recurring {
		return "", nil
	}
	if strings.TrimSpace(typ) == "" {
		return "", apperr.Invalid("tekrarlayan gider için tekrarlama tipi zorunlu (%s)", strings.Join(models.RecurringTypes, ", "))
	}
	if t, ok := locale.MatchOption(typ, models.RecurringTypes); ok {
		return t, nil
	}
	return "", apperr.Invalid("tekrarlama tipi '%s' geçersiz (%s)", typ, strings.Join(models.RecurringTypes, ", "))
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func Create(db *gorm.DB, in ExpenseInput) (*models.Expense, error) {
	if in.Date.IsZero() {
		return nil, apperr.Invalid("tarih zorunlu")
	}
	if in.CategoryID == 0 {
		return nil, apperr.Invalid("category_id zorunlu")
	}
	if !validAmount(in.Amount) {
		return nil, apperr.Invalid("tutar 0'dan büyük olmalı")
	}
	method, err := NormalizePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	recurringType, err := normalizeRecurring(in.IsRecurring, in.RecurringType)
	if err != nil {
		return nil, err
	}

	e := models.Expense{
		CategoryID:      in.CategoryID,
		Date:            in.Date,
		Amount:          in.Amount,
		Description:     strings.TrimSpace(in.Description),
		PaymentMethod:   method,
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		IsRecurring:     in.IsRecurring,
		RecurringType:   recurringType,
		Notes:           strings.TrimSpace(in.Notes),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		cat, err := activeCategory(tx, in.CategoryID)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&e).Error; err != nil {
			return fmt.Errorf("gider kaydedilemedi: %w", err)
		}
		if err := audit.Write(tx, audit.LogOptions{
			Operator:    in.Operator,
			EntityType:  audit.EntityExpense,
			EntityID:    e.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Gider eklendi: %s - %s", cat.Name, locale.FormatCurrency(e.Amount)),
			After:       e,
		}); err != nil {
			return err
		}
		e.Category = *cat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func Get(db *gorm.DB, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := db.Preload("Category").First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: gider #%d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("gider okunamadı: %w", err)
	}
	return &e, nil
}

func List(db *gorm.DB, f Filter) ([]models.Expense, error) {
	var rows []models.Expense
	if err := f.apply(db.Model(&models.Expense{}).Preload("Category")).
		Order("date asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("giderler listelenemedi: %w", err)
	}
	return rows, nil
}

func Update(db *gorm.DB, id uint, p ExpensePatch) (*models.Expense, error) {
	var e models.Expense
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: gider #%d", apperr.ErrNotFound, id)
			}
			return fmt.Errorf("gider okunamadı: %w", err)
		}
		before := e

		if p.Date != nil {
			if p.Date.IsZero() {
				return apperr.Invalid("tarih boş olamaz")
			}
			e.Date = *p.Date
		}
		if p.CategoryID != nil && *p.CategoryID != e.CategoryID {
			if _, err := activeCategory(tx, *p.CategoryID); err != nil {
				return err
			}
			e.CategoryID = *p.CategoryID
		}
		if p.Description != nil {
			e.Description = strings.TrimSpace(*p.Description)
		}
		if p.Amount != nil {
			if !validAmount(*p.Amount) {
				return apperr.Invalid("tutar 0'dan büyük olmalı")
			}
			e.Amount = *p.Amount
		}
		if p.PaymentMethod != nil {
			m, err := NormalizePaymentMethod(*p.PaymentMethod)
			if err != nil {
				return err
			}
			e.PaymentMethod = m
		}
		if p.ReferenceNumber != nil {
			e.ReferenceNumber = strings.TrimSpace(*p.ReferenceNumber)
		}
		if p.IsRecurring != nil {
			e.IsRecurring = *p.IsRecurring
		}
		typ := e.RecurringType
		if p.RecurringType != nil {
			typ = *p.RecurringType
		}
		rt, err := normalizeRecurring(e.IsRecurring, typ)
		if err != nil {
			return err
		}
		e.RecurringType = rt
		if p.Notes != nil {
			e.Notes = strings.TrimSpace(*p.Notes)
		}

		if err := tx.Model(&models.Expense{}).Where("id = ?", e.ID).Updates(map[string]any{
			"category_id":      e.CategoryID,
			"date":             e.Date,
			"amount":           e.Amount,
			"description":      e.Description,
			"payment_method":   e.PaymentMethod,
			"reference_number": e.ReferenceNumber,
			"is_recurring":     e.IsRecurring,
			"recurring_type":   e.RecurringType,
			"notes":            e.Notes,
		}).Error; err != nil {
			return fmt.Errorf("gider güncellenemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    p.Operator,
			EntityType:  audit.EntityExpense,
			EntityID:    e.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Gider güncellendi: %s -> %s", locale.FormatCurrency(before.Amount), locale.FormatCurrency(e.Amount)),
			Before:      before,
			After:       e,
		})
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

func Delete(db *gorm.DB, id uint, operator string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var e models.Expense
		if err := tx.First(&e, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: gider #%d", apperr.ErrNotFound, id)
			}
			return fmt.Errorf("gider okunamadı: %w", err)
		}
		if err := tx.Delete(&models.Expense{}, id).Error; err != nil {
			return fmt.Errorf("gider silinemedi: %w", err)
		}
		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityExpense,
			EntityID:    e.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Gider silindi: %s (%s)", locale.FormatCurrency(e.Amount), e.Date.Format("2006-01-02")),
			Before:      e,
		})
	})
}

func activeCategory(tx *gorm.DB, id uint) (*models.ExpenseCategory, error) {
	cat, err := GetCategory(tx, id)
	if err != nil {
		return nil, err
	}
	if cat.Status != models.StatusActive {
		return nil, apperr.Invalid("gider kategorisi '%s' pasif", cat.Name)
	}
	return cat, nil
}
