package audit

import (
	"errors"
	"testing"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, models.ExpenseCategory) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	cat := models.ExpenseCategory{Code: "KİRA", Name: "Kira", Status: models.StatusActive}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return db, cat
}

func createExpense(t *testing.T, db *gorm.DB, catID uint, amount float64) models.Expense {
	t.Helper()
	e := models.Expense{CategoryID: catID, Date: time.Now(), Amount: amount, PaymentMethod: models.ExpensePaymentCash, Description: "Ekim kirası"}
	if err := db.Omit("Category").Create(&e).Error; err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := Write(db, LogOptions{Operator: "ayse", EntityType: EntityExpense, EntityID: e.ID, Action: models.AuditActionCreate, Description: "Gider eklendi", After: e}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return e
}

func lastLog(t *testing.T, db *gorm.DB) models.AuditLog {
	t.Helper()
	var log models.AuditLog
	if err := db.Where("action <> ?", models.AuditActionUndo).Order("id desc").First(&log).Error; err != nil {
		t.Fatalf("last log: %v", err)
	}
	return log
}

func TestWriteStoresSnapshots(t *testing.T) {
	db, cat := setup(t)
	createExpense(t, db, cat.ID, 15000)

	log := lastLog(t, db)
	if log.Operator != "ayse" || log.BeforeData != "null" || log.AfterData == "null" {
		t.Fatalf("unexpected log %+v", log)
	}
}

func TestUndoCreateDeletesEntity(t *testing.T) {
	db, cat := setup(t)
	e := createExpense(t, db, cat.ID, 15000)
	log := lastLog(t, db)

	if err := Undo(db, log.ID, "mehmet"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	var n int64
	db.Model(&models.Expense{}).Where("id = ?", e.ID).Count(&n)
	if n != 0 {
		t.Fatalf("expense still exists")
	}

	var undone models.AuditLog
	db.First(&undone, log.ID)
	if !undone.IsUndone || undone.UndoneBy != "mehmet" || undone.UndoneAt == nil {
		t.Fatalf("log not marked undone: %+v", undone)
	}
	if err := Undo(db, log.ID, "mehmet"); !errors.Is(err, ErrAlreadyUndone) {
		t.Fatalf("second undo err = %v", err)
	}
}

func TestUndoUpdateRestoresEntity(t *testing.T) {
	db, cat := setup(t)
	e := createExpense(t, db, cat.ID, 15000)

	before := e
	db.Model(&models.Expense{}).Where("id = ?", e.ID).Updates(map[string]any{"amount": 17500, "description": "Zamlı kira"})
	_ = Write(db, LogOptions{EntityType: EntityExpense, EntityID: e.ID, Action: models.AuditActionUpdate, Before: before})

	if err := Undo(db, lastLog(t, db).ID, "sistem"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	var got models.Expense
	db.First(&got, e.ID)
	if got.Amount != 15000 || got.Description != "Ekim kirası" {
		t.Fatalf("expense not restored: %+v", got)
	}
}

func TestUndoDeleteRecreatesEntity(t *testing.T) {
	db, cat := setup(t)
	e := createExpense(t, db, cat.ID, 900)

	db.Delete(&models.Expense{}, e.ID)
	_ = Write(db, LogOptions{EntityType: EntityExpense, EntityID: e.ID, Action: models.AuditActionDelete, Before: e})

	if err := Undo(db, lastLog(t, db).ID, "sistem"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	var got models.Expense
	if err := db.First(&got, e.ID).Error; err != nil {
		t.Fatalf("expense not recreated: %v", err)
	}
	if got.Amount != 900 || got.CategoryID != cat.ID {
		t.Fatalf("unexpected recreated expense %+v", got)
	}
}

func TestUndoCategoryCreateRefusedWhileInUse(t *testing.T) {
	db, cat := setup(t)
	_ = Write(db, LogOptions{EntityType: EntityExpenseCategory, EntityID: cat.ID, Action: models.AuditActionCreate, After: cat})
	catLog := lastLog(t, db)
	createExpense(t, db, cat.ID, 100)

	if err := Undo(db, catLog.ID, "sistem"); !errors.Is(err, apperr.ErrInUse) {
		t.Fatalf("err = %v, want in use", err)
	}
	var log models.AuditLog
	db.First(&log, catLog.ID)
	if log.IsUndone {
		t.Fatalf("failed undo marked log undone")
	}
}

func TestUndoRejectsOtherEntities(t *testing.T) {
	db, _ := setup(t)
	_ = Write(db, LogOptions{EntityType: EntityMaterial, EntityID: 1, Action: models.AuditActionCreate})

	if err := Undo(db, lastLog(t, db).ID, "sistem"); !errors.Is(err, ErrNotUndoable) {
		t.Fatalf("err = %v, want not undoable", err)
	}
	if err := Undo(db, 9999, "sistem"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing log err = %v", err)
	}
}

func TestListFilters(t *testing.T) {
	db, cat := setup(t)
	createExpense(t, db, cat.ID, 100)
	createExpense(t, db, cat.ID, 200)
	_ = Write(db, LogOptions{Operator: "mehmet", EntityType: EntityProductCategory, EntityID: 3, Action: models.AuditActionUpdate})

	logs, err := List(db, Filter{EntityType: EntityExpense})
	if err != nil || len(logs) != 2 {
		t.Fatalf("expense logs = %d, %v", len(logs), err)
	}
	logs, _ = List(db, Filter{Operator: "mehmet"})
	if len(logs) != 1 || logs[0].EntityID != 3 {
		t.Fatalf("operator filter = %+v", logs)
	}
	id := logs[0].EntityID
	logs, _ = List(db, Filter{EntityID: &id, Limit: 5})
	if len(logs) != 1 {
		t.Fatalf("entity filter = %d", len(logs))
	}
}
