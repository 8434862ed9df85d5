package expense

import (
	"errors"
	"testing"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/models"

	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return db
}

func categoryID(t *testing.T, db *gorm.DB, code string) uint {
	t.Helper()
	var cat models.ExpenseCategory
	if err := db.Where("code = ?", code).First(&cat).Error; err != nil {
		t.Fatalf("category %s: %v", code, err)
	}
	return cat.ID
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func mustExpense(t *testing.T, db *gorm.DB, catID uint, date time.Time, amount float64) *models.Expense {
	t.Helper()
	e, err := Create(db, ExpenseInput{Date: date, CategoryID: catID, Amount: amount, Operator: "test"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return e
}

func TestCreateExpense(t *testing.T) {
	db := openDB(t)
	rent := categoryID(t, db, "KİRA")

	e, err := Create(db, ExpenseInput{
		Date:          day(2025, time.March, 1),
		CategoryID:    rent,
		Amount:        25000,
		Description:   " Mart kirası ",
		PaymentMethod: "banka",
		IsRecurring:   true,
		RecurringType: "aylık",
		Operator:      "ayse",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.PaymentMethod != models.ExpensePaymentBank || e.RecurringType != "AYLIK" || e.Description != "Mart kirası" {
		t.Fatalf("unexpected expense %+v", e)
	}
	if e.Category.Code != "KİRA" {
		t.Fatalf("category not attached: %+v", e.Category)
	}

	var logs int64
	db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ? AND operator = ?", "expense", e.ID, "ayse").Count(&logs)
	if logs != 1 {
		t.Fatalf("audit logs = %d, want 1", logs)
	}

	plain := mustExpense(t, db, rent, day(2025, time.March, 2), 10)
	if plain.PaymentMethod != models.ExpensePaymentCash {
		t.Fatalf("default payment method = %s", plain.PaymentMethod)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	db := openDB(t)
	rent := categoryID(t, db, "KİRA")
	d := day(2025, time.March, 1)

	cases := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{"zero amount", ExpenseInput{Date: d, CategoryID: rent}, apperr.ErrInvalidInput},
		{"missing date", ExpenseInput{CategoryID: rent, Amount: 1}, apperr.ErrInvalidInput},
		{"bad payment", ExpenseInput{Date: d, CategoryID: rent, Amount: 1, PaymentMethod: "kripto"}, apperr.ErrInvalidInput},
		{"recurring without type", ExpenseInput{Date: d, CategoryID: rent, Amount: 1, IsRecurring: true}, apperr.ErrInvalidInput},
		{"bad recurring type", ExpenseInput{Date: d, CategoryID: rent, Amount: 1, IsRecurring: true, RecurringType: "ARADA"}, apperr.ErrInvalidInput},
		{"missing category", ExpenseInput{Date: d, CategoryID: 999, Amount: 1}, apperr.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := Create(db, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	var n int64
	db.Model(&models.Expense{}).Count(&n)
	if n != 0 {
		t.Fatalf("expenses = %d after failed creates", n)
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	db := openDB(t)
	rent := categoryID(t, db, "KİRA")
	power := categoryID(t, db, "ELEKTRİK")
	e := mustExpense(t, db, rent, day(2025, time.April, 5), 100)

	amount := 250.0
	got, err := Update(db, e.ID, ExpensePatch{Amount: &amount, CategoryID: &power})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Amount != 250 || got.CategoryID != power || got.Category.Code != "ELEKTRİK" {
		t.Fatalf("unexpected update %+v", got)
	}

	recurring := true
	if _, err := Update(db, e.ID, ExpensePatch{IsRecurring: &recurring}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("recurring without type err = %v", err)
	}

	if err := Delete(db, e.ID, "test"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(db, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("deleted expense readable: %v", err)
	}
	if err := Delete(db, e.ID, "test"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestListFiltersByRangeAndCategory(t *testing.T) {
	db := openDB(t)
	rent := categoryID(t, db, "KİRA")
	water := categoryID(t, db, "SU")
	mustExpense(t, db, rent, day(2025, time.May, 1), 100)
	mustExpense(t, db, water, day(2025, time.May, 15), 50)
	mustExpense(t, db, water, day(2025, time.June, 1), 60)

	rows, err := List(db, Filter{From: day(2025, time.May, 1), To: day(2025, time.June, 1)})
	if err != nil || len(rows) != 2 {
		t.Fatalf("range list = %d, %v", len(rows), err)
	}
	rows, _ = List(db, Filter{CategoryID: &water})
	if len(rows) != 2 || rows[0].Category.Code != "SU" {
		t.Fatalf("category list = %+v", rows)
	}
}

func TestExpenseCategoryRules(t *testing.T) {
	db := openDB(t)

	cat, err := CreateCategory(db, CategoryInput{Name: "İkram", Code: "ikram"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.Code != "İKRAM" {
		t.Fatalf("code = %q, want İKRAM", cat.Code)
	}
	if _, err := CreateCategory(db, CategoryInput{Name: "Kira 2", Code: "kira"}); !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("duplicate err = %v", err)
	}
	derived, err := CreateCategory(db, CategoryInput{Name: "temizlik"})
	if err != nil || derived.Code != "TEMİZLİK" {
		t.Fatalf("derived code = %+v, %v", derived, err)
	}

	mustExpense(t, db, cat.ID, day(2025, time.May, 1), 75)
	if err := DeleteCategory(db, cat.ID, "test"); !errors.Is(err, apperr.ErrInUse) {
		t.Fatalf("delete in use err = %v", err)
	}

	off := false
	if _, err := UpdateCategory(db, derived.ID, CategoryPatch{Active: &off}); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if _, err := Create(db, ExpenseInput{Date: day(2025, time.May, 2), CategoryID: derived.ID, Amount: 1}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expense on inactive category err = %v", err)
	}
	if err := DeleteCategory(db, derived.ID, "test"); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}

	active, _ := ListCategories(db, false)
	if len(active) != 12 {
		t.Fatalf("active categories = %d, want 12", len(active))
	}
}
