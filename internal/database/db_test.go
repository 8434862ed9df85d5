package database

import (
	"testing"

	"cafe-backend/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Seed(db); err != nil {
			t.Fatalf("Seed #%d: %v", i+1, err)
		}
	}

	var productCats, expenseCats int64
	db.Model(&models.ProductCategory{}).Count(&productCats)
	db.Model(&models.ExpenseCategory{}).Count(&expenseCats)

	if productCats != 5 {
		t.Errorf("product categories = %d, want 5", productCats)
	}
	if expenseCats != 11 {
		t.Errorf("expense categories = %d, want 11", expenseCats)
	}

	var rent models.ExpenseCategory
	if err := db.Where("code = ?", "KİRA").First(&rent).Error; err != nil {
		t.Fatalf("KİRA category missing: %v", err)
	}
	if rent.Status != models.StatusActive {
		t.Errorf("seeded status = %q", rent.Status)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("mysql", "", 1); err == nil {
		t.Fatalf("expected error for unknown db type")
	}
}
