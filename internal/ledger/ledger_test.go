package ledger

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
)

func TestRemoveGramFromKilogramStock(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Kahve", Unit: units.Kilogram, Quantity: 10}

	got, err := Remove(tbl, m, 1, units.Gram)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if math.Abs(got-9.999) > 1e-9 {
		t.Fatalf("10 kg - 1 g = %v, want 9.999", got)
	}
	if m.Quantity != got {
		t.Fatalf("material quantity %v not updated to %v", m.Quantity, got)
	}
}

func TestAddConvertsUnits(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Süt", Unit: units.Milliliter, Quantity: 500}

	got, err := Add(tbl, m, 1.5, units.Liter)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got != 2000 {
		t.Fatalf("500 ml + 1.5 l = %v, want 2000", got)
	}
}

func TestInvalidQuantity(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Şeker", Unit: units.Gram, Quantity: 100}

	for _, amount := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Add(tbl, m, amount, ""); !errors.Is(err, apperr.ErrInvalidQuantity) {
			t.Errorf("Add(%v) err = %v, want ErrInvalidQuantity", amount, err)
		}
		if _, err := Remove(tbl, m, amount, ""); !errors.Is(err, apperr.ErrInvalidQuantity) {
			t.Errorf("Remove(%v) err = %v, want ErrInvalidQuantity", amount, err)
		}
	}
	if m.Quantity != 100 {
		t.Fatalf("quantity changed to %v", m.Quantity)
	}
}

func TestRemoveIncompatibleUnit(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Süt", Unit: units.Liter, Quantity: 3}

	if _, err := Remove(tbl, m, 100, units.Gram); !errors.Is(err, apperr.ErrIncompatibleUnit) {
		t.Fatalf("err = %v, want ErrIncompatibleUnit", err)
	}
	if m.Quantity != 3 {
		t.Fatalf("quantity changed to %v", m.Quantity)
	}
}

func TestRemoveNeverGoesNegative(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Kakao", Unit: units.Kilogram, Quantity: 0}

	steps := []struct {
		add    bool
		amount float64
		unit   string
	}{
		{true, 1, units.Kilogram},
		{false, 400, units.Gram},
		{false, 0.7, units.Kilogram}, // 0.6 kg kaldı, başarısız olmalı
		{true, 100, units.Gram},
		{false, 0.7, units.Kilogram},
		{false, 1, units.Gram},
	}

	for i, s := range steps {
		before := m.Quantity
		var err error
		if s.add {
			_, err = Add(tbl, m, s.amount, s.unit)
		} else {
			_, err = Remove(tbl, m, s.amount, s.unit)
		}

		if err != nil {
			if !errors.Is(err, apperr.ErrInsufficientStock) {
				t.Fatalf("step %d: unexpected error %v", i, err)
			}
			if m.Quantity != before {
				t.Fatalf("step %d: failed remove mutated quantity %v -> %v", i, before, m.Quantity)
			}
		}
		if m.Quantity < 0 {
			t.Fatalf("step %d: quantity went negative: %v", i, m.Quantity)
		}
	}
}

func TestInsufficientStockMessage(t *testing.T) {
	tbl := units.Default()
	m := &models.Material{Name: "Kahve", Unit: units.Kilogram, Quantity: 0.0005}

	_, err := Remove(tbl, m, 1, units.Gram)
	var ise *apperr.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ise.Available != 0.0005 || ise.Requested != 0.001 || ise.Unit != units.Kilogram {
		t.Fatalf("unexpected error fields: %+v", ise)
	}
	// 4 basamak hassasiyet: 0.0005 ile 0.0010 ayırt edilebilmeli
	msg := err.Error()
	if !strings.Contains(msg, "Mevcut: 0.0005kg") || !strings.Contains(msg, "İstenen: 0.0010kg") {
		t.Fatalf("message lacks 4 digit precision: %s", msg)
	}
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	return db
}

func createMaterial(t *testing.T, db *gorm.DB, name, unit string, qty float64) *models.Material {
	t.Helper()
	m := &models.Material{Name: name, Unit: unit, UnitCost: 1, Quantity: qty, Status: models.StatusActive}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create material: %v", err)
	}
	return m
}

func TestConsumePersistsAndRecordsMovement(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := createMaterial(t, db, "Kahve", units.Kilogram, 10)

	got, err := Consume(db, tbl, m.ID, 7, units.Gram, Movement{Reason: "Satış", Reference: "SAT-000001"})
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if math.Abs(got.Quantity-9.993) > 1e-9 {
		t.Fatalf("quantity = %v, want 9.993", got.Quantity)
	}

	var stored models.Material
	db.First(&stored, m.ID)
	if math.Abs(stored.Quantity-9.993) > 1e-9 {
		t.Fatalf("stored quantity = %v", stored.Quantity)
	}

	mv, err := MaterialMovements(db, m.ID, 0)
	if err != nil || len(mv) != 1 {
		t.Fatalf("movements = %v, %v", mv, err)
	}
	if mv[0].Type != models.MovementOut || mv[0].InputUnit != units.Gram || mv[0].InputQuantity != 7 {
		t.Fatalf("unexpected movement %+v", mv[0])
	}
	if mv[0].PreviousQuantity != 10 || math.Abs(mv[0].Quantity-0.007) > 1e-12 {
		t.Fatalf("unexpected movement amounts %+v", mv[0])
	}
}

func TestConsumeInsufficientLeavesRowUntouched(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := createMaterial(t, db, "Süt", units.Liter, 0.5)

	_, err := Consume(db, tbl, m.ID, 600, units.Milliliter, Movement{})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	var stored models.Material
	db.First(&stored, m.ID)
	if stored.Quantity != 0.5 {
		t.Fatalf("quantity changed to %v", stored.Quantity)
	}
	var count int64
	db.Model(&models.MaterialMovement{}).Count(&count)
	if count != 0 {
		t.Fatalf("movement written on failure")
	}
}

func TestConcurrentConsumeNeverOversells(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := createMaterial(t, db, "Süt", units.Liter, 1)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := Consume(tx, tbl, m.ID, 100, units.Milliliter, Movement{Reason: "Satış"})
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("succeeded = %d, want 10 (failures: %v)", succeeded, failures)
	}
	for _, err := range failures {
		if !errors.Is(err, apperr.ErrInsufficientStock) {
			t.Fatalf("unexpected failure %v", err)
		}
	}

	var stored models.Material
	db.First(&stored, m.ID)
	if stored.Quantity < 0 || math.Abs(stored.Quantity) > 1e-9 {
		t.Fatalf("final quantity = %v, want 0", stored.Quantity)
	}
	var count int64
	db.Model(&models.MaterialMovement{}).Where("material_id = ?", m.ID).Count(&count)
	if count != 10 {
		t.Fatalf("movements = %d, want 10", count)
	}
}

func TestDeactivatedMaterialIsRejected(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := createMaterial(t, db, "Eski Şurup", units.Milliliter, 100)
	db.Model(m).Update("status", models.StatusDeactivated)

	if _, err := Receive(db, tbl, m.ID, 10, "", Movement{}); !errors.Is(err, apperr.ErrMaterialNotFound) {
		t.Fatalf("err = %v, want ErrMaterialNotFound", err)
	}
	if _, err := Consume(db, tbl, 9999, 10, "", Movement{}); !errors.Is(err, apperr.ErrMaterialNotFound) {
		t.Fatalf("missing material err = %v", err)
	}
}

func TestCountSetsAbsoluteQuantity(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := createMaterial(t, db, "Un", units.Kilogram, 5)

	got, err := Count(db, tbl, m.ID, 4200, units.Gram, Movement{Reason: "Sayım"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if math.Abs(got.Quantity-4.2) > 1e-9 {
		t.Fatalf("quantity = %v, want 4.2", got.Quantity)
	}
	mv, _ := MaterialMovements(db, m.ID, 1)
	if len(mv) != 1 || mv[0].Type != models.MovementCount || math.Abs(mv[0].Quantity-0.8) > 1e-9 {
		t.Fatalf("unexpected count movement %+v", mv)
	}
}

func TestItemStock(t *testing.T) {
	db := openDB(t)
	it := &models.Item{Code: "LATTE", Name: "Latte", Unit: units.Piece, Quantity: 3, Status: models.StatusActive}
	if err := db.Create(it).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}

	if _, err := ConsumeItem(db, it.ID, 4, Movement{}); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	got, err := ConsumeItem(db, it.ID, 2, Movement{Reason: "Satış"})
	if err != nil || got.Quantity != 1 {
		t.Fatalf("ConsumeItem = %+v, %v", got, err)
	}
	got, err = ReceiveItem(db, it.ID, 5, Movement{})
	if err != nil || got.Quantity != 6 {
		t.Fatalf("ReceiveItem = %+v, %v", got, err)
	}
	got, err = CountItem(db, it.ID, 4, Movement{})
	if err != nil || got.Quantity != 4 {
		t.Fatalf("CountItem = %+v, %v", got, err)
	}

	mv, err := ItemMovements(db, it.ID, 0)
	if err != nil || len(mv) != 3 {
		t.Fatalf("item movements = %d, %v", len(mv), err)
	}

	db.Model(it).Update("status", models.StatusDeactivated)
	if _, err := ReceiveItem(db, it.ID, 1, Movement{}); !errors.Is(err, apperr.ErrItemNotFound) {
		t.Fatalf("deactivated item err = %v", err)
	}
	if got, err := ReturnItem(db, it.ID, 1, Movement{}); err != nil || got.Quantity != 5 {
		t.Fatalf("ReturnItem on deactivated item = %+v, %v", got, err)
	}
}
