package inventory

import (
	"errors"
	"math"
	"testing"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	return db
}

func mustCreateMaterial(t *testing.T, db *gorm.DB, name, unit string, cost, qty float64) *models.Material {
	t.Helper()
	m, err := CreateMaterial(db, units.Default(), MaterialInput{Name: name, Unit: unit, UnitCost: cost, Quantity: qty, Operator: "test"})
	if err != nil {
		t.Fatalf("CreateMaterial(%s): %v", name, err)
	}
	return m
}

func TestCreateMaterialRecordsOpeningStock(t *testing.T) {
	db := openDB(t)
	m := mustCreateMaterial(t, db, "Kahve Çekirdeği", units.Kilogram, 50, 2)

	if m.Quantity != 2 || m.Status != models.StatusActive {
		t.Fatalf("unexpected material %+v", m)
	}
	mv, err := ledger.MaterialMovements(db, m.ID, 0)
	if err != nil || len(mv) != 1 {
		t.Fatalf("movements = %v, %v", mv, err)
	}
	if mv[0].Type != models.MovementIn || mv[0].Reason != ReasonOpening || mv[0].Operator != "test" {
		t.Fatalf("unexpected opening movement %+v", mv[0])
	}

	var logs int64
	db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "material", m.ID).Count(&logs)
	if logs != 1 {
		t.Fatalf("audit logs = %d, want 1", logs)
	}
}

func TestCreateMaterialWithoutStockWritesNoMovement(t *testing.T) {
	db := openDB(t)
	m := mustCreateMaterial(t, db, "Tarçın", units.Gram, 0.2, 0)

	mv, _ := ledger.MaterialMovements(db, m.ID, 0)
	if len(mv) != 0 {
		t.Fatalf("movements = %d, want 0", len(mv))
	}
}

func TestCreateMaterialValidation(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	mustCreateMaterial(t, db, "Süt", units.Liter, 30, 0)

	cases := []struct {
		name string
		in   MaterialInput
		want error
	}{
		{"empty name", MaterialInput{Name: "  ", Unit: units.Gram}, apperr.ErrInvalidInput},
		{"unknown unit", MaterialInput{Name: "Şeker", Unit: "ton"}, apperr.ErrUnknownUnit},
		{"negative cost", MaterialInput{Name: "Şeker", Unit: units.Gram, UnitCost: -1}, apperr.ErrInvalidInput},
		{"negative quantity", MaterialInput{Name: "Şeker", Unit: units.Gram, Quantity: -5}, apperr.ErrInvalidQuantity},
		{"duplicate", MaterialInput{Name: " Süt ", Unit: units.Liter}, apperr.ErrDuplicateName},
	}
	for _, tc := range cases {
		if _, err := CreateMaterial(db, tbl, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	var n int64
	db.Model(&models.Material{}).Count(&n)
	if n != 1 {
		t.Fatalf("materials = %d, want 1", n)
	}
}

func TestUpdateMaterialUnitChangeKeepsValue(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := mustCreateMaterial(t, db, "Kakao", units.Kilogram, 50, 2)

	g := units.Gram
	got, err := UpdateMaterial(db, tbl, m.ID, MaterialPatch{Unit: &g, Operator: "test"})
	if err != nil {
		t.Fatalf("UpdateMaterial: %v", err)
	}
	if got.Unit != units.Gram || math.Abs(got.Quantity-2000) > 1e-9 || math.Abs(got.UnitCost-0.05) > 1e-12 {
		t.Fatalf("unexpected converted material %+v", got)
	}
	if math.Abs(got.TotalValue()-100) > 1e-9 {
		t.Fatalf("value = %v, want 100", got.TotalValue())
	}

	mv, _ := ledger.MaterialMovements(db, m.ID, 1)
	if len(mv) != 1 || mv[0].Type != models.MovementAdjustment || mv[0].InputUnit != units.Kilogram {
		t.Fatalf("unexpected adjustment movement %+v", mv)
	}

	l := units.Liter
	if _, err := UpdateMaterial(db, tbl, m.ID, MaterialPatch{Unit: &l}); !errors.Is(err, apperr.ErrIncompatibleUnit) {
		t.Fatalf("err = %v, want incompatible unit", err)
	}
	var stored models.Material
	db.First(&stored, m.ID)
	if stored.Unit != units.Gram {
		t.Fatalf("unit changed to %s on failure", stored.Unit)
	}
}

func TestUpdateMaterialUnitChangeConvertsRecipeLines(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	beans := mustCreateMaterial(t, db, "Espresso Çekirdeği", units.Gram, 0.05, 1000)
	espresso := mustCreateItem(t, db, "ESPRESSO", 30)
	line, err := AddRecipeLine(db, tbl, espresso.ID, RecipeInput{MaterialID: beans.ID, Quantity: 7})
	if err != nil {
		t.Fatalf("AddRecipeLine: %v", err)
	}

	// kg cinsinden yazılmış satır olduğu gibi kalmalı
	doppio := mustCreateItem(t, db, "DOPPIO", 45)
	kgLine, err := AddRecipeLine(db, tbl, doppio.ID, RecipeInput{MaterialID: beans.ID, Quantity: 0.014, Unit: units.Kilogram})
	if err != nil {
		t.Fatalf("AddRecipeLine kg: %v", err)
	}

	before, err := CostOfItem(db, espresso.ID)
	if err != nil {
		t.Fatalf("CostOfItem: %v", err)
	}

	kg := units.Kilogram
	if _, err := UpdateMaterial(db, tbl, beans.ID, MaterialPatch{Unit: &kg, Operator: "test"}); err != nil {
		t.Fatalf("UpdateMaterial: %v", err)
	}

	after, err := CostOfItem(db, espresso.ID)
	if err != nil {
		t.Fatalf("CostOfItem: %v", err)
	}
	if before.Breakdown.IngredientCost != 0.35 || after.Breakdown != before.Breakdown {
		t.Fatalf("breakdown changed: before %+v after %+v", before.Breakdown, after.Breakdown)
	}

	var stored models.RecipeLine
	db.First(&stored, line.ID)
	if stored.Unit != units.Kilogram || math.Abs(stored.Quantity-0.007) > 1e-12 {
		t.Fatalf("recipe line not converted: %+v", stored)
	}
	db.First(&stored, kgLine.ID)
	if stored.Unit != units.Kilogram || stored.Quantity != 0.014 {
		t.Fatalf("kg recipe line changed: %+v", stored)
	}
}

func TestUpdateMaterialRenameMustStayUnique(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	mustCreateMaterial(t, db, "Süt", units.Liter, 30, 0)
	m := mustCreateMaterial(t, db, "Yulaf Sütü", units.Liter, 60, 0)

	name := "Süt"
	if _, err := UpdateMaterial(db, tbl, m.ID, MaterialPatch{Name: &name}); !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("err = %v, want duplicate", err)
	}

	name, cost := "Badem Sütü", 75.0
	got, err := UpdateMaterial(db, tbl, m.ID, MaterialPatch{Name: &name, UnitCost: &cost})
	if err != nil || got.Name != name || got.UnitCost != cost {
		t.Fatalf("rename = %+v, %v", got, err)
	}
}

func TestDeactivatedMaterialRejectsStockChanges(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := mustCreateMaterial(t, db, "Karamel Şurubu", units.Milliliter, 0.4, 500)

	if _, err := SetMaterialStatus(db, m.ID, models.StatusDeactivated, "test"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := AdjustMaterial(db, tbl, m.ID, 10, "", false, ledger.Movement{}); !errors.Is(err, apperr.ErrMaterialNotFound) {
		t.Fatalf("err = %v, want material not found", err)
	}
	list, _ := ListMaterials(db, MaterialFilter{})
	if len(list) != 0 {
		t.Fatalf("deactivated material listed")
	}
	list, _ = ListMaterials(db, MaterialFilter{IncludeInactive: true})
	if len(list) != 1 {
		t.Fatalf("include_inactive list = %d", len(list))
	}

	if _, err := SetMaterialStatus(db, m.ID, models.StatusActive, "test"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, err := AdjustMaterial(db, tbl, m.ID, 0.1, units.Liter, false, ledger.Movement{})
	if err != nil || math.Abs(got.Quantity-600) > 1e-9 {
		t.Fatalf("AdjustMaterial = %+v, %v", got, err)
	}
}

func TestRemoveMaterialStockInsufficient(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := mustCreateMaterial(t, db, "Un", units.Kilogram, 20, 1)

	if _, err := AdjustMaterial(db, tbl, m.ID, 1500, units.Gram, true, ledger.Movement{}); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	got, err := AdjustMaterial(db, tbl, m.ID, 250, units.Gram, true, ledger.Movement{})
	if err != nil || math.Abs(got.Quantity-0.75) > 1e-9 {
		t.Fatalf("AdjustMaterial = %+v, %v", got, err)
	}
	mv, _ := ledger.MaterialMovements(db, m.ID, 1)
	if mv[0].Reason != ReasonManual {
		t.Fatalf("reason = %q, want %q", mv[0].Reason, ReasonManual)
	}
}

func TestWasteRequiresNote(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := mustCreateMaterial(t, db, "Süt", units.Liter, 30, 2)

	if _, err := WasteMaterial(db, tbl, m.ID, 200, units.Milliliter, "ab", "test"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}

	got, err := WasteMaterial(db, tbl, m.ID, 200, units.Milliliter, "Barista döktü", "test")
	if err != nil || math.Abs(got.Quantity-1.8) > 1e-9 {
		t.Fatalf("WasteMaterial = %+v, %v", got, err)
	}
	mv, _ := ledger.MaterialMovements(db, m.ID, 1)
	if mv[0].Reason != ReasonWaste || mv[0].Note != "Barista döktü" || mv[0].Type != models.MovementOut {
		t.Fatalf("unexpected waste movement %+v", mv[0])
	}
}

func TestCountMaterial(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	m := mustCreateMaterial(t, db, "Çay", units.Kilogram, 200, 3)

	got, err := CountMaterial(db, tbl, m.ID, 2500, units.Gram, ledger.Movement{})
	if err != nil || math.Abs(got.Quantity-2.5) > 1e-9 {
		t.Fatalf("CountMaterial = %+v, %v", got, err)
	}
	mv, _ := ledger.MaterialMovements(db, m.ID, 1)
	if mv[0].Type != models.MovementCount || mv[0].Reason != ReasonCount {
		t.Fatalf("unexpected count movement %+v", mv[0])
	}
}
