package inventory

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"cafe-backend/internal/ledger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"github.com/xuri/excelize/v2"
)

func TestMatchKey(t *testing.T) {
	cases := map[string]string{
		"ŞEKER (Toz)":     "seker (toz)",
		"  Süt   Tozu ":   "sut tozu",
		"IRMIK":           "irmik",
		"Çikolata Sosu":   "cikolata sosu",
		"kahve çekirdeği": "kahve cekirdegi",
	}
	for in, want := range cases {
		if got := matchKey(in); got != want {
			t.Errorf("matchKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCountSheetRoundTrip(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	coffee := mustCreateMaterial(t, db, "Kahve Çekirdeği", units.Kilogram, 50, 2)
	milk := mustCreateMaterial(t, db, "Süt", units.Liter, 30, 10)
	mustCreateMaterial(t, db, "Şeker", units.Gram, 0.05, 1000)

	f, err := CountSheet(db)
	if err != nil {
		t.Fatalf("CountSheet: %v", err)
	}
	rows, err := f.GetRows(CountSheetName)
	if err != nil || len(rows) != 4 || rows[0][0] != "Malzeme" {
		t.Fatalf("sheet rows = %v, %v", rows, err)
	}

	// isimler eşleşme anahtarıyla bulunur; satır sırası önemli değil
	set := func(cell string, v any) {
		if err := f.SetCellValue(CountSheetName, cell, v); err != nil {
			t.Fatalf("SetCellValue(%s): %v", cell, err)
		}
	}
	set("A2", "KAHVE CEKIRDEGI")
	set("B2", units.Gram)
	set("D2", "1500")
	set("A3", "süt")
	set("B3", "")
	set("D3", "8,5")
	// Şeker satırı boş bırakıldı
	set("A5", "Kakao")
	set("D5", "3")
	set("A6", "Süt")
	set("D6", "bilinmiyor")

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	res, err := ImportCount(db, tbl, buf, "sayimci")
	if err != nil {
		t.Fatalf("ImportCount: %v", err)
	}
	if len(res.Counted) != 2 || res.Skipped != 1 || len(res.Unmatched) != 1 || len(res.Errors) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Unmatched[0] != "Kakao" || res.Errors[0].Row != 6 {
		t.Fatalf("unexpected unmatched/errors %+v", res)
	}

	var c, m models.Material
	db.First(&c, coffee.ID)
	db.First(&m, milk.ID)
	if math.Abs(c.Quantity-1.5) > 1e-9 || m.Quantity != 8.5 {
		t.Fatalf("counted quantities = %v kg, %v l", c.Quantity, m.Quantity)
	}

	mv, err := ledger.MaterialMovements(db, coffee.ID, 1)
	if err != nil || len(mv) != 1 || mv[0].Type != models.MovementCount || mv[0].Operator != "sayimci" || mv[0].Reference != "EXCEL" {
		t.Fatalf("count movement = %+v, %v", mv, err)
	}
}

func TestImportCountAmbiguousNames(t *testing.T) {
	db := openDB(t)
	tbl := units.Default()
	sugar := mustCreateMaterial(t, db, "Şeker", units.Gram, 0.05, 1000)
	plain := mustCreateMaterial(t, db, "Seker", units.Gram, 0.04, 500)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Malzeme", "Birim", "Mevcut", "Sayılan"},
		{"ŞEKER", "", "", "10"},
		{"Şeker", "", "", "900"},
		{"seker", "", "", "20"},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	res, err := ImportCount(db, tbl, buf, "sayimci")
	if err != nil {
		t.Fatalf("ImportCount: %v", err)
	}
	if len(res.Counted) != 1 || res.Counted[0].Material != "Şeker" || len(res.Errors) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Errors[0].Row != 2 || res.Errors[1].Row != 4 || !strings.Contains(res.Errors[0].Error, "Seker") {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}

	var s, p models.Material
	db.First(&s, sugar.ID)
	db.First(&p, plain.ID)
	if s.Quantity != 900 || p.Quantity != 500 {
		t.Fatalf("quantities = %v, %v", s.Quantity, p.Quantity)
	}
}
