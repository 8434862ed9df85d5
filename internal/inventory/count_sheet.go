package inventory

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"cafe-backend/internal/ledger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	CountSheetName = "Sayım"

	colName    = 0
	colUnit    = 1
	colCounted = 3
)

var countSheetHeader = []any{"Malzeme", "Birim", "Mevcut", "Sayılan"}

// matchKey isimleri Türkçe karakter ve büyük/küçük harf duyarsız eşler.
// "ŞEKER (Toz)" -> "seker (toz)"
func matchKey(s string) string {
	r := strings.NewReplacer(
		"ç", "c", "Ç", "c",
		"ğ", "g", "Ğ", "g",
		"ı", "i", "İ", "i", "I", "i",
		"ö", "o", "Ö", "o",
		"ş", "s", "Ş", "s",
		"ü", "u", "Ü", "u",
	)
	return strings.Join(strings.Fields(strings.ToLower(r.Replace(s))), " ")
}

// CountSheet aktif malzemelerin sayım şablonu. Sayılan sütunu boş gelir.
func CountSheet(db *gorm.DB) (*excelize.File, error) {
	mats, err := ListMaterials(db, MaterialFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), CountSheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(CountSheetName, "A1", &countSheetHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sayım şablonu yazılamadı: %w", err)
	}
	for i, m := range mats {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []any{m.Name, m.Unit, m.Quantity, ""}
		if err := f.SetSheetRow(CountSheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sayım şablonu yazılamadı: %w", err)
		}
	}
	return f, nil
}

type CountedRow struct {
	Row      int     `json:"row"`
	Material string  `json:"material"`
	Previous float64 `json:"previous"`
	Counted  float64 `json:"counted"`
	Unit     string  `json:"unit"`
}

type CountRowError struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type CountImportResult struct {
	Counted   []CountedRow    `json:"counted"`
	Skipped   int             `json:"skipped"` // sayılan hücresi boş
	Unmatched []string        `json:"unmatched"`
	Errors    []CountRowError `json:"errors"`
}

// parseCount "12,5" ve "12.5" biçimlerini kabul eder.
func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

// ImportCount doldurulmuş sayım şablonunu okur ve her satırı ayrı bir sayım
// hareketi olarak işler. Eşleşmeyen veya hatalı satırlar diğerlerini
// etkilemez; sonuçta raporlanır.
func ImportCount(db *gorm.DB, tbl *units.Table, r io.Reader, operator string) (CountImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return CountImportResult{}, fmt.Errorf("excel dosyası okunamadı: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return CountImportResult{}, fmt.Errorf("excel dosyasında sayfa yok")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return CountImportResult{}, fmt.Errorf("sayfa okunamadı: %w", err)
	}

	mats, err := ListMaterials(db, MaterialFilter{})
	if err != nil {
		return CountImportResult{}, err
	}
	byName := make(map[string]models.Material, len(mats))
	byKey := make(map[string]models.Material, len(mats))
	ambiguous := make(map[string][]string)
	for _, m := range mats {
		byName[m.Name] = m
		k := matchKey(m.Name)
		if prev, dup := byKey[k]; dup {
			if len(ambiguous[k]) == 0 {
				ambiguous[k] = []string{prev.Name}
			}
			ambiguous[k] = append(ambiguous[k], m.Name)
			continue
		}
		byKey[k] = m
	}

	res := CountImportResult{Counted: []CountedRow{}, Unmatched: []string{}, Errors: []CountRowError{}}
	for i, row := range rows {
		if len(row) <= colName {
			continue
		}
		name := strings.TrimSpace(row[colName])
		if name == "" {
			continue
		}
		// başlık satırı
		if i == 0 && strings.Contains(matchKey(name), "malzeme") {
			continue
		}
		if len(row) <= colCounted || strings.TrimSpace(row[colCounted]) == "" {
			res.Skipped++
			continue
		}

		// birebir isim önce; katlanmış anahtar birden fazla malzemeye
		// denk geliyorsa satır sayılmaz
		m, ok := byName[name]
		if !ok {
			k := matchKey(name)
			if names := ambiguous[k]; len(names) > 0 {
				res.Errors = append(res.Errors, CountRowError{Row: i + 1, Name: name, Error: "birden fazla malzemeyle eşleşiyor: " + strings.Join(names, ", ")})
				continue
			}
			if m, ok = byKey[k]; !ok {
				res.Unmatched = append(res.Unmatched, name)
				continue
			}
		}
		counted, err := parseCount(row[colCounted])
		if err != nil {
			res.Errors = append(res.Errors, CountRowError{Row: i + 1, Name: name, Error: "sayılan miktar sayı olmalı"})
			continue
		}
		unit := ""
		if len(row) > colUnit {
			unit = strings.TrimSpace(row[colUnit])
		}

		saved, err := CountMaterial(db, tbl, m.ID, counted, unit, ledger.Movement{
			Reason:    ReasonCount,
			Reference: "EXCEL",
			Operator:  operator,
		})
		if err != nil {
			res.Errors = append(res.Errors, CountRowError{Row: i + 1, Name: name, Error: err.Error()})
			continue
		}
		res.Counted = append(res.Counted, CountedRow{
			Row:      i + 1,
			Material: saved.Name,
			Previous: m.Quantity,
			Counted:  saved.Quantity,
			Unit:     saved.Unit,
		})
	}
	return res, nil
}
