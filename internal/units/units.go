// Package units birim tablosunu ve birim dönüşümünü içerir.
//
// Her malzemenin stoğu tek bir kanonik birimde tutulur; farklı ama aynı
// aileden (kütle, hacim, adet) bir birimle gelen miktarlar önce bu birime
// çevrilir.
package units

import (
	"fmt"

	"cafe-backend/internal/apperr"
)

type Family string

const (
	FamilyMass   Family = "mass"
	FamilyVolume Family = "volume"
	FamilyCount  Family = "count"
)

const (
	Gram       = "g"
	Kilogram   = "kg"
	Milliliter = "ml"
	Liter      = "l"
	Piece      = "adet"
)

type Unit struct {
	Code   string
	Family Family
	Factor float64 // aile tabanına çarpan (g, ml, adet = 1)
	Label  string
}

// Table sabit birim tablosu. Oluşturulduktan sonra değişmez.
type Table struct {
	units map[string]Unit
	order []string
}

// IncompatibleUnitError farklı ailelerden iki birim arasında dönüşüm istendi.
type IncompatibleUnitError struct {
	From string
	To   string
}

func (e *IncompatibleUnitError) Error() string {
	return fmt.Sprintf("'%s' ile '%s' uyumlu birimler değil! (g-kg veya ml-l veya adet-adet eşleşmeleri gerekli)", e.From, e.To)
}

func (e *IncompatibleUnitError) Is(target error) bool {
	return target == apperr.ErrIncompatibleUnit
}

func NewTable(defs ...Unit) *Table {
	t := &Table{units: make(map[string]Unit, len(defs))}
	for _, u := range defs {
		if _, exists := t.units[u.Code]; exists {
			continue
		}
		t.units[u.Code] = u
		t.order = append(t.order, u.Code)
	}
	return t
}

// Default kafede kullanılan birimler: g, kg, ml, l, adet
func Default() *Table {
	return NewTable(
		Unit{Code: Gram, Family: FamilyMass, Factor: 1, Label: "Gram"},
		Unit{Code: Kilogram, Family: FamilyMass, Factor: 1000, Label: "Kilogram"},
		Unit{Code: Milliliter, Family: FamilyVolume, Factor: 1, Label: "Mililitre"},
		Unit{Code: Liter, Family: FamilyVolume, Factor: 1000, Label: "Litre"},
		Unit{Code: Piece, Family: FamilyCount, Factor: 1, Label: "Adet"},
	)
}

func (t *Table) Lookup(code string) (Unit, error) {
	u, ok := t.units[code]
	if !ok {
		return Unit{}, fmt.Errorf("%w: '%s'", apperr.ErrUnknownUnit, code)
	}
	return u, nil
}

// Valid - birim tabloda var mı?
func (t *Table) Valid(code string) bool {
	_, ok := t.units[code]
	return ok
}

// Compatible iki birim aynı ailedeyse true döner.
func (t *Table) Compatible(a, b string) bool {
	ua, okA := t.units[a]
	ub, okB := t.units[b]
	return okA && okB && ua.Family == ub.Family
}

// Convert quantity'yi from biriminden to birimine çevirir.
// Aynı birimde değer hiç dokunulmadan döner. Sonuç yuvarlanmaz.
func (t *Table) Convert(quantity float64, from, to string) (float64, error) {
	if from == to {
		return quantity, nil
	}

	uf, err := t.Lookup(from)
	if err != nil {
		return 0, err
	}
	ut, err := t.Lookup(to)
	if err != nil {
		return 0, err
	}
	if uf.Family != ut.Family {
		return 0, &IncompatibleUnitError{From: from, To: to}
	}

	return quantity * uf.Factor / ut.Factor, nil
}

// Codes birim kodlarını tanım sırasıyla döner.
func (t *Table) Codes() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
