// Package ledger hammadde ve ürün stoklarının tek değiştirme noktasıdır.
//
// Add/Remove saf fonksiyonlardır (bellekteki Material üzerinde çalışır);
// Receive/Consume/Count ise bir transaction içinde satırı kilitler, koşullu
// UPDATE ile değiştirir ve her değişiklik için bir hareket kaydı yazar.
package ledger

import (
	"fmt"
	"math"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"
)

// Movement: hareket kaydına yazılacak bağlam bilgisi
type Movement struct {
	Reason    string
	Reference string
	Note      string
	Operator  string
}

// Canonical amount'u malzemenin kanonik birimine çevirir.
// unit boşsa miktar zaten kanonik birimde kabul edilir.
func Canonical(tbl *units.Table, m *models.Material, amount float64, unit string) (float64, error) {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w (%s: %v)", apperr.ErrInvalidQuantity, m.Name, amount)
	}
	if unit == "" || unit == m.Unit {
		return amount, nil
	}
	return tbl.Convert(amount, unit, m.Unit)
}

// Add stoğa miktar ekler, yeni miktarı döner.
func Add(tbl *units.Table, m *models.Material, amount float64, unit string) (float64, error) {
	amt, err := Canonical(tbl, m, amount, unit)
	if err != nil {
		return m.Quantity, err
	}
	m.Quantity += amt
	return m.Quantity, nil
}

// Remove stoktan miktar düşer. Yetersiz stokta m değişmez.
func Remove(tbl *units.Table, m *models.Material, amount float64, unit string) (float64, error) {
	amt, err := Canonical(tbl, m, amount, unit)
	if err != nil {
		return m.Quantity, err
	}
	if err := Available(m, amt); err != nil {
		return m.Quantity, err
	}
	m.Quantity -= amt
	return m.Quantity, nil
}

// Available kanonik birimdeki amt kadar stok var mı kontrol eder.
func Available(m *models.Material, amt float64) error {
	if amt > m.Quantity {
		return &apperr.InsufficientStockError{
			Resource:  m.Name,
			Unit:      m.Unit,
			Available: m.Quantity,
			Requested: amt,
		}
	}
	return nil
}
