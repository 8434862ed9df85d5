// Package pricing satışın maliyet, KDV ve kar dökümünü hesaplar.
// Stoğa dokunmaz; düşüm sales paketinde ledger üzerinden yapılır.
package pricing

import (
	"cafe-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Breakdown tek bir satış biriminin (veya Scale sonrası toplamın) finansal dökümü.
// Tutarlar 2 basamağa yuvarlanmıştır.
type Breakdown struct {
	IngredientCost float64 `json:"ingredient_cost"`
	PriceExclTax   float64 `json:"price_excl_tax"`
	TaxRate        float64 `json:"tax_rate"` // yüzde
	TaxAmount      float64 `json:"tax_amount"`
	PriceInclTax   float64 `json:"price_incl_tax"`
	GrossProfit    float64 `json:"gross_profit"`
	NetProfit      float64 `json:"net_profit"`
}

// IngredientCost reçete satırlarının toplam malzeme maliyeti.
// Satır miktarı malzemenin kendi birimindeymiş gibi kullanılır, dönüşüm
// yapılmaz. Material alanları yüklenmiş olmalı.
func IngredientCost(lines []models.RecipeLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.Quantity * l.Material.UnitCost
	}
	return total
}

// Compute birim fiyat dökümü. Kar marjı formüle girmez; liste fiyatı
// olduğu gibi kullanılır.
func Compute(price, taxRatePercent, ingredientCost float64) Breakdown {
	taxRate := taxRatePercent / 100
	taxAmount := price * taxRate
	priceInclTax := price + taxAmount
	grossProfit := (price - taxAmount) - ingredientCost
	netProfit := grossProfit

	return Breakdown{
		IngredientCost: Round(ingredientCost),
		PriceExclTax:   Round(price),
		TaxRate:        taxRatePercent,
		TaxAmount:      Round(taxAmount),
		PriceInclTax:   Round(priceInclTax),
		GrossProfit:    Round(grossProfit),
		NetProfit:      Round(netProfit),
	}
}

// ForItem ürünün kayıtlı fiyatı, KDV oranı ve reçetesi ile Compute.
func ForItem(item *models.Item) Breakdown {
	return Compute(item.Price, item.TaxRate, IngredientCost(item.RecipeLines))
}

// Scale yuvarlanmış birim değerleri adetle çarpar.
func (b Breakdown) Scale(quantity int) Breakdown {
	q := decimal.NewFromInt(int64(quantity))
	mul := func(v float64) float64 {
		return decimal.NewFromFloat(v).Mul(q).Round(2).InexactFloat64()
	}
	return Breakdown{
		IngredientCost: mul(b.IngredientCost),
		PriceExclTax:   mul(b.PriceExclTax),
		TaxRate:        b.TaxRate,
		TaxAmount:      mul(b.TaxAmount),
		PriceInclTax:   mul(b.PriceInclTax),
		GrossProfit:    mul(b.GrossProfit),
		NetProfit:      mul(b.NetProfit),
	}
}

// Round 2 basamağa yuvarlar (yarım değerler sıfırdan uzağa).
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sub a-b farkını kuruş hassasiyetinde hesaplar
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Sum tutarları kuruş hassasiyetinde toplar
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Percent part/whole yüzdesi (whole 0 ise 0)
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
