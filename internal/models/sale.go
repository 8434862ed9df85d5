package models

import "time"

// Payment methods
const (
	PaymentCash     = "NAKİT"
	PaymentCard     = "KART"
	PaymentTransfer = "HAVALE"
	PaymentCheque   = "ÇEK"
	PaymentOther    = "DİĞER"
)

var SalePaymentMethods = []string{PaymentCash, PaymentCard, PaymentTransfer, PaymentCheque, PaymentOther}

// Sale: satış anındaki değişmez finansal kayıt. Sonradan yalnızca iade
// alanları değişir.
type Sale struct {
	ID         uint   `gorm:"primaryKey"`
	SaleNumber string `gorm:"size:40;not null;uniqueIndex"` // SAT-000042
	ItemID     uint   `gorm:"index;not null"`
	Item       Item
	Quantity   int `gorm:"not null"`

	UnitPrice      float64 `gorm:"not null"` // KDV hariç birim fiyat
	TotalPrice     float64 `gorm:"not null"` // KDV hariç toplam
	TaxRate        float64 `gorm:"not null"`
	TaxAmount      float64 `gorm:"not null"`
	TotalWithTax   float64 `gorm:"not null"`
	ProductCost    float64 `gorm:"not null"` // malzeme maliyeti (toplam)
	GrossProfit    float64 `gorm:"not null"`
	NetProfit      float64 `gorm:"not null"`
	DiscountAmount float64

	PaymentMethod string `gorm:"size:20;not null;index"`
	Notes         string `gorm:"size:500"`
	Operator      string `gorm:"size:100"`

	IsRefunded   bool   `gorm:"not null;index"`
	RefundReason string `gorm:"size:255"`
	RefundedAt   *time.Time

	SaleDate  time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
