package models

import "time"

// Material: hammadde (kahve çekirdeği, süt, bardak...)
// Quantity ve UnitCost her zaman Unit (kanonik birim) cinsindendir.
type Material struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:100;not null;uniqueIndex"`
	Unit      string  `gorm:"size:10;not null"`
	UnitCost  float64 `gorm:"not null"` // birim başına maliyet
	Quantity  float64 `gorm:"not null"` // eldeki miktar, >= 0
	Notes     string  `gorm:"size:500"`
	Status    Status  `gorm:"size:20;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Material) IsActive() bool {
	return m.Status == StatusActive
}

// TotalValue eldeki stoğun maliyet değeri
func (m Material) TotalValue() float64 {
	return m.Quantity * m.UnitCost
}

type MovementType string

const (
	MovementIn         MovementType = "in"         // giriş
	MovementOut        MovementType = "out"        // çıkış
	MovementAdjustment MovementType = "adjustment" // ayarlama (birim değişimi vb.)
	MovementCount      MovementType = "count"      // sayım
)

// MaterialMovement: malzeme stok hareketi. Her ledger işlemi bir satır yazar.
type MaterialMovement struct {
	ID         uint `gorm:"primaryKey"`
	MaterialID uint `gorm:"index;not null"`
	Material   Material
	Type       MovementType `gorm:"size:20;not null;index"`

	// Kanonik birimde hareket miktarı (her zaman pozitif)
	Quantity float64 `gorm:"not null"`
	// Kullanıcının girdiği miktar ve birim (ör: 500 g -> 0.5 kg)
	InputQuantity float64
	InputUnit     string `gorm:"size:10"`

	PreviousQuantity float64
	NewQuantity      float64

	Reason    string `gorm:"size:100"`
	Reference string `gorm:"size:50;index"` // ör: satış numarası
	Note      string `gorm:"size:500"`
	Operator  string `gorm:"size:100"`
	CreatedAt time.Time `gorm:"index"`
}
