package models

import "time"

// Item: satılabilir ürün. Kendi sayılabilir stoğu (Quantity) hammadde
// stoğundan bağımsızdır; reçetesi satışta hammadde düşümünü belirler.
type Item struct {
	ID         uint   `gorm:"primaryKey"`
	Code       string `gorm:"size:50;not null;uniqueIndex"`
	Name       string `gorm:"size:100;not null"`
	CategoryID *uint  `gorm:"index"`
	Category   *ProductCategory

	Price        float64 `gorm:"not null"` // KDV hariç liste fiyatı
	CostPrice    float64 // bilgi amaçlı
	TaxRate      float64 `gorm:"not null"` // KDV yüzdesi (ör: 8)
	ProfitMargin float64 // hedef kar marjı yüzdesi (fiyatı etkilemez)

	Quantity      int    `gorm:"not null"`
	Unit          string `gorm:"size:10;not null"`
	MinStockLevel int

	Description string `gorm:"size:500"`
	Status      Status `gorm:"size:20;not null;index"`

	RecipeLines []RecipeLine `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i Item) IsActive() bool {
	return i.Status == StatusActive
}

// RecipeLine: bir ürünün bir biriminde kullanılan malzeme miktarı
type RecipeLine struct {
	ID         uint `gorm:"primaryKey"`
	ItemID     uint `gorm:"not null;uniqueIndex:idx_recipe_item_material"`
	MaterialID uint `gorm:"not null;index;uniqueIndex:idx_recipe_item_material"`
	Material   Material
	Quantity   float64 `gorm:"not null"`
	Unit       string  `gorm:"size:10;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StockMovement: ürün (sayılabilir) stok hareketi
type StockMovement struct {
	ID               uint `gorm:"primaryKey"`
	ItemID           uint `gorm:"index;not null"`
	Item             Item
	Type             MovementType `gorm:"size:20;not null;index"`
	Quantity         int          `gorm:"not null"`
	PreviousQuantity int
	NewQuantity      int
	Reason           string `gorm:"size:100"`
	Reference        string `gorm:"size:50;index"`
	Note             string `gorm:"size:500"`
	Operator         string `gorm:"size:100"`
	CreatedAt        time.Time `gorm:"index"`
}
