package models

import "time"

type ProductCategory struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:50;not null;uniqueIndex"`
	Name         string `gorm:"size:100;not null"`
	Description  string `gorm:"size:255"`
	DisplayOrder int
	Status       Status `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DefaultProductCategories ilk kurulumda eklenen kategoriler
func DefaultProductCategories() []ProductCategory {
	return []ProductCategory{
		{Code: "HOT_DRINK", Name: "Sıcak İçecekler", Description: "Kahve, çay ve diğer sıcak içecekler", DisplayOrder: 1},
		{Code: "COLD_DRINK", Name: "Soğuk İçecekler", Description: "Soğuk kahveler, meşrubatlar", DisplayOrder: 2},
		{Code: "PASTRY", Name: "Pastane Ürünleri", Description: "Kek, kurabiye, pasta", DisplayOrder: 3},
		{Code: "FOOD", Name: "Yemekler", Description: "Sandviç, tost ve ana yemekler", DisplayOrder: 4},
		{Code: "SNACK", Name: "Atıştırmalıklar", Description: "Cips, kuruyemiş vb.", DisplayOrder: 5},
	}
}
