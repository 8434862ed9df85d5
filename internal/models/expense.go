package models

import "time"

// Expense payment methods
const (
	ExpensePaymentCash   = "NAKİT"
	ExpensePaymentBank   = "BANKA"
	ExpensePaymentCard   = "KART"
	ExpensePaymentCheque = "ÇEK"
	ExpensePaymentOther  = "DİĞER"
)

var ExpensePaymentMethods = []string{ExpensePaymentCash, ExpensePaymentBank, ExpensePaymentCard, ExpensePaymentCheque, ExpensePaymentOther}

// Tekrarlama tipleri
var RecurringTypes = []string{"GÜNLÜK", "HAFTALIK", "AYLIK", "YILLIK"}

type ExpenseCategory struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:50;not null;uniqueIndex"`
	Name         string `gorm:"size:100;not null"`
	Description  string `gorm:"size:255"`
	DisplayOrder int
	Status       Status `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Expense struct {
	ID              uint `gorm:"primaryKey"`
	CategoryID      uint `gorm:"index;not null"`
	Category        ExpenseCategory
	Date            time.Time `gorm:"index;not null"`
	Amount          float64   `gorm:"not null"`
	Description     string    `gorm:"size:255"`
	PaymentMethod   string    `gorm:"size:20;not null"`
	ReferenceNumber string    `gorm:"size:100"`
	IsRecurring     bool
	RecurringType   string `gorm:"size:20"`
	Notes           string `gorm:"size:500"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DefaultExpenseCategories ilk kurulumda eklenen gider kategorileri
func DefaultExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		{Code: "KİRA", Name: "Kira", Description: "İşyeri kirası", DisplayOrder: 1},
		{Code: "ELEKTRİK", Name: "Elektrik", Description: "Elektrik faturası", DisplayOrder: 2},
		{Code: "SU", Name: "Su", Description: "Su faturası", DisplayOrder: 3},
		{Code: "DOĞALGAZ", Name: "Doğalgaz", Description: "Doğalgaz faturası", DisplayOrder: 4},
		{Code: "İNTERNET", Name: "İnternet", Description: "İnternet ve telefon", DisplayOrder: 5},
		{Code: "PERSONEL", Name: "Personel", Description: "Maaş ve SGK ödemeleri", DisplayOrder: 6},
		{Code: "MALZEME", Name: "Malzeme", Description: "Hammadde alımları", DisplayOrder: 7},
		{Code: "BAKIM", Name: "Bakım-Onarım", Description: "Ekipman bakım ve onarım", DisplayOrder: 8},
		{Code: "VERGİ", Name: "Vergi", Description: "Vergi ve harçlar", DisplayOrder: 9},
		{Code: "PAZARLAMA", Name: "Pazarlama", Description: "Reklam ve tanıtım", DisplayOrder: 10},
		{Code: "DİĞER", Name: "Diğer", Description: "Diğer giderler", DisplayOrder: 11},
	}
}
