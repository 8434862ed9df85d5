package models

import "time"

// MonthlyReport: aylık rapor anlık görüntüsü (her ay için tek kayıt)
type MonthlyReport struct {
	ID         uint      `gorm:"primaryKey"`
	Year       int       `gorm:"not null;uniqueIndex:idx_monthly_report_period"`
	Month      int       `gorm:"not null;uniqueIndex:idx_monthly_report_period"` // 1-12
	ReportDate time.Time `gorm:"not null"`                                        // oluşturulma/yenilenme tarihi

	SaleCount     int64
	TotalRevenue  float64 // KDV dahil ciro
	TotalTax      float64
	TotalCost     float64 // malzeme maliyeti
	GrossProfit   float64
	TotalExpenses float64
	NetProfit     float64 // brüt kar - giderler

	// Detaylar (günlük kırılım, kategori bazlı giderler)
	ReportData string `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
