package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/audit"
	"cafe-backend/internal/expense"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/models"
	"cafe-backend/internal/sales"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	minReportYear = 2000
	maxReportYear = 2100
)

// MonthlyDetail aylık raporun ReportData alanında saklanan kırılımlar
type MonthlyDetail struct {
	Daily             []DailyProfitRow          `json:"daily"`
	ExpenseCategories []expense.CategoryTotal   `json:"expense_categories"`
	TopProducts       []sales.ProductSummaryRow `json:"top_products"`
	PaymentMethods    []PaymentRow              `json:"payment_methods"`
}

// MonthRange ayın [ilk gün, sonraki ayın ilk günü) aralığı
func MonthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return from, from.AddDate(0, 1, 0)
}

// SaveMonthlyReport ayın anlık görüntüsünü hesaplayıp saklar. Her ay için
// tek kayıt tutulur; tekrar çağrılırsa mevcut kayıt yenilenir ve created
// false döner. Satış ve gider verilerine dokunulmaz.
func SaveMonthlyReport(db *gorm.DB, year, month int, operator string) (*models.MonthlyReport, bool, error) {
	if year < minReportYear || year > maxReportYear || month < 1 || month > 12 {
		return nil, false, apperr.Invalid("geçersiz yıl veya ay: %d/%d", month, year)
	}
	from, to := MonthRange(year, month)

	var report models.MonthlyReport
	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		m, err := ProfitAnalysis(tx, from, to)
		if err != nil {
			return err
		}
		detail := MonthlyDetail{}
		if detail.Daily, err = DailyProfit(tx, from, to); err != nil {
			return err
		}
		if detail.ExpenseCategories, err = expense.ByCategory(tx, from, to); err != nil {
			return err
		}
		if detail.TopProducts, err = TopProducts(tx, from, to, 10); err != nil {
			return err
		}
		pb, err := PaymentBreakdown(tx, from, to)
		if err != nil {
			return err
		}
		detail.PaymentMethods = pb.Methods

		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("rapor detayı hazırlanamadı: %w", err)
		}

		fields := models.MonthlyReport{
			Year:          year,
			Month:         month,
			ReportDate:    time.Now(),
			SaleCount:     m.SaleCount,
			TotalRevenue:  m.Revenue,
			TotalTax:      m.TaxTotal,
			TotalCost:     m.CostOfGoods,
			GrossProfit:   m.GrossProfit,
			TotalExpenses: m.Expenses,
			NetProfit:     m.NetProfit,
			ReportData:    string(data),
		}

		var existing models.MonthlyReport
		err = tx.Where("year = ? AND month = ?", year, month).First(&existing).Error
		action := models.AuditActionUpdate
		var before any
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Omit(clause.Associations).Create(&fields).Error; err != nil {
				return fmt.Errorf("rapor oluşturulamadı: %w", err)
			}
			report = fields
			created = true
			action = models.AuditActionCreate
		case err != nil:
			return fmt.Errorf("rapor okunamadı: %w", err)
		default:
			before = existing
			if err := tx.Model(&models.MonthlyReport{}).Where("id = ?", existing.ID).Updates(map[string]any{
				"report_date":    fields.ReportDate,
				"sale_count":     fields.SaleCount,
				"total_revenue":  fields.TotalRevenue,
				"total_tax":      fields.TotalTax,
				"total_cost":     fields.TotalCost,
				"gross_profit":   fields.GrossProfit,
				"total_expenses": fields.TotalExpenses,
				"net_profit":     fields.NetProfit,
				"report_data":    fields.ReportData,
			}).Error; err != nil {
				return fmt.Errorf("rapor güncellenemedi: %w", err)
			}
			fields.ID = existing.ID
			fields.CreatedAt = existing.CreatedAt
			report = fields
		}

		return audit.Write(tx, audit.LogOptions{
			Operator:    operator,
			EntityType:  audit.EntityMonthlyReport,
			EntityID:    report.ID,
			Action:      action,
			Description: fmt.Sprintf("Aylık rapor: %s", locale.MonthLabel(year, time.Month(month))),
			Before:      before,
			After:       report,
		})
	})
	if err != nil {
		return nil, false, err
	}
	return &report, created, nil
}

func ListMonthlyReports(db *gorm.DB) ([]models.MonthlyReport, error) {
	var rows []models.MonthlyReport
	if err := db.Omit("report_data").Order("year desc, month desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("raporlar listelenemedi: %w", err)
	}
	return rows, nil
}

func GetMonthlyReport(db *gorm.DB, id uint) (*models.MonthlyReport, error) {
	var r models.MonthlyReport
	if err := db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: aylık rapor #%d", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("rapor okunamadı: %w", err)
	}
	return &r, nil
}

// Detail saklanan ReportData'yı çözer; boş veya bozuksa boş detay döner.
func Detail(r *models.MonthlyReport) MonthlyDetail {
	var d MonthlyDetail
	if r.ReportData != "" {
		_ = json.Unmarshal([]byte(r.ReportData), &d)
	}
	return d
}
