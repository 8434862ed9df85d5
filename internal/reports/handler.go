package reports

import (
	"encoding/json"
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type rangeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func rangeOf(r httpx.Range) rangeResponse {
	return rangeResponse{From: r.From.Format(httpx.DateLayout), To: r.LastDay().Format(httpx.DateLayout)}
}

// GET /api/reports/sales-trend?period=daily&count=7
func SalesTrendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := httpx.QueryInt(c, "count", 0, 1, MaxTrendCount)
		if err != nil {
			return err
		}
		r, err := SalesTrend(database.DB, c.Query("period"), count, time.Now())
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(r)
	}
}

// GET /api/reports/top-products?from&to&limit=10
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		limit, err := httpx.QueryInt(c, "limit", 10, 1, 100)
		if err != nil {
			return err
		}
		rows, err := TopProducts(database.DB, r.From, r.To, limit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"range": rangeOf(r), "products": rows})
	}
}

// GET /api/reports/category-sales?from&to
func CategorySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rows, err := CategorySales(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"range": rangeOf(r), "categories": rows})
	}
}

// GET /api/reports/hourly-sales?from&to
func HourlySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rows, err := HourlySales(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"range": rangeOf(r), "hours": rows})
	}
}

// GET /api/reports/payment-breakdown?from&to
func PaymentBreakdownHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rep, err := PaymentBreakdown(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(struct {
			rangeResponse
			PaymentBreakdownReport
		}{rangeOf(r), rep})
	}
}

// GET /api/reports/expense-breakdown?from&to
func ExpenseBreakdownHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rep, err := ExpenseBreakdown(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(struct {
			rangeResponse
			ExpenseBreakdownReport
		}{rangeOf(r), rep})
	}
}

// GET /api/reports/expense-trend?from&to&period=daily|monthly
func ExpenseTrendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rep, err := ExpenseTrend(database.DB, r.From, r.To, c.Query("period"))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(struct {
			rangeResponse
			ExpenseTrendReport
		}{rangeOf(r), rep})
	}
}

// GET /api/reports/profit-analysis?from&to
func ProfitAnalysisHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		m, err := ProfitAnalysis(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// GET /api/reports/daily-profit?from&to
func DailyProfitHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rows, err := DailyProfit(database.DB, r.From, r.To)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"range": rangeOf(r), "days": rows})
	}
}

// GET /api/reports/product-profitability?from&to&limit=20
func ProductProfitabilityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		limit, err := httpx.QueryInt(c, "limit", 20, 1, 100)
		if err != nil {
			return err
		}
		rows, err := ProductProfitability(database.DB, r.From, r.To, limit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"range": rangeOf(r), "products": rows})
	}
}

// GET /api/reports/monthly-comparison?months=6
func MonthlyComparisonHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		months, err := httpx.QueryInt(c, "months", 6, 1, MaxComparisonMonths)
		if err != nil {
			return err
		}
		rows, err := MonthlyComparison(database.DB, months, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"months": rows})
	}
}

// GET /api/reports/summary
func SummaryHandler(lowStockThreshold float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := Summary(database.DB, time.Now(), lowStockThreshold)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

type CreateMonthlyReportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlyReportResponse struct {
	ID            uint             `json:"id"`
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	Label         string           `json:"label"`
	ReportDate    string           `json:"report_date"`
	SaleCount     int64            `json:"sale_count"`
	TotalRevenue  float64          `json:"total_revenue"`
	TotalTax      float64          `json:"total_tax"`
	TotalCost     float64          `json:"total_cost"`
	GrossProfit   float64          `json:"gross_profit"`
	TotalExpenses float64          `json:"total_expenses"`
	NetProfit     float64          `json:"net_profit"`
	NetDisplay    string           `json:"net_display"`
	ReportData    *json.RawMessage `json:"report_data,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

func toMonthlyResponse(r *models.MonthlyReport, withDetail bool) MonthlyReportResponse {
	resp := MonthlyReportResponse{
		ID:            r.ID,
		Year:          r.Year,
		Month:         r.Month,
		Label:         locale.MonthLabel(r.Year, time.Month(r.Month)),
		ReportDate:    r.ReportDate.Format(httpx.DateTimeLayout),
		SaleCount:     r.SaleCount,
		TotalRevenue:  r.TotalRevenue,
		TotalTax:      r.TotalTax,
		TotalCost:     r.TotalCost,
		GrossProfit:   r.GrossProfit,
		TotalExpenses: r.TotalExpenses,
		NetProfit:     r.NetProfit,
		NetDisplay:    locale.FormatCurrency(r.NetProfit),
		CreatedAt:     r.CreatedAt.Format(httpx.DateTimeLayout),
	}
	if withDetail {
		raw, err := json.Marshal(Detail(r))
		if err == nil {
			msg := json.RawMessage(raw)
			resp.ReportData = &msg
		}
	}
	return resp
}

// POST /api/reports/monthly
// Aynı ay için tekrar çağrılırsa rapor yenilenir (200), ilk seferde 201.
func CreateMonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMonthlyReportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		r, created, err := SaveMonthlyReport(database.DB, body.Year, body.Month, httpx.Operator(c))
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("Aylık rapor kaydedildi",
			zap.Int("year", r.Year),
			zap.Int("month", r.Month),
			zap.Bool("created", created),
			zap.Float64("net_profit", r.NetProfit),
		)
		status := fiber.StatusOK
		if created {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(toMonthlyResponse(r, true))
	}
}

// GET /api/reports/monthly
func ListMonthlyReportsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := ListMonthlyReports(database.DB)
		if err != nil {
			return err
		}
		resp := make([]MonthlyReportResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toMonthlyResponse(&rows[i], false))
		}
		return c.JSON(resp)
	}
}

// GET /api/reports/monthly/:id
func GetMonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := GetMonthlyReport(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toMonthlyResponse(r, true))
	}
}

type workbookFunc func(db *gorm.DB, from, to time.Time) (*excelize.File, error)

func exportHandler(prefix string, build workbookFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		f, err := build(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		buf, err := WriteBuffer(f)
		if err != nil {
			return err
		}

		name := prefix + "_" + r.From.Format("20060102") + "_" + r.LastDay().Format("20060102") + ".xlsx"
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, XLSXContentType)
		logger.FromCtx(c).Info("Excel dışa aktarıldı", zap.String("file", name), zap.Int("bytes", buf.Len()))
		return c.Send(buf.Bytes())
	}
}

// GET /api/reports/export/sales.xlsx?from&to
func ExportSalesHandler() fiber.Handler {
	return exportHandler("satislar", SalesWorkbook)
}

// GET /api/reports/export/expenses.xlsx?from&to
func ExportExpensesHandler() fiber.Handler {
	return exportHandler("giderler", ExpensesWorkbook)
}
