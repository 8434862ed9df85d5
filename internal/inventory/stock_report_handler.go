package inventory

import (
	"cafe-backend/internal/database"
	"cafe-backend/internal/locale"

	"github.com/gofiber/fiber/v2"
)

// GET /api/inventory/low-stock
func LowStockHandler(threshold float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := LowStock(database.DB, threshold)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Düşük stok raporu hazırlanamadı")
		}
		return c.JSON(fiber.Map{
			"threshold": r.Threshold,
			"count":     r.Count(),
			"materials": r.Materials,
			"items":     r.Items,
		})
	}
}

// GET /api/inventory/stock-value
func StockValueHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := StockValue(database.DB)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok değeri hesaplanamadı")
		}
		return c.JSON(fiber.Map{
			"rows":          r.Rows,
			"total":         r.Total,
			"total_display": locale.FormatCurrency(r.Total),
		})
	}
}
