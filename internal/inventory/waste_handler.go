package inventory

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateWasteRequest struct {
	Quantity float64 `json:"quantity"` // zorunlu, zayiat miktarı
	Unit     string  `json:"unit"`     // boşsa malzemenin birimi
	Note     string  `json:"note"`     // zorunlu: kim/neden (en az 3 karakter)
}

// POST /api/materials/:id/waste
func CreateWasteHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CreateWasteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity 0'dan büyük olmalıdır")
		}

		m, err := WasteMaterial(database.DB, tbl, id, body.Quantity, body.Unit, body.Note, httpx.Operator(c))
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Warn("Zayiat kaydedildi",
			zap.Uint("material_id", m.ID),
			zap.String("material", m.Name),
			zap.Float64("quantity", body.Quantity),
			zap.String("unit", body.Unit),
			zap.String("note", body.Note),
		)
		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(m))
	}
}
