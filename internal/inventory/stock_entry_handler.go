package inventory

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/ledger"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MaterialStockRequest struct {
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"` // boşsa malzemenin birimi
	Reason    string  `json:"reason"`
	Reference string  `json:"reference"` // ör: fatura no
	Note      string  `json:"note"`
}

type ItemStockRequest struct {
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	Note      string `json:"note"`
}

type MaterialMovementResponse struct {
	ID               uint    `json:"id"`
	Type             string  `json:"type"`
	Quantity         float64 `json:"quantity"`
	InputQuantity    float64 `json:"input_quantity"`
	InputUnit        string  `json:"input_unit"`
	PreviousQuantity float64 `json:"previous_quantity"`
	NewQuantity      float64 `json:"new_quantity"`
	Reason           string  `json:"reason"`
	Reference        string  `json:"reference"`
	Note             string  `json:"note"`
	Operator         string  `json:"operator"`
	CreatedAt        string  `json:"created_at"`
}

type ItemMovementResponse struct {
	ID               uint   `json:"id"`
	Type             string `json:"type"`
	Quantity         int    `json:"quantity"`
	PreviousQuantity int    `json:"previous_quantity"`
	NewQuantity      int    `json:"new_quantity"`
	Reason           string `json:"reason"`
	Reference        string `json:"reference"`
	Note             string `json:"note"`
	Operator         string `json:"operator"`
	CreatedAt        string `json:"created_at"`
}

func (r MaterialStockRequest) movement(c *fiber.Ctx) ledger.Movement {
	return ledger.Movement{Reason: r.Reason, Reference: r.Reference, Note: r.Note, Operator: httpx.Operator(c)}
}

func (r ItemStockRequest) movement(c *fiber.Ctx) ledger.Movement {
	return ledger.Movement{Reason: r.Reason, Reference: r.Reference, Note: r.Note, Operator: httpx.Operator(c)}
}

func parseMaterialStock(c *fiber.Ctx) (uint, MaterialStockRequest, error) {
	var body MaterialStockRequest
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return 0, body, err
	}
	if err := c.BodyParser(&body); err != nil {
		return 0, body, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}
	return id, body, nil
}

func parseItemStock(c *fiber.Ctx) (uint, ItemStockRequest, error) {
	var body ItemStockRequest
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return 0, body, err
	}
	if err := c.BodyParser(&body); err != nil {
		return 0, body, fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}
	return id, body, nil
}

// POST /api/materials/:id/stock/add
func AddMaterialStockHandler(tbl *units.Table) fiber.Handler {
	return materialStockHandler(tbl, false)
}

// POST /api/materials/:id/stock/remove
func RemoveMaterialStockHandler(tbl *units.Table) fiber.Handler {
	return materialStockHandler(tbl, true)
}

func materialStockHandler(tbl *units.Table, remove bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, body, err := parseMaterialStock(c)
		if err != nil {
			return err
		}
		m, err := AdjustMaterial(database.DB, tbl, id, body.Quantity, body.Unit, remove, body.movement(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Malzeme stoğu güncellendi",
			zap.Uint("material_id", m.ID),
			zap.Bool("remove", remove),
			zap.Float64("quantity", body.Quantity),
			zap.String("unit", body.Unit),
			zap.Float64("new_quantity", m.Quantity),
		)
		return c.JSON(toMaterialResponse(m))
	}
}

// POST /api/materials/:id/count
func CountMaterialHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, body, err := parseMaterialStock(c)
		if err != nil {
			return err
		}
		m, err := CountMaterial(database.DB, tbl, id, body.Quantity, body.Unit, body.movement(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toMaterialResponse(m))
	}
}

// GET /api/materials/:id/movements?limit=50
func MaterialMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		limit, err := httpx.QueryInt(c, "limit", 100, 1, 1000)
		if err != nil {
			return err
		}
		if _, err := GetMaterial(database.DB, id); err != nil {
			return apperr.ToFiber(err)
		}
		rows, err := ledger.MaterialMovements(database.DB, id, limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		res := make([]MaterialMovementResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, MaterialMovementResponse{
				ID:               r.ID,
				Type:             string(r.Type),
				Quantity:         r.Quantity,
				InputQuantity:    r.InputQuantity,
				InputUnit:        r.InputUnit,
				PreviousQuantity: r.PreviousQuantity,
				NewQuantity:      r.NewQuantity,
				Reason:           r.Reason,
				Reference:        r.Reference,
				Note:             r.Note,
				Operator:         r.Operator,
				CreatedAt:        r.CreatedAt.Format(httpx.DateTimeLayout),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/items/:id/stock/add
func AddItemStockHandler() fiber.Handler {
	return itemStockHandler(false)
}

// POST /api/items/:id/stock/remove
func RemoveItemStockHandler() fiber.Handler {
	return itemStockHandler(true)
}

func itemStockHandler(remove bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, body, err := parseItemStock(c)
		if err != nil {
			return err
		}
		it, err := AdjustItem(database.DB, id, body.Quantity, remove, body.movement(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Ürün stoğu güncellendi",
			zap.Uint("item_id", it.ID),
			zap.Bool("remove", remove),
			zap.Int("quantity", body.Quantity),
			zap.Int("new_quantity", it.Quantity),
		)
		return c.JSON(toItemResponse(it))
	}
}

// POST /api/items/:id/count
func CountItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, body, err := parseItemStock(c)
		if err != nil {
			return err
		}
		it, err := CountItem(database.DB, id, body.Quantity, body.movement(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toItemResponse(it))
	}
}

// GET /api/items/:id/movements?limit=50
func ItemMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		limit, err := httpx.QueryInt(c, "limit", 100, 1, 1000)
		if err != nil {
			return err
		}
		if err := itemExists(database.DB, id); err != nil {
			return apperr.ToFiber(err)
		}
		rows, err := ledger.ItemMovements(database.DB, id, limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		res := make([]ItemMovementResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, toItemMovementResponse(r))
		}
		return c.JSON(res)
	}
}

func toItemMovementResponse(r models.StockMovement) ItemMovementResponse {
	return ItemMovementResponse{
		ID:               r.ID,
		Type:             string(r.Type),
		Quantity:         r.Quantity,
		PreviousQuantity: r.PreviousQuantity,
		NewQuantity:      r.NewQuantity,
		Reason:           r.Reason,
		Reference:        r.Reference,
		Note:             r.Note,
		Operator:         r.Operator,
		CreatedAt:        r.CreatedAt.Format(httpx.DateTimeLayout),
	}
}
