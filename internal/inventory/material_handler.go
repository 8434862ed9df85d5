package inventory

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MaterialResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	UnitCost     float64 `json:"unit_cost"`
	Quantity     float64 `json:"quantity"`
	TotalValue   float64 `json:"total_value"`
	ValueDisplay string  `json:"value_display"`
	Notes        string  `json:"notes"`
	Status       string  `json:"status"`
	UpdatedAt    string  `json:"updated_at"`
}

type CreateMaterialRequest struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"` // g | kg | ml | l | adet
	UnitCost float64 `json:"unit_cost"`
	Quantity float64 `json:"quantity"` // opsiyonel başlangıç stoğu
	Notes    string  `json:"notes"`
}

type UpdateMaterialRequest struct {
	Name     *string  `json:"name"`
	Unit     *string  `json:"unit"`
	UnitCost *float64 `json:"unit_cost"`
	Notes    *string  `json:"notes"`
}

func toMaterialResponse(m *models.Material) MaterialResponse {
	v := m.TotalValue()
	return MaterialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Unit:         m.Unit,
		UnitCost:     m.UnitCost,
		Quantity:     m.Quantity,
		TotalValue:   v,
		ValueDisplay: locale.FormatCurrency(v),
		Notes:        m.Notes,
		Status:       string(m.Status),
		UpdatedAt:    m.UpdatedAt.Format(httpx.DateTimeLayout),
	}
}

// GET /api/materials?search=kahve&include_inactive=true
func ListMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := ListMaterials(database.DB, MaterialFilter{
			Search:          c.Query("search"),
			IncludeInactive: c.QueryBool("include_inactive", false),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}
		res := make([]MaterialResponse, 0, len(rows))
		for i := range rows {
			res = append(res, toMaterialResponse(&rows[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/materials/:id
func GetMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := GetMaterial(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toMaterialResponse(m))
	}
}

// POST /api/materials
func CreateMaterialHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		m, err := CreateMaterial(database.DB, tbl, MaterialInput{
			Name:     body.Name,
			Unit:     body.Unit,
			UnitCost: body.UnitCost,
			Quantity: body.Quantity,
			Notes:    body.Notes,
			Operator: httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("Malzeme eklendi", zap.Uint("material_id", m.ID), zap.String("name", m.Name))
		return c.Status(fiber.StatusCreated).JSON(toMaterialResponse(m))
	}
}

// PUT /api/materials/:id
func UpdateMaterialHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		m, err := UpdateMaterial(database.DB, tbl, id, MaterialPatch{
			Name:     body.Name,
			Unit:     body.Unit,
			UnitCost: body.UnitCost,
			Notes:    body.Notes,
			Operator: httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toMaterialResponse(m))
	}
}

// DELETE /api/materials/:id (pasife alır)
func DeactivateMaterialHandler() fiber.Handler {
	return materialStatusHandler(models.StatusDeactivated)
}

// POST /api/materials/:id/activate
func ActivateMaterialHandler() fiber.Handler {
	return materialStatusHandler(models.StatusActive)
}

func materialStatusHandler(status models.Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := SetMaterialStatus(database.DB, id, status, httpx.Operator(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Malzeme durumu değişti", zap.Uint("material_id", m.ID), zap.String("status", string(status)))
		return c.JSON(toMaterialResponse(m))
	}
}
