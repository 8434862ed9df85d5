package inventory

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/models"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
)

type RecipeLineResponse struct {
	ID           uint    `json:"id"`
	ItemID       uint    `json:"item_id"`
	MaterialID   uint    `json:"material_id"`
	MaterialName string  `json:"material_name"`
	MaterialUnit string  `json:"material_unit"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Active       bool    `json:"material_active"`
}

type CreateRecipeLineRequest struct {
	MaterialID uint    `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"` // boşsa malzemenin birimi
}

type UpdateRecipeLineRequest struct {
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
}

func toRecipeLineResponse(l *models.RecipeLine) RecipeLineResponse {
	return RecipeLineResponse{
		ID:           l.ID,
		ItemID:       l.ItemID,
		MaterialID:   l.MaterialID,
		MaterialName: l.Material.Name,
		MaterialUnit: l.Material.Unit,
		Quantity:     l.Quantity,
		Unit:         l.Unit,
		Active:       l.Material.IsActive(),
	}
}

// GET /api/items/:id/recipe
func ListRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		lines, err := ListRecipe(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		res := make([]RecipeLineResponse, 0, len(lines))
		for i := range lines {
			res = append(res, toRecipeLineResponse(&lines[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/items/:id/recipe
func CreateRecipeLineHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CreateRecipeLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.MaterialID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "material_id zorunlu")
		}

		line, err := AddRecipeLine(database.DB, tbl, id, RecipeInput{
			MaterialID: body.MaterialID,
			Quantity:   body.Quantity,
			Unit:       body.Unit,
			Operator:   httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toRecipeLineResponse(line))
	}
}

// PUT /api/recipe-lines/:id
func UpdateRecipeLineHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateRecipeLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		line, err := UpdateRecipeLine(database.DB, tbl, id, RecipePatch{
			Quantity: body.Quantity,
			Unit:     body.Unit,
			Operator: httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toRecipeLineResponse(line))
	}
}

// DELETE /api/recipe-lines/:id
func DeleteRecipeLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := DeleteRecipeLine(database.DB, id, httpx.Operator(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
