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

type ItemResponse struct {
	ID            uint                 `json:"id"`
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	CategoryID    *uint                `json:"category_id"`
	CategoryName  string               `json:"category_name,omitempty"`
	Price         float64              `json:"price"`
	PriceDisplay  string               `json:"price_display"`
	CostPrice     float64              `json:"cost_price"`
	TaxRate       float64              `json:"tax_rate"`
	ProfitMargin  float64              `json:"profit_margin"`
	Quantity      int                  `json:"quantity"`
	Unit          string               `json:"unit"`
	MinStockLevel int                  `json:"min_stock_level"`
	Description   string               `json:"description"`
	Status        string               `json:"status"`
	Recipe        []RecipeLineResponse `json:"recipe,omitempty"`
}

type CreateItemRequest struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	CategoryID    *uint    `json:"category_id"`
	Price         float64  `json:"price"`
	CostPrice     float64  `json:"cost_price"`
	TaxRate       *float64 `json:"tax_rate"`      // varsayılan 8
	ProfitMargin  *float64 `json:"profit_margin"` // varsayılan 30
	Quantity      int      `json:"quantity"`
	Unit          string   `json:"unit"`            // varsayılan adet
	MinStockLevel *int     `json:"min_stock_level"` // varsayılan 5
	Description   string   `json:"description"`
}

type UpdateItemRequest struct {
	Code          *string  `json:"code"`
	Name          *string  `json:"name"`
	CategoryID    *uint    `json:"category_id"` // 0: kategoriyi kaldır
	Price         *float64 `json:"price"`
	CostPrice     *float64 `json:"cost_price"`
	TaxRate       *float64 `json:"tax_rate"`
	ProfitMargin  *float64 `json:"profit_margin"`
	Unit          *string  `json:"unit"`
	MinStockLevel *int     `json:"min_stock_level"`
	Description   *string  `json:"description"`
}

func toItemResponse(it *models.Item) ItemResponse {
	res := ItemResponse{
		ID:            it.ID,
		Code:          it.Code,
		Name:          it.Name,
		CategoryID:    it.CategoryID,
		Price:         it.Price,
		PriceDisplay:  locale.FormatCurrency(it.Price),
		CostPrice:     it.CostPrice,
		TaxRate:       it.TaxRate,
		ProfitMargin:  it.ProfitMargin,
		Quantity:      it.Quantity,
		Unit:          it.Unit,
		MinStockLevel: it.MinStockLevel,
		Description:   it.Description,
		Status:        string(it.Status),
	}
	if it.Category != nil {
		res.CategoryName = it.Category.Name
	}
	for i := range it.RecipeLines {
		res.Recipe = append(res.Recipe, toRecipeLineResponse(&it.RecipeLines[i]))
	}
	return res
}

// GET /api/items?category_id=1&search=latte&include_inactive=true
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		catID, err := httpx.QueryUint(c, "category_id")
		if err != nil {
			return err
		}
		rows, err := ListItems(database.DB, ItemFilter{
			CategoryID:      catID,
			Search:          c.Query("search"),
			IncludeInactive: c.QueryBool("include_inactive", false),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ItemResponse, 0, len(rows))
		for i := range rows {
			res = append(res, toItemResponse(&rows[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/items/:id (reçete dahil)
func GetItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		it, err := GetItem(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toItemResponse(it))
	}
}

// POST /api/items
func CreateItemHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		it, err := CreateItem(database.DB, tbl, ItemInput{
			Code:          body.Code,
			Name:          body.Name,
			CategoryID:    body.CategoryID,
			Price:         body.Price,
			CostPrice:     body.CostPrice,
			TaxRate:       body.TaxRate,
			ProfitMargin:  body.ProfitMargin,
			Quantity:      body.Quantity,
			Unit:          body.Unit,
			MinStockLevel: body.MinStockLevel,
			Description:   body.Description,
			Operator:      httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("Ürün eklendi", zap.Uint("item_id", it.ID), zap.String("code", it.Code))
		return c.Status(fiber.StatusCreated).JSON(toItemResponse(it))
	}
}

// PUT /api/items/:id
func UpdateItemHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if _, err := UpdateItem(database.DB, tbl, id, ItemPatch{
			Code:          body.Code,
			Name:          body.Name,
			CategoryID:    body.CategoryID,
			Price:         body.Price,
			CostPrice:     body.CostPrice,
			TaxRate:       body.TaxRate,
			ProfitMargin:  body.ProfitMargin,
			Unit:          body.Unit,
			MinStockLevel: body.MinStockLevel,
			Description:   body.Description,
			Operator:      httpx.Operator(c),
		}); err != nil {
			return apperr.ToFiber(err)
		}

		it, err := GetItem(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toItemResponse(it))
	}
}

// DELETE /api/items/:id?hard=true
// Varsayılan pasife alır; hard=true satışı olmayan ürünü tamamen siler.
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		op := httpx.Operator(c)

		if c.QueryBool("hard", false) {
			if err := HardDeleteItem(database.DB, id, op); err != nil {
				return apperr.ToFiber(err)
			}
			logger.FromCtx(c).Info("Ürün silindi", zap.Uint("item_id", id))
			return c.SendStatus(fiber.StatusNoContent)
		}

		it, err := SetItemStatus(database.DB, id, models.StatusDeactivated, op)
		if err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Ürün pasife alındı", zap.Uint("item_id", it.ID))
		return c.JSON(toItemResponse(it))
	}
}

// POST /api/items/:id/activate
func ActivateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		it, err := SetItemStatus(database.DB, id, models.StatusActive, httpx.Operator(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toItemResponse(it))
	}
}

// GET /api/items/:id/cost
func ItemCostHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cost, err := CostOfItem(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(cost)
	}
}
