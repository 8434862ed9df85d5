package inventory

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductCategoryResponse struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}

type CreateProductCategoryRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateProductCategoryRequest struct {
	Code         *string `json:"code"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

func toCategoryResponse(cat *models.ProductCategory) ProductCategoryResponse {
	return ProductCategoryResponse{
		ID:           cat.ID,
		Code:         cat.Code,
		Name:         cat.Name,
		Description:  cat.Description,
		DisplayOrder: cat.DisplayOrder,
		IsActive:     cat.Status == models.StatusActive,
		CreatedAt:    cat.CreatedAt.Format(httpx.DateTimeLayout),
	}
}

// GET /api/categories?include_inactive=true
func ListProductCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := ListCategories(database.DB, c.QueryBool("include_inactive", false))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]ProductCategoryResponse, 0, len(categories))
		for i := range categories {
			res = append(res, toCategoryResponse(&categories[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/categories/:id
func GetProductCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		cat, err := GetCategory(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toCategoryResponse(cat))
	}
}

// POST /api/categories
func CreateProductCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		cat, err := CreateCategory(database.DB, CategoryInput{
			Code:         body.Code,
			Name:         body.Name,
			Description:  body.Description,
			DisplayOrder: body.DisplayOrder,
			Active:       body.IsActive,
			Operator:     httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toCategoryResponse(cat))
	}
}

// PUT /api/categories/:id
func UpdateProductCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateProductCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		cat, err := UpdateCategory(database.DB, id, CategoryPatch{
			Code:         body.Code,
			Name:         body.Name,
			Description:  body.Description,
			DisplayOrder: body.DisplayOrder,
			Active:       body.IsActive,
			Operator:     httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toCategoryResponse(cat))
	}
}

// DELETE /api/categories/:id
func DeleteProductCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := DeleteCategory(database.DB, id, httpx.Operator(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
