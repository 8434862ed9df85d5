package expense

import (
	"time"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ExpenseCategoryResponse struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

type CreateExpenseCategoryRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateExpenseCategoryRequest struct {
	Code         *string `json:"code"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

type CreateExpenseRequest struct {
	Date            string  `json:"date"` // "2025-12-09"
	CategoryID      uint    `json:"category_id"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	PaymentMethod   string  `json:"payment_method"` // NAKİT | BANKA | KART | ÇEK | DİĞER
	ReferenceNumber string  `json:"reference_number"`
	IsRecurring     bool    `json:"is_recurring"`
	RecurringType   string  `json:"recurring_type"` // GÜNLÜK | HAFTALIK | AYLIK | YILLIK
	Notes           string  `json:"notes"`
}

type UpdateExpenseRequest struct {
	Date            *string  `json:"date"`
	CategoryID      *uint    `json:"category_id"`
	Amount          *float64 `json:"amount"`
	Description     *string  `json:"description"`
	PaymentMethod   *string  `json:"payment_method"`
	ReferenceNumber *string  `json:"reference_number"`
	IsRecurring     *bool    `json:"is_recurring"`
	RecurringType   *string  `json:"recurring_type"`
	Notes           *string  `json:"notes"`
}

type ExpenseResponse struct {
	ID              uint    `json:"id"`
	CategoryID      uint    `json:"category_id"`
	Category        string  `json:"category"`
	CategoryCode    string  `json:"category_code"`
	Date            string  `json:"date"`
	DateDisplay     string  `json:"date_display"`
	Amount          float64 `json:"amount"`
	AmountDisplay   string  `json:"amount_display"`
	Description     string  `json:"description"`
	PaymentMethod   string  `json:"payment_method"`
	ReferenceNumber string  `json:"reference_number"`
	IsRecurring     bool    `json:"is_recurring"`
	RecurringType   string  `json:"recurring_type"`
	Notes           string  `json:"notes"`
}

func toCategoryResponse(cat *models.ExpenseCategory) ExpenseCategoryResponse {
	return ExpenseCategoryResponse{
		ID:           cat.ID,
		Code:         cat.Code,
		Name:         cat.Name,
		Description:  cat.Description,
		DisplayOrder: cat.DisplayOrder,
		IsActive:     cat.Status == models.StatusActive,
	}
}

func toExpenseResponse(e *models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:              e.ID,
		CategoryID:      e.CategoryID,
		Category:        e.Category.Name,
		CategoryCode:    e.Category.Code,
		Date:            e.Date.Format(httpx.DateLayout),
		DateDisplay:     locale.FormatDate(e.Date),
		Amount:          e.Amount,
		AmountDisplay:   locale.FormatCurrency(e.Amount),
		Description:     e.Description,
		PaymentMethod:   e.PaymentMethod,
		ReferenceNumber: e.ReferenceNumber,
		IsRecurring:     e.IsRecurring,
		RecurringType:   e.RecurringType,
		Notes:           e.Notes,
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := httpx.ParseDate(s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
	}
	return d, nil
}

// -------------------------
// Expense Category CRUD
// -------------------------

// GET /api/expense-categories?include_inactive=true
func ListExpenseCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := ListCategories(database.DB, c.QueryBool("include_inactive", false))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]ExpenseCategoryResponse, 0, len(cats))
		for i := range cats {
			res = append(res, toCategoryResponse(&cats[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/expense-categories
func CreateExpenseCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseCategoryRequest
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

// PUT /api/expense-categories/:id
func UpdateExpenseCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateExpenseCategoryRequest
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

// DELETE /api/expense-categories/:id
func DeleteExpenseCategoryHandler() fiber.Handler {
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

// -------------------------
// Expense CRUD
// -------------------------

// POST /api/expenses
func CreateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.CategoryID == 0 || body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "category_id ve amount zorunlu, amount > 0 olmalı")
		}
		d, err := parseDate(body.Date)
		if err != nil {
			return err
		}

		e, err := Create(database.DB, ExpenseInput{
			Date:            d,
			CategoryID:      body.CategoryID,
			Description:     body.Description,
			Amount:          body.Amount,
			PaymentMethod:   body.PaymentMethod,
			ReferenceNumber: body.ReferenceNumber,
			IsRecurring:     body.IsRecurring,
			RecurringType:   body.RecurringType,
			Notes:           body.Notes,
			Operator:        httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("Gider kaydedildi",
			zap.Uint("expense_id", e.ID),
			zap.String("category", e.Category.Code),
			zap.Float64("amount", e.Amount),
		)
		return c.Status(fiber.StatusCreated).JSON(toExpenseResponse(e))
	}
}

// GET /api/expenses?from=...&to=...&category_id=...
func ListExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		catID, err := httpx.QueryUint(c, "category_id")
		if err != nil {
			return err
		}

		rows, err := List(database.DB, Filter{From: r.From, To: r.To, CategoryID: catID})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Giderler listelenemedi")
		}

		resp := make([]ExpenseResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toExpenseResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/expenses/:id
func GetExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		e, err := Get(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toExpenseResponse(e))
	}
}

// PUT /api/expenses/:id
func UpdateExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		p := ExpensePatch{
			CategoryID:      body.CategoryID,
			Description:     body.Description,
			Amount:          body.Amount,
			PaymentMethod:   body.PaymentMethod,
			ReferenceNumber: body.ReferenceNumber,
			IsRecurring:     body.IsRecurring,
			RecurringType:   body.RecurringType,
			Notes:           body.Notes,
			Operator:        httpx.Operator(c),
		}
		if body.Date != nil {
			d, err := parseDate(*body.Date)
			if err != nil {
				return err
			}
			p.Date = &d
		}

		e, err := Update(database.DB, id, p)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toExpenseResponse(e))
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := Delete(database.DB, id, httpx.Operator(c)); err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Gider silindi", zap.Uint("expense_id", id))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Gider özetleri
// -------------------------

// GET /api/expenses/summary/total?from=...&to=...
func TotalExpensesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		total, err := Total(database.DB, r.From, r.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		return c.JSON(fiber.Map{
			"from":          r.From.Format(httpx.DateLayout),
			"to":            r.LastDay().Format(httpx.DateLayout),
			"total":         total,
			"total_display": locale.FormatCurrency(total),
		})
	}
}

// GET /api/expenses/summary/by-category?from=...&to=...
func ExpensesByCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rows, err := ByCategory(database.DB, r.From, r.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/expenses/summary/monthly?from=...&to=...
// year verilirse o yılın tamamı
func MonthlyExpenseSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		if c.Query("year") != "" {
			year, err := httpx.QueryInt(c, "year", 0, 2000, 2100)
			if err != nil {
				return err
			}
			r.From = time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
			r.To = r.From.AddDate(1, 0, 0)
		}

		rows, err := Monthly(database.DB, r.From, r.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		return c.JSON(rows)
	}
}

// GET /api/expenses/summary?from=...&to=...
func ExpenseSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		s, err := Summarize(database.DB, r.From, r.To, r.Days())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		s.From = r.From.Format(httpx.DateLayout)
		s.To = r.LastDay().Format(httpx.DateLayout)
		return c.JSON(s)
	}
}
