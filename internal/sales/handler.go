package sales

import (
	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/locale"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"
	"cafe-backend/internal/pricing"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateSaleRequest struct {
	ItemID         uint    `json:"item_id"`
	Quantity       int     `json:"quantity"`
	PaymentMethod  string  `json:"payment_method"` // NAKİT | KART | HAVALE | ÇEK | DİĞER
	DiscountAmount float64 `json:"discount_amount"`
	Notes          string  `json:"notes"`
}

type RefundSaleRequest struct {
	Reason string `json:"reason"`
}

type SaleResponse struct {
	ID             uint    `json:"id"`
	SaleNumber     string  `json:"sale_number"`
	ItemID         uint    `json:"item_id"`
	ItemName       string  `json:"item_name,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	TaxRate        float64 `json:"tax_rate"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalWithTax   float64 `json:"total_with_tax"`
	TotalDisplay   string  `json:"total_display"`
	ProductCost    float64 `json:"product_cost"`
	GrossProfit    float64 `json:"gross_profit"`
	NetProfit      float64 `json:"net_profit"`
	DiscountAmount float64 `json:"discount_amount"`
	PaymentMethod  string  `json:"payment_method"`
	Notes          string  `json:"notes"`
	Operator       string  `json:"operator"`
	IsRefunded     bool    `json:"is_refunded"`
	RefundReason   string  `json:"refund_reason,omitempty"`
	RefundedAt     *string `json:"refunded_at"`
	SaleDate       string  `json:"sale_date"`
}

func toResponse(s *models.Sale) SaleResponse {
	var refundedAt *string
	if s.RefundedAt != nil {
		v := s.RefundedAt.Format(httpx.DateTimeLayout)
		refundedAt = &v
	}
	return SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		ItemID:         s.ItemID,
		ItemName:       s.Item.Name,
		Quantity:       s.Quantity,
		UnitPrice:      s.UnitPrice,
		TotalPrice:     s.TotalPrice,
		TaxRate:        s.TaxRate,
		TaxAmount:      s.TaxAmount,
		TotalWithTax:   s.TotalWithTax,
		TotalDisplay:   locale.FormatCurrency(s.TotalWithTax),
		ProductCost:    s.ProductCost,
		GrossProfit:    s.GrossProfit,
		NetProfit:      s.NetProfit,
		DiscountAmount: s.DiscountAmount,
		PaymentMethod:  s.PaymentMethod,
		Notes:          s.Notes,
		Operator:       s.Operator,
		IsRefunded:     s.IsRefunded,
		RefundReason:   s.RefundReason,
		RefundedAt:     refundedAt,
		SaleDate:       s.SaleDate.Format(httpx.DateTimeLayout),
	}
}

// POST /api/sales
func CreateSaleHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.ItemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item_id zorunlu")
		}

		sale, err := Execute(database.DB, tbl, ExecuteRequest{
			ItemID:         body.ItemID,
			Quantity:       body.Quantity,
			PaymentMethod:  body.PaymentMethod,
			DiscountAmount: body.DiscountAmount,
			Notes:          body.Notes,
			Operator:       httpx.Operator(c),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		saved, err := Get(database.DB, sale.ID)
		if err != nil {
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("Satış kaydedildi",
			zap.String("sale_number", saved.SaleNumber),
			zap.Uint("item_id", saved.ItemID),
			zap.Int("quantity", saved.Quantity),
			zap.Float64("total_with_tax", saved.TotalWithTax),
		)
		return c.Status(fiber.StatusCreated).JSON(toResponse(saved))
	}
}

// GET /api/sales?from=...&to=...&item_id=...&payment_method=...&include_refunded=true
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		itemID, err := httpx.QueryUint(c, "item_id")
		if err != nil {
			return err
		}

		f := Filter{
			From:            r.From,
			To:              r.To,
			ItemID:          itemID,
			IncludeRefunded: c.QueryBool("include_refunded", false),
		}
		if pm := c.Query("payment_method"); pm != "" {
			if f.PaymentMethod, err = NormalizePaymentMethod(pm); err != nil {
				return apperr.ToFiber(err)
			}
		}

		rows, err := List(database.DB, f)
		if err != nil {
			return err
		}

		resp := make([]SaleResponse, 0, len(rows))
		for i := range rows {
			resp = append(resp, toResponse(&rows[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		s, err := Get(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(toResponse(s))
	}
}

// POST /api/sales/:id/refund
// Zaten iade edilmiş satış için 409 döner.
func RefundSaleHandler(tbl *units.Table, restoreMaterials bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body RefundSaleRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
			}
		}

		ok, err := Refund(database.DB, tbl, id, body.Reason, restoreMaterials, httpx.Operator(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		if !ok {
			return fiber.NewError(fiber.StatusConflict, "Bu satış zaten iade edilmiş")
		}

		s, err := Get(database.DB, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		logger.FromCtx(c).Info("Satış iade edildi", zap.String("sale_number", s.SaleNumber), zap.String("reason", s.RefundReason))
		return c.JSON(toResponse(s))
	}
}

// GET /api/sales/report?from=...&to=...
func SalesReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		t, err := Report(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"from":            r.From.Format(httpx.DateLayout),
			"to":              r.LastDay().Format(httpx.DateLayout),
			"totals":          t,
			"revenue_display": locale.FormatCurrency(t.Revenue),
		})
	}
}

// GET /api/sales/product-summary?from=...&to=...
func ProductSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		rows, err := ProductSummary(database.DB, r.From, r.To)
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/sales/quote?item_id=1&quantity=2
func QuoteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		itemID, err := httpx.QueryUint(c, "item_id")
		if err != nil {
			return err
		}
		if itemID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "item_id zorunlu")
		}
		qty, err := httpx.QueryInt(c, "quantity", 1, 1, 100000)
		if err != nil {
			return err
		}

		b, err := Quote(database.DB, *itemID, qty)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(struct {
			pricing.Breakdown
			Quantity     int    `json:"quantity"`
			TotalDisplay string `json:"total_display"`
		}{b, qty, locale.FormatCurrency(b.PriceInclTax)})
	}
}
