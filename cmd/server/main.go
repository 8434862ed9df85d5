package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cafe-backend/internal/audit"
	"cafe-backend/internal/config"
	"cafe-backend/internal/database"
	"cafe-backend/internal/expense"
	"cafe-backend/internal/inventory"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/metrics"
	"cafe-backend/internal/reports"
	"cafe-backend/internal/sales"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Config yüklenemedi:", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "Logger kurulamadı:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	if err := database.Init(cfg); err != nil {
		log.Fatal("Veritabanı başlatılamadı", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.FromCtx(c).Error("Beklenmeyen hata", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	if cfg.MetricsEnabled {
		metrics.Register()
		app.Use(metrics.Middleware())
	}
	app.Use(logger.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, X-Operator, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Veritabanına ulaşılamıyor")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		app.Get("/metrics", metrics.Handler())
	}

	tbl := units.Default()
	api := app.Group("/api")

	api.Get("/units", func(c *fiber.Ctx) error {
		return c.JSON(tbl.Codes())
	})

	// Satışlar
	api.Post("/sales", sales.CreateSaleHandler(tbl))
	api.Get("/sales", sales.ListSalesHandler())
	api.Get("/sales/report", sales.SalesReportHandler())
	api.Get("/sales/product-summary", sales.ProductSummaryHandler())
	api.Get("/sales/quote", sales.QuoteHandler())
	api.Get("/sales/:id", sales.GetSaleHandler())
	api.Post("/sales/:id/refund", sales.RefundSaleHandler(tbl, cfg.RefundRestoresMaterials))

	// Malzemeler
	api.Get("/materials", inventory.ListMaterialsHandler())
	api.Post("/materials", inventory.CreateMaterialHandler(tbl))
	api.Get("/materials/count-sheet.xlsx", inventory.CountSheetHandler())
	api.Post("/materials/count-sheet", inventory.ImportCountSheetHandler(tbl))
	api.Get("/materials/:id", inventory.GetMaterialHandler())
	api.Put("/materials/:id", inventory.UpdateMaterialHandler(tbl))
	api.Delete("/materials/:id", inventory.DeactivateMaterialHandler())
	api.Post("/materials/:id/activate", inventory.ActivateMaterialHandler())
	api.Post("/materials/:id/stock/add", inventory.AddMaterialStockHandler(tbl))
	api.Post("/materials/:id/stock/remove", inventory.RemoveMaterialStockHandler(tbl))
	api.Post("/materials/:id/count", inventory.CountMaterialHandler(tbl))
	api.Post("/materials/:id/waste", inventory.CreateWasteHandler(tbl))
	api.Get("/materials/:id/movements", inventory.MaterialMovementsHandler())

	// Ürünler ve reçeteler
	api.Get("/items", inventory.ListItemsHandler())
	api.Post("/items", inventory.CreateItemHandler(tbl))
	api.Get("/items/:id", inventory.GetItemHandler())
	api.Put("/items/:id", inventory.UpdateItemHandler(tbl))
	api.Delete("/items/:id", inventory.DeleteItemHandler())
	api.Post("/items/:id/activate", inventory.ActivateItemHandler())
	api.Post("/items/:id/stock/add", inventory.AddItemStockHandler())
	api.Post("/items/:id/stock/remove", inventory.RemoveItemStockHandler())
	api.Post("/items/:id/count", inventory.CountItemHandler())
	api.Get("/items/:id/movements", inventory.ItemMovementsHandler())
	api.Get("/items/:id/cost", inventory.ItemCostHandler())
	api.Get("/items/:id/recipe", inventory.ListRecipeHandler())
	api.Post("/items/:id/recipe", inventory.CreateRecipeLineHandler(tbl))
	api.Put("/recipe-lines/:id", inventory.UpdateRecipeLineHandler(tbl))
	api.Delete("/recipe-lines/:id", inventory.DeleteRecipeLineHandler())

	// Ürün kategorileri
	api.Get("/categories", inventory.ListProductCategoriesHandler())
	api.Post("/categories", inventory.CreateProductCategoryHandler())
	api.Get("/categories/:id", inventory.GetProductCategoryHandler())
	api.Put("/categories/:id", inventory.UpdateProductCategoryHandler())
	api.Delete("/categories/:id", inventory.DeleteProductCategoryHandler())

	// Stok raporları
	api.Get("/inventory/low-stock", inventory.LowStockHandler(cfg.LowStockThreshold))
	api.Get("/inventory/stock-value", inventory.StockValueHandler())

	// Giderler
	api.Get("/expense-categories", expense.ListExpenseCategoriesHandler())
	api.Post("/expense-categories", expense.CreateExpenseCategoryHandler())
	api.Put("/expense-categories/:id", expense.UpdateExpenseCategoryHandler())
	api.Delete("/expense-categories/:id", expense.DeleteExpenseCategoryHandler())
	api.Post("/expenses", expense.CreateExpenseHandler())
	api.Get("/expenses", expense.ListExpensesHandler())
	api.Get("/expenses/summary", expense.ExpenseSummaryHandler())
	api.Get("/expenses/summary/total", expense.TotalExpensesHandler())
	api.Get("/expenses/summary/by-category", expense.ExpensesByCategoryHandler())
	api.Get("/expenses/summary/monthly", expense.MonthlyExpenseSummaryHandler())
	api.Get("/expenses/:id", expense.GetExpenseHandler())
	api.Put("/expenses/:id", expense.UpdateExpenseHandler())
	api.Delete("/expenses/:id", expense.DeleteExpenseHandler())

	// Raporlar
	rep := api.Group("/reports")
	rep.Get("/summary", reports.SummaryHandler(cfg.LowStockThreshold))
	rep.Get("/sales-trend", reports.SalesTrendHandler())
	rep.Get("/top-products", reports.TopProductsHandler())
	rep.Get("/category-sales", reports.CategorySalesHandler())
	rep.Get("/hourly-sales", reports.HourlySalesHandler())
	rep.Get("/payment-breakdown", reports.PaymentBreakdownHandler())
	rep.Get("/expense-breakdown", reports.ExpenseBreakdownHandler())
	rep.Get("/expense-trend", reports.ExpenseTrendHandler())
	rep.Get("/profit-analysis", reports.ProfitAnalysisHandler())
	rep.Get("/daily-profit", reports.DailyProfitHandler())
	rep.Get("/product-profitability", reports.ProductProfitabilityHandler())
	rep.Get("/monthly-comparison", reports.MonthlyComparisonHandler())
	rep.Post("/monthly", reports.CreateMonthlyReportHandler())
	rep.Get("/monthly", reports.ListMonthlyReportsHandler())
	rep.Get("/monthly/:id", reports.GetMonthlyReportHandler())
	rep.Get("/export/sales.xlsx", reports.ExportSalesHandler())
	rep.Get("/export/expenses.xlsx", reports.ExportExpensesHandler())

	// Audit logs
	api.Get("/audit-logs", audit.ListAuditLogsHandler())
	api.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		log.Info("Kapatma sinyali alındı", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("Sunucu düzgün kapatılamadı", zap.Error(err))
		}
	}()

	log.Info("Server çalışıyor", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal("Server başlatılamadı", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		log.Warn("Veritabanı bağlantısı kapatılamadı", zap.Error(err))
	}
	log.Info("Server kapandı")
}
