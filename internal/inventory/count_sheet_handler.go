package inventory

import (
	"bytes"
	"strings"
	"time"

	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/units"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/materials/count-sheet.xlsx
// Aktif malzemelerle doldurulmuş boş sayım şablonu
func CountSheetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := CountSheet(database.DB)
		if err != nil {
			return err
		}
		defer f.Close()

		buf := &bytes.Buffer{}
		if err := f.Write(buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası yazılamadı")
		}
		c.Attachment("sayim_" + time.Now().Format("20060102") + ".xlsx")
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(buf.Bytes())
	}
}

// POST /api/materials/count-sheet (multipart, file=...xlsx)
// Doldurulmuş sayım şablonunu işler
func ImportCountSheetHandler(tbl *units.Table) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		res, err := ImportCount(database.DB, tbl, file, httpx.Operator(c))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		logger.FromCtx(c).Info("Excel sayımı işlendi",
			zap.String("file", fileHeader.Filename),
			zap.Int("counted", len(res.Counted)),
			zap.Int("unmatched", len(res.Unmatched)),
			zap.Int("errors", len(res.Errors)),
		)
		return c.JSON(res)
	}
}
