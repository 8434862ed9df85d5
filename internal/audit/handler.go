package audit

import (
	"errors"

	"cafe-backend/internal/apperr"
	"cafe-backend/internal/database"
	"cafe-backend/internal/httpx"
	"cafe-backend/internal/logger"
	"cafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	Operator    string             `json:"operator"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Undoable    bool               `json:"undoable"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    string             `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

// GET /api/audit-logs?entity_type=expense&entity_id=1&operator=ayse&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		entityID, err := httpx.QueryUint(c, "entity_id")
		if err != nil {
			return err
		}
		limit, err := httpx.QueryInt(c, "limit", 200, 1, 1000)
		if err != nil {
			return err
		}

		logs, err := List(database.DB, Filter{
			EntityType: c.Query("entity_type"),
			EntityID:   entityID,
			Operator:   c.Query("operator"),
			Limit:      limit,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			var undoneAtStr *string
			if log.UndoneAt != nil {
				formatted := log.UndoneAt.Format(httpx.DateTimeLayout)
				undoneAtStr = &formatted
			}

			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format(httpx.DateTimeLayout),
				Operator:    log.Operator,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				Undoable:    !log.IsUndone && log.Action != models.AuditActionUndo && undoable(log.EntityType),
				IsUndone:    log.IsUndone,
				UndoneBy:    log.UndoneBy,
				UndoneAt:    undoneAtStr,
			})
		}

		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		operator := httpx.Operator(c)
		if err := Undo(database.DB, logID, operator); err != nil {
			switch {
			case errors.Is(err, ErrAlreadyUndone):
				return fiber.NewError(fiber.StatusConflict, err.Error())
			case errors.Is(err, ErrNotUndoable):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return apperr.ToFiber(err)
		}

		logger.FromCtx(c).Info("İşlem geri alındı", zap.Uint("log_id", logID), zap.String("operator", operator))
		return c.JSON(fiber.Map{
			"message": "İşlem başarıyla geri alındı",
		})
	}
}
