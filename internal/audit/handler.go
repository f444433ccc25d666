package audit

import (
	"fmt"
	"time"

	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditEntryResponse struct {
	ID           uint   `json:"id"`
	CreatedAt    string `json:"created_at"`
	ActorID      uint   `json:"actor_id"`
	ActorName    string `json:"actor_name"`
	ActionKind   string `json:"action_kind"`
	TargetID     string `json:"target_id"`
	TargetName   string `json:"target_name"`
	ChangedField string `json:"changed_field"`
	Before       string `json:"before"`
	After        string `json:"after"`
	Reason       string `json:"reason"`
}

// GET /api/admin/audit-logs?from=2025-01-01&to=2025-01-31&actor_id=1&action=...&limit=50&offset=0
func ListAuditEntriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditEntry{})

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("created_at >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("created_at < ?", to.AddDate(0, 0, 1))
		}

		if actorIDStr := c.Query("actor_id"); actorIDStr != "" {
			var aid uint
			if _, err := fmt.Sscan(actorIDStr, &aid); err == nil && aid > 0 {
				dbq = dbq.Where("actor_id = ?", aid)
			}
		}
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action_kind = ?", action)
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar sayılamadı")
		}

		var entries []models.AuditEntry
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, AuditEntryResponse{
				ID:           e.ID,
				CreatedAt:    e.CreatedAt.Format("2006-01-02 15:04:05"),
				ActorID:      e.ActorID,
				ActorName:    e.ActorName,
				ActionKind:   e.ActionKind,
				TargetID:     e.TargetID,
				TargetName:   e.TargetName,
				ChangedField: e.ChangedField,
				Before:       e.Before,
				After:        e.After,
				Reason:       e.Reason,
			})
		}

		return c.JSON(fiber.Map{
			"total":   total,
			"entries": resp,
		})
	}
}
