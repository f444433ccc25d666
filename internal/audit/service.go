package audit

import (
	"fmt"
	"log"

	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"
)

type Entry struct {
	ActorID      uint
	ActorName    string
	ActionKind   string
	TargetID     string
	TargetName   string
	ChangedField string
	Before       any
	After        any
	Reason       string
}

// Record: idari işlem günlüğüne yazar. Best-effort: yazılamazsa loglanır ama
// tetikleyen iş akışı asla bloklanmaz; çağıranlar dönüş değerini yutabilir.
func Record(e Entry) error {
	row := models.AuditEntry{
		ActorID:      e.ActorID,
		ActorName:    e.ActorName,
		ActionKind:   e.ActionKind,
		TargetID:     e.TargetID,
		TargetName:   e.TargetName,
		ChangedField: e.ChangedField,
		Before:       fmt.Sprint(e.Before),
		After:        fmt.Sprint(e.After),
		Reason:       e.Reason,
	}

	if err := database.DB.Create(&row).Error; err != nil {
		log.Printf("[WARN] Audit kaydı yazılamadı (%s / %s): %v", e.ActionKind, e.TargetID, err)
		return fmt.Errorf("audit kaydı yazılamadı: %w", err)
	}

	return nil
}

// RecordFieldChange: tek alan değişikliği için kısayol.
func RecordFieldChange(actorID uint, actorName, actionKind, targetID, targetName, field string, before, after any, reason string) {
	_ = Record(Entry{
		ActorID:      actorID,
		ActorName:    actorName,
		ActionKind:   actionKind,
		TargetID:     targetID,
		TargetName:   targetName,
		ChangedField: field,
		Before:       before,
		After:        after,
		Reason:       reason,
	})
}
