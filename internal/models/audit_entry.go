package models

import "time"

// AuditEntry: idari alan değişikliklerinin pasif günlüğü. Hesaplamada kullanılmaz,
// yalnızca kim/ne/önce/sonra/niçin sorularına cevap verir.
type AuditEntry struct {
	ID           uint      `gorm:"primaryKey"`
	CreatedAt    time.Time `gorm:"index"`
	ActorID      uint      `gorm:"index"`
	ActorName    string    `gorm:"size:100"`
	ActionKind   string    `gorm:"size:50;index;not null"`
	TargetID     string    `gorm:"size:80;index"`
	TargetName   string    `gorm:"size:100"`
	ChangedField string    `gorm:"size:50"`
	Before       string    `gorm:"size:255"`
	After        string    `gorm:"size:255"`
	Reason       string    `gorm:"size:255"`
}
