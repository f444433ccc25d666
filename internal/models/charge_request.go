package models

import "time"

type ChargeKind string

const (
	ChargeKindDeposit   ChargeKind = "deposit"   // ön yükleme bildirimi
	ChargeKindRepayment ChargeKind = "repayment" // kredi geri ödeme bildirimi
)

type ChargeStatus string

const (
	ChargeRequested ChargeStatus = "requested"
	ChargeApproved  ChargeStatus = "approved"
	ChargeRejected  ChargeStatus = "rejected"
)

// ChargeRequest: bayinin "havale yaptım" bildirimi. Bakiyeye ancak operatör onayıyla
// işlenir; bekleyen istekler mali denetimde hesaba katılmaz.
type ChargeRequest struct {
	ID            uint      `gorm:"primaryKey"`
	CreatedAt     time.Time `gorm:"index"`
	OutletID      uint      `gorm:"index;not null"`
	OutletName    string    `gorm:"size:100"`
	Depositor     string    `gorm:"size:100;not null"` // havaleyi yapanın adı
	Amount        int64     `gorm:"not null"`
	Kind          ChargeKind   `gorm:"size:20;not null"`
	Status        ChargeStatus `gorm:"size:20;index;not null;default:requested"`
	ProcessReason string    `gorm:"size:255"` // ret gerekçesi
	ProcessedBy   string    `gorm:"size:100"`
	ProcessedAt   *time.Time
	UpdatedAt     time.Time
}
