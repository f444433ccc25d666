package models

import "time"

// BalanceRecord: bayi başına tek satır bakiye özeti. Yalnızca ledger.BalanceLedger
// yazar; her değişikliğin gerekçesi Transaction tablosunda durur.
type BalanceRecord struct {
	ID             uint `gorm:"primaryKey"`
	OutletID       uint `gorm:"uniqueIndex;not null"`
	Outlet         Outlet
	OutletName     string `gorm:"size:100"`
	PrepaidBalance int64  `gorm:"not null;default:0"` // ön yüklü bakiye, >= 0
	CreditLimit    int64  `gorm:"not null;default:0"`
	UsedCredit     int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b *BalanceRecord) AvailableCredit() int64 {
	return b.CreditLimit - b.UsedCredit
}
