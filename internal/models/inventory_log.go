package models

import "time"

type InventoryChangeKind string

const (
	InvChangeProduce    InventoryChangeKind = "produce"     // üretim girişi (+)
	InvChangeShip       InventoryChangeKind = "ship"        // sipariş sevkiyatı (-)
	InvChangeAdjust     InventoryChangeKind = "adjust"      // elle düzeltme / sipariş düzenleme farkı (+/-)
	InvChangeCancelShip InventoryChangeKind = "cancel_ship" // onay geri alma, stok iadesi (+)
)

// InventoryLogEntry: stok hareket günlüğü. Güncel stok, bu günlüğün toplamıdır;
// hiçbir kayıt sonradan düzeltilmez, düzeltme de yeni bir imzalı kayıttır.
type InventoryLogEntry struct {
	ID             uint      `gorm:"primaryKey"`
	CreatedAt      time.Time `gorm:"index"`                 // log zamanı
	EffectiveDate  time.Time `gorm:"index;not null"`        // stok hesabına esas tarih
	ItemCode       string    `gorm:"size:50;index;not null"`
	ItemName       string    `gorm:"size:100"`
	Kind           InventoryChangeKind `gorm:"size:20;index;not null"`
	QuantityDelta  int64     `gorm:"not null"`
	ResultingStock int64     `gorm:"not null"` // yazım anındaki toplam; otoritatif değer her zaman fold'dur
	ReferenceID    string    `gorm:"size:255"` // ilgili sipariş no(ları), virgülle birleşik
	Handler        string    `gorm:"size:100"`
	Reason         string    `gorm:"size:255"`
	IdempotencyKey string    `gorm:"size:64;uniqueIndex;not null"`
}
