package models

import "time"

type TaxClass string

const (
	TaxClassTaxable TaxClass = "taxable" // KDV'li
	TaxClassExempt  TaxClass = "exempt"  // KDV'siz
)

// Product: merkez kataloğundaki kalem. Çekirdek için salt okunur referans veri.
type Product struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:50;uniqueIndex;not null"`
	Name      string `gorm:"size:100;not null"`
	Spec      string `gorm:"size:100"` // ambalaj/boyut bilgisi
	Category  string `gorm:"size:50"`
	Unit      string `gorm:"size:20;not null"` // kg, adet, koli vs.
	Price     int64  `gorm:"not null"`         // KDV hariç birim fiyat (KRW, tam sayı)
	TaxClass  TaxClass `gorm:"size:20;not null;default:taxable"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxFor: KDV tutarı. Vergiye tabi kalemlerde matrahın %10'u, yukarı yuvarlanır.
func (p *Product) TaxFor(supplyAmount int64) int64 {
	if p.TaxClass != TaxClassTaxable {
		return 0
	}
	return (supplyAmount + 9) / 10
}

// PriceHistory: katalog fiyat değişiklik geçmişi.
type PriceHistory struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	ItemCode  string    `gorm:"size:50;index;not null"`
	ItemName  string    `gorm:"size:100"`
	OldPrice  int64     `gorm:"not null"`
	NewPrice  int64     `gorm:"not null"`
}
