package inventory

import (
	"fmt"
	"time"

	"tedarik-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger: stok hareket günlüğünün tek yazarı. Güncel stok her zaman günlüğün
// toplamından türetilir; ResultingStock alanı sadece gösterim içindir.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Movement: tek kaleme ait imzalı stok değişimi.
type Movement struct {
	ItemCode string
	ItemName string
	Delta    int64
}

// CurrentStock: EffectiveDate <= asOf olan kayıtların toplamı.
func (l *Ledger) CurrentStock(itemCode string, asOf time.Time) (int64, error) {
	return currentStock(l.db, itemCode, asOf)
}

func currentStock(db *gorm.DB, itemCode string, asOf time.Time) (int64, error) {
	var total int64
	err := db.Model(&models.InventoryLogEntry{}).
		Where("item_code = ? AND effective_date < ?", itemCode, dayAfter(asOf)).
		Select("COALESCE(SUM(quantity_delta), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("stok hesaplanamadı (%s): %w", itemCode, err)
	}
	return total, nil
}

// CurrentStockAll: tüm kalemler için kod -> stok haritası.
func (l *Ledger) CurrentStockAll(asOf time.Time) (map[string]int64, error) {
	return currentStockAll(l.db, asOf)
}

func currentStockAll(db *gorm.DB, asOf time.Time) (map[string]int64, error) {
	type row struct {
		ItemCode string
		Total    int64
	}
	var rows []row
	err := db.Model(&models.InventoryLogEntry{}).
		Where("effective_date < ?", dayAfter(asOf)).
		Select("item_code, COALESCE(SUM(quantity_delta), 0) AS total").
		Group("item_code").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("stok hesaplanamadı: %w", err)
	}

	stock := make(map[string]int64, len(rows))
	for _, r := range rows {
		stock[r.ItemCode] = r.Total
	}
	return stock, nil
}

// Append: verilen hareketleri günlüğe ekler. tx, çağıranın işlem kapsamıdır;
// sipariş akışları stok kaydını durum değişikliğiyle aynı transaction'da yazar.
// Mevcut kayıtlar asla değiştirilmez; düzeltme de yeni bir imzalı kayıttır.
func Append(tx *gorm.DB, kind models.InventoryChangeKind, movements []Movement, effectiveDate time.Time, refID, handler, reason string) error {
	for _, m := range movements {
		if m.Delta == 0 {
			continue
		}

		// Anlık görüntü: ekleme anındaki toplam + delta. Otoritatif değer fold'dur.
		stock, err := currentStock(tx, m.ItemCode, effectiveDate)
		if err != nil {
			return err
		}

		entry := models.InventoryLogEntry{
			EffectiveDate:  effectiveDate,
			ItemCode:       m.ItemCode,
			ItemName:       m.ItemName,
			Kind:           kind,
			QuantityDelta:  m.Delta,
			ResultingStock: stock + m.Delta,
			ReferenceID:    refID,
			Handler:        handler,
			Reason:         reason,
			IdempotencyKey: uuid.NewString(),
		}

		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("stok kaydı yazılamadı (%s): %w", m.ItemCode, err)
		}
	}
	return nil
}

// Gün bazlı karşılaştırma için: asOf gününün sonu.
func dayAfter(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
