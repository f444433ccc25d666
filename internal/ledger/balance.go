package ledger

import (
	"errors"
	"fmt"

	"tedarik-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBalanceNotFound = errors.New("bakiye kaydı bulunamadı")
	ErrNegativeBalance = errors.New("işlem bakiyeyi eksiye düşürür")
)

// Apply: bakiyeye dokunan tek yol. Çağıranın transaction'ı içinde önce işlem
// günlüğüne yazar, sonra özet satırı günceller; satır mutasyondan hemen önce
// yeniden okunur, bayat kopya üzerinden yazım yapılmaz.
func Apply(tx *gorm.DB, outletID uint, kind models.TransactionKind, amount int64, desc, relatedOrderNo, handler string) (*models.Transaction, error) {
	var rec models.BalanceRecord
	if err := tx.Where("outlet_id = ?", outletID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("bakiye okunamadı: %w", err)
	}

	var outlet models.Outlet
	if err := tx.First(&outlet, outletID).Error; err != nil {
		return nil, fmt.Errorf("bayi okunamadı: %w", err)
	}

	newPrepaid, newUsedCredit := kind.Apply(rec.PrepaidBalance, rec.UsedCredit, amount)
	if newPrepaid < 0 || newUsedCredit < 0 {
		return nil, fmt.Errorf("%w: prepaid=%d, used_credit=%d", ErrNegativeBalance, newPrepaid, newUsedCredit)
	}
	// used_credit > credit_limit burada engellenmez; limit kontrolü ödeme anında
	// yapılır, operatör düzeltmeleri limiti aşabilir ve mutabakat denetçisi raporlar.

	row := models.Transaction{
		OutletID:            outletID,
		OutletCode:          outlet.Code,
		OutletName:          outlet.Name,
		Kind:                kind,
		Description:         desc,
		Amount:              amount,
		ResultingPrepaid:    newPrepaid,
		ResultingUsedCredit: newUsedCredit,
		RelatedOrderNo:      relatedOrderNo,
		Handler:             handler,
		IdempotencyKey:      uuid.NewString(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("işlem kaydı yazılamadı: %w", err)
	}

	err := tx.Model(&models.BalanceRecord{}).
		Where("outlet_id = ?", outletID).
		Updates(map[string]interface{}{
			"prepaid_balance": newPrepaid,
			"used_credit":     newUsedCredit,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("bakiye güncellenemedi: %w", err)
	}

	return &row, nil
}

// Get: bayinin bakiye özeti.
func Get(db *gorm.DB, outletID uint) (*models.BalanceRecord, error) {
	var rec models.BalanceRecord
	if err := db.Where("outlet_id = ?", outletID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ManualAdjustField: operatörün drift düzeltmesi. prepaid_balance ve used_credit
// değişiklikleri işlem günlüğüne de yazılır; credit_limit yalnızca audit'e gider
// çünkü limit, para hareketi defterinin parçası değildir.
func ManualAdjustField(db *gorm.DB, outletID uint, field string, delta int64, reason, handler string) (before, after int64, err error) {
	if delta == 0 {
		return 0, 0, errors.New("düzeltme miktarı sıfır olamaz")
	}
	if reason == "" {
		return 0, 0, errors.New("düzeltme gerekçesi zorunlu")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		rec, gerr := Get(tx, outletID)
		if gerr != nil {
			return gerr
		}

		switch field {
		case "credit_limit":
			before = rec.CreditLimit
			after = before + delta
			if after < 0 {
				return fmt.Errorf("%w: credit_limit=%d", ErrNegativeBalance, after)
			}
			return tx.Model(&models.BalanceRecord{}).
				Where("outlet_id = ?", outletID).
				Update("credit_limit", after).Error

		case "prepaid_balance":
			before = rec.PrepaidBalance
			after = before + delta
			_, aerr := Apply(tx, outletID, models.TxManualPrepaidAdjust, delta, reason, "", handler)
			return aerr

		case "used_credit":
			before = rec.UsedCredit
			after = before + delta
			_, aerr := Apply(tx, outletID, models.TxManualCreditAdjust, delta, reason, "", handler)
			return aerr

		default:
			return fmt.Errorf("bilinmeyen alan: %s", field)
		}
	})
	return before, after, err
}
