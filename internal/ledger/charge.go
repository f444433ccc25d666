package ledger

import (
	"errors"
	"fmt"
	"time"

	"tedarik-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRequestNotPending = errors.New("istek zaten işlenmiş")
	ErrReasonRequired    = errors.New("ret gerekçesi zorunlu")
)

// CreateChargeRequest: bayinin ön yükleme / geri ödeme bildirimi. Bakiyeye
// dokunmaz, operatör onayına düşer.
func CreateChargeRequest(db *gorm.DB, outletID uint, depositor string, amount int64, kind models.ChargeKind) (*models.ChargeRequest, error) {
	if depositor == "" {
		return nil, errors.New("havale yapanın adı zorunlu")
	}
	if amount <= 0 {
		return nil, errors.New("tutar pozitif olmalı")
	}

	var outlet models.Outlet
	if err := db.First(&outlet, outletID).Error; err != nil {
		return nil, fmt.Errorf("bayi bulunamadı: %w", err)
	}

	if kind == models.ChargeKindRepayment {
		rec, err := Get(db, outletID)
		if err != nil {
			return nil, err
		}

		// Bekleyen geri ödeme istekleri düşüldükten sonra kalan borç kadar istenebilir.
		var pendingSum int64
		err = db.Model(&models.ChargeRequest{}).
			Where("outlet_id = ? AND kind = ? AND status = ?", outletID, models.ChargeKindRepayment, models.ChargeRequested).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&pendingSum).Error
		if err != nil {
			return nil, fmt.Errorf("bekleyen istekler okunamadı: %w", err)
		}

		repayable := rec.UsedCredit - pendingSum
		if repayable < 0 {
			repayable = 0
		}
		if amount > repayable {
			return nil, fmt.Errorf("geri ödeme tutarı kalan borcu aşamaz (kalan: %d)", repayable)
		}
	}

	req := models.ChargeRequest{
		OutletID:   outletID,
		OutletName: outlet.Name,
		Depositor:  depositor,
		Amount:     amount,
		Kind:       kind,
		Status:     models.ChargeRequested,
	}
	if err := db.Create(&req).Error; err != nil {
		return nil, fmt.Errorf("istek kaydedilemedi: %w", err)
	}
	return &req, nil
}

// ApproveChargeRequest: isteği bakiyeye işler. Ön yükleme doğrudan prepaid'e
// eklenir; geri ödeme önce borcu kapatır, artan kısım ayrı bir deposit kaydı
// olarak prepaid'e yazılır (karma hareket ray başına ayrılır).
func ApproveChargeRequest(db *gorm.DB, requestID uint, handler string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var req models.ChargeRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return fmt.Errorf("istek bulunamadı: %w", err)
		}
		if req.Status != models.ChargeRequested {
			return ErrRequestNotPending
		}

		switch req.Kind {
		case models.ChargeKindDeposit:
			desc := fmt.Sprintf("Ön yükleme onayı (%s)", req.Depositor)
			if _, err := Apply(tx, req.OutletID, models.TxDeposit, req.Amount, desc, "", handler); err != nil {
				return err
			}

		case models.ChargeKindRepayment:
			rec, err := Get(tx, req.OutletID)
			if err != nil {
				return err
			}
			applied := req.Amount
			if applied > rec.UsedCredit {
				applied = rec.UsedCredit
			}
			if applied > 0 {
				desc := fmt.Sprintf("Kredi geri ödemesi (%s)", req.Depositor)
				if _, err := Apply(tx, req.OutletID, models.TxCreditRepayment, applied, desc, "", handler); err != nil {
					return err
				}
			}
			if overflow := req.Amount - applied; overflow > 0 {
				desc := fmt.Sprintf("Geri ödeme fazlası, ön yüklemeye aktarıldı (%s)", req.Depositor)
				if _, err := Apply(tx, req.OutletID, models.TxDeposit, overflow, desc, "", handler); err != nil {
					return err
				}
			}

		default:
			return fmt.Errorf("bilinmeyen istek türü: %s", req.Kind)
		}

		now := time.Now()
		return tx.Model(&req).Updates(map[string]interface{}{
			"status":       models.ChargeApproved,
			"processed_by": handler,
			"processed_at": now,
		}).Error
	})
}

// RejectChargeRequest: gerekçe zorunlu; bakiyeye dokunulmaz.
func RejectChargeRequest(db *gorm.DB, requestID uint, reason, handler string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var req models.ChargeRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			return fmt.Errorf("istek bulunamadı: %w", err)
		}
		if req.Status != models.ChargeRequested {
			return ErrRequestNotPending
		}

		now := time.Now()
		return tx.Model(&req).Updates(map[string]interface{}{
			"status":         models.ChargeRejected,
			"process_reason": reason,
			"processed_by":   handler,
			"processed_at":   now,
		}).Error
	})
}
