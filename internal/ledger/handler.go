package ledger

import (
	"errors"
	"fmt"
	"time"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/auth"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type BalanceResponse struct {
	OutletID        uint   `json:"outlet_id"`
	OutletName      string `json:"outlet_name"`
	PrepaidBalance  int64  `json:"prepaid_balance"`
	CreditLimit     int64  `json:"credit_limit"`
	UsedCredit      int64  `json:"used_credit"`
	AvailableCredit int64  `json:"available_credit"`
}

type TransactionResponse struct {
	ID                  uint   `json:"id"`
	CreatedAt           string `json:"created_at"`
	OutletCode          string `json:"outlet_code"`
	OutletName          string `json:"outlet_name"`
	Kind                string `json:"kind"`
	Description         string `json:"description"`
	Amount              int64  `json:"amount"`
	ResultingPrepaid    int64  `json:"resulting_prepaid"`
	ResultingUsedCredit int64  `json:"resulting_used_credit"`
	RelatedOrderNo      string `json:"related_order_no"`
	Handler             string `json:"handler"`
}

type CreateChargeRequestRequest struct {
	Depositor string `json:"depositor"`
	Amount    int64  `json:"amount"`
	Kind      string `json:"kind"` // "deposit" / "repayment"
}

type ChargeRequestResponse struct {
	ID            uint   `json:"id"`
	CreatedAt     string `json:"created_at"`
	OutletID      uint   `json:"outlet_id"`
	OutletName    string `json:"outlet_name"`
	Depositor     string `json:"depositor"`
	Amount        int64  `json:"amount"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	ProcessReason string `json:"process_reason"`
}

type ProcessChargeRequestRequest struct {
	Action string `json:"action"` // "approve" / "reject"
	Reason string `json:"reason"`
}

type ManualAdjustRequest struct {
	OutletID uint   `json:"outlet_id"`
	Field    string `json:"field"` // "prepaid_balance" / "credit_limit" / "used_credit"
	Delta    int64  `json:"delta"`
	Reason   string `json:"reason"`
}

func currentActor(c *fiber.Ctx) (uint, string, error) {
	actorID, err := auth.CurrentOutletID(c)
	if err != nil {
		return 0, "", err
	}
	var actor models.Outlet
	if err := database.DB.First(&actor, actorID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}
	return actorID, actor.Name, nil
}

// Bayi kendi kaydını görür; admin outlet_id query'si ile herhangi birini.
func resolveOutletID(c *fiber.Ctx) (uint, error) {
	role, err := auth.CurrentRole(c)
	if err != nil {
		return 0, err
	}
	if role == models.RoleOutlet {
		return auth.CurrentOutletID(c)
	}

	idStr := c.Query("outlet_id")
	if idStr == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "outlet_id zorunlu")
	}
	var id uint
	if _, err := fmt.Sscan(idStr, &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "outlet_id geçersiz")
	}
	return id, nil
}

func toBalanceResponse(rec *models.BalanceRecord) BalanceResponse {
	return BalanceResponse{
		OutletID:        rec.OutletID,
		OutletName:      rec.OutletName,
		PrepaidBalance:  rec.PrepaidBalance,
		CreditLimit:     rec.CreditLimit,
		UsedCredit:      rec.UsedCredit,
		AvailableCredit: rec.AvailableCredit(),
	}
}

// GET /api/balance?outlet_id=1
func GetBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outletID, err := resolveOutletID(c)
		if err != nil {
			return err
		}

		rec, err := Get(database.DB, outletID)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bakiye kaydı bulunamadı")
		}
		return c.JSON(toBalanceResponse(rec))
	}
}

// GET /api/admin/balances
func ListBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var recs []models.BalanceRecord
		if err := database.DB.Order("outlet_id").Find(&recs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiyeler listelenemedi")
		}

		resp := make([]BalanceResponse, 0, len(recs))
		for i := range recs {
			resp = append(resp, toBalanceResponse(&recs[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/transactions?outlet_id=1&from=...&to=...&limit=50&offset=0
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outletID, err := resolveOutletID(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.Transaction{}).Where("outlet_id = ?", outletID)

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
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler sayılamadı")
		}

		var txs []models.Transaction
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		resp := make([]TransactionResponse, 0, len(txs))
		for _, tx := range txs {
			resp = append(resp, TransactionResponse{
				ID:                  tx.ID,
				CreatedAt:           tx.CreatedAt.Format("2006-01-02 15:04:05"),
				OutletCode:          tx.OutletCode,
				OutletName:          tx.OutletName,
				Kind:                string(tx.Kind),
				Description:         tx.Description,
				Amount:              tx.Amount,
				ResultingPrepaid:    tx.ResultingPrepaid,
				ResultingUsedCredit: tx.ResultingUsedCredit,
				RelatedOrderNo:      tx.RelatedOrderNo,
				Handler:             tx.Handler,
			})
		}

		return c.JSON(fiber.Map{"total": total, "transactions": resp})
	}
}

// POST /api/charge-requests
func CreateChargeRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateChargeRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		kind := models.ChargeKind(body.Kind)
		if kind != models.ChargeKindDeposit && kind != models.ChargeKindRepayment {
			return fiber.NewError(fiber.StatusBadRequest, "kind 'deposit' veya 'repayment' olmalı")
		}

		outletID, err := auth.CurrentOutletID(c)
		if err != nil {
			return err
		}

		req, err := CreateChargeRequest(database.DB, outletID, body.Depositor, body.Amount, kind)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      req.ID,
			"message": "Bildirim alındı, operatör onayından sonra bakiyeye işlenecek",
		})
	}
}

// GET /api/charge-requests?status=requested
func ListChargeRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, err := auth.CurrentRole(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.ChargeRequest{})
		if role == models.RoleOutlet {
			outletID, err := auth.CurrentOutletID(c)
			if err != nil {
				return err
			}
			dbq = dbq.Where("outlet_id = ?", outletID)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var reqs []models.ChargeRequest
		if err := dbq.Order("created_at DESC").Find(&reqs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İstekler listelenemedi")
		}

		resp := make([]ChargeRequestResponse, 0, len(reqs))
		for _, r := range reqs {
			resp = append(resp, ChargeRequestResponse{
				ID:            r.ID,
				CreatedAt:     r.CreatedAt.Format("2006-01-02 15:04:05"),
				OutletID:      r.OutletID,
				OutletName:    r.OutletName,
				Depositor:     r.Depositor,
				Amount:        r.Amount,
				Kind:          string(r.Kind),
				Status:        string(r.Status),
				ProcessReason: r.ProcessReason,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/charge-requests/:id/process
func ProcessChargeRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reqID uint
		if _, err := fmt.Sscan(c.Params("id"), &reqID); err != nil || reqID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek ID")
		}

		var body ProcessChargeRequestRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		var req models.ChargeRequest
		if err := database.DB.First(&req, reqID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İstek bulunamadı")
		}

		switch body.Action {
		case "approve":
			err = ApproveChargeRequest(database.DB, reqID, actorName)
		case "reject":
			err = RejectChargeRequest(database.DB, reqID, body.Reason, actorName)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "action 'approve' veya 'reject' olmalı")
		}
		if err != nil {
			if errors.Is(err, ErrRequestNotPending) || errors.Is(err, ErrReasonRequired) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		audit.RecordFieldChange(actorID, actorName, "yukleme_istegi_isleme",
			fmt.Sprint(req.OutletID), req.OutletName, "status",
			models.ChargeRequested, body.Action, body.Reason)

		return c.JSON(fiber.Map{"message": "İstek işlendi"})
	}
}

// POST /api/admin/balances/adjust
// Elle bakiye düzeltmesi. credit_limit değişiklikleri işlem günlüğüne yazılmaz,
// yalnızca audit'e düşer.
func ManualAdjustHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ManualAdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.OutletID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "outlet_id zorunlu")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		var outlet models.Outlet
		if err := database.DB.First(&outlet, body.OutletID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bayi bulunamadı")
		}

		before, after, err := ManualAdjustField(database.DB, body.OutletID, body.Field, body.Delta, body.Reason, actorName)
		if err != nil {
			if errors.Is(err, ErrNegativeBalance) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		audit.RecordFieldChange(actorID, actorName, "bakiye_duzeltme",
			fmt.Sprint(body.OutletID), outlet.Name, body.Field, before, after, body.Reason)

		return c.JSON(fiber.Map{
			"message": "Düzeltme uygulandı",
			"before":  before,
			"after":   after,
		})
	}
}
