package order

import (
	"errors"
	"strings"
	"time"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/auth"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubmitOrderRequest struct {
	Lines         []LineInput `json:"lines"`
	PaymentMethod string      `json:"payment_method"` // "prepaid" | "credit"
	Note          string      `json:"note"`
}

type OrderNosRequest struct {
	OrderNos []string `json:"order_nos"`
}

type RejectOrdersRequest struct {
	OrderNos []string `json:"order_nos"`
	Reason   string   `json:"reason"`
}

type EditOrderRequest struct {
	Lines []LineInput `json:"lines"`
}

type OrderLineResponse struct {
	ItemCode     string `json:"item_code"`
	ItemName     string `json:"item_name"`
	Unit         string `json:"unit"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	SupplyAmount int64  `json:"supply_amount"`
	TaxAmount    int64  `json:"tax_amount"`
	LineTotal    int64  `json:"line_total"`
}

type OrderResponse struct {
	ID           uint                `json:"id"`
	OrderNo      string              `json:"order_no"`
	OutletCode   string              `json:"outlet_code"`
	OutletName   string              `json:"outlet_name"`
	Status       string              `json:"status"`
	TotalAmount  int64               `json:"total_amount"`
	Note         string              `json:"note,omitempty"`
	Handler      string              `json:"handler,omitempty"`
	HandledAt    string              `json:"handled_at,omitempty"`
	RejectReason string              `json:"reject_reason,omitempty"`
	CreatedAt    string              `json:"created_at"`
	Lines        []OrderLineResponse `json:"lines"`
}

func toOrderResponse(o models.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		OrderNo:      o.OrderNo,
		OutletCode:   o.OutletCode,
		OutletName:   o.OutletName,
		Status:       string(o.Status),
		TotalAmount:  o.TotalAmount,
		Note:         o.Note,
		Handler:      o.Handler,
		RejectReason: o.RejectReason,
		CreatedAt:    o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if o.HandledAt != nil {
		resp.HandledAt = o.HandledAt.Format("2006-01-02 15:04:05")
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ItemCode:     l.ItemCode,
			ItemName:     l.ItemName,
			Unit:         l.Unit,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			SupplyAmount: l.SupplyAmount,
			TaxAmount:    l.TaxAmount,
			LineTotal:    l.LineTotal,
		})
	}
	return resp
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

func workflowError(err error) error {
	var shortage *StockShortageError
	switch {
	case errors.As(err, &shortage):
		return fiber.NewError(fiber.StatusConflict, shortage.Error())
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrReasonRequired):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// POST /api/orders
func SubmitOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SubmitOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		outletID, err := auth.CurrentOutletID(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		o, err := wf.Submit(outletID, body.Lines, PaymentMethod(body.PaymentMethod), body.Note)
		if err != nil {
			return workflowError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(*o))
	}
}

// GET /api/orders/my?status=pending&limit=50&offset=0
func ListMyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outletID, err := auth.CurrentOutletID(c)
		if err != nil {
			return err
		}
		return listOrders(c, database.DB.Where("outlet_id = ?", outletID))
	}
}

// GET /api/admin/orders?status=pending&outlet_code=ST001&from=...&to=...
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB
		if code := c.Query("outlet_code"); code != "" {
			dbq = dbq.Where("outlet_code = ?", code)
		}
		return listOrders(c, dbq)
	}
}

func listOrders(c *fiber.Ctx, dbq *gorm.DB) error {
	dbq = dbq.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		dbq = dbq.Where("status = ?", status)
	}
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
		return fiber.NewError(fiber.StatusInternalServerError, "Siparişler sayılamadı")
	}

	var orders []models.Order
	if err := dbq.Preload("Lines").Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	return c.JSON(fiber.Map{"total": total, "orders": resp})
}

// POST /api/orders/cancel
// Bayinin kendi bekleyen siparişlerini iptali.
func CancelMyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OrderNosRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.OrderNos) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş seçilmeli")
		}

		outletID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.CancelByOutlet(body.OrderNos, outletID, actorName)
		if err != nil {
			return workflowError(err)
		}

		return c.JSON(result)
	}
}

// POST /api/admin/orders/approve
// Ya parti bütün olarak onaylanır ya hiç; açık varsa 409 ve kalem listesi döner.
func ApproveOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OrderNosRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.OrderNos) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş seçilmeli")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.Approve(body.OrderNos, actorName)
		if err != nil {
			var shortage *StockShortageError
			if errors.As(err, &shortage) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":      "Stok yetersiz, hiçbir sipariş onaylanmadı",
					"shortfalls": shortage.Shortfalls,
				})
			}
			return workflowError(err)
		}

		audit.RecordFieldChange(actorID, actorName, "siparis_onay", strings.Join(result.Processed, ", "), "", "status", string(models.OrderPending), string(models.OrderApproved), "")

		return c.JSON(result)
	}
}

// POST /api/admin/orders/reject
func RejectOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RejectOrdersRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.OrderNos) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş seçilmeli")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.Reject(body.OrderNos, actorName, body.Reason)
		if err != nil {
			return workflowError(err)
		}

		audit.RecordFieldChange(actorID, actorName, "siparis_ret", strings.Join(result.Processed, ", "), "", "status", string(models.OrderPending), string(models.OrderRejected), body.Reason)

		return c.JSON(result)
	}
}

// POST /api/admin/orders/revert
// Onaylı/sevk edilmiş siparişleri stok iadesiyle beklemeye geri alır.
func RevertOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OrderNosRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.OrderNos) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş seçilmeli")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.RevertApprovalToPending(body.OrderNos, actorName)
		if err != nil {
			return workflowError(err)
		}

		audit.RecordFieldChange(actorID, actorName, "siparis_onay_geri_al", strings.Join(result.Processed, ", "), "", "status", string(models.OrderApproved), string(models.OrderPending), "")

		return c.JSON(result)
	}
}

// POST /api/admin/orders/ship
func MarkShippedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OrderNosRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.OrderNos) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir sipariş seçilmeli")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.MarkShipped(body.OrderNos, actorName)
		if err != nil {
			return workflowError(err)
		}

		audit.RecordFieldChange(actorID, actorName, "siparis_sevk", strings.Join(result.Processed, ", "), "", "status", string(models.OrderApproved), string(models.OrderShipped), "")

		return c.JSON(result)
	}
}

// PUT /api/admin/orders/:order_no/edit
// Gövde yeni kalem kümesinin tamamıdır; tüm miktarlar sıfırsa sipariş tamamen
// iptal edilir, yoksa düzenlenmiş yeni bir sipariş açılır.
func EditOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderNo := c.Params("order_no")
		if orderNo == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Sipariş numarası zorunlu")
		}

		var body EditOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		wf := NewWorkflow(database.DB)
		result, err := wf.Edit(orderNo, body.Lines, actorName)
		if err != nil {
			return workflowError(err)
		}

		if result.Canceled {
			audit.RecordFieldChange(actorID, actorName, "siparis_duzenleme_iptal", orderNo, "", "status", "", string(models.OrderCanceledByAdmin), "Tüm kalemler sıfırlandı")
		} else {
			audit.RecordFieldChange(actorID, actorName, "siparis_duzenleme", orderNo, "", "replacement", orderNo, result.ReplacementNo, "")
		}

		return c.JSON(result)
	}
}
