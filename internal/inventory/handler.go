package inventory

import (
	"fmt"
	"time"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/auth"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductionItem struct {
	ItemCode string `json:"item_code"`
	Quantity int64  `json:"quantity"`
}

type AddProductionRequest struct {
	Date  string           `json:"date"` // "2025-12-09"
	Items []ProductionItem `json:"items"`
}

type AdjustStockRequest struct {
	Date     string `json:"date"`
	ItemCode string `json:"item_code"`
	Delta    int64  `json:"delta"`
	Reason   string `json:"reason"`
}

type StockResponse struct {
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Stock    int64  `json:"stock"`
}

type InventoryLogResponse struct {
	ID             uint   `json:"id"`
	LogTime        string `json:"log_time"`
	EffectiveDate  string `json:"effective_date"`
	ItemCode       string `json:"item_code"`
	ItemName       string `json:"item_name"`
	Kind           string `json:"kind"`
	QuantityDelta  int64  `json:"quantity_delta"`
	ResultingStock int64  `json:"resulting_stock"`
	ReferenceID    string `json:"reference_id"`
	Handler        string `json:"handler"`
	Reason         string `json:"reason"`
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

func parseWorkDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}

// POST /api/admin/inventory/production
// Günlük üretim girişi: her kalem için pozitif bir "produce" kaydı.
func AddProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddProductionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kalem girilmeli")
		}

		workDate, err := parseWorkDate(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		movements := make([]Movement, 0, len(body.Items))
		for _, item := range body.Items {
			if item.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Üretim miktarı pozitif olmalı (%s)", item.ItemCode))
			}
			var product models.Product
			if err := database.DB.Where("code = ?", item.ItemCode).First(&product).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Kalem bulunamadı: %s", item.ItemCode))
			}
			movements = append(movements, Movement{ItemCode: product.Code, ItemName: product.Name, Delta: item.Quantity})
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			return Append(tx, models.InvChangeProduce, movements, workDate, "", actorName, "")
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üretim girişi kaydedilemedi")
		}

		audit.RecordFieldChange(actorID, actorName, "uretim_girisi", "", "", "", "", fmt.Sprintf("%d kalem", len(movements)), "")

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("%d kalem üretim girişi kaydedildi", len(movements)),
		})
	}
}

// POST /api/admin/inventory/adjust
// Elle stok düzeltmesi; gerekçe zorunlu.
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustStockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Delta == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Düzeltme miktarı sıfır olamaz")
		}
		if body.Reason == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Düzeltme gerekçesi zorunlu")
		}

		workDate, err := parseWorkDate(body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		var product models.Product
		if err := database.DB.Where("code = ?", body.ItemCode).First(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kalem bulunamadı")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		movement := Movement{ItemCode: product.Code, ItemName: product.Name, Delta: body.Delta}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			return Append(tx, models.InvChangeAdjust, []Movement{movement}, workDate, "", actorName, body.Reason)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok düzeltmesi kaydedilemedi")
		}

		audit.RecordFieldChange(actorID, actorName, "stok_duzeltme", product.Code, product.Name, "stok", "", body.Delta, body.Reason)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stok düzeltmesi kaydedildi"})
	}
}

// GET /api/inventory/stock?as_of=2025-12-09
// Katalogdaki her kalem için günlükten türetilen stok.
func CurrentStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		asOf := time.Now()
		if s := c.Query("as_of"); s != "" {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "as_of formatı 'YYYY-MM-DD' olmalı")
			}
			asOf = d
		}

		var products []models.Product
		if err := database.DB.Order("code").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Katalog okunamadı")
		}

		ledger := NewLedger(database.DB)
		stock, err := ledger.CurrentStockAll(asOf)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok hesaplanamadı")
		}

		resp := make([]StockResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, StockResponse{
				ItemCode: p.Code,
				ItemName: p.Name,
				Category: p.Category,
				Unit:     p.Unit,
				Stock:    stock[p.Code],
			})
		}
		return c.JSON(resp)
	}
}

// GET /api/admin/inventory/log?item_code=P001&from=...&to=...&limit=50&offset=0
func ListInventoryLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.InventoryLogEntry{})

		if code := c.Query("item_code"); code != "" {
			dbq = dbq.Where("item_code = ?", code)
		}
		if kind := c.Query("kind"); kind != "" {
			dbq = dbq.Where("kind = ?", kind)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("effective_date >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("effective_date < ?", to.AddDate(0, 0, 1))
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
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıtlar sayılamadı")
		}

		var entries []models.InventoryLogEntry
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok günlüğü listelenemedi")
		}

		resp := make([]InventoryLogResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, InventoryLogResponse{
				ID:             e.ID,
				LogTime:        e.CreatedAt.Format("2006-01-02 15:04:05"),
				EffectiveDate:  e.EffectiveDate.Format("2006-01-02"),
				ItemCode:       e.ItemCode,
				ItemName:       e.ItemName,
				Kind:           string(e.Kind),
				QuantityDelta:  e.QuantityDelta,
				ResultingStock: e.ResultingStock,
				ReferenceID:    e.ReferenceID,
				Handler:        e.Handler,
				Reason:         e.Reason,
			})
		}

		return c.JSON(fiber.Map{"total": total, "entries": resp})
	}
}
