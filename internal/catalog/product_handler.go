package catalog

import (
	"errors"
	"fmt"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Price    int64  `json:"price"`
	TaxClass string `json:"tax_class"` // "taxable" | "exempt"
}

type UpdateProductRequest struct {
	Name     *string `json:"name"`
	Spec     *string `json:"spec"`
	Category *string `json:"category"`
	Unit     *string `json:"unit"`
	Price    *int64  `json:"price"`
	TaxClass *string `json:"tax_class"`
	Active   *bool   `json:"active"`
}

type ProductResponse struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Price    int64  `json:"price"`
	TaxClass string `json:"tax_class"`
	Active   bool   `json:"active"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		Spec:     p.Spec,
		Category: p.Category,
		Unit:     p.Unit,
		Price:    p.Price,
		TaxClass: string(p.TaxClass),
		Active:   p.Active,
	}
}

func parseTaxClass(s string) (models.TaxClass, error) {
	switch models.TaxClass(s) {
	case models.TaxClassTaxable, models.TaxClassExempt:
		return models.TaxClass(s), nil
	}
	return "", fmt.Errorf("geçersiz vergi sınıfı: %s", s)
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kod ve isim zorunlu")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}
		taxClass, err := parseTaxClass(body.TaxClass)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var existing models.Product
		if err := database.DB.Where("code = ?", body.Code).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu kod zaten kayıtlı")
		}

		product := models.Product{
			Code:     body.Code,
			Name:     body.Name,
			Spec:     body.Spec,
			Category: body.Category,
			Unit:     body.Unit,
			Price:    body.Price,
			TaxClass: taxClass,
			Active:   true,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem kaydedilemedi")
		}

		actorID, actorName, aerr := currentActor(c)
		if aerr == nil {
			audit.RecordFieldChange(actorID, actorName, "kalem_ekleme", product.Code, product.Name, "", "", "", "")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(product))
	}
}

// GET /api/products?category=...&active=true
// Bayiler sipariş formu için aktif katalogu buradan çeker.
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})
		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}
		if active := c.Query("active"); active != "" {
			dbq = dbq.Where("active = ?", active == "true")
		}

		var products []models.Product
		if err := dbq.Order("code").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Katalog listelenemedi")
		}

		resp := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, toProductResponse(p))
		}
		return c.JSON(resp)
	}
}

// PUT /api/admin/products/:id
// Fiyat değişikliği fiyat geçmişine ayrıca yazılır.
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem okunamadı")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		recordChange := func(field string, before, after any) {
			audit.RecordFieldChange(actorID, actorName, "kalem_guncelleme", product.Code, product.Name, field, before, after, "")
		}

		if body.Name != nil && *body.Name != product.Name {
			updates["name"] = *body.Name
			recordChange("name", product.Name, *body.Name)
		}
		if body.Spec != nil && *body.Spec != product.Spec {
			updates["spec"] = *body.Spec
			recordChange("spec", product.Spec, *body.Spec)
		}
		if body.Category != nil && *body.Category != product.Category {
			updates["category"] = *body.Category
			recordChange("category", product.Category, *body.Category)
		}
		if body.Unit != nil && *body.Unit != product.Unit {
			updates["unit"] = *body.Unit
			recordChange("unit", product.Unit, *body.Unit)
		}
		if body.TaxClass != nil && *body.TaxClass != string(product.TaxClass) {
			taxClass, terr := parseTaxClass(*body.TaxClass)
			if terr != nil {
				return fiber.NewError(fiber.StatusBadRequest, terr.Error())
			}
			updates["tax_class"] = taxClass
			recordChange("tax_class", string(product.TaxClass), string(taxClass))
		}
		if body.Active != nil && *body.Active != product.Active {
			updates["active"] = *body.Active
			recordChange("active", product.Active, *body.Active)
		}

		priceChanged := body.Price != nil && *body.Price != product.Price
		if priceChanged {
			if *body.Price < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
			}
			updates["price"] = *body.Price
			recordChange("price", product.Price, *body.Price)
		}

		if len(updates) == 0 {
			return c.JSON(fiber.Map{"message": "Değişiklik yok"})
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return err
			}
			if priceChanged {
				history := models.PriceHistory{
					ItemCode: product.Code,
					ItemName: product.Name,
					OldPrice: product.Price,
					NewPrice: *body.Price,
				}
				return tx.Create(&history).Error
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem güncellenemedi")
		}

		return c.JSON(fiber.Map{"message": "Kalem güncellendi"})
	}
}

// DELETE /api/admin/products/:id
// Kalem silinmez, pasifleştirilir: eski sipariş kalemleri koda referans verir.
func DeactivateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem ID")
		}

		var product models.Product
		if err := database.DB.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
		}

		if err := database.DB.Model(&product).Update("active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem pasifleştirilemedi")
		}

		actorID, actorName, err := currentActor(c)
		if err == nil {
			audit.RecordFieldChange(actorID, actorName, "kalem_pasiflestirme", product.Code, product.Name, "active", true, false, "")
		}

		return c.JSON(fiber.Map{"message": "Kalem pasifleştirildi"})
	}
}

// GET /api/admin/products/price-history?item_code=P001
func ListPriceHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.PriceHistory{})
		if code := c.Query("item_code"); code != "" {
			dbq = dbq.Where("item_code = ?", code)
		}

		var history []models.PriceHistory
		if err := dbq.Order("created_at DESC, id DESC").Limit(200).Find(&history).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat geçmişi listelenemedi")
		}
		return c.JSON(history)
	}
}
