package catalog

import (
	"errors"
	"fmt"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/auth"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/ledger"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateOutletRequest struct {
	Code            string `json:"code"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	TaxRegistration string `json:"tax_registration"`
	BusinessName    string `json:"business_name"`
	Owner           string `json:"owner"`
	Address         string `json:"address"`
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
	CreditLimit     int64  `json:"credit_limit"`
}

type UpdateOutletRequest struct {
	Name            *string `json:"name"`
	TaxRegistration *string `json:"tax_registration"`
	BusinessName    *string `json:"business_name"`
	Owner           *string `json:"owner"`
	Address         *string `json:"address"`
	Category        *string `json:"category"`
	Subcategory     *string `json:"subcategory"`
	Active          *bool   `json:"active"`
	Password        *string `json:"password"`
}

type OutletResponse struct {
	ID              uint   `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	TaxRegistration string `json:"tax_registration"`
	BusinessName    string `json:"business_name"`
	Owner           string `json:"owner"`
	Address         string `json:"address"`
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory"`
	Active          bool   `json:"active"`
}

func toOutletResponse(o models.Outlet) OutletResponse {
	return OutletResponse{
		ID:              o.ID,
		Code:            o.Code,
		Name:            o.Name,
		TaxRegistration: o.TaxRegistration,
		BusinessName:    o.BusinessName,
		Owner:           o.Owner,
		Address:         o.Address,
		Category:        o.Category,
		Subcategory:     o.Subcategory,
		Active:          o.Active,
	}
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

// POST /api/admin/outlets
// Bayi açılışı: hesap ve bakiye kaydı aynı transaction'da oluşturulur.
func CreateOutletHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOutletRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Code == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kod, şifre ve isim zorunlu")
		}
		if body.CreditLimit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Kredi limiti negatif olamaz")
		}

		var existing models.Outlet
		if err := database.DB.Where("code = ?", body.Code).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu kod zaten kayıtlı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre işlenemedi")
		}

		outlet := models.Outlet{
			Code:            body.Code,
			PasswordHash:    string(hash),
			Role:            models.RoleOutlet,
			Name:            body.Name,
			TaxRegistration: body.TaxRegistration,
			BusinessName:    body.BusinessName,
			Owner:           body.Owner,
			Address:         body.Address,
			Category:        body.Category,
			Subcategory:     body.Subcategory,
			Active:          true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&outlet).Error; err != nil {
				return err
			}
			rec := models.BalanceRecord{
				OutletID:       outlet.ID,
				OutletName:     outlet.Name,
				PrepaidBalance: 0,
				CreditLimit:    body.CreditLimit,
				UsedCredit:     0,
			}
			return tx.Create(&rec).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayi kaydedilemedi")
		}

		actorID, actorName, aerr := currentActor(c)
		if aerr == nil {
			audit.RecordFieldChange(actorID, actorName, "bayi_acilis", outlet.Code, outlet.Name, "", "", "", "")
		}

		return c.Status(fiber.StatusCreated).JSON(toOutletResponse(outlet))
	}
}

// GET /api/admin/outlets?active=true
func ListOutletsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Where("role = ?", models.RoleOutlet)
		if active := c.Query("active"); active != "" {
			dbq = dbq.Where("active = ?", active == "true")
		}

		var outlets []models.Outlet
		if err := dbq.Order("code").Find(&outlets).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayiler listelenemedi")
		}

		resp := make([]OutletResponse, 0, len(outlets))
		for _, o := range outlets {
			resp = append(resp, toOutletResponse(o))
		}
		return c.JSON(resp)
	}
}

// PUT /api/admin/outlets/:id
// Yalnızca gönderilen alanlar güncellenir; her alan değişikliği audit'e yazılır.
func UpdateOutletHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bayi ID")
		}

		var body UpdateOutletRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var outlet models.Outlet
		if err := database.DB.First(&outlet, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Bayi bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Bayi okunamadı")
		}

		actorID, actorName, err := currentActor(c)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		recordChange := func(field string, before, after any) {
			audit.RecordFieldChange(actorID, actorName, "bayi_guncelleme", outlet.Code, outlet.Name, field, before, after, "")
		}

		type fieldChange struct {
			name   string
			before string
			next   *string
		}
		for _, f := range []fieldChange{
			{"name", outlet.Name, body.Name},
			{"tax_registration", outlet.TaxRegistration, body.TaxRegistration},
			{"business_name", outlet.BusinessName, body.BusinessName},
			{"owner", outlet.Owner, body.Owner},
			{"address", outlet.Address, body.Address},
			{"category", outlet.Category, body.Category},
			{"subcategory", outlet.Subcategory, body.Subcategory},
		} {
			if f.next != nil && *f.next != f.before {
				updates[f.name] = *f.next
				recordChange(f.name, f.before, *f.next)
			}
		}
		if body.Active != nil && *body.Active != outlet.Active {
			updates["active"] = *body.Active
			recordChange("active", outlet.Active, *body.Active)
		}
		if body.Password != nil && *body.Password != "" {
			hash, herr := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if herr != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Şifre işlenemedi")
			}
			updates["password_hash"] = string(hash)
			recordChange("password", "***", "***")
		}

		if len(updates) == 0 {
			return c.JSON(fiber.Map{"message": "Değişiklik yok"})
		}

		if err := database.DB.Model(&outlet).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayi güncellenemedi")
		}

		// İsim değiştiyse bakiye özetindeki kopya da güncellenir.
		if name, ok := updates["name"]; ok {
			_ = database.DB.Model(&models.BalanceRecord{}).
				Where("outlet_id = ?", outlet.ID).
				Update("outlet_name", name).Error
		}

		return c.JSON(fiber.Map{"message": "Bayi güncellendi"})
	}
}

// DELETE /api/admin/outlets/:id
// Silme yok, pasifleştirme var: geçmiş siparişler ve defter kayıtları bayiye
// referans verir.
func DeactivateOutletHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bayi ID")
		}

		var outlet models.Outlet
		if err := database.DB.First(&outlet, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bayi bulunamadı")
		}

		if err := database.DB.Model(&outlet).Update("active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayi pasifleştirilemedi")
		}

		actorID, actorName, err := currentActor(c)
		if err == nil {
			audit.RecordFieldChange(actorID, actorName, "bayi_pasiflestirme", outlet.Code, outlet.Name, "active", true, false, "")
		}

		return c.JSON(fiber.Map{"message": "Bayi pasifleştirildi"})
	}
}

// Bakiye kaydı olmayan eski bayiler için tamir ucu.
// POST /api/admin/outlets/:id/balance-init
func InitBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bayi ID")
		}

		var outlet models.Outlet
		if err := database.DB.First(&outlet, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bayi bulunamadı")
		}

		if _, err := ledger.Get(database.DB, outlet.ID); err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bakiye kaydı zaten var")
		}

		rec := models.BalanceRecord{OutletID: outlet.ID, OutletName: outlet.Name}
		if err := database.DB.Create(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiye kaydı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Bakiye kaydı oluşturuldu"})
	}
}
