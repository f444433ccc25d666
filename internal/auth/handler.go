package auth

import (
	"strings"

	"tedarik-backend/internal/config"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterAdminRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// POST /api/auth/register-admin
// İlk kurulum için; zaten bir admin varsa ikincisine izin verilmez.
func RegisterAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Code = strings.TrimSpace(strings.ToLower(body.Code))

		if body.Code == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kod, isim ve şifre zorunlu")
		}

		var count int64
		database.DB.Model(&models.Outlet{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir admin var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		admin := models.Outlet{
			Code:         body.Code,
			Name:         body.Name,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			Active:       true,
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Admin oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":   admin.ID,
			"code": admin.Code,
			"role": admin.Role,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Code = strings.TrimSpace(strings.ToLower(body.Code))

		var outlet models.Outlet
		if err := database.DB.Where("code = ?", body.Code).First(&outlet).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kod veya şifre hatalı")
		}

		if !outlet.Active {
			return fiber.NewError(fiber.StatusForbidden, "Hesap pasif durumda")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(outlet.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Kod veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &outlet)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":   outlet.ID,
				"code": outlet.Code,
				"name": outlet.Name,
				"role": outlet.Role,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		outletID, err := CurrentOutletID(c)
		if err != nil {
			return err
		}

		var outlet models.Outlet
		if err := database.DB.First(&outlet, outletID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Hesap bulunamadı")
		}

		return c.JSON(fiber.Map{
			"id":            outlet.ID,
			"code":          outlet.Code,
			"name":          outlet.Name,
			"role":          outlet.Role,
			"business_name": outlet.BusinessName,
			"owner":         outlet.Owner,
			"address":       outlet.Address,
			"active":        outlet.Active,
		})
	}
}
