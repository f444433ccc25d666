package recon

import (
	"tedarik-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/recon
// Dört denetimi çalıştırır ve genel durumu raporlar. Salt okunur.
func RunChecksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auditor := NewAuditor(database.DB)
		results := auditor.RunAll()

		overall := StatusOK
		for _, r := range results {
			if r.Status == StatusError {
				overall = StatusError
				break
			}
			if r.Status == StatusWarning {
				overall = StatusWarning
			}
		}

		return c.JSON(fiber.Map{
			"overall": overall,
			"checks":  results,
		})
	}
}
