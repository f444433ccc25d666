package main

import (
	"log"
	"strings"

	"tedarik-backend/internal/audit"
	"tedarik-backend/internal/auth"
	"tedarik-backend/internal/catalog"
	"tedarik-backend/internal/config"
	"tedarik-backend/internal/database"
	"tedarik-backend/internal/inventory"
	"tedarik-backend/internal/ledger"
	"tedarik-backend/internal/models"
	"tedarik-backend/internal/order"
	"tedarik-backend/internal/recon"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Katalog (bayiler sipariş formu için buradan okur)
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Get("/inventory/stock", inventory.CurrentStockHandler())

	// Bayi sipariş akışı
	protected.Post("/orders", order.SubmitOrderHandler())
	protected.Get("/orders/my", order.ListMyOrdersHandler())
	protected.Post("/orders/cancel", order.CancelMyOrdersHandler())

	// Bayi bakiye ve yükleme istekleri
	protected.Get("/balance", ledger.GetBalanceHandler())
	protected.Get("/transactions", ledger.ListTransactionsHandler())
	protected.Post("/charge-requests", ledger.CreateChargeRequestHandler())
	protected.Get("/charge-requests", ledger.ListChargeRequestsHandler())

	// Operatör route'ları
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Bayi yönetimi
	adminRoutes.Post("/outlets", catalog.CreateOutletHandler())
	adminRoutes.Get("/outlets", catalog.ListOutletsHandler())
	adminRoutes.Put("/outlets/:id", catalog.UpdateOutletHandler())
	adminRoutes.Delete("/outlets/:id", catalog.DeactivateOutletHandler())
	adminRoutes.Post("/outlets/:id/balance-init", catalog.InitBalanceHandler())

	// Katalog yönetimi
	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", catalog.DeactivateProductHandler())
	adminRoutes.Get("/products/price-history", catalog.ListPriceHistoryHandler())

	// Sipariş operasyonları
	adminRoutes.Get("/orders", order.ListOrdersHandler())
	adminRoutes.Post("/orders/approve", order.ApproveOrdersHandler())
	adminRoutes.Post("/orders/reject", order.RejectOrdersHandler())
	adminRoutes.Post("/orders/revert", order.RevertOrdersHandler())
	adminRoutes.Post("/orders/ship", order.MarkShippedHandler())
	adminRoutes.Put("/orders/:order_no/edit", order.EditOrderHandler())

	// Bakiye operasyonları
	adminRoutes.Get("/balances", ledger.ListBalancesHandler())
	adminRoutes.Post("/balances/adjust", ledger.ManualAdjustHandler())
	adminRoutes.Post("/charge-requests/:id/process", ledger.ProcessChargeRequestHandler())

	// Stok operasyonları
	adminRoutes.Post("/inventory/production", inventory.AddProductionHandler())
	adminRoutes.Post("/inventory/adjust", inventory.AdjustStockHandler())
	adminRoutes.Get("/inventory/log", inventory.ListInventoryLogHandler())

	// Mutabakat ve idari işlem günlüğü
	adminRoutes.Get("/recon", recon.RunChecksHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditEntriesHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
